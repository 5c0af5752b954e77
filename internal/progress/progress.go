// package progress implements the session counter and achievement engine.
//
// Counters and the achievement table are persisted per user through the
// store package. Achievement progress is always derived from post-increment
// counters: RecordWorkSession runs before RecomputeAchievements in every
// update cycle, and CompleteWorkSession performs the whole cycle as one
// logical update.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/focusdeck/internal/models"
	"github.com/desertthunder/focusdeck/internal/shared"
	"github.com/desertthunder/focusdeck/internal/store"
)

// SessionMinutes is the fixed length credited per completed focus session.
const SessionMinutes = 25

// Engine owns session counters and achievement state for all users.
type Engine struct {
	kv     store.KV
	log    *store.SessionLogRepository
	logger *log.Logger
}

// NewEngine creates an [Engine] backed by the given store.
//
// The session log is optional; without it completed sessions update counters
// but leave no per-session history.
func NewEngine(kv store.KV, sessions *store.SessionLogRepository, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{kv: kv, log: sessions, logger: logger}
}

// DefaultAchievements returns the six built-in achievement definitions,
// locked and with zero progress.
func DefaultAchievements() []models.Achievement {
	return []models.Achievement{
		{
			AchievementID: "first-session",
			Title:         "First Steps",
			Description:   "Complete your first focus session",
			Icon:          models.IconTarget,
			Category:      models.CategoryMilestone,
			MaxProgress:   1,
		},
		{
			AchievementID: "streak-3",
			Title:         "Getting Warmed Up",
			Description:   "Complete 3 sessions in a row",
			Icon:          models.IconFlame,
			Category:      models.CategoryStreak,
			MaxProgress:   3,
		},
		{
			AchievementID: "time-60",
			Title:         "Hour of Power",
			Description:   "Focus for a total of 60 minutes",
			Icon:          models.IconClock,
			Category:      models.CategoryTime,
			MaxProgress:   60,
		},
		{
			AchievementID: "sessions-10",
			Title:         "Consistency Champion",
			Description:   "Complete 10 focus sessions",
			Icon:          models.IconTrophy,
			Category:      models.CategoryFocus,
			MaxProgress:   10,
		},
		{
			AchievementID: "streak-7",
			Title:         "Week Warrior",
			Description:   "Maintain a 7-session streak",
			Icon:          models.IconStar,
			Category:      models.CategoryStreak,
			MaxProgress:   7,
		},
		{
			AchievementID: "time-300",
			Title:         "Focus Master",
			Description:   "Accumulate 5 hours of focus time",
			Icon:          models.IconZap,
			Category:      models.CategoryTime,
			MaxProgress:   300,
		},
	}
}

// Load reads the persisted counters and achievement table for the given user
// scope. Absent or malformed values fall back to zeroed counters and the
// default achievement set; parse failures are logged and never propagated.
func (e *Engine) Load(userID string) (models.SessionStats, []models.Achievement) {
	stats := models.SessionStats{
		SessionsCompleted: e.loadCounter(userID, store.FieldSessionsCompleted),
		TotalFocusMinutes: e.loadCounter(userID, store.FieldTotalFocusTime),
		CurrentStreak:     e.loadCounter(userID, store.FieldCurrentStreak),
	}

	achievements := e.loadAchievements(userID)

	return stats, achievements
}

func (e *Engine) loadCounter(userID string, field store.Field) int {
	raw, err := e.kv.Get(store.Key{UserID: userID, Field: field})
	if errors.Is(err, shared.ErrNotFound) {
		return 0
	}
	if err != nil {
		e.logger.Warnf("failed to read %s, using 0: %v", field, err)
		return 0
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		e.logger.Warnf("%v: %s=%q, using 0", shared.ErrStorageParse, field, raw)
		return 0
	}
	return n
}

func (e *Engine) loadAchievements(userID string) []models.Achievement {
	raw, err := e.kv.Get(store.Key{UserID: userID, Field: store.FieldAchievements})
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			e.logger.Warnf("failed to read achievements, using defaults: %v", err)
		}
		return DefaultAchievements()
	}

	var achievements []models.Achievement
	if err := json.Unmarshal([]byte(raw), &achievements); err != nil || len(achievements) == 0 {
		e.logger.Warnf("%v: achievements, using defaults", shared.ErrStorageParse)
		return DefaultAchievements()
	}

	return achievements
}

// RecordWorkSession returns the counters after one completed focus session.
//
// Pure transformation: +1 session, +SessionMinutes focus minutes, +1 streak.
// Never invoked for break-phase completions.
func RecordWorkSession(stats models.SessionStats) models.SessionStats {
	return models.SessionStats{
		SessionsCompleted: stats.SessionsCompleted + 1,
		TotalFocusMinutes: stats.TotalFocusMinutes + SessionMinutes,
		CurrentStreak:     stats.CurrentStreak + 1,
	}
}

// RecomputeAchievements derives each achievement's progress from the given
// counters and unlocks any achievement whose progress reached its target.
//
// Idempotent: applying it twice with unchanged stats yields identical state.
// Unlocked never reverts, regardless of the recomputed progress value.
func RecomputeAchievements(stats models.SessionStats, achievements []models.Achievement) []models.Achievement {
	updated := make([]models.Achievement, len(achievements))
	for i, a := range achievements {
		switch a.AchievementID {
		case "first-session", "sessions-10":
			a.Progress = min(stats.SessionsCompleted, a.MaxProgress)
		case "streak-3", "streak-7":
			a.Progress = min(stats.CurrentStreak, a.MaxProgress)
		case "time-60", "time-300":
			a.Progress = min(stats.TotalFocusMinutes, a.MaxProgress)
		}

		if a.Progress >= a.MaxProgress && !a.Unlocked {
			a.Unlocked = true
		}

		updated[i] = a
	}
	return updated
}

// Persist writes the counters and achievement table back to the user scope.
func (e *Engine) Persist(userID string, stats models.SessionStats, achievements []models.Achievement) error {
	counters := map[store.Field]int{
		store.FieldSessionsCompleted: stats.SessionsCompleted,
		store.FieldTotalFocusTime:    stats.TotalFocusMinutes,
		store.FieldCurrentStreak:     stats.CurrentStreak,
	}
	for field, value := range counters {
		if err := e.kv.Set(store.Key{UserID: userID, Field: field}, strconv.Itoa(value)); err != nil {
			return fmt.Errorf("failed to persist %s: %w", field, err)
		}
	}

	encoded, err := json.Marshal(achievements)
	if err != nil {
		return fmt.Errorf("failed to encode achievements: %w", err)
	}
	if err := e.kv.Set(store.Key{UserID: userID, Field: store.FieldAchievements}, string(encoded)); err != nil {
		return fmt.Errorf("failed to persist achievements: %w", err)
	}

	return nil
}

// CompleteWorkSession applies one completed focus session as a single update
// cycle: load, increment counters, recompute achievements against the
// post-increment counters, persist. Returns the new state.
func (e *Engine) CompleteWorkSession(userID string) (models.SessionStats, []models.Achievement, error) {
	stats, achievements := e.Load(userID)

	stats = RecordWorkSession(stats)
	achievements = RecomputeAchievements(stats, achievements)

	if err := e.Persist(userID, stats, achievements); err != nil {
		return stats, achievements, err
	}

	if e.log != nil {
		record := &models.SessionRecord{
			UserID:          userID,
			Phase:           "focus",
			DurationSeconds: SessionMinutes * 60,
			CompletedAt:     time.Now(),
		}
		if err := e.log.Create(record); err != nil {
			e.logger.Warnf("failed to log session: %v", err)
		}
	}

	return stats, achievements, nil
}

// Partition splits the achievement set into the three disjoint display
// groups: unlocked, in progress (started but locked), and locked (untouched).
func Partition(achievements []models.Achievement) (unlocked, inProgress, locked []models.Achievement) {
	for _, a := range achievements {
		switch {
		case a.Unlocked:
			unlocked = append(unlocked, a)
		case a.Progress > 0:
			inProgress = append(inProgress, a)
		default:
			locked = append(locked, a)
		}
	}
	return unlocked, inProgress, locked
}
