// package tasks coordinates the timer, progression engine, and track poller.
package tasks

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/focusdeck/internal/models"
	"github.com/desertthunder/focusdeck/internal/progress"
	"github.com/desertthunder/focusdeck/internal/shared"
	"github.com/desertthunder/focusdeck/internal/timer"
)

// SessionResult is the outcome of applying one timer completion.
type SessionResult struct {
	Phase        timer.Phase
	Recorded     bool // Recorded is true only for focus completions
	Stats        models.SessionStats
	Achievements []models.Achievement
	// NewlyUnlocked lists achievements that unlocked in this update cycle.
	NewlyUnlocked []models.Achievement
}

// SessionEngine applies timer completions to the progression engine.
//
// The increment-then-recompute-then-persist sequence runs synchronously
// inside one call, so achievement progress always reflects post-increment
// counters and no interleaved counter mutation can be observed.
type SessionEngine struct {
	engine *progress.Engine
	logger *log.Logger
}

// NewSessionEngine creates a [SessionEngine] over the given progression engine.
func NewSessionEngine(engine *progress.Engine, logger *log.Logger) *SessionEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SessionEngine{engine: engine, logger: logger}
}

// HandleCompletion processes one phase completion for the given user scope.
//
// Break completions are informational: they mutate nothing and return the
// current state unchanged.
func (e *SessionEngine) HandleCompletion(userID string, done timer.Completion) (SessionResult, error) {
	if done.Phase != timer.Focus {
		stats, achievements := e.engine.Load(userID)
		return SessionResult{Phase: done.Phase, Stats: stats, Achievements: achievements}, nil
	}

	_, before := e.engine.Load(userID)

	stats, achievements, err := e.engine.CompleteWorkSession(userID)
	if err != nil {
		return SessionResult{Phase: done.Phase}, err
	}

	result := SessionResult{
		Phase:        done.Phase,
		Recorded:     true,
		Stats:        stats,
		Achievements: achievements,
	}

	wasUnlocked := map[string]bool{}
	for _, a := range before {
		wasUnlocked[a.AchievementID] = a.Unlocked
	}
	for _, a := range achievements {
		if a.Unlocked && !wasUnlocked[a.AchievementID] {
			result.NewlyUnlocked = append(result.NewlyUnlocked, a)
		}
	}

	e.logger.Infof("focus session recorded: %d total, %dm focused, streak %d",
		stats.SessionsCompleted, stats.TotalFocusMinutes, stats.CurrentStreak)

	return result, nil
}
