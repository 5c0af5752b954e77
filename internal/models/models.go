// package models defines the data model for the focusdeck dashboard
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent models with their own rows.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// User is the signed-in identity decoded from a Google ID token payload.
//
// The user's ID doubles as the namespace for all per-user stored state.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Picture    string `json:"picture"`
	Credential string `json:"credential"`
}

// SessionStats holds the per-user focus counters.
//
// All three counters are monotonically non-decreasing: nothing in the app
// ever decrements them.
type SessionStats struct {
	SessionsCompleted int `json:"sessionsCompleted"`
	TotalFocusMinutes int `json:"totalFocusMinutes"`
	CurrentStreak     int `json:"currentStreak"`
}

// AchievementCategory classifies achievements by the counter they derive from.
type AchievementCategory string

const (
	CategoryFocus     AchievementCategory = "focus"
	CategoryStreak    AchievementCategory = "streak"
	CategoryTime      AchievementCategory = "time"
	CategoryMilestone AchievementCategory = "milestone"
)

// Icon names form a closed set resolved by the display layer; only the name
// is ever persisted.
const (
	IconTarget = "Target"
	IconFlame  = "Flame"
	IconClock  = "Clock"
	IconTrophy = "Trophy"
	IconStar   = "Star"
	IconZap    = "Zap"
)

// Achievement is a named progress goal derived from cumulative session
// statistics.
//
// Progress is a pure function of one SessionStats counter; Unlocked is
// monotonic and never reverts once set.
type Achievement struct {
	AchievementID string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Icon          string              `json:"icon"`
	Category      AchievementCategory `json:"category"`
	Progress      int                 `json:"progress"`
	MaxProgress   int                 `json:"maxProgress"`
	Unlocked      bool                `json:"unlocked"`
}

// Validate checks the achievement's structural invariants.
func (a Achievement) Validate() error {
	if a.AchievementID == "" {
		return fmt.Errorf("achievement missing id")
	}
	if a.MaxProgress <= 0 {
		return fmt.Errorf("achievement %s: maxProgress must be positive", a.AchievementID)
	}
	if a.Progress < 0 || a.Progress > a.MaxProgress {
		return fmt.Errorf("achievement %s: progress %d out of range [0, %d]", a.AchievementID, a.Progress, a.MaxProgress)
	}
	return nil
}

// Track represents a normalized Spotify track for the now-playing widget.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Duration    int    `json:"duration"` // Duration in seconds
	AlbumArtURL string `json:"album_art_url,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

// SessionRecord is one completed timer phase in the append-only session log.
type SessionRecord struct {
	RecordID        string
	UserID          string
	Phase           string
	DurationSeconds int
	CompletedAt     time.Time
}

func (s *SessionRecord) ID() string           { return s.RecordID }
func (s *SessionRecord) CreatedAt() time.Time { return s.CompletedAt }

// Validate checks that the record describes a real completed phase.
func (s *SessionRecord) Validate() error {
	phase := strings.ToLower(s.Phase)
	if phase != "focus" && phase != "break" {
		return fmt.Errorf("invalid session phase: %s", s.Phase)
	}
	if s.DurationSeconds <= 0 {
		return fmt.Errorf("session duration must be positive, got %d", s.DurationSeconds)
	}
	if s.CompletedAt.IsZero() {
		return fmt.Errorf("session missing completion time")
	}
	return nil
}
