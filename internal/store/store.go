// package store provides user-scoped persistence on SQLite.
//
// State the dashboard keeps per user (counters, achievements, Spotify
// credentials) lives in a key-value table addressed by a structured
// [Key] rather than ad hoc string prefixes, so two users sharing a
// database never collide.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/focusdeck/internal/shared"
)

// Field enumerates the per-user fields the dashboard persists.
type Field string

const (
	FieldAchievements      Field = "achievements"
	FieldSessionsCompleted Field = "workSessionsCompleted"
	FieldTotalFocusTime    Field = "totalFocusTime"
	FieldCurrentStreak     Field = "currentStreak"
	FieldAccessToken       Field = "spotify_access_token"
	FieldCodeVerifier      Field = "spotify_pkce_code_verifier"
	FieldGoogleUser        Field = "google_user"
)

// Key addresses one stored value. An empty UserID scopes the value globally
// (used for the signed-in identity record itself, and for all fields when no
// user is known).
type Key struct {
	UserID string
	Field  Field
}

func (k Key) String() string {
	if k.UserID == "" {
		return string(k.Field)
	}
	return k.UserID + "_" + string(k.Field)
}

// KV is the read/write interface over the key-value table.
type KV interface {
	Get(key Key) (string, error) // Get returns the stored value or shared.ErrNotFound
	Set(key Key, value string) error
	Delete(key Key) error // Delete removes the value; deleting an absent key is not an error
}

// SQLStore implements [KV] on a SQLite database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new [SQLStore] with the given database connection.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Get retrieves the value stored under key.
func (s *SQLStore) Get(key Key) (string, error) {
	var value string
	err := s.db.QueryRow(
		"SELECT value FROM kv WHERE user_id = ? AND field = ?",
		key.UserID, string(key.Field),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", key, err)
	}
	return value, nil
}

// Set writes value under key, replacing any previous value.
func (s *SQLStore) Set(key Key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (user_id, field, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, field) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key.UserID, string(key.Field), value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *SQLStore) Delete(key Key) error {
	if _, err := s.db.Exec(
		"DELETE FROM kv WHERE user_id = ? AND field = ?",
		key.UserID, string(key.Field),
	); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
