package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/focusdeck/internal/models"
	"github.com/desertthunder/focusdeck/internal/shared"
)

// SessionLogRepository implements [models.Repository] for the append-only
// session log.
type SessionLogRepository struct {
	db *sql.DB
}

// NewSessionLogRepository creates a new [SessionLogRepository] with the given database connection
func NewSessionLogRepository(db *sql.DB) *SessionLogRepository {
	return &SessionLogRepository{db: db}
}

// Create inserts a completed session into the log with a generated ID.
func (r *SessionLogRepository) Create(record *models.SessionRecord) error {
	record.RecordID = shared.GenerateID()

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (id, user_id, phase, duration_seconds, completed_at) VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, record.RecordID, record.UserID, record.Phase, record.DurationSeconds, record.CompletedAt); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session record by ID.
func (r *SessionLogRepository) Get(id string) (*models.SessionRecord, error) {
	query := `
		SELECT id, user_id, phase, duration_seconds, completed_at
		FROM sessions
		WHERE id = ?
	`

	var record models.SessionRecord
	err := r.db.QueryRow(query, id).Scan(
		&record.RecordID, &record.UserID, &record.Phase, &record.DurationSeconds, &record.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &record, nil
}

// List retrieves session records matching the given criteria, most recent first.
func (r *SessionLogRepository) List(criteria map[string]any) ([]*models.SessionRecord, error) {
	query := `
		SELECT id, user_id, phase, duration_seconds, completed_at
		FROM sessions
		WHERE 1 = 1
	`

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if phase, ok := criteria["phase"].(string); ok && phase != "" {
		query += " AND phase = ?"
		args = append(args, phase)
	}

	query += " ORDER BY completed_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []*models.SessionRecord
	for rows.Next() {
		var record models.SessionRecord
		if err := rows.Scan(
			&record.RecordID, &record.UserID, &record.Phase, &record.DurationSeconds, &record.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
