package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"swimintake/internal/database"
	"swimintake/internal/models"
)

// WizardSessionRepository persists wizard runs keyed by session ID
type WizardSessionRepository struct {
	db database.DBTX
}

// NewWizardSessionRepository creates a new wizard session repository
func NewWizardSessionRepository(db database.DBTX) *WizardSessionRepository {
	return &WizardSessionRepository{db: db}
}

// Create inserts a new session
func (r *WizardSessionRepository) Create(ctx context.Context, s *models.WizardSession) error {
	state, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("failed to encode wizard state: %w", err)
	}
	query := `
		INSERT INTO wizard_sessions (id, state, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, s.ID, string(state), s.ExpiresAt.UTC(), s.CreatedAt.UTC(), s.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to create wizard session: %w", err)
	}
	return nil
}

// Get retrieves a session, returning nil when it does not exist
func (r *WizardSessionRepository) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	query := `
		SELECT id, state, expires_at, created_at, updated_at
		FROM wizard_sessions
		WHERE id = ?
	`
	var (
		s     models.WizardSession
		state string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &state, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wizard session: %w", err)
	}
	if err := json.Unmarshal([]byte(state), &s.State); err != nil {
		return nil, fmt.Errorf("failed to decode wizard state for %s: %w", id, err)
	}
	return &s, nil
}

// Update stores the session's state and sliding expiry
func (r *WizardSessionRepository) Update(ctx context.Context, s *models.WizardSession) error {
	state, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("failed to encode wizard state: %w", err)
	}
	query := `
		UPDATE wizard_sessions
		SET state = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query, string(state), s.ExpiresAt.UTC(), s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update wizard session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update wizard session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("wizard session %s: %w", s.ID, sql.ErrNoRows)
	}
	return nil
}

// Delete removes a session
func (r *WizardSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM wizard_sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete wizard session: %w", err)
	}
	return nil
}

// DeleteExpired removes all sessions that expired before now
func (r *WizardSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM wizard_sessions WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired wizard sessions: %w", err)
	}
	return res.RowsAffected()
}
