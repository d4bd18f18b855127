package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"swimintake/internal/database"
	"swimintake/internal/models"
)

const submissionColumns = `id, reference, dedupe_key, parent_name, location, contact_value, internal_code,
		level_title, recipient, reply_to, subject, body, status, message_id, last_error, attempts,
		created_at, updated_at, sent_at`

// SubmissionRepository handles database operations for intake submissions
type SubmissionRepository struct {
	db database.DBTX
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db database.DBTX) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts s and sets its ID
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (reference, dedupe_key, parent_name, location, contact_value, internal_code,
			level_title, recipient, reply_to, subject, body, status, message_id, last_error, attempts,
			created_at, updated_at, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		s.Reference, s.DedupeKey, s.ParentName, s.Location, s.ContactValue, s.InternalCode,
		s.LevelTitle, s.Recipient, s.ReplyTo, s.Subject, s.Body, string(s.Status), s.MessageID, s.LastError,
		s.Attempts, s.CreatedAt.UTC(), s.UpdatedAt.UTC(), nullTime(s.SentAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	s.ID = id
	return nil
}

// MarkSent records a successful delivery attempt
func (r *SubmissionRepository) MarkSent(ctx context.Context, id int64, messageID string, at time.Time) error {
	query := `
		UPDATE submissions
		SET status = ?, message_id = ?, last_error = '', attempts = attempts + 1, updated_at = ?, sent_at = ?
		WHERE id = ?
	`
	return r.update(ctx, id, query, string(models.SubmissionSent), messageID, at.UTC(), at.UTC(), id)
}

// MarkFailed records a failed delivery attempt
func (r *SubmissionRepository) MarkFailed(ctx context.Context, id int64, cause string, at time.Time) error {
	query := `
		UPDATE submissions
		SET status = ?, last_error = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = ?
	`
	return r.update(ctx, id, query, string(models.SubmissionFailed), cause, at.UTC(), id)
}

func (r *SubmissionRepository) update(ctx context.Context, id int64, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update submission %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update submission %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("submission %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// GetByID retrieves a submission, returning nil when it does not exist
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	query := "SELECT " + submissionColumns + " FROM submissions WHERE id = ?"
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

// GetByReference retrieves a submission by its public reference
func (r *SubmissionRepository) GetByReference(ctx context.Context, reference string) (*models.Submission, error) {
	query := "SELECT " + submissionColumns + " FROM submissions WHERE reference = ?"
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

// SubmissionFilter narrows List. A zero Limit returns every row.
type SubmissionFilter struct {
	Status models.SubmissionStatus
	Limit  int
	Offset int
}

// List returns submissions newest first
func (r *SubmissionRepository) List(ctx context.Context, f SubmissionFilter) ([]*models.Submission, error) {
	query := "SELECT " + submissionColumns + " FROM submissions"
	var args []any
	if f.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(f.Status))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return out, nil
}

// CountByStatus returns the number of submissions per status
func (r *SubmissionRepository) CountByStatus(ctx context.Context) (map[models.SubmissionStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM submissions GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.SubmissionStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.SubmissionStatus(status)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		s      models.Submission
		status string
		sentAt sql.NullTime
	)
	err := row.Scan(
		&s.ID,
		&s.Reference,
		&s.DedupeKey,
		&s.ParentName,
		&s.Location,
		&s.ContactValue,
		&s.InternalCode,
		&s.LevelTitle,
		&s.Recipient,
		&s.ReplyTo,
		&s.Subject,
		&s.Body,
		&status,
		&s.MessageID,
		&s.LastError,
		&s.Attempts,
		&s.CreatedAt,
		&s.UpdatedAt,
		&sentAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = models.SubmissionStatus(status)
	if sentAt.Valid {
		t := sentAt.Time
		s.SentAt = &t
	}
	return &s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
