package repository

import (
	"context"
	"fmt"
	"time"

	"swimintake/internal/database"
)

// ClaimRepository records one-shot send claims in the send_claims table
type ClaimRepository struct {
	db  database.DBTX
	now func() time.Time
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db database.DBTX) *ClaimRepository {
	return &ClaimRepository{db: db, now: time.Now}
}

// Claim stores key and reports whether this call was the first to do so
func (r *ClaimRepository) Claim(ctx context.Context, key string) (bool, error) {
	query := r.db.GetDialect().InsertIgnoreQuery("send_claims", "dedupe_key", "claimed_at")
	res, err := r.db.ExecContext(ctx, query, key, r.now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to claim %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim %q: %w", key, err)
	}
	return n == 1, nil
}

// Release removes a claim so the key can be sent again
func (r *ClaimRepository) Release(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM send_claims WHERE dedupe_key = ?", key); err != nil {
		return fmt.Errorf("failed to release claim %q: %w", key, err)
	}
	return nil
}

// DeleteBefore drops claims older than cutoff
func (r *ClaimRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM send_claims WHERE claimed_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old claims: %w", err)
	}
	return res.RowsAffected()
}
