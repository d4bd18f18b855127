package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"swimintake/internal/database"
	"swimintake/internal/models"
	"swimintake/internal/repository"
)

const backupVersion = "1.0"

// exportPageSize is the number of submissions read per query during export
const exportPageSize = 500

// BackupData represents a submissions export
type BackupData struct {
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exported_at"`
	DatabaseType string               `json:"database_type"`
	Submissions  []*models.Submission `json:"submissions"`
}

// BackupService exports and restores stored submissions
type BackupService struct {
	db     *database.DB
	repo   *repository.SubmissionRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	return &BackupService{
		db:     db,
		repo:   repository.NewSubmissionRepository(db),
		logger: logger,
		now:    time.Now,
	}
}

// Export writes every submission, oldest first, as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer, status models.SubmissionStatus) (int, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.db.GetDialect().Name(),
		Submissions:  []*models.Submission{},
	}

	for offset := 0; ; offset += exportPageSize {
		page, err := s.repo.List(ctx, repository.SubmissionFilter{Status: status, Limit: exportPageSize, Offset: offset})
		if err != nil {
			return 0, fmt.Errorf("failed to export submissions: %w", err)
		}
		backup.Submissions = append(backup.Submissions, page...)
		if len(page) < exportPageSize {
			break
		}
	}

	// List is newest first; exports read better in creation order
	for i, j := 0, len(backup.Submissions)-1; i < j; i, j = i+1, j-1 {
		backup.Submissions[i], backup.Submissions[j] = backup.Submissions[j], backup.Submissions[i]
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return 0, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("Submissions exported", zap.Int("count", len(backup.Submissions)))
	return len(backup.Submissions), nil
}

// Import restores submissions from an export. Submissions whose reference
// already exists are skipped. It returns the number of rows inserted.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (int, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return 0, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return 0, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.logger.Info("Importing submissions",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt),
		zap.Int("count", len(backup.Submissions)),
	)

	inserted := 0
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		repo := repository.NewSubmissionRepository(tx)
		for _, sub := range backup.Submissions {
			if sub == nil || sub.Reference == "" {
				continue
			}
			existing, err := repo.GetByReference(ctx, sub.Reference)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if !sub.Status.Valid() {
				return fmt.Errorf("submission %s has invalid status %q", sub.Reference, sub.Status)
			}
			if err := repo.Create(ctx, sub); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import submissions: %w", err)
	}

	s.logger.Info("Submissions imported", zap.Int("inserted", inserted))
	return inserted, nil
}
