package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"swimintake/internal/config"
	"swimintake/internal/database"
	"swimintake/internal/logging"
	"swimintake/internal/models"
	"swimintake/internal/service"
)

// openBackupService connects to the configured database and runs migrations
func openBackupService(ctx context.Context, root *rootOptions) (*service.BackupService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.Console(root.verbose)
	if err != nil {
		return nil, nil, err
	}

	dialect, dialectConfig, err := database.DialectFor(cfg.DatabaseType, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, dialect, dialectConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cleanup := func() {
		db.Close()
		logger.Sync()
	}
	return service.NewBackupService(db, logger), cleanup, nil
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		output string
		status string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored submissions to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.SubmissionStatus(status)
			if filter != "" && !filter.Valid() {
				return fmt.Errorf("invalid --status %q", status)
			}

			backups, cleanup, err := openBackupService(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer cleanup()

			if output == "" {
				output = fmt.Sprintf("submissions_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create directory: %w", err)
				}
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()

			n, err := backups.Export(cmd.Context(), f, filter)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d submissions to %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: submissions_YYYYMMDD_HHMMSS.json)")
	cmd.Flags().StringVar(&status, "status", "", "only export submissions with this status (pending, sent, failed)")
	return cmd
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import submissions from an export, skipping ones already stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer f.Close()

			backups, cleanup, err := openBackupService(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := backups.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d submissions from %s\n", n, input)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "export file to read")
	cmd.MarkFlagRequired("input")
	return cmd
}
