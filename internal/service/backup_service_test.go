package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"swimintake/internal/database"
	"swimintake/internal/models"
)

func TestBackupExportImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.intake.SubmitPayload(ctx, samplePayload())
	require.NoError(t, err)
	f.transport.fail(errSMTPDown)
	_, err = f.intake.SubmitPayload(ctx, samplePayload())
	require.Error(t, err)

	var buf bytes.Buffer
	n, err := NewBackupService(f.db, zaptest.NewLogger(t)).Export(ctx, &buf, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var data BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "1.0", data.Version)
	assert.Equal(t, "sqlite", data.DatabaseType)
	require.Len(t, data.Submissions, 2)
	assert.Equal(t, models.SubmissionSent, data.Submissions[0].Status, "oldest first")

	target, err := database.Initialize(ctx, filepath.Join(t.TempDir(), "restore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { target.Close() })

	restore := NewBackupService(target, zaptest.NewLogger(t))
	inserted, err := restore.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = restore.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, inserted, "existing references are skipped")

	var again bytes.Buffer
	n, err = restore.Export(ctx, &again, models.SubmissionFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBackupImportRejectsUnknownVersion(t *testing.T) {
	f := newFixture(t)

	_, err := NewBackupService(f.db, zaptest.NewLogger(t)).Import(context.Background(), strings.NewReader(`{"version":"9"}`))
	assert.ErrorContains(t, err, "unsupported backup version")
}
