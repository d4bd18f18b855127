package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swimintake/internal/database"
	"swimintake/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(context.Background(), filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSubmission(ref string, created time.Time) *models.Submission {
	return &models.Submission{
		Reference:    ref,
		DedupeKey:    "sess:intake_sent_Jane Doe_jane@example.com",
		ParentName:   "Jane Doe",
		Location:     "SwimLabs Westchester",
		ContactValue: "jane@example.com",
		InternalCode: "B",
		LevelTitle:   "BEGINNER 2 – Water Safety and Swimming Foundations",
		Recipient:    "team@example.com",
		ReplyTo:      "jane@example.com",
		Subject:      "New Intake — Jane Doe (SwimLabs Westchester)",
		Body:         "New Intake Submission",
		Status:       models.SubmissionPending,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSubmissionRepository(newTestDB(t))
	created := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	s := sampleSubmission("ref-1", created)
	require.NoError(t, repo.Create(ctx, s))
	require.NotZero(t, s.ID)

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane Doe", got.ParentName)
	assert.Equal(t, models.SubmissionPending, got.Status)
	assert.Nil(t, got.SentAt)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, repo.MarkFailed(ctx, s.ID, "connection refused", created.Add(time.Minute)))
	got, err = repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionFailed, got.Status)
	assert.Equal(t, "connection refused", got.LastError)
	assert.Equal(t, 1, got.Attempts)

	sentAt := created.Add(2 * time.Minute)
	require.NoError(t, repo.MarkSent(ctx, s.ID, "<abc@smtp>", sentAt))
	got, err = repo.GetByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, got.Status)
	assert.Equal(t, "<abc@smtp>", got.MessageID)
	assert.Empty(t, got.LastError)
	assert.Equal(t, 2, got.Attempts)
	require.NotNil(t, got.SentAt)
	assert.True(t, sentAt.Equal(*got.SentAt))
}

func TestSubmissionMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewSubmissionRepository(newTestDB(t))

	got, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = repo.MarkSent(ctx, 42, "id", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSubmissionListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewSubmissionRepository(newTestDB(t))
	base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	for i, ref := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, sampleSubmission(ref, base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, repo.MarkFailed(ctx, 2, "boom", base))

	all, err := repo.List(ctx, SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].Reference, all[1].Reference, all[2].Reference})

	page, err := repo.List(ctx, SubmissionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Reference)

	failed, err := repo.List(ctx, SubmissionFilter{Status: models.SubmissionFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].Reference)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.SubmissionStatus]int{
		models.SubmissionPending: 2,
		models.SubmissionFailed:  1,
	}, counts)
}

func TestClaimIsOneShot(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(newTestDB(t))

	first, err := repo.Claim(ctx, "key")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.Claim(ctx, "key")
	require.NoError(t, err)
	assert.False(t, second)

	other, err := repo.Claim(ctx, "other")
	require.NoError(t, err)
	assert.True(t, other)

	require.NoError(t, repo.Release(ctx, "key"))
	again, err := repo.Claim(ctx, "key")
	require.NoError(t, err)
	assert.True(t, again)

	n, err := repo.DeleteBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestWizardSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewWizardSessionRepository(newTestDB(t))
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	dob := time.Date(2016, 3, 2, 0, 0, 0, 0, time.UTC)
	state := models.NewWizardState()
	state.Stage = models.StageSkills
	state.Intake = models.Intake{ParentName: "Jane", Location: "SafeSplash Torrance", ContactMethod: models.ContactPhone, ContactPhone: "555-0100"}
	state.Quiz = models.QuizState{models.AnswerA, models.AnswerB, models.AnswerC, models.AnswerD}
	state.Level.Birthday = &dob
	state.Level.SetSkill(models.SkillBubbles5, true)
	state.Level.SetSkill(models.SkillBackFloatSupport, false)
	state.SkillIndex = 2

	s := &models.WizardSession{ID: "sess-1", State: state, ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state, got.State)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	got.State.Stage = models.StageComments
	got.ExpiresAt = now.Add(2 * time.Hour)
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.StageComments, again.State.Stage)

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, repo.Update(ctx, &models.WizardSession{ID: "nope", UpdatedAt: now}), sql.ErrNoRows)
}

func TestWizardSessionDeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewWizardSessionRepository(newTestDB(t))
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	for id, expires := range map[string]time.Time{
		"old":   now.Add(-time.Minute),
		"fresh": now.Add(time.Minute),
	} {
		require.NoError(t, repo.Create(ctx, &models.WizardSession{
			ID: id, State: models.NewWizardState(), ExpiresAt: expires, CreatedAt: now, UpdatedAt: now,
		}))
	}

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	old, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, old)

	require.NoError(t, repo.Delete(ctx, "fresh"))
	fresh, err := repo.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Nil(t, fresh)
}
