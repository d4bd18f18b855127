package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"swimintake/internal/database"
	"swimintake/internal/events"
	"swimintake/internal/models"
	"swimintake/internal/repository"
	"swimintake/internal/summary"
)

func samplePayload() summary.Payload {
	goal, structure, connection, value := 0, 100, 0, 0
	return summary.Payload{
		ParentName:      "  Jane Doe ",
		Location:        "SwimLabs Westchester",
		PreferredDay:    "Saturday",
		PreferredTime:   "Flexible",
		ContactMethod:   "email",
		ContactValue:    "jane@example.com",
		InternalCode:    "B",
		ScoreGoal:       &goal,
		ScoreStructure:  &structure,
		ScoreConnection: &connection,
		ScoreValue:      &value,
		LevelTitle:      "BEGINNER 1",
	}
}

func TestSubmitSendsAndStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.intake.Submit(ctx, samplePayload(), "session-1:key")
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Equal(t, models.SubmissionSent, sub.Status)
	assert.Equal(t, "<msg-1@test>", sub.MessageID)
	assert.Equal(t, 1, sub.Attempts)
	assert.NotEmpty(t, sub.Reference)

	msgs := f.transport.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "team@example.com", msgs[0].To)
	assert.Equal(t, "New Intake — Jane Doe (SwimLabs Westchester)", msgs[0].Subject)
	assert.Equal(t, "jane@example.com", msgs[0].ReplyTo)
	assert.Contains(t, msgs[0].Text, "Name: Jane Doe\n")

	stored, err := f.intake.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, stored.Status)
	assert.Equal(t, "session-1:key", stored.DedupeKey)
	assert.Equal(t, msgs[0].Text, stored.Body)
	require.NotNil(t, stored.SentAt)
	assert.True(t, stored.SentAt.Equal(f.now))

	published := f.publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventIntakeSubmitted, published[0].EventType)
	assert.Equal(t, sub.ID, published[0].SubmissionID)
	assert.Equal(t, "sent", published[0].Status)
	assert.Equal(t, "B", published[0].InternalCode)
}

func TestSubmitIsOneShotPerKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.intake.Submit(ctx, samplePayload(), "session-1:key")
	require.NoError(t, err)

	sub, err := f.intake.Submit(ctx, samplePayload(), "session-1:key")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Nil(t, sub)

	_, err = f.intake.Submit(ctx, samplePayload(), "session-2:key")
	require.NoError(t, err)

	assert.Len(t, f.transport.messages(), 2)
}

func TestSubmitStoreFailureReleasesClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken, err := database.Initialize(ctx, filepath.Join(t.TempDir(), "broken.db"))
	require.NoError(t, err)
	require.NoError(t, broken.Close())

	svc := NewIntakeService(
		repository.NewSubmissionRepository(broken),
		repository.NewClaimRepository(f.db),
		f.transport,
		f.publisher,
		"team@example.com",
		zaptest.NewLogger(t),
	)

	sub, err := svc.Submit(ctx, samplePayload(), "session-1:key")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadySubmitted)
	assert.Nil(t, sub)
	assert.Empty(t, f.transport.messages())

	// The claim was given back, so the retry goes out
	sub, err = f.intake.Submit(ctx, samplePayload(), "session-1:key")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, sub.Status)
	assert.Len(t, f.transport.messages(), 1)
}

func TestSubmitPayloadHasNoGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		sub, err := f.intake.SubmitPayload(ctx, samplePayload())
		require.NoError(t, err)
		assert.Empty(t, sub.DedupeKey)
	}
	assert.Len(t, f.transport.messages(), 2)
}

func TestSubmitRequiresNameAndLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, mutate := range []func(*summary.Payload){
		func(p *summary.Payload) { p.ParentName = "   " },
		func(p *summary.Payload) { p.Location = "" },
	} {
		p := samplePayload()
		mutate(&p)
		_, err := f.intake.Submit(ctx, p, "k")
		assert.ErrorIs(t, err, ErrMissingFields)
	}

	assert.Empty(t, f.transport.messages())
	counts, err := f.intake.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestSubmitFailureIsStoredThenResent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.transport.fail(errSMTPDown)
	sub, err := f.intake.Submit(ctx, samplePayload(), "session-1:key")
	require.ErrorIs(t, err, ErrSendFailed)
	assert.ErrorIs(t, err, errSMTPDown)
	require.NotNil(t, sub)
	assert.Equal(t, models.SubmissionFailed, sub.Status)

	stored, err := f.intake.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionFailed, stored.Status)
	assert.Equal(t, errSMTPDown.Error(), stored.LastError)
	assert.Equal(t, 1, stored.Attempts)

	// the claim survives a failed send
	_, err = f.intake.Submit(ctx, samplePayload(), "session-1:key")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	f.transport.fail(nil)
	resent, err := f.intake.Resend(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, resent.Status)

	stored, err = f.intake.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, stored.Status)
	assert.Empty(t, stored.LastError)
	assert.Equal(t, 2, stored.Attempts)

	published := f.publisher.published()
	require.Len(t, published, 2)
	assert.Equal(t, "failed", published[0].Status)
	assert.Equal(t, events.EventIntakeResent, published[1].EventType)
	assert.Equal(t, "sent", published[1].Status)

	_, err = f.intake.Resend(ctx, sub.ID)
	assert.ErrorIs(t, err, ErrAlreadySent)
}

func TestResendUnknownSubmission(t *testing.T) {
	f := newFixture(t)

	_, err := f.intake.Resend(context.Background(), 404)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestListSubmissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.intake.SubmitPayload(ctx, samplePayload())
	require.NoError(t, err)
	f.transport.fail(errSMTPDown)
	_, err = f.intake.SubmitPayload(ctx, samplePayload())
	require.Error(t, err)

	all, err := f.intake.List(ctx, repository.SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := f.intake.List(ctx, repository.SubmissionFilter{Status: models.SubmissionFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, models.SubmissionFailed, failed[0].Status)

	_, err = f.intake.List(ctx, repository.SubmissionFilter{Status: "bogus"})
	assert.Error(t, err)

	counts, err := f.intake.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.SubmissionStatus]int{models.SubmissionSent: 1, models.SubmissionFailed: 1}, counts)
}
