package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"swimintake/internal/catalog"
	"swimintake/internal/database"
	"swimintake/internal/events"
	"swimintake/internal/mailer"
	"swimintake/internal/models"
	"swimintake/internal/repository"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Send(ctx context.Context, msg mailer.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("<msg-%d@test>", len(f.sent)), nil
}

func (f *fakeTransport) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeTransport) messages() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.IntakeEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.IntakeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []events.IntakeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.IntakeEvent(nil), p.events...)
}

var errSMTPDown = errors.New("dial tcp: connection refused")

type fixture struct {
	db        *database.DB
	transport *fakeTransport
	publisher *recordingPublisher
	intake    *IntakeService
	wizard    *WizardService
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Initialize(ctx, filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t)
	f := &fixture{
		db:        db,
		transport: &fakeTransport{},
		publisher: &recordingPublisher{},
		now:       time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.intake = NewIntakeService(
		repository.NewSubmissionRepository(db),
		repository.NewClaimRepository(db),
		f.transport,
		f.publisher,
		"team@example.com",
		logger,
	)
	f.intake.now = clock

	f.wizard = NewWizardService(
		catalog.MustDefault(),
		repository.NewWizardSessionRepository(db),
		f.intake,
		time.Hour,
		logger,
	)
	f.wizard.now = clock
	return f
}

func validIntake() models.Intake {
	return models.Intake{
		ParentName:    "Jane Doe",
		Location:      "SwimLabs Westchester",
		PreferredDay:  "Saturday",
		PreferredTime: "Flexible",
		ContactMethod: models.ContactEmail,
		ContactEmail:  "jane@example.com",
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
