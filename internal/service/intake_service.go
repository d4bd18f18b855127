package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swimintake/internal/events"
	"swimintake/internal/mailer"
	"swimintake/internal/models"
	"swimintake/internal/repository"
	"swimintake/internal/summary"
)

var (
	ErrAlreadySubmitted   = errors.New("intake already submitted")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySent        = errors.New("submission was already sent")
	ErrMissingFields      = errors.New("missing required fields: parentName/location")
	ErrSendFailed         = errors.New("failed to send intake email")
)

// SendGuard records that a dedupe key has been used. Claim returns false when
// the key was claimed before. Release frees a key whose submission was never
// stored.
type SendGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// IntakeService persists intake summaries and mails them to the team
type IntakeService struct {
	submissions *repository.SubmissionRepository
	guard       SendGuard
	transport   mailer.Transport
	publisher   events.Publisher
	recipient   string
	logger      *zap.Logger
	now         func() time.Time
}

// NewIntakeService creates a new intake service. A nil publisher disables events.
func NewIntakeService(
	submissions *repository.SubmissionRepository,
	guard SendGuard,
	transport mailer.Transport,
	publisher events.Publisher,
	recipient string,
	logger *zap.Logger,
) *IntakeService {
	if publisher == nil {
		publisher = events.NewNopPublisher(logger)
	}
	return &IntakeService{
		submissions: submissions,
		guard:       guard,
		transport:   transport,
		publisher:   publisher,
		recipient:   recipient,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit sends p to the team once per dedupe key. The submission is stored
// before the send; when delivery fails it is returned with status failed
// together with an error wrapping ErrSendFailed. An empty dedupeKey skips the
// guard.
func (s *IntakeService) Submit(ctx context.Context, p summary.Payload, dedupeKey string) (*models.Submission, error) {
	return s.submit(ctx, p, dedupeKey, sourceWizard)
}

// SubmitPayload handles the direct JSON endpoint, which has no send guard
func (s *IntakeService) SubmitPayload(ctx context.Context, p summary.Payload) (*models.Submission, error) {
	return s.submit(ctx, p, "", sourceAPI)
}

func (s *IntakeService) submit(ctx context.Context, p summary.Payload, dedupeKey, source string) (*models.Submission, error) {
	p = p.Normalize()
	if p.ParentName == "" || p.Location == "" {
		return nil, ErrMissingFields
	}

	if dedupeKey != "" && s.guard != nil {
		first, err := s.guard.Claim(ctx, dedupeKey)
		if err != nil {
			return nil, fmt.Errorf("failed to claim intake send: %w", err)
		}
		if !first {
			submissionsTotal.WithLabelValues("duplicate", source).Inc()
			s.logger.Info("Intake already submitted, skipping send", zap.String("dedupe_key", dedupeKey))
			return nil, ErrAlreadySubmitted
		}
	}

	msg := p.Message(s.recipient)
	now := s.now()
	sub := &models.Submission{
		Reference:    uuid.NewString(),
		DedupeKey:    dedupeKey,
		ParentName:   p.ParentName,
		Location:     p.Location,
		ContactValue: p.ContactValue,
		InternalCode: p.InternalCode,
		LevelTitle:   p.LevelTitle,
		Recipient:    msg.To,
		ReplyTo:      msg.ReplyTo,
		Subject:      msg.Subject,
		Body:         msg.Text,
		Status:       models.SubmissionPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		// Nothing is stored for staff to resend, so let the family try again
		if dedupeKey != "" && s.guard != nil {
			if rerr := s.guard.Release(context.WithoutCancel(ctx), dedupeKey); rerr != nil {
				s.logger.Error("Failed to release send claim", zap.String("dedupe_key", dedupeKey), zap.Error(rerr))
			}
		}
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	err := s.deliver(ctx, sub, events.EventIntakeSubmitted, source)
	return sub, err
}

// Resend retries delivery of a stored submission that has not been sent
func (s *IntakeService) Resend(ctx context.Context, id int64) (*models.Submission, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubmissionSent {
		return sub, ErrAlreadySent
	}

	err = s.deliver(ctx, sub, events.EventIntakeResent, sourceResend)
	return sub, err
}

// deliver sends the stored mail record and records the outcome on sub
func (s *IntakeService) deliver(ctx context.Context, sub *models.Submission, eventType events.EventType, source string) error {
	msg := mailer.Message{
		To:      sub.Recipient,
		Subject: sub.Subject,
		Text:    sub.Body,
		ReplyTo: sub.ReplyTo,
	}

	start := time.Now()
	messageID, sendErr := s.transport.Send(ctx, msg)
	status := "ok"
	if sendErr != nil {
		status = "error"
	}
	mailSendDuration.WithLabelValues(s.transport.Name(), status).Observe(time.Since(start).Seconds())

	at := s.now()
	sub.Attempts++
	sub.UpdatedAt = at

	if sendErr != nil {
		sub.Status = models.SubmissionFailed
		sub.LastError = sendErr.Error()
		submissionsTotal.WithLabelValues("failed", source).Inc()
		s.logger.Error("Intake email failed",
			zap.Int64("submission_id", sub.ID),
			zap.String("reference", sub.Reference),
			zap.String("transport", s.transport.Name()),
			zap.Error(sendErr),
		)
		if err := s.submissions.MarkFailed(ctx, sub.ID, sub.LastError, at); err != nil {
			s.logger.Error("Failed to record send failure", zap.Int64("submission_id", sub.ID), zap.Error(err))
		}
		s.publish(ctx, eventType, sub)
		return fmt.Errorf("%w: %w", ErrSendFailed, sendErr)
	}

	sub.Status = models.SubmissionSent
	sub.MessageID = messageID
	sub.LastError = ""
	sub.SentAt = &at
	submissionsTotal.WithLabelValues("sent", source).Inc()
	s.logger.Info("Intake email sent",
		zap.Int64("submission_id", sub.ID),
		zap.String("reference", sub.Reference),
		zap.String("message_id", messageID),
	)
	if err := s.submissions.MarkSent(ctx, sub.ID, messageID, at); err != nil {
		// The mail went out, so this is not a send failure
		s.logger.Error("Failed to record sent submission", zap.Int64("submission_id", sub.ID), zap.Error(err))
	}
	s.publish(ctx, eventType, sub)
	return nil
}

func (s *IntakeService) publish(ctx context.Context, eventType events.EventType, sub *models.Submission) {
	event := events.NewIntakeEvent(eventType)
	event.SubmissionID = sub.ID
	event.Reference = sub.Reference
	event.Location = sub.Location
	event.InternalCode = sub.InternalCode
	event.LevelTitle = sub.LevelTitle
	event.Status = string(sub.Status)
	event.MessageID = sub.MessageID

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish intake event",
			zap.String("event_type", string(eventType)),
			zap.Int64("submission_id", sub.ID),
			zap.Error(err),
		)
	}
}

// Get returns one submission or ErrSubmissionNotFound
func (s *IntakeService) Get(ctx context.Context, id int64) (*models.Submission, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}
	return sub, nil
}

// List returns submissions newest first
func (s *IntakeService) List(ctx context.Context, f repository.SubmissionFilter) ([]*models.Submission, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("invalid status filter %q", f.Status)
	}
	return s.submissions.List(ctx, f)
}

// Counts returns the number of submissions per status
func (s *IntakeService) Counts(ctx context.Context) (map[models.SubmissionStatus]int, error) {
	return s.submissions.CountByStatus(ctx)
}
