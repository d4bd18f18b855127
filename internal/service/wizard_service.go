package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"swimintake/internal/catalog"
	"swimintake/internal/leveling"
	"swimintake/internal/models"
	"swimintake/internal/repository"
	"swimintake/internal/security"
	"swimintake/internal/summary"
	"swimintake/internal/validation"
)

var (
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrWrongStage      = errors.New("action not available at this step")
	ErrTooYoung        = errors.New("swimmer is too young for lessons")
)

// maxCommentLength bounds the free-text comments
const maxCommentLength = 5000

// WizardService drives the intake wizard. Every operation loads the session,
// checks the current stage, applies the change and stores the new state.
type WizardService struct {
	catalog  *catalog.Catalog
	sessions *repository.WizardSessionRepository
	intake   *IntakeService
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewWizardService creates a new wizard service. A nil intake service
// disables the automatic email on the results step.
func NewWizardService(
	c *catalog.Catalog,
	sessions *repository.WizardSessionRepository,
	intake *IntakeService,
	ttl time.Duration,
	logger *zap.Logger,
) *WizardService {
	return &WizardService{
		catalog:  c,
		sessions: sessions,
		intake:   intake,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Catalog returns the catalog the wizard runs against
func (s *WizardService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Start creates a fresh session on the landing step
func (s *WizardService) Start(ctx context.Context) (*models.WizardSession, error) {
	now := s.now()
	sess := &models.WizardSession{
		ID:        security.GenerateSessionID(),
		State:     models.NewWizardState(),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	wizardTransitions.WithLabelValues(string(models.StageLanding)).Inc()
	return sess, nil
}

// Get returns a live session or ErrSessionNotFound
func (s *WizardService) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.IsExpired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// update applies fn to the session state and stores the result. The expiry
// slides forward on every change.
func (s *WizardService) update(ctx context.Context, id string, fn func(st *models.WizardState) error) (*models.WizardSession, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	state := sess.State
	if err := fn(&state); err != nil {
		return nil, err
	}

	from := sess.State.Stage
	now := s.now()
	sess.State = state
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}

	if state.Stage != from {
		wizardTransitions.WithLabelValues(string(state.Stage)).Inc()
		s.logger.Debug("Wizard stage changed",
			zap.String("session_id", sess.ID),
			zap.String("from", string(from)),
			zap.String("to", string(state.Stage)),
		)
	}
	return sess, nil
}

func requireStage(st *models.WizardState, stages ...models.Stage) error {
	for _, stage := range stages {
		if st.Stage == stage {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrWrongStage, st.Stage)
}

// SaveIntake validates the landing form and moves on to the match quiz
func (s *WizardService) SaveIntake(ctx context.Context, id string, in models.Intake) (*models.WizardSession, error) {
	in.ParentName = strings.TrimSpace(in.ParentName)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)

	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageLanding); err != nil {
			return err
		}
		if err := validation.ValidateIntake(s.catalog, in); err != nil {
			return err
		}
		st.Intake = in
		st.Stage = models.StageMatch
		return nil
	})
}

// AnswerMatch records the answer to the current match question. The last
// answer moves on to the age step.
func (s *WizardService) AnswerMatch(ctx context.Context, id string, answer models.AnswerKey) (*models.WizardSession, error) {
	if !answer.Valid() {
		return nil, validation.ValidationError{Field: "answer", Message: "answer must be A, B, C or D"}
	}
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageMatch); err != nil {
			return err
		}
		step := st.MatchStep
		if step < 0 || step >= int(models.NumQuestions) {
			step = 0
		}
		st.Quiz[step] = answer
		if step < int(models.NumQuestions)-1 {
			st.MatchStep = step + 1
			return nil
		}
		st.MatchStep = step
		st.Stage = models.StageAge
		return nil
	})
}

// SetBirthday records the swimmer's date of birth
func (s *WizardService) SetBirthday(ctx context.Context, id string, dob time.Time) (*models.WizardSession, error) {
	dob = time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageAge); err != nil {
			return err
		}
		if dob.After(s.now()) {
			return validation.ValidationError{Field: "birthday", Message: "birthday cannot be in the future"}
		}
		st.Level.Birthday = &dob
		return nil
	})
}

// SetParentInWater records whether a parent will be in the water with a toddler
func (s *WizardService) SetParentInWater(ctx context.Context, id string, inWater bool) (*models.WizardSession, error) {
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageAge); err != nil {
			return err
		}
		st.Level.ParentInWater = models.Bool(inWater)
		return nil
	})
}

// ProceedAge leaves the age step. Infants, toddlers and adults are placed by
// age alone and skip to comments; everyone else starts the skill walk.
// Swimmers under four months get ErrTooYoung and stay on the age step.
func (s *WizardService) ProceedAge(ctx context.Context, id string) (*models.WizardSession, error) {
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageAge); err != nil {
			return err
		}
		switch leveling.AgeBracket(st.Level.Birthday, s.now()) {
		case leveling.BracketUnknown:
			return validation.ValidationError{Field: "birthday", Message: "birthday is required"}
		case leveling.BracketTooYoung:
			return ErrTooYoung
		case leveling.BracketToddler:
			if st.Level.ParentInWater == nil {
				return validation.ValidationError{Field: "parent_in_water", Message: "choose whether a parent will be in the water"}
			}
			st.Stage = models.StageComments
		case leveling.BracketInfant, leveling.BracketAdult:
			st.Stage = models.StageComments
		default:
			if st.SkillIndex < 0 || st.SkillIndex >= int(models.NumSkills) {
				st.SkillIndex = 0
			}
			st.Stage = models.StageSkills
		}
		return nil
	})
}

// AnswerSkill records the current skill check. A "no" ends the walk; a "yes"
// on the last check moves on to the endurance question.
func (s *WizardService) AnswerSkill(ctx context.Context, id string, yes bool) (*models.WizardSession, error) {
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageSkills); err != nil {
			return err
		}
		key := models.SkillKey(st.SkillIndex)
		st.Level.SetSkill(key, yes)

		if !yes {
			st.Level.ClearSkillsFrom(key + 1)
			st.Stage = models.StageComments
			return nil
		}
		if st.SkillIndex == int(models.NumSkills)-1 {
			st.Stage = models.StageEndurance
			return nil
		}
		st.SkillIndex++
		return nil
	})
}

// AnswerEndurance records the endurance answer and moves on to comments
func (s *WizardService) AnswerEndurance(ctx context.Context, id string, strong bool) (*models.WizardSession, error) {
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageEndurance); err != nil {
			return err
		}
		st.Level.EnduranceStrong = models.Bool(strong)
		st.Stage = models.StageComments
		return nil
	})
}

// SetComments stores the optional comments
func (s *WizardService) SetComments(ctx context.Context, id, comments string) (*models.WizardSession, error) {
	if len(comments) > maxCommentLength {
		return nil, validation.ValidationError{Field: "comments", Message: fmt.Sprintf("comments must be at most %d characters", maxCommentLength)}
	}
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageComments); err != nil {
			return err
		}
		st.Comments = comments
		return nil
	})
}

// Back returns to the previous step
func (s *WizardService) Back(ctx context.Context, id string) (*models.WizardSession, error) {
	return s.update(ctx, id, func(st *models.WizardState) error {
		switch st.Stage {
		case models.StageMatch:
			if st.MatchStep > 0 {
				st.MatchStep--
				return nil
			}
			st.Stage = models.StageLanding
		case models.StageAge:
			st.Stage = models.StageMatch
		case models.StageSkills:
			if st.SkillIndex > 0 {
				st.SkillIndex--
				return nil
			}
			st.Stage = models.StageAge
		case models.StageEndurance:
			st.Stage = models.StageSkills
		case models.StageComments:
			if leveling.AgeBracket(st.Level.Birthday, s.now()) != leveling.BracketChild {
				st.Stage = models.StageAge
			} else if st.Level.EnduranceStrong != nil {
				st.Stage = models.StageEndurance
			} else {
				st.Stage = models.StageSkills
			}
		case models.StageResults:
			st.Stage = models.StageComments
		default:
			return fmt.Errorf("%w: %s", ErrWrongStage, st.Stage)
		}
		return nil
	})
}

// RedoMatch clears the quiz and restarts it from the results page
func (s *WizardService) RedoMatch(ctx context.Context, id string) (*models.WizardSession, error) {
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageResults); err != nil {
			return err
		}
		st.Quiz = models.QuizState{}
		st.MatchStep = 0
		st.Stage = models.StageMatch
		return nil
	})
}

// RedoLevel clears the level finder and restarts it from the results page
func (s *WizardService) RedoLevel(ctx context.Context, id string) (*models.WizardSession, error) {
	return s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageResults); err != nil {
			return err
		}
		st.Level = models.LevelProfile{}
		st.SkillIndex = 0
		st.Stage = models.StageAge
		return nil
	})
}

// Reset discards every answer and returns to the landing step
func (s *WizardService) Reset(ctx context.Context, id string) (*models.WizardSession, error) {
	return s.update(ctx, id, func(st *models.WizardState) error {
		*st = models.NewWizardState()
		return nil
	})
}

// Results is the rendered outcome of a wizard run
type Results struct {
	SessionID  string
	Stage      models.Stage
	Report     summary.Report
	Summary    string
	SendStatus models.SendStatus
	Submission *models.Submission
}

// ShowResults moves from comments to the results page. The first visit of a
// run sends the summary to the team; a failed send does not block the page.
func (s *WizardService) ShowResults(ctx context.Context, id string) (*Results, error) {
	sess, err := s.update(ctx, id, func(st *models.WizardState) error {
		if err := requireStage(st, models.StageComments); err != nil {
			return err
		}
		st.Stage = models.StageResults
		return nil
	})
	if err != nil {
		return nil, err
	}

	if sess.State.SubmittedAt == nil && s.intake != nil {
		if sess, err = s.submitOnce(ctx, sess); err != nil {
			return nil, err
		}
	}
	return s.results(ctx, sess)
}

// submitOnce sends the summary and records the outcome on the session
func (s *WizardService) submitOnce(ctx context.Context, sess *models.WizardSession) (*models.WizardSession, error) {
	report := summary.Build(s.catalog, sess.State, s.now())
	if report.Level.Complete() {
		levelRecommendations.WithLabelValues(report.Level.Level.String()).Inc()
	}

	payload := report.Payload()
	key := sess.ID + ":" + payload.DedupeKey()

	var (
		status       models.SendStatus
		submissionID int64
	)
	sub, err := s.intake.Submit(ctx, payload, key)
	switch {
	case errors.Is(err, ErrAlreadySubmitted):
		status = models.SendDuplicate
	case sub != nil:
		submissionID = sub.ID
		status = models.SendSent
		if sub.Status != models.SubmissionSent {
			status = models.SendFailed
		}
	default:
		s.logger.Error("Failed to submit intake", zap.String("session_id", sess.ID), zap.Error(err))
		status = models.SendFailed
	}

	return s.update(ctx, sess.ID, func(st *models.WizardState) error {
		now := s.now()
		st.SubmittedAt = &now
		st.SubmissionID = submissionID
		st.SendStatus = status
		return nil
	})
}

// Results renders the current state without changing it
func (s *WizardService) Results(ctx context.Context, id string) (*Results, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.results(ctx, sess)
}

func (s *WizardService) results(ctx context.Context, sess *models.WizardSession) (*Results, error) {
	report := summary.Build(s.catalog, sess.State, s.now())
	res := &Results{
		SessionID:  sess.ID,
		Stage:      sess.State.Stage,
		Report:     report,
		Summary:    report.Text(),
		SendStatus: sess.State.SendStatus,
	}
	if sess.State.SubmissionID != 0 && s.intake != nil {
		sub, err := s.intake.Get(ctx, sess.State.SubmissionID)
		if err != nil && !errors.Is(err, ErrSubmissionNotFound) {
			return nil, err
		}
		res.Submission = sub
	}
	return res, nil
}

// SweepExpired deletes sessions past their expiry
func (s *WizardService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		wizardSessionsSwept.Add(float64(n))
		s.logger.Info("Removed expired wizard sessions", zap.Int64("count", n))
	}
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is cancelled
func (s *WizardService) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.logger.Warn("Wizard session sweep failed", zap.Error(err))
			}
		}
	}
}
