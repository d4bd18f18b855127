package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swimintake/internal/models"
	"swimintake/internal/validation"
)

// toAge starts a session and walks it through the landing form and match quiz
func (f *fixture) toAge(t *testing.T, answer models.AnswerKey) string {
	t.Helper()
	ctx := context.Background()

	sess, err := f.wizard.Start(ctx)
	require.NoError(t, err)

	_, err = f.wizard.SaveIntake(ctx, sess.ID, validIntake())
	require.NoError(t, err)

	for i := 0; i < int(models.NumQuestions); i++ {
		sess, err = f.wizard.AnswerMatch(ctx, sess.ID, answer)
		require.NoError(t, err)
	}
	require.Equal(t, models.StageAge, sess.State.Stage)
	return sess.ID
}

func TestWizardStart(t *testing.T) {
	f := newFixture(t)

	sess, err := f.wizard.Start(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, models.StageLanding, sess.State.Stage)
	assert.Equal(t, f.now.Add(time.Hour), sess.ExpiresAt)

	got, err := f.wizard.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.State, got.State)
}

func TestWizardFullRunSendsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toAge(t, models.AnswerB)

	_, err := f.wizard.SetBirthday(ctx, id, day(2016, time.March, 2))
	require.NoError(t, err)
	sess, err := f.wizard.ProceedAge(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.StageSkills, sess.State.Stage)

	for i := 0; i < 4; i++ {
		sess, err = f.wizard.AnswerSkill(ctx, id, true)
		require.NoError(t, err)
	}
	sess, err = f.wizard.AnswerSkill(ctx, id, false)
	require.NoError(t, err)
	require.Equal(t, models.StageComments, sess.State.Stage)
	assert.Equal(t, 4, sess.State.SkillIndex)

	_, err = f.wizard.SetComments(ctx, id, "Loves the pool")
	require.NoError(t, err)

	res, err := f.wizard.ShowResults(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, models.StageResults, res.Stage)
	assert.Equal(t, models.SendSent, res.SendStatus)
	require.NotNil(t, res.Submission)
	assert.Equal(t, models.SubmissionSent, res.Submission.Status)
	assert.Equal(t, models.LevelBeginner2, res.Report.Level.Level)
	assert.Equal(t, "B", res.Report.Match.InternalCode)
	assert.Contains(t, res.Summary, "Client Intake Summary")
	assert.Contains(t, res.Summary, "Loves the pool")

	msgs := f.transport.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Why: Independent kicking is still developing.")
	assert.Contains(t, msgs[0].Text, "Code: B")

	// editing comments and coming back does not send again
	_, err = f.wizard.Back(ctx, id)
	require.NoError(t, err)
	_, err = f.wizard.SetComments(ctx, id, "Changed my mind")
	require.NoError(t, err)
	res, err = f.wizard.ShowResults(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SendSent, res.SendStatus)
	assert.Len(t, f.transport.messages(), 1)
}

func TestWizardResetSameFamilyIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	run := func(id string) *Results {
		_, err := f.wizard.SetBirthday(ctx, id, day(2024, time.January, 1))
		require.NoError(t, err)
		_, err = f.wizard.ProceedAge(ctx, id)
		require.NoError(t, err)
		res, err := f.wizard.ShowResults(ctx, id)
		require.NoError(t, err)
		return res
	}

	id := f.toAge(t, models.AnswerA)
	first := run(id)
	assert.Equal(t, models.SendSent, first.SendStatus)

	sess, err := f.wizard.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.NewWizardState(), sess.State)

	_, err = f.wizard.SaveIntake(ctx, id, validIntake())
	require.NoError(t, err)
	for i := 0; i < int(models.NumQuestions); i++ {
		_, err = f.wizard.AnswerMatch(ctx, id, models.AnswerA)
		require.NoError(t, err)
	}
	second := run(id)

	assert.Equal(t, models.SendDuplicate, second.SendStatus)
	assert.Nil(t, second.Submission)
	assert.Len(t, f.transport.messages(), 1)
}

func TestWizardSendFailureDoesNotBlockResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toAge(t, models.AnswerD)

	_, err := f.wizard.SetBirthday(ctx, id, day(2000, time.January, 1))
	require.NoError(t, err)
	_, err = f.wizard.ProceedAge(ctx, id)
	require.NoError(t, err)

	f.transport.fail(errSMTPDown)
	res, err := f.wizard.ShowResults(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, models.StageResults, res.Stage)
	assert.Equal(t, models.SendFailed, res.SendStatus)
	require.NotNil(t, res.Submission)
	assert.Equal(t, models.SubmissionFailed, res.Submission.Status)
	assert.Equal(t, models.LevelAdult1, res.Report.Level.Level)
}

func TestWizardProceedAge(t *testing.T) {
	tests := []struct {
		name          string
		dob           *time.Time
		parentInWater *bool
		wantStage     models.Stage
		wantErr       error
		wantField     string
	}{
		{name: "no birthday", wantStage: models.StageAge, wantField: "birthday"},
		{name: "too young", dob: ptr(day(2024, time.April, 1)), wantStage: models.StageAge, wantErr: ErrTooYoung},
		{name: "infant", dob: ptr(day(2023, time.June, 1)), wantStage: models.StageComments},
		{name: "toddler needs parent answer", dob: ptr(day(2022, time.January, 15)), wantStage: models.StageAge, wantField: "parent_in_water"},
		{name: "toddler with answer", dob: ptr(day(2022, time.January, 15)), parentInWater: models.Bool(false), wantStage: models.StageComments},
		{name: "adult", dob: ptr(day(1990, time.May, 5)), wantStage: models.StageComments},
		{name: "child", dob: ptr(day(2016, time.March, 2)), wantStage: models.StageSkills},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			id := f.toAge(t, models.AnswerC)

			if tt.dob != nil {
				_, err := f.wizard.SetBirthday(ctx, id, *tt.dob)
				require.NoError(t, err)
			}
			if tt.parentInWater != nil {
				_, err := f.wizard.SetParentInWater(ctx, id, *tt.parentInWater)
				require.NoError(t, err)
			}

			_, err := f.wizard.ProceedAge(ctx, id)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantField != "":
				errs, ok := validation.AsErrors(err)
				require.True(t, ok, "error = %v", err)
				assert.Equal(t, []string{tt.wantField}, errs.Fields())
			default:
				require.NoError(t, err)
			}

			sess, err := f.wizard.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStage, sess.State.Stage)
		})
	}
}

func TestWizardSetBirthdayRejectsFuture(t *testing.T) {
	f := newFixture(t)
	id := f.toAge(t, models.AnswerA)

	_, err := f.wizard.SetBirthday(context.Background(), id, day(2030, time.January, 1))
	_, ok := validation.AsErrors(err)
	assert.True(t, ok, "error = %v", err)
}

func TestWizardAllSkillsThenEndurance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toAge(t, models.AnswerA)

	_, err := f.wizard.SetBirthday(ctx, id, day(2012, time.August, 20))
	require.NoError(t, err)
	_, err = f.wizard.ProceedAge(ctx, id)
	require.NoError(t, err)

	var sess *models.WizardSession
	for i := 0; i < int(models.NumSkills); i++ {
		sess, err = f.wizard.AnswerSkill(ctx, id, true)
		require.NoError(t, err)
	}
	require.Equal(t, models.StageEndurance, sess.State.Stage)

	sess, err = f.wizard.AnswerEndurance(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, models.StageComments, sess.State.Stage)

	// back from comments returns to the endurance question
	sess, err = f.wizard.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StageEndurance, sess.State.Stage)

	_, err = f.wizard.AnswerEndurance(ctx, id, true)
	require.NoError(t, err)
	res, err := f.wizard.ShowResults(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.LevelAdvanced2, res.Report.Level.Level)
}

func TestWizardNoAnswerClearsLaterSkills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toAge(t, models.AnswerA)

	_, err := f.wizard.SetBirthday(ctx, id, day(2016, time.March, 2))
	require.NoError(t, err)
	_, err = f.wizard.ProceedAge(ctx, id)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.wizard.AnswerSkill(ctx, id, true)
		require.NoError(t, err)
	}

	// step back to the second skill and answer no
	_, err = f.wizard.Back(ctx, id)
	require.NoError(t, err)
	sess, err := f.wizard.Back(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, sess.State.SkillIndex)

	sess, err = f.wizard.AnswerSkill(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, models.StageComments, sess.State.Stage)
	assert.Nil(t, sess.State.Level.Skill(models.SkillKey(2)))

	sess, err = f.wizard.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StageSkills, sess.State.Stage)
	assert.Equal(t, 1, sess.State.SkillIndex)
}

func TestWizardBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.wizard.Start(ctx)
	require.NoError(t, err)
	id := sess.ID

	_, err = f.wizard.Back(ctx, id)
	assert.ErrorIs(t, err, ErrWrongStage)

	_, err = f.wizard.SaveIntake(ctx, id, validIntake())
	require.NoError(t, err)
	_, err = f.wizard.AnswerMatch(ctx, id, models.AnswerA)
	require.NoError(t, err)

	sess, err = f.wizard.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StageMatch, sess.State.Stage)
	assert.Equal(t, 0, sess.State.MatchStep)

	sess, err = f.wizard.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StageLanding, sess.State.Stage)
	assert.Equal(t, validIntake(), sess.State.Intake, "intake is kept")
}

func TestWizardBackFromCommentsForAgePlacedSwimmer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toAge(t, models.AnswerA)

	_, err := f.wizard.SetBirthday(ctx, id, day(2023, time.June, 1))
	require.NoError(t, err)
	_, err = f.wizard.ProceedAge(ctx, id)
	require.NoError(t, err)

	sess, err := f.wizard.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StageAge, sess.State.Stage)
}

func TestWizardWrongStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.wizard.Start(ctx)
	require.NoError(t, err)

	_, err = f.wizard.AnswerMatch(ctx, sess.ID, models.AnswerA)
	assert.ErrorIs(t, err, ErrWrongStage)
	_, err = f.wizard.AnswerSkill(ctx, sess.ID, true)
	assert.ErrorIs(t, err, ErrWrongStage)
	_, err = f.wizard.ShowResults(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrWrongStage)
	_, err = f.wizard.RedoMatch(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrWrongStage)

	_, err = f.wizard.AnswerMatch(ctx, sess.ID, models.AnswerNone)
	_, ok := validation.AsErrors(err)
	assert.True(t, ok)
}

func TestWizardSaveIntakeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.wizard.Start(ctx)
	require.NoError(t, err)

	in := validIntake()
	in.Location = "Atlantis"
	_, err = f.wizard.SaveIntake(ctx, sess.ID, in)
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"location"}, errs.Fields())

	got, err := f.wizard.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageLanding, got.State.Stage)
	assert.Empty(t, got.State.Intake.ParentName)
}

func TestWizardRedo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toAge(t, models.AnswerB)

	_, err := f.wizard.SetBirthday(ctx, id, day(2023, time.June, 1))
	require.NoError(t, err)
	_, err = f.wizard.ProceedAge(ctx, id)
	require.NoError(t, err)
	_, err = f.wizard.ShowResults(ctx, id)
	require.NoError(t, err)

	sess, err := f.wizard.RedoMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StageMatch, sess.State.Stage)
	assert.Equal(t, models.QuizState{}, sess.State.Quiz)
	assert.NotNil(t, sess.State.Level.Birthday, "level answers are kept")

	for i := 0; i < int(models.NumQuestions); i++ {
		_, err = f.wizard.AnswerMatch(ctx, id, models.AnswerC)
		require.NoError(t, err)
	}
	_, err = f.wizard.ProceedAge(ctx, id)
	require.NoError(t, err)
	res, err := f.wizard.ShowResults(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ParentExtraAttention, res.Report.Match.Winner)

	sess, err = f.wizard.RedoLevel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StageAge, sess.State.Stage)
	assert.Equal(t, models.LevelProfile{}, sess.State.Level)
	assert.Equal(t, 0, sess.State.SkillIndex)
}

func TestWizardExpiryAndSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.wizard.Start(ctx)
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Minute)
	_, err = f.wizard.SaveIntake(ctx, sess.ID, validIntake())
	require.NoError(t, err, "activity slides the expiry")

	f.now = f.now.Add(61 * time.Minute)
	_, err = f.wizard.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	n, err := f.wizard.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.wizard.Get(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.wizard.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWizardRunSweeperStops(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.wizard.RunSweeper(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunSweeper did not stop")
	}
}

func ptr[T any](v T) *T {
	return &v
}
