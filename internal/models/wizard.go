package models

import "time"

// Stage is a step of the intake wizard
type Stage string

const (
	StageLanding   Stage = "landing"
	StageMatch     Stage = "match"
	StageAge       Stage = "age"
	StageSkills    Stage = "skills"
	StageEndurance Stage = "endurance"
	StageComments  Stage = "comments"
	StageResults   Stage = "results"
)

// WizardState is the full client state of one intake run
type WizardState struct {
	Stage        Stage        `json:"stage"`
	Intake       Intake       `json:"intake"`
	MatchStep    int          `json:"match_step"`
	Quiz         QuizState    `json:"quiz"`
	Level        LevelProfile `json:"level"`
	SkillIndex   int          `json:"skill_index"`
	Comments     string       `json:"comments"`
	SubmissionID int64        `json:"submission_id,omitempty"`
	SubmittedAt  *time.Time   `json:"submitted_at,omitempty"`
	SendStatus   SendStatus   `json:"send_status,omitempty"`
}

// SendStatus is the outcome of the automatic email to the team
type SendStatus string

const (
	SendIdle      SendStatus = ""
	SendSent      SendStatus = "sent"
	SendFailed    SendStatus = "failed"
	SendDuplicate SendStatus = "duplicate"
)

// NewWizardState returns the state of a fresh wizard run
func NewWizardState() WizardState {
	return WizardState{Stage: StageLanding}
}

// WizardSession is a persisted wizard run bound to a browser cookie
type WizardSession struct {
	ID        string
	State     WizardState
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired checks if the session has expired at now
func (s *WizardSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
