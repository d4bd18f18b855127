package models

import "time"

// SubmissionStatus tracks delivery of the staff email
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionSent    SubmissionStatus = "sent"
	SubmissionFailed  SubmissionStatus = "failed"
)

// Valid reports whether s is a known status
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionSent, SubmissionFailed:
		return true
	}
	return false
}

// Submission is one intake summary sent (or attempted) to staff
type Submission struct {
	ID           int64            `json:"id"`
	Reference    string           `json:"reference"`
	DedupeKey    string           `json:"dedupe_key"`
	ParentName   string           `json:"parent_name"`
	Location     string           `json:"location"`
	ContactValue string           `json:"contact_value"`
	InternalCode string           `json:"internal_code"`
	LevelTitle   string           `json:"level_title"`
	Recipient    string           `json:"recipient"`
	ReplyTo      string           `json:"reply_to,omitempty"`
	Subject      string           `json:"subject"`
	Body         string           `json:"body"`
	Status       SubmissionStatus `json:"status"`
	MessageID    string           `json:"message_id,omitempty"`
	LastError    string           `json:"last_error,omitempty"`
	Attempts     int              `json:"attempts"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	SentAt       *time.Time       `json:"sent_at,omitempty"`
}
