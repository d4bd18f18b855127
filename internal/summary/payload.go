package summary

import (
	"fmt"
	"strconv"
	"strings"

	"swimintake/internal/mailer"
	"swimintake/internal/models"
)

// NotAvailable is the placeholder rendered for blank fields
const NotAvailable = "N/A"

const mailDivider = "--------------------------------"

// Payload is the flat intake record sent to the team. It is also the JSON
// body accepted by POST /api/intake-submit.
type Payload struct {
	ParentName    string `json:"parentName"`
	Location      string `json:"location"`
	PreferredDay  string `json:"preferredDay,omitempty"`
	PreferredTime string `json:"preferredTime,omitempty"`
	ContactMethod string `json:"contactMethod,omitempty"`
	ContactValue  string `json:"contactValue,omitempty"`

	InstructorPrimary   string `json:"instructorPrimary,omitempty"`
	InstructorSecondary string `json:"instructorSecondary,omitempty"`

	InternalCode    string `json:"internalCode,omitempty"`
	ScoreGoal       *int   `json:"scoreGoal,omitempty"`
	ScoreStructure  *int   `json:"scoreStructure,omitempty"`
	ScoreConnection *int   `json:"scoreConnection,omitempty"`
	ScoreValue      *int   `json:"scoreValue,omitempty"`

	LevelTitle  string `json:"levelTitle,omitempty"`
	LevelRatio  string `json:"levelRatio,omitempty"`
	LevelReason string `json:"levelReason,omitempty"`

	Comments  string `json:"comments,omitempty"`
	PortalURL string `json:"portalUrl,omitempty"`
}

// Normalize trims surrounding whitespace from every text field
func (p Payload) Normalize() Payload {
	for _, f := range []*string{
		&p.ParentName, &p.Location, &p.PreferredDay, &p.PreferredTime,
		&p.ContactMethod, &p.ContactValue, &p.InstructorPrimary, &p.InstructorSecondary,
		&p.InternalCode, &p.LevelTitle, &p.LevelRatio, &p.LevelReason,
		&p.Comments, &p.PortalURL,
	} {
		*f = strings.TrimSpace(*f)
	}
	return p
}

// Subject returns the mail subject line
func (p Payload) Subject() string {
	return fmt.Sprintf("New Intake — %s (%s)", p.ParentName, p.Location)
}

// ReplyTo is the family's address when they asked to be emailed, otherwise empty
func (p Payload) ReplyTo() string {
	if p.ContactMethod == string(models.ContactEmail) {
		return p.ContactValue
	}
	return ""
}

// Body renders the plain-text mail body. Output depends only on p.
func (p Payload) Body() string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	section := func(title string) {
		lines = append(lines, "", title, mailDivider)
	}

	contact := "Phone: " + p.ContactValue
	if p.ContactMethod == string(models.ContactEmail) {
		contact = "Email: " + p.ContactValue
	}

	lines = append(lines, "New Intake Submission", mailDivider)
	add("Name: %s", p.ParentName)
	add("Location: %s", p.Location)
	add("Preferred day: %s", orNA(p.PreferredDay))
	add("Preferred time: %s", orNA(p.PreferredTime))
	add("Contact: %s", contact)

	section("Instructor Match (Customer-facing)")
	add("Primary: %s", orNA(p.InstructorPrimary))
	if p.InstructorSecondary != "" {
		add("Secondary: %s", p.InstructorSecondary)
	}

	section("Internal Reference")
	add("Code: %s", orNA(p.InternalCode))
	add("Scores: %s %s | %s %s | %s %s | %s %s",
		labelGoal, scoreOrNA(p.ScoreGoal),
		labelStructure, scoreOrNA(p.ScoreStructure),
		labelConnection, scoreOrNA(p.ScoreConnection),
		labelValue, scoreOrNA(p.ScoreValue),
	)

	section("Level Finder")
	add("Level: %s", orNA(p.LevelTitle))
	add("Ratio: %s", orNA(p.LevelRatio))
	if p.LevelReason != "" {
		add("Why: %s", p.LevelReason)
	}

	if p.Comments != "" {
		section("Comments / Concerns")
		lines = append(lines, p.Comments)
	}
	if p.PortalURL != "" {
		section("Enrollment Link")
		lines = append(lines, p.PortalURL)
	}

	return strings.Join(lines, "\n")
}

// Message builds the mail record addressed to the intake team. The sender is
// left to the transport.
func (p Payload) Message(to string) mailer.Message {
	return mailer.Message{
		To:      to,
		Subject: p.Subject(),
		Text:    p.Body(),
		ReplyTo: p.ReplyTo(),
	}
}

// DedupeKey identifies one family's submission for the one-shot send guard
func (p Payload) DedupeKey() string {
	return "intake_sent_" + strings.TrimSpace(p.ParentName) + "_" + strings.TrimSpace(p.ContactValue)
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func scoreOrNA(v *int) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(*v)
}
