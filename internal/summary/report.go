// Package summary renders a finished intake as the staff summary and the
// mail record sent to the team, and reads a mail body back into labels.
package summary

import (
	"fmt"
	"strings"
	"time"

	"swimintake/internal/catalog"
	"swimintake/internal/leveling"
	"swimintake/internal/matching"
	"swimintake/internal/models"
)

// Score labels used in the mail body, in parent type order
const (
	labelGoal       = "Goal"
	labelStructure  = "Structure"
	labelConnection = "Connection"
	labelValue      = "Value"
)

const summaryDivider = "------------------------------"

// Report is everything known about one intake run
type Report struct {
	Intake      models.Intake
	Match       matching.Result
	Personas    []catalog.Instructor
	Level       leveling.Recommendation
	LevelInfo   models.LevelInfo
	Comments    string
	Location    *models.Location
	ScoreLabels [models.NumParentTypes]string
}

// Build evaluates both decision components against state and collects the
// catalog entries needed to render them.
func Build(c *catalog.Catalog, state models.WizardState, now time.Time) Report {
	r := Report{
		Intake:   state.Intake,
		Match:    matching.Classify(c, state.Quiz),
		Level:    leveling.Recommend(c, state.Level, now),
		Comments: strings.TrimSpace(state.Comments),
	}
	r.Personas = r.Match.Personas(c)
	if r.Level.Complete() {
		r.LevelInfo, _ = c.Level(r.Level.Level)
	}
	if loc, ok := c.Location(state.Intake.Location); ok {
		r.Location = &loc
	}
	for _, p := range models.ParentTypes {
		r.ScoreLabels[p] = c.ScoreLabel(p)
	}
	return r
}

// PortalURL is the enrollment link of the chosen location
func (r Report) PortalURL() string {
	if r.Location == nil {
		return ""
	}
	return r.Location.PortalURL
}

// Text renders the staff summary shown on the results page
func (r Report) Text() string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	section := func(title string) {
		lines = append(lines, title, summaryDivider)
	}

	in := r.Intake
	contact := in.ContactPhone
	if in.ContactMethod == models.ContactEmail {
		contact = in.ContactEmail
	}

	section("Client Intake Summary")
	add("Name: %s", orNA(in.ParentName))
	add("Location: %s", orNA(in.Location))
	add("Best day: %s", orNA(in.PreferredDay))
	add("Best time: %s", orNA(in.PreferredTime))
	add("Contact method: %s", orNA(string(in.ContactMethod)))
	add("Contact: %s", orNA(contact))
	lines = append(lines, "")

	section("Instructor Match (Customer-facing)")
	if len(r.Personas) > 0 {
		add("Primary: %s", r.Personas[0].Title)
		if len(r.Personas) > 1 {
			add("Secondary: %s", r.Personas[1].Title)
		}
	} else {
		lines = append(lines, "Not completed")
	}
	lines = append(lines, "")

	section("Internal Reference")
	if r.Match.Complete {
		add("Code: %s", r.Match.InternalCode)
		parts := make([]string, 0, len(models.ParentTypes))
		for _, p := range models.ParentTypes {
			parts = append(parts, fmt.Sprintf("%s %d", r.ScoreLabels[p], r.Match.Scores[p]))
		}
		add("Scores: %s", strings.Join(parts, " | "))
	} else {
		lines = append(lines, "Not completed")
	}
	lines = append(lines, "")

	section("Level Finder")
	if r.Level.Complete() {
		add("Level: %s", r.LevelInfo.Title)
		add("Ratio: %s", r.LevelInfo.Ratio)
		if r.Level.Reason != "" {
			add("Why: %s", r.Level.Reason)
		}
	} else {
		lines = append(lines, "Not enough info")
	}

	if r.Comments != "" {
		lines = append(lines, "")
		section("Comments / Concerns")
		lines = append(lines, r.Comments)
	}
	if url := r.PortalURL(); url != "" {
		lines = append(lines, "")
		section("Enrollment Link")
		lines = append(lines, url)
	}
	if r.Location != nil {
		lines = append(lines, "")
		section("Location Contact")
		add("%s | Phone: %s | Email: %s", r.Location.Brand, r.Location.Phone, r.Location.Email)
	}

	return strings.Join(lines, "\n")
}

// Payload flattens the report into the record mailed to the team
func (r Report) Payload() Payload {
	in := r.Intake
	p := Payload{
		ParentName:    orNA(strings.TrimSpace(in.ParentName)),
		Location:      orNA(strings.TrimSpace(in.Location)),
		PreferredDay:  orNA(in.PreferredDay),
		PreferredTime: orNA(in.PreferredTime),
		ContactMethod: string(in.ContactMethod),
		ContactValue:  orNA(in.ContactValue()),

		ScoreGoal:       intPtr(r.Match.Scores[models.ParentSupersonic]),
		ScoreStructure:  intPtr(r.Match.Scores[models.ParentHighMaintenance]),
		ScoreConnection: intPtr(r.Match.Scores[models.ParentExtraAttention]),
		ScoreValue:      intPtr(r.Match.Scores[models.ParentBudget]),

		Comments:  r.Comments,
		PortalURL: r.PortalURL(),
	}
	if len(r.Personas) > 0 {
		p.InstructorPrimary = r.Personas[0].Title
	}
	if len(r.Personas) > 1 {
		p.InstructorSecondary = r.Personas[1].Title
	}
	if r.Match.Complete {
		p.InternalCode = r.Match.InternalCode
	}
	if r.Level.Complete() {
		p.LevelTitle = r.LevelInfo.Title
		p.LevelRatio = r.LevelInfo.Ratio
		p.LevelReason = r.Level.Reason
	}
	return p
}

func intPtr(v int) *int {
	return &v
}
