package summary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"swimintake/internal/catalog"
	"swimintake/internal/models"
)

// Section titles written by Payload.Body
const (
	sectionComments   = "Comments / Concerns"
	sectionEnrollment = "Enrollment Link"
)

var sectionTitles = map[string]bool{
	"Instructor Match (Customer-facing)": true,
	"Internal Reference":                 true,
	"Level Finder":                       true,
	sectionComments:                      true,
	sectionEnrollment:                    true,
}

// ErrNotIntakeBody is returned when the text does not start with the mail body header
var ErrNotIntakeBody = errors.New("summary: not an intake submission body")

// Parsed is a mail body read back into its payload and catalog keys
type Parsed struct {
	Payload Payload

	Category    models.ParentType
	HasCategory bool

	Primary      models.InstructorType
	HasPrimary   bool
	Secondary    models.InstructorType
	HasSecondary bool

	Level models.LevelKey
}

// Parse reads a body produced by Payload.Body. Placeholder values for optional
// fields come back empty, and the labels are resolved against c.
func Parse(c *catalog.Catalog, body string) (Parsed, error) {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "New Intake Submission" {
		return Parsed{}, ErrNotIntakeBody
	}

	var (
		out     Parsed
		p       = &out.Payload
		current string
		block   []string
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(block, "\n"))
		switch current {
		case sectionComments:
			p.Comments = text
		case sectionEnrollment:
			p.PortalURL = text
		}
		block = nil
	}

	for i := 1; i < len(lines); i++ {
		line := lines[i]
		header := i+1 < len(lines) && isDivider(lines[i+1])

		// Comments are free text. Only the trailing enrollment block ends them.
		if current == sectionComments {
			if header && strings.TrimSpace(line) == sectionEnrollment && isLastLine(lines[i+2:]) {
				flush()
				current = sectionEnrollment
				i++
				continue
			}
			block = append(block, line)
			continue
		}

		if isDivider(line) {
			continue
		}
		if header && sectionTitles[strings.TrimSpace(line)] {
			flush()
			current = strings.TrimSpace(line)
			i++
			continue
		}
		if current == sectionEnrollment {
			block = append(block, line)
			continue
		}

		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Name":
			p.ParentName = value
		case "Location":
			p.Location = value
		case "Preferred day":
			p.PreferredDay = blankNA(value)
		case "Preferred time":
			p.PreferredTime = blankNA(value)
		case "Contact":
			if v, found := strings.CutPrefix(value, "Email: "); found {
				p.ContactMethod = string(models.ContactEmail)
				p.ContactValue = strings.TrimSpace(v)
			} else if v, found := strings.CutPrefix(value, "Phone: "); found {
				p.ContactMethod = string(models.ContactPhone)
				p.ContactValue = strings.TrimSpace(v)
			}
		case "Primary":
			p.InstructorPrimary = blankNA(value)
		case "Secondary":
			p.InstructorSecondary = value
		case "Code":
			p.InternalCode = blankNA(value)
		case "Scores":
			if err := parseScores(p, value); err != nil {
				return Parsed{}, err
			}
		case "Level":
			p.LevelTitle = blankNA(value)
		case "Ratio":
			p.LevelRatio = blankNA(value)
		case "Why":
			p.LevelReason = value
		}
	}
	flush()

	if p.InternalCode != "" {
		out.Category, out.HasCategory = c.ParentTypeForCode(p.InternalCode)
	}
	if p.InstructorPrimary != "" {
		out.Primary, out.HasPrimary = c.InstructorByTitle(p.InstructorPrimary)
	}
	if p.InstructorSecondary != "" {
		out.Secondary, out.HasSecondary = c.InstructorByTitle(p.InstructorSecondary)
	}
	if p.LevelTitle != "" {
		out.Level, _ = c.LevelByTitle(p.LevelTitle)
	}
	return out, nil
}

func parseScores(p *Payload, value string) error {
	for _, part := range strings.Split(value, "|") {
		label, raw, ok := strings.Cut(strings.TrimSpace(part), " ")
		if !ok {
			return fmt.Errorf("summary: malformed score %q", part)
		}
		var score *int
		if raw != NotAvailable {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("summary: score %s: %w", label, err)
			}
			score = &n
		}
		switch label {
		case labelGoal:
			p.ScoreGoal = score
		case labelStructure:
			p.ScoreStructure = score
		case labelConnection:
			p.ScoreConnection = score
		case labelValue:
			p.ScoreValue = score
		default:
			return fmt.Errorf("summary: unknown score label %q", label)
		}
	}
	return nil
}

func isDivider(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) >= 3 && strings.Trim(line, "-") == ""
}

// isLastLine reports whether rest holds exactly one non-blank line
func isLastLine(rest []string) bool {
	n := 0
	for _, l := range rest {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if isDivider(l) {
			return false
		}
		n++
	}
	return n == 1
}

func blankNA(s string) string {
	if s == NotAvailable {
		return ""
	}
	return s
}
