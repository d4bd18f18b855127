package catalog

import (
	"slices"

	"swimintake/internal/models"
)

// Locations returns every location in display order
func (c *Catalog) Locations() []models.Location {
	return slices.Clone(c.locations)
}

// Location looks up a location by exact name
func (c *Catalog) Location(name string) (models.Location, bool) {
	for _, loc := range c.locations {
		if loc.Name == name {
			return loc, true
		}
	}
	return models.Location{}, false
}

// Days returns the preferred-day choices
func (c *Catalog) Days() []string {
	return slices.Clone(c.days)
}

// TimeWindows returns the preferred-time choices
func (c *Catalog) TimeWindows() []string {
	return slices.Clone(c.timeWindows)
}

// HasDay reports whether day is one of the catalog days
func (c *Catalog) HasDay(day string) bool {
	return slices.Contains(c.days, day)
}

// HasTimeWindow reports whether window is one of the catalog time windows
func (c *Catalog) HasTimeWindow(window string) bool {
	return slices.Contains(c.timeWindows, window)
}

// Questions returns the match questions in the order they are asked
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	for i, q := range c.questions {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}

// Weight returns the score weight of a question
func (c *Catalog) Weight(q models.QuestionID) int {
	if q >= models.NumQuestions {
		return 0
	}
	return c.weights[q]
}

// CategoryFor returns the parent type an answer counts toward
func (c *Catalog) CategoryFor(a models.AnswerKey) (models.ParentType, bool) {
	if !a.Valid() {
		return models.NumParentTypes, false
	}
	return c.answerMap[a], true
}

// Code returns the internal staff code (A-D) of a parent type
func (c *Catalog) Code(p models.ParentType) string {
	if p >= models.NumParentTypes {
		return ""
	}
	return c.codes[p]
}

// ParentTypeForCode is the inverse of Code
func (c *Catalog) ParentTypeForCode(code string) (models.ParentType, bool) {
	for _, p := range models.ParentTypes {
		if c.codes[p] == code {
			return p, true
		}
	}
	return models.NumParentTypes, false
}

// ScoreLabel returns the staff-facing label of a parent type's score
func (c *Catalog) ScoreLabel(p models.ParentType) string {
	if p >= models.NumParentTypes {
		return ""
	}
	return c.scoreLabels[p]
}

// Pair returns the instructor personas matched to a parent type
func (c *Catalog) Pair(p models.ParentType) InstructorPair {
	if p >= models.NumParentTypes {
		return InstructorPair{}
	}
	return c.pairs[p]
}

// Instructor returns the display data of a persona
func (c *Catalog) Instructor(t models.InstructorType) Instructor {
	if t >= models.NumInstructorTypes {
		return Instructor{}
	}
	in := c.instructors[t]
	in.Bullets = slices.Clone(in.Bullets)
	return in
}

// InstructorByTitle finds a persona from its display title
func (c *Catalog) InstructorByTitle(title string) (models.InstructorType, bool) {
	for _, t := range models.InstructorTypes {
		if c.instructors[t].Title == title {
			return t, true
		}
	}
	return models.NumInstructorTypes, false
}

// Level returns the catalog entry of a level
func (c *Catalog) Level(k models.LevelKey) (models.LevelInfo, bool) {
	info, ok := c.levels[k]
	return info, ok
}

// LevelByTitle finds a level from its display title
func (c *Catalog) LevelByTitle(title string) (models.LevelKey, bool) {
	for _, k := range models.LevelKeys {
		if c.levels[k].Title == title {
			return k, true
		}
	}
	return models.LevelNone, false
}

// Skills returns the skill questions in the order they are asked
func (c *Catalog) Skills() []Skill {
	return slices.Clone(c.skills)
}

// SkillRules returns the ordered skill walk
func (c *Catalog) SkillRules() []SkillRule {
	return slices.Clone(c.skillRules)
}

// Reasons returns the age and endurance rule reasons
func (c *Catalog) Reasons() Reasons {
	return c.reasons
}

// Prompts returns the standalone wizard texts
func (c *Catalog) Prompts() Prompts {
	return c.prompts
}
