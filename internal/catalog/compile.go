package catalog

import (
	"fmt"
	"strings"

	"swimintake/internal/models"
)

const totalWeight = 100

func compile(doc *document) (*Catalog, error) {
	c := &Catalog{
		locations:   doc.Locations,
		days:        doc.Days,
		timeWindows: doc.TimeWindows,
		questions:   doc.Match.Questions,
		prompts:     doc.Prompts,
		reasons:     doc.Reasons,
		skills:      doc.Skills,
		levels:      make(map[models.LevelKey]models.LevelInfo, models.NumLevels),
	}

	if err := c.compileLocations(); err != nil {
		return nil, err
	}
	if err := c.compileMatch(doc); err != nil {
		return nil, err
	}
	if err := c.compileCategories(doc.Categories); err != nil {
		return nil, err
	}
	if err := c.compileInstructors(doc.Instructors); err != nil {
		return nil, err
	}
	if err := c.compileLevels(doc.Levels); err != nil {
		return nil, err
	}
	if err := c.compileSkills(); err != nil {
		return nil, err
	}
	if doc.Reasons.Infant == "" || doc.Reasons.ToddlerParent == "" || doc.Reasons.ToddlerIndependent == "" ||
		doc.Reasons.Adult == "" || doc.Reasons.Advanced == "" || doc.Reasons.AdvancedEndurance == "" {
		return nil, fmt.Errorf("catalog: every age and endurance reason is required")
	}
	return c, nil
}

func (c *Catalog) compileLocations() error {
	if len(c.locations) == 0 {
		return fmt.Errorf("catalog: at least one location is required")
	}
	seen := make(map[string]bool, len(c.locations))
	for _, loc := range c.locations {
		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("catalog: location name is required")
		}
		if seen[loc.Name] {
			return fmt.Errorf("catalog: duplicate location %q", loc.Name)
		}
		seen[loc.Name] = true
	}
	if len(c.days) == 0 || len(c.timeWindows) == 0 {
		return fmt.Errorf("catalog: days and time windows are required")
	}
	return nil
}

func (c *Catalog) compileMatch(doc *document) error {
	if len(doc.Match.Questions) != int(models.NumQuestions) {
		return fmt.Errorf("catalog: expected %d match questions, got %d", models.NumQuestions, len(doc.Match.Questions))
	}
	for i, q := range doc.Match.Questions {
		if q.ID != models.QuestionID(i).String() {
			return fmt.Errorf("catalog: question %d has id %q, want %q", i+1, q.ID, models.QuestionID(i))
		}
		if len(q.Options) != len(models.AnswerKeys) {
			return fmt.Errorf("catalog: question %s needs %d options", q.ID, len(models.AnswerKeys))
		}
		for j, o := range q.Options {
			if o.Key != models.AnswerKeys[j].String() {
				return fmt.Errorf("catalog: question %s option %d has key %q", q.ID, j+1, o.Key)
			}
		}
	}

	sum := 0
	for _, q := range models.QuestionIDs {
		w, ok := doc.Match.Weights[q.String()]
		if !ok || w <= 0 {
			return fmt.Errorf("catalog: missing weight for %s", q)
		}
		c.weights[q] = w
		sum += w
	}
	if sum != totalWeight {
		return fmt.Errorf("catalog: match weights sum to %d, want %d", sum, totalWeight)
	}

	for _, a := range models.AnswerKeys {
		name, ok := doc.Match.Answers[a.String()]
		if !ok {
			return fmt.Errorf("catalog: answer %s is not mapped to a parent type", a)
		}
		p, err := models.ParseParentType(name)
		if err != nil {
			return fmt.Errorf("catalog: answer %s: %w", a, err)
		}
		c.answerMap[a] = p
	}
	return nil
}

func (c *Catalog) compileCategories(categories []Category) error {
	var seen [models.NumParentTypes]bool
	for _, cat := range categories {
		p, err := models.ParseParentType(cat.Type)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		if seen[p] {
			return fmt.Errorf("catalog: duplicate category %s", p)
		}
		seen[p] = true

		if cat.Code == "" || cat.ScoreLabel == "" {
			return fmt.Errorf("catalog: category %s needs a code and a score label", p)
		}
		primary, err := models.ParseInstructorType(cat.Primary)
		if err != nil {
			return fmt.Errorf("catalog: category %s: %w", p, err)
		}
		pair := InstructorPair{Primary: primary}
		if cat.Secondary != "" {
			secondary, err := models.ParseInstructorType(cat.Secondary)
			if err != nil {
				return fmt.Errorf("catalog: category %s: %w", p, err)
			}
			if secondary == primary {
				return fmt.Errorf("catalog: category %s repeats persona %s", p, primary)
			}
			pair.Secondary = secondary
			pair.HasSecondary = true
		}
		c.codes[p] = cat.Code
		c.scoreLabels[p] = cat.ScoreLabel
		c.pairs[p] = pair
	}
	for _, p := range models.ParentTypes {
		if !seen[p] {
			return fmt.Errorf("catalog: category %s is missing", p)
		}
	}
	return nil
}

func (c *Catalog) compileInstructors(instructors []Instructor) error {
	var seen [models.NumInstructorTypes]bool
	for _, in := range instructors {
		t, err := models.ParseInstructorType(in.Type)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		if seen[t] {
			return fmt.Errorf("catalog: duplicate instructor %s", t)
		}
		if in.Title == "" {
			return fmt.Errorf("catalog: instructor %s needs a title", t)
		}
		seen[t] = true
		c.instructors[t] = in
	}
	for _, t := range models.InstructorTypes {
		if !seen[t] {
			return fmt.Errorf("catalog: instructor %s is missing", t)
		}
	}
	return nil
}

func (c *Catalog) compileLevels(entries []levelEntry) error {
	for _, e := range entries {
		k, err := models.ParseLevelKey(e.Key)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.levels[k]; dup {
			return fmt.Errorf("catalog: duplicate level %s", k)
		}
		if e.Title == "" || e.Ratio == "" {
			return fmt.Errorf("catalog: level %s needs a title and ratio", k)
		}
		c.levels[k] = e.LevelInfo
	}
	for _, k := range models.LevelKeys {
		if _, ok := c.levels[k]; !ok {
			return fmt.Errorf("catalog: level %s is missing", k)
		}
	}
	return nil
}

func (c *Catalog) compileSkills() error {
	if len(c.skills) != int(models.NumSkills) {
		return fmt.Errorf("catalog: expected %d skills, got %d", models.NumSkills, len(c.skills))
	}
	c.skillRules = make([]SkillRule, 0, len(c.skills))
	for i, s := range c.skills {
		key, err := models.ParseSkillKey(s.Key)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		if key != models.SkillKey(i) {
			return fmt.Errorf("catalog: skill %s is out of order at position %d", key, i+1)
		}
		level, err := models.ParseLevelKey(s.Level)
		if err != nil {
			return fmt.Errorf("catalog: skill %s: %w", key, err)
		}
		if !level.IsSkillLevel() {
			return fmt.Errorf("catalog: skill %s points to %s, which is not a skill level", key, level)
		}
		if s.Reason == "" {
			return fmt.Errorf("catalog: skill %s needs a reason", key)
		}
		c.skillRules = append(c.skillRules, SkillRule{Skill: key, Level: level, Reason: s.Reason})
	}
	return nil
}
