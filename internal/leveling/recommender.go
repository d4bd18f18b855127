// Package leveling recommends a swim class level from a swimmer's age and
// answers to the ordered skill checks.
package leveling

import (
	"time"

	"swimintake/internal/catalog"
	"swimintake/internal/models"
)

// Recommendation is the level finder outcome. Level is LevelNone while the
// profile is incomplete; TooYoung marks the under-4-months case the caller
// must explain separately.
type Recommendation struct {
	Level    models.LevelKey
	Reason   string
	Bracket  Bracket
	TooYoung bool
}

// Complete reports whether a level was determined
func (r Recommendation) Complete() bool {
	return r.Level.Valid()
}

// Recommend evaluates the level rules in order and returns at the first match.
// Swimmers 16 and older always get ADULT_1; ADULT_2 is only assigned by staff.
func Recommend(c *catalog.Catalog, p models.LevelProfile, now time.Time) Recommendation {
	bracket := AgeBracket(p.Birthday, now)
	reasons := c.Reasons()
	rec := Recommendation{Bracket: bracket}

	switch bracket {
	case BracketUnknown:
		return rec
	case BracketTooYoung:
		rec.TooYoung = true
		return rec
	case BracketInfant:
		return placed(rec, models.LevelParentTot, reasons.Infant)
	case BracketToddler:
		if p.ParentInWater == nil {
			return rec
		}
		if *p.ParentInWater {
			return placed(rec, models.LevelParentTot, reasons.ToddlerParent)
		}
		return placed(rec, models.LevelToddlerTransition, reasons.ToddlerIndependent)
	case BracketAdult:
		return placed(rec, models.LevelAdult1, reasons.Adult)
	}

	for _, rule := range c.SkillRules() {
		if v := p.Skill(rule.Skill); v != nil && !*v {
			return placed(rec, rule.Level, rule.Reason)
		}
	}

	if p.EnduranceStrong == nil {
		return rec
	}
	if *p.EnduranceStrong {
		return placed(rec, models.LevelAdvanced2, reasons.AdvancedEndurance)
	}
	return placed(rec, models.LevelAdvanced1, reasons.Advanced)
}

func placed(rec Recommendation, level models.LevelKey, reason string) Recommendation {
	rec.Level = level
	rec.Reason = reason
	return rec
}
