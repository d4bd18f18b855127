package leveling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swimintake/internal/catalog"
	"swimintake/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func allSkills(v bool) [models.NumSkills]*bool {
	var out [models.NumSkills]*bool
	for i := range out {
		out[i] = models.Bool(v)
	}
	return out
}

// schoolAge is a birthday that puts the swimmer in the skill walk at refNow
var (
	refNow    = date(2024, time.June, 15)
	schoolAge = datePtr(2016, time.March, 2)
)

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		now  time.Time
		want int
	}{
		{"same day", date(2024, 6, 15), date(2024, 6, 15), 0},
		{"day before month anniversary", date(2024, 5, 16), date(2024, 6, 15), 0},
		{"on month anniversary", date(2024, 5, 15), date(2024, 6, 15), 1},
		{"across year boundary", date(2023, 11, 30), date(2024, 2, 1), 2},
		{"scenario birthday", date(2022, 1, 15), date(2023, 6, 1), 16},
		{"leap day birthday", date(2020, 2, 29), date(2021, 2, 28), 11},
		{"end of month", date(2024, 1, 31), date(2024, 2, 29), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsBetween(tt.dob, tt.now))
		})
	}
}

func TestYearsBetween(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		now  time.Time
		want int
	}{
		{"day before birthday", date(2008, 6, 16), date(2024, 6, 15), 15},
		{"on birthday", date(2008, 6, 15), date(2024, 6, 15), 16},
		{"later month", date(2008, 7, 1), date(2024, 6, 15), 15},
		{"earlier month", date(2008, 5, 20), date(2024, 6, 15), 16},
		{"leap day birthday in common year", date(2008, 2, 29), date(2024, 2, 28), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, YearsBetween(tt.dob, tt.now))
		})
	}
}

func TestRecommendMissingBirthdayIsIncomplete(t *testing.T) {
	c := catalog.MustDefault()

	rec := Recommend(c, models.LevelProfile{Skills: allSkills(false)}, refNow)

	assert.False(t, rec.Complete())
	assert.Equal(t, models.LevelNone, rec.Level)
	assert.Equal(t, BracketUnknown, rec.Bracket)
	assert.False(t, rec.TooYoung)
}

func TestRecommendAgeBoundaries(t *testing.T) {
	c := catalog.MustDefault()

	tests := []struct {
		name          string
		dob           time.Time
		parentInWater *bool
		wantMonths    int
		wantLevel     models.LevelKey
		wantBracket   Bracket
		wantTooYoung  bool
	}{
		{
			name:         "3 months is too young",
			dob:          date(2024, 3, 15),
			wantMonths:   3,
			wantBracket:  BracketTooYoung,
			wantTooYoung: true,
		},
		{
			name:         "one day short of 4 months is too young",
			dob:          date(2024, 2, 16),
			wantMonths:   3,
			wantBracket:  BracketTooYoung,
			wantTooYoung: true,
		},
		{
			name:        "4 months is ParentTot",
			dob:         date(2024, 2, 15),
			wantMonths:  4,
			wantLevel:   models.LevelParentTot,
			wantBracket: BracketInfant,
		},
		{
			name:        "23 months is ParentTot without asking",
			dob:         date(2022, 7, 15),
			wantMonths:  23,
			wantLevel:   models.LevelParentTot,
			wantBracket: BracketInfant,
		},
		{
			name:        "24 months needs the parent answer",
			dob:         date(2022, 6, 15),
			wantMonths:  24,
			wantBracket: BracketToddler,
		},
		{
			name:          "24 months with parent in water",
			dob:           date(2022, 6, 15),
			parentInWater: models.Bool(true),
			wantMonths:    24,
			wantLevel:     models.LevelParentTot,
			wantBracket:   BracketToddler,
		},
		{
			name:          "36 months without parent",
			dob:           date(2021, 6, 15),
			parentInWater: models.Bool(false),
			wantMonths:    36,
			wantLevel:     models.LevelToddlerTransition,
			wantBracket:   BracketToddler,
		},
		{
			name:          "37 months enters the skill walk",
			dob:           date(2021, 5, 15),
			parentInWater: models.Bool(true),
			wantMonths:    37,
			wantLevel:     models.LevelBeginner1,
			wantBracket:   BracketChild,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.wantMonths, MonthsBetween(tt.dob, refNow))

			dob := tt.dob
			profile := models.LevelProfile{
				Birthday:      &dob,
				ParentInWater: tt.parentInWater,
				Skills:        allSkills(false),
			}
			rec := Recommend(c, profile, refNow)

			assert.Equal(t, tt.wantLevel, rec.Level)
			assert.Equal(t, tt.wantBracket, rec.Bracket)
			assert.Equal(t, tt.wantTooYoung, rec.TooYoung)
			assert.Equal(t, tt.wantLevel.Valid(), rec.Complete())
			if rec.Complete() {
				assert.NotEmpty(t, rec.Reason)
			} else {
				assert.Empty(t, rec.Reason)
			}
		})
	}
}

func TestRecommendScenarioSixteenMonths(t *testing.T) {
	c := catalog.MustDefault()

	rec := Recommend(c, models.LevelProfile{Birthday: datePtr(2022, 1, 15)}, date(2023, 6, 1))

	assert.Equal(t, models.LevelParentTot, rec.Level)
	assert.Equal(t, "4–23 months. ParentTot is the best fit.", rec.Reason)
}

func TestRecommendAdult(t *testing.T) {
	c := catalog.MustDefault()

	tests := []struct {
		name   string
		dob    *time.Time
		skills [models.NumSkills]*bool
		want   models.LevelKey
	}{
		{"turns 16 today", datePtr(2008, 6, 15), allSkills(false), models.LevelAdult1},
		{"strong adult swimmer still ADULT_1", datePtr(1990, 1, 1), allSkills(true), models.LevelAdult1},
		{"day before 16th birthday walks skills", datePtr(2008, 6, 16), allSkills(false), models.LevelBeginner1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(c, models.LevelProfile{Birthday: tt.dob, Skills: tt.skills}, refNow)
			assert.Equal(t, tt.want, rec.Level)
			if tt.want == models.LevelAdult1 {
				assert.Equal(t, "Swimmer is 16+.", rec.Reason)
				assert.Equal(t, BracketAdult, rec.Bracket)
			}
		})
	}
}

func TestRecommendFirstFalseSkillWins(t *testing.T) {
	c := catalog.MustDefault()

	for _, rule := range c.SkillRules() {
		t.Run(rule.Skill.String(), func(t *testing.T) {
			skills := allSkills(true)
			skills[rule.Skill] = models.Bool(false)
			// later answers never matter once an earlier skill is false
			for i := rule.Skill + 1; i < models.NumSkills; i++ {
				skills[i] = models.Bool(i%2 == 0)
			}

			rec := Recommend(c, models.LevelProfile{
				Birthday:        schoolAge,
				Skills:          skills,
				EnduranceStrong: models.Bool(true),
			}, refNow)

			assert.Equal(t, rule.Level, rec.Level)
			assert.Equal(t, rule.Reason, rec.Reason)
		})
	}
}

func TestRecommendFifthSkillFalse(t *testing.T) {
	c := catalog.MustDefault()

	skills := allSkills(true)
	skills[models.SkillKickFrontBackInd] = models.Bool(false)
	skills[models.SkillSixArmStrokesFreeBack] = models.Bool(false)

	rec := Recommend(c, models.LevelProfile{Birthday: schoolAge, Skills: skills}, refNow)

	assert.Equal(t, models.LevelBeginner2, rec.Level)
	assert.Equal(t, "Independent kicking is still developing.", rec.Reason)
}

func TestRecommendUnsetSkillsAreSkipped(t *testing.T) {
	c := catalog.MustDefault()

	var skills [models.NumSkills]*bool
	skills[models.SkillBackstroke12] = models.Bool(false)

	rec := Recommend(c, models.LevelProfile{Birthday: schoolAge, Skills: skills}, refNow)

	assert.Equal(t, models.LevelBeginner4, rec.Level)
}

func TestRecommendEndurance(t *testing.T) {
	c := catalog.MustDefault()

	tests := []struct {
		name      string
		skills    [models.NumSkills]*bool
		endurance *bool
		want      models.LevelKey
		reason    string
	}{
		{"all skills with strong endurance", allSkills(true), models.Bool(true), models.LevelAdvanced2, "Strong proficiency plus strong endurance."},
		{"all skills without endurance", allSkills(true), models.Bool(false), models.LevelAdvanced1, "Strong proficiency. Endurance and efficiency next."},
		{"all skills, endurance unanswered", allSkills(true), nil, models.LevelNone, ""},
		{"no skills answered, endurance unanswered", [models.NumSkills]*bool{}, nil, models.LevelNone, ""},
		{"no skills answered, endurance answered", [models.NumSkills]*bool{}, models.Bool(false), models.LevelAdvanced1, "Strong proficiency. Endurance and efficiency next."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(c, models.LevelProfile{
				Birthday:        schoolAge,
				Skills:          tt.skills,
				EnduranceStrong: tt.endurance,
			}, refNow)
			assert.Equal(t, tt.want, rec.Level)
			assert.Equal(t, tt.reason, rec.Reason)
			assert.False(t, rec.TooYoung)
		})
	}
}

func TestAgeBracketString(t *testing.T) {
	assert.Equal(t, "toddler", BracketToddler.String())
	assert.Equal(t, "unknown", Bracket(42).String())
	assert.Equal(t, BracketUnknown, AgeBracket(nil, refNow))
}
