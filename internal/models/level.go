package models

import (
	"fmt"
	"time"
)

// LevelKey identifies one of the thirteen swim class levels.
// The zero value means no level has been determined.
type LevelKey uint8

const (
	LevelNone LevelKey = iota
	LevelParentTot
	LevelToddlerTransition
	LevelBeginner1
	LevelBeginner2
	LevelBeginner3
	LevelBeginner4
	LevelIntermediate1
	LevelIntermediate2
	LevelIntermediate3
	LevelAdvanced1
	LevelAdvanced2
	LevelAdult1
	LevelAdult2
	levelSentinel
)

// NumLevels is the number of real levels (LevelNone excluded)
const NumLevels = int(levelSentinel) - 1

// LevelKeys lists every level in catalog order
var LevelKeys = []LevelKey{
	LevelParentTot,
	LevelToddlerTransition,
	LevelBeginner1,
	LevelBeginner2,
	LevelBeginner3,
	LevelBeginner4,
	LevelIntermediate1,
	LevelIntermediate2,
	LevelIntermediate3,
	LevelAdvanced1,
	LevelAdvanced2,
	LevelAdult1,
	LevelAdult2,
}

var levelKeyNames = [levelSentinel]string{
	LevelParentTot:         "PARENTTOT",
	LevelToddlerTransition: "TODDLER_TRANSITION",
	LevelBeginner1:         "BEGINNER_1",
	LevelBeginner2:         "BEGINNER_2",
	LevelBeginner3:         "BEGINNER_3",
	LevelBeginner4:         "BEGINNER_4",
	LevelIntermediate1:     "INTERMEDIATE_1",
	LevelIntermediate2:     "INTERMEDIATE_2",
	LevelIntermediate3:     "INTERMEDIATE_3",
	LevelAdvanced1:         "ADVANCED_1",
	LevelAdvanced2:         "ADVANCED_2",
	LevelAdult1:            "ADULT_1",
	LevelAdult2:            "ADULT_2",
}

func (l LevelKey) String() string {
	if l >= levelSentinel {
		return ""
	}
	return levelKeyNames[l]
}

// Valid reports whether l names a real level
func (l LevelKey) Valid() bool {
	return l > LevelNone && l < levelSentinel
}

// IsSkillLevel reports whether l can be reached through the skill walk
func (l LevelKey) IsSkillLevel() bool {
	return l >= LevelBeginner1 && l <= LevelIntermediate3
}

// ParseLevelKey parses a level name such as "BEGINNER_2"
func ParseLevelKey(s string) (LevelKey, error) {
	for _, k := range LevelKeys {
		if levelKeyNames[k] == s {
			return k, nil
		}
	}
	return LevelNone, fmt.Errorf("invalid level %q", s)
}

func (l LevelKey) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LevelKey) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*l = LevelNone
		return nil
	}
	v, err := ParseLevelKey(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// SkillKey identifies one of the ordered yes/no skill checks
type SkillKey uint8

const (
	SkillBubbles5 SkillKey = iota
	SkillBackFloatSupport
	SkillFloatFrontBackInd
	SkillKickFrontWithDeviceEyesIn
	SkillKickFrontBackInd
	SkillSixArmStrokesFreeBack
	SkillFreestyleSideBreath12
	SkillBackstroke12
	SkillFreeSideBreathAndBack25yd
	SkillBreastKickPro
	SkillBreastAndDolphinPro
	SkillFlipAndOpenTurnsIntro
	SkillAllStrokesAndTurnsPro
	NumSkills
)

var skillKeyNames = [NumSkills]string{
	SkillBubbles5:                  "s1_bubbles5",
	SkillBackFloatSupport:          "s2_backFloatSupport",
	SkillFloatFrontBackInd:         "s3_floatFrontBackInd",
	SkillKickFrontWithDeviceEyesIn: "s4_kickFrontWithDeviceEyesIn",
	SkillKickFrontBackInd:          "s5_kickFrontBackInd",
	SkillSixArmStrokesFreeBack:     "s6_sixArmStrokesFreeBack",
	SkillFreestyleSideBreath12:     "s7_freestyleSideBreath12",
	SkillBackstroke12:              "s8_backstroke12",
	SkillFreeSideBreathAndBack25yd: "s9_freeSideBreathAndBack25yd",
	SkillBreastKickPro:             "s10_breastKickPro",
	SkillBreastAndDolphinPro:       "s11_breastAndDolphinPro",
	SkillFlipAndOpenTurnsIntro:     "s12_flipAndOpenTurnsIntro",
	SkillAllStrokesAndTurnsPro:     "s13_allStrokesAndTurnsPro",
}

func (s SkillKey) String() string {
	if s >= NumSkills {
		return ""
	}
	return skillKeyNames[s]
}

// ParseSkillKey parses a skill name such as "s5_kickFrontBackInd"
func ParseSkillKey(s string) (SkillKey, error) {
	for i, name := range skillKeyNames {
		if name == s {
			return SkillKey(i), nil
		}
	}
	return NumSkills, fmt.Errorf("invalid skill %q", s)
}

func (s SkillKey) MarshalText() ([]byte, error) {
	if s >= NumSkills {
		return nil, fmt.Errorf("invalid skill %d", s)
	}
	return []byte(s.String()), nil
}

func (s *SkillKey) UnmarshalText(b []byte) error {
	v, err := ParseSkillKey(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// LevelProfile is everything the level finder knows about a swimmer.
// Nil pointers are unanswered questions.
type LevelProfile struct {
	Birthday        *time.Time       `json:"birthday,omitempty"`
	ParentInWater   *bool            `json:"parent_in_water,omitempty"`
	Skills          [NumSkills]*bool `json:"skills"`
	EnduranceStrong *bool            `json:"endurance_strong,omitempty"`
}

// Skill returns the recorded answer for k, or nil
func (p LevelProfile) Skill(k SkillKey) *bool {
	if k >= NumSkills {
		return nil
	}
	return p.Skills[k]
}

// SetSkill records the answer for k
func (p *LevelProfile) SetSkill(k SkillKey, v bool) {
	if k >= NumSkills {
		return
	}
	p.Skills[k] = Bool(v)
}

// ClearSkillsFrom forgets the answers for k and every later skill plus endurance
func (p *LevelProfile) ClearSkillsFrom(k SkillKey) {
	for i := k; i < NumSkills; i++ {
		p.Skills[i] = nil
	}
	p.EnduranceStrong = nil
}

// LevelInfo is the catalog entry shown for a level
type LevelInfo struct {
	Title       string `yaml:"title" json:"title"`
	Ratio       string `yaml:"ratio" json:"ratio"`
	Description string `yaml:"description" json:"description"`
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}
