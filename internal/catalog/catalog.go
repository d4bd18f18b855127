// Package catalog holds the static intake data: locations, questions, personas,
// levels and skill checks. A Catalog is built once at startup and never mutated.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"swimintake/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Option is one answer choice of a match question
type Option struct {
	Key  string `yaml:"key" json:"key"`
	Text string `yaml:"text" json:"text"`
}

// Question is a multiple-choice match question
type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	Options []Option `yaml:"options" json:"options"`
}

// Category describes how a parent type is reported and matched
type Category struct {
	Type       string `yaml:"type"`
	Code       string `yaml:"code"`
	ScoreLabel string `yaml:"score_label"`
	Primary    string `yaml:"primary"`
	Secondary  string `yaml:"secondary"`
}

// Instructor is the customer-facing description of a teaching persona
type Instructor struct {
	Type    string   `yaml:"type" json:"-"`
	Title   string   `yaml:"title" json:"title"`
	Vibe    string   `yaml:"vibe" json:"vibe"`
	Bullets []string `yaml:"bullets" json:"bullets"`
}

// Skill is one ordered yes/no skill check and the level it points to when answered "no"
type Skill struct {
	Key    string `yaml:"key" json:"key"`
	Text   string `yaml:"text" json:"text"`
	Level  string `yaml:"level" json:"-"`
	Reason string `yaml:"reason" json:"-"`
}

// Reasons are the justification strings for the age and endurance rules
type Reasons struct {
	Infant             string `yaml:"infant"`
	ToddlerParent      string `yaml:"toddler_parent"`
	ToddlerIndependent string `yaml:"toddler_independent"`
	Adult              string `yaml:"adult"`
	AdvancedEndurance  string `yaml:"advanced_endurance"`
	Advanced           string `yaml:"advanced"`
}

// Prompts are the wizard texts that are not part of a question bank
type Prompts struct {
	ParentInWater string `yaml:"parent_in_water" json:"parent_in_water"`
	Endurance     string `yaml:"endurance" json:"endurance"`
	TooYoungTitle string `yaml:"too_young_title" json:"too_young_title"`
	TooYoungBody  string `yaml:"too_young_body" json:"too_young_body"`
}

type levelEntry struct {
	Key              string `yaml:"key"`
	models.LevelInfo `yaml:",inline"`
}

type document struct {
	Locations   []models.Location `yaml:"locations"`
	Days        []string          `yaml:"days"`
	TimeWindows []string          `yaml:"time_windows"`
	Match       struct {
		Weights   map[string]int    `yaml:"weights"`
		Answers   map[string]string `yaml:"answers"`
		Questions []Question        `yaml:"questions"`
	} `yaml:"match"`
	Categories  []Category   `yaml:"categories"`
	Instructors []Instructor `yaml:"instructors"`
	Levels      []levelEntry `yaml:"levels"`
	Skills      []Skill      `yaml:"skills"`
	Reasons     Reasons      `yaml:"reasons"`
	Prompts     Prompts      `yaml:"prompts"`
}

// InstructorPair is the persona match for a parent type
type InstructorPair struct {
	Primary      models.InstructorType
	Secondary    models.InstructorType
	HasSecondary bool
}

// SkillRule is a compiled row of the skill walk
type SkillRule struct {
	Skill  models.SkillKey
	Level  models.LevelKey
	Reason string
}

// Catalog is the validated, typed view of the catalog document
type Catalog struct {
	locations   []models.Location
	days        []string
	timeWindows []string
	questions   []Question
	prompts     Prompts
	reasons     Reasons

	weights     [models.NumQuestions]int
	answerMap   [models.AnswerD + 1]models.ParentType
	codes       [models.NumParentTypes]string
	scoreLabels [models.NumParentTypes]string
	pairs       [models.NumParentTypes]InstructorPair
	instructors [models.NumInstructorTypes]Instructor
	levels      map[models.LevelKey]models.LevelInfo
	skills      []Skill
	skillRules  []SkillRule
}

// Default returns the catalog embedded in the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustDefault is Default for callers where a broken embedded catalog is a programming error
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the catalog from path, or the embedded default when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return compile(&doc)
}
