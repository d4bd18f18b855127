package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnswerKey is one of the four option codes of a match question.
// The zero value means the question has not been answered.
type AnswerKey uint8

const (
	AnswerNone AnswerKey = iota
	AnswerA
	AnswerB
	AnswerC
	AnswerD
)

// AnswerKeys lists the answerable option codes in display order
var AnswerKeys = []AnswerKey{AnswerA, AnswerB, AnswerC, AnswerD}

func (a AnswerKey) String() string {
	switch a {
	case AnswerA:
		return "A"
	case AnswerB:
		return "B"
	case AnswerC:
		return "C"
	case AnswerD:
		return "D"
	}
	return ""
}

// Valid reports whether a is one of A-D
func (a AnswerKey) Valid() bool {
	return a >= AnswerA && a <= AnswerD
}

// ParseAnswerKey parses "A".."D" (case-insensitive)
func ParseAnswerKey(s string) (AnswerKey, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return AnswerA, nil
	case "B":
		return AnswerB, nil
	case "C":
		return AnswerC, nil
	case "D":
		return AnswerD, nil
	}
	return AnswerNone, fmt.Errorf("invalid answer %q", s)
}

func (a AnswerKey) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AnswerKey) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*a = AnswerNone
		return nil
	}
	k, err := ParseAnswerKey(string(b))
	if err != nil {
		return err
	}
	*a = k
	return nil
}

// QuestionID identifies one of the four match questions
type QuestionID uint8

const (
	Q1 QuestionID = iota
	Q2
	Q3
	Q4
	NumQuestions
)

// QuestionIDs lists the questions in the order they are asked
var QuestionIDs = []QuestionID{Q1, Q2, Q3, Q4}

func (q QuestionID) String() string {
	if q >= NumQuestions {
		return ""
	}
	return fmt.Sprintf("q%d", q+1)
}

// ParseQuestionID parses "q1".."q4"
func ParseQuestionID(s string) (QuestionID, error) {
	for _, q := range QuestionIDs {
		if strings.EqualFold(strings.TrimSpace(s), q.String()) {
			return q, nil
		}
	}
	return NumQuestions, fmt.Errorf("invalid question id %q", s)
}

// ParentType is the internal staff-facing category a parent is classified into.
// Declaration order is the tie-break order used when scores are equal.
type ParentType uint8

const (
	ParentSupersonic ParentType = iota
	ParentHighMaintenance
	ParentExtraAttention
	ParentBudget
	NumParentTypes
)

// ParentTypes lists all categories in enumeration order
var ParentTypes = []ParentType{ParentSupersonic, ParentHighMaintenance, ParentExtraAttention, ParentBudget}

var parentTypeNames = [NumParentTypes]string{
	ParentSupersonic:      "supersonic",
	ParentHighMaintenance: "high_maintenance",
	ParentExtraAttention:  "extra_attention",
	ParentBudget:          "budget",
}

func (p ParentType) String() string {
	if p >= NumParentTypes {
		return ""
	}
	return parentTypeNames[p]
}

// ParseParentType parses a category name such as "high_maintenance"
func ParseParentType(s string) (ParentType, error) {
	for i, name := range parentTypeNames {
		if name == s {
			return ParentType(i), nil
		}
	}
	return NumParentTypes, fmt.Errorf("invalid parent type %q", s)
}

func (p ParentType) MarshalText() ([]byte, error) {
	if p >= NumParentTypes {
		return nil, fmt.Errorf("invalid parent type %d", p)
	}
	return []byte(p.String()), nil
}

func (p *ParentType) UnmarshalText(b []byte) error {
	v, err := ParseParentType(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// InstructorType is the customer-facing teaching style a family is matched to
type InstructorType uint8

const (
	InstructorStructured InstructorType = iota
	InstructorCoaching
	InstructorFreeSpirit
	InstructorPatient
	NumInstructorTypes
)

// InstructorTypes lists all personas in enumeration order
var InstructorTypes = []InstructorType{InstructorStructured, InstructorCoaching, InstructorFreeSpirit, InstructorPatient}

var instructorTypeNames = [NumInstructorTypes]string{
	InstructorStructured: "structured",
	InstructorCoaching:   "coaching",
	InstructorFreeSpirit: "free_spirit",
	InstructorPatient:    "patient",
}

func (i InstructorType) String() string {
	if i >= NumInstructorTypes {
		return ""
	}
	return instructorTypeNames[i]
}

// ParseInstructorType parses a persona name such as "free_spirit"
func ParseInstructorType(s string) (InstructorType, error) {
	for i, name := range instructorTypeNames {
		if name == s {
			return InstructorType(i), nil
		}
	}
	return NumInstructorTypes, fmt.Errorf("invalid instructor type %q", s)
}

func (i InstructorType) MarshalText() ([]byte, error) {
	if i >= NumInstructorTypes {
		return nil, fmt.Errorf("invalid instructor type %d", i)
	}
	return []byte(i.String()), nil
}

func (i *InstructorType) UnmarshalText(b []byte) error {
	v, err := ParseInstructorType(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// QuizState holds the answers recorded so far, indexed by QuestionID
type QuizState [NumQuestions]AnswerKey

// Answer returns the recorded answer for q, or AnswerNone
func (s QuizState) Answer(q QuestionID) AnswerKey {
	if q >= NumQuestions {
		return AnswerNone
	}
	return s[q]
}

// Complete reports whether every question has an answer
func (s QuizState) Complete() bool {
	for _, a := range s {
		if !a.Valid() {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the state as {"q1":"A",...}, omitting unanswered questions
func (s QuizState) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, NumQuestions)
	for _, q := range QuestionIDs {
		if s[q].Valid() {
			m[q.String()] = s[q].String()
		}
	}
	return json.Marshal(m)
}

func (s *QuizState) UnmarshalJSON(b []byte) error {
	var m map[string]AnswerKey
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out QuizState
	for k, v := range m {
		q, err := ParseQuestionID(k)
		if err != nil {
			return err
		}
		out[q] = v
	}
	*s = out
	return nil
}

// CategoryScore is the accumulated score per ParentType
type CategoryScore [NumParentTypes]int

// Total returns the sum of all category scores
func (c CategoryScore) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// MarshalJSON encodes the score as {"supersonic":40,...} with every category present
func (c CategoryScore) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, NumParentTypes)
	for _, p := range ParentTypes {
		m[p.String()] = c[p]
	}
	return json.Marshal(m)
}

func (c *CategoryScore) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out CategoryScore
	for k, v := range m {
		p, err := ParseParentType(k)
		if err != nil {
			return err
		}
		out[p] = v
	}
	*c = out
	return nil
}
