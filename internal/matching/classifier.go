// Package matching classifies a family's parent type from the four match
// answers and maps it to the instructor personas shown to the family.
package matching

import (
	"sort"

	"swimintake/internal/catalog"
	"swimintake/internal/models"
)

// Result is the outcome of the match quiz. Winner is only meaningful when Complete is true.
type Result struct {
	Scores       models.CategoryScore
	Complete     bool
	Winner       models.ParentType
	InternalCode string
	Primary      models.InstructorType
	Secondary    models.InstructorType
	HasSecondary bool
}

// Score adds each answered question's weight to the category its answer maps to
func Score(c *catalog.Catalog, state models.QuizState) models.CategoryScore {
	var scores models.CategoryScore
	for _, q := range models.QuestionIDs {
		p, ok := c.CategoryFor(state.Answer(q))
		if !ok {
			continue
		}
		scores[p] += c.Weight(q)
	}
	return scores
}

// Rank orders the categories by descending score.
// Equal scores keep enumeration order, so supersonic beats high_maintenance
// beats extra_attention beats budget on a tie.
func Rank(scores models.CategoryScore) []models.ParentType {
	ranked := make([]models.ParentType, len(models.ParentTypes))
	copy(ranked, models.ParentTypes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})
	return ranked
}

// Classify scores the quiz and, once every question is answered, picks the
// winning parent type and its instructor personas.
func Classify(c *catalog.Catalog, state models.QuizState) Result {
	res := Result{Scores: Score(c, state)}
	if !state.Complete() {
		return res
	}

	winner := Rank(res.Scores)[0]
	pair := c.Pair(winner)

	res.Complete = true
	res.Winner = winner
	res.InternalCode = c.Code(winner)
	res.Primary = pair.Primary
	res.Secondary = pair.Secondary
	res.HasSecondary = pair.HasSecondary
	return res
}

// Personas returns the matched instructor display entries, primary first.
// It returns nil for an incomplete result.
func (r Result) Personas(c *catalog.Catalog) []catalog.Instructor {
	if !r.Complete {
		return nil
	}
	out := []catalog.Instructor{c.Instructor(r.Primary)}
	if r.HasSecondary {
		out = append(out, c.Instructor(r.Secondary))
	}
	return out
}
