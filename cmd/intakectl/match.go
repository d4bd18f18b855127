package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swimintake/internal/matching"
	"swimintake/internal/models"
)

func newMatchCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "match Q1 Q2 Q3 Q4",
		Short:   "Classify match quiz answers (A-D) into a parent type and instructor",
		Example: "  intakectl match B B A D",
		Args:    cobra.ExactArgs(int(models.NumQuestions)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.loadCatalog()
			if err != nil {
				return err
			}

			var quiz models.QuizState
			for i, arg := range args {
				answer, err := models.ParseAnswerKey(arg)
				if err != nil {
					return fmt.Errorf("question %d: %w", i+1, err)
				}
				quiz[i] = answer
			}

			res := matching.Classify(c, quiz)
			out := cmd.OutOrStdout()
			for _, p := range matching.Rank(res.Scores) {
				fmt.Fprintf(out, "%-12s %3d\n", c.ScoreLabel(p), res.Scores[p])
			}
			fmt.Fprintf(out, "Internal code: %s\n", res.InternalCode)
			for i, persona := range res.Personas(c) {
				label := "Primary"
				if i > 0 {
					label = "Secondary"
				}
				fmt.Fprintf(out, "%s: %s\n", label, persona.Title)
			}
			return nil
		},
	}
}
