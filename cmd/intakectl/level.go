package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"swimintake/internal/leveling"
	"swimintake/internal/models"
)

func newLevelCmd(root *rootOptions) *cobra.Command {
	var (
		birthday      string
		now           string
		parentInWater bool
		skills        string
		endurance     bool
	)

	cmd := &cobra.Command{
		Use:   "level",
		Short: "Recommend a swim level from age and skill answers",
		Example: `  intakectl level --birthday 2017-04-02 --skills yyyyn
  intakectl level --birthday 2022-09-10 --parent-in-water=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.loadCatalog()
			if err != nil {
				return err
			}

			var profile models.LevelProfile
			dob, err := time.Parse(time.DateOnly, birthday)
			if err != nil {
				return fmt.Errorf("invalid --birthday %q: want YYYY-MM-DD", birthday)
			}
			profile.Birthday = &dob

			at := time.Now().UTC()
			if now != "" {
				if at, err = time.Parse(time.DateOnly, now); err != nil {
					return fmt.Errorf("invalid --now %q: want YYYY-MM-DD", now)
				}
			}

			if cmd.Flags().Changed("parent-in-water") {
				profile.ParentInWater = models.Bool(parentInWater)
			}
			if cmd.Flags().Changed("endurance") {
				profile.EnduranceStrong = models.Bool(endurance)
			}
			if err := applySkills(&profile, skills); err != nil {
				return err
			}

			rec := leveling.Recommend(c, profile, at)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Age bracket: %s\n", rec.Bracket)

			switch {
			case rec.TooYoung:
				prompts := c.Prompts()
				fmt.Fprintf(out, "%s\n%s\n", prompts.TooYoungTitle, prompts.TooYoungBody)
			case rec.Complete():
				info, _ := c.Level(rec.Level)
				fmt.Fprintf(out, "Level: %s (%s)\n", info.Title, rec.Level)
				fmt.Fprintf(out, "Ratio: %s\n", info.Ratio)
				fmt.Fprintf(out, "Reason: %s\n", rec.Reason)
			default:
				fmt.Fprintf(out, "Incomplete: %s\n", nextQuestion(root, profile, rec.Bracket))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&birthday, "birthday", "", "swimmer's date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&now, "now", "", "evaluate as of this date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&parentInWater, "parent-in-water", false, "a parent will be in the water (toddlers)")
	cmd.Flags().StringVar(&skills, "skills", "", "skill answers in order, y or n per check (e.g. yyyn)")
	cmd.Flags().BoolVar(&endurance, "endurance", false, "strong endurance (asked after every skill is yes)")
	cmd.MarkFlagRequired("birthday")
	return cmd
}

// applySkills records a y/n string as the answers to the ordered skill checks
func applySkills(p *models.LevelProfile, answers string) error {
	answers = strings.ToLower(strings.TrimSpace(answers))
	if len(answers) > int(models.NumSkills) {
		return fmt.Errorf("--skills has %d answers; there are only %d checks", len(answers), models.NumSkills)
	}
	for i, ch := range answers {
		switch ch {
		case 'y':
			p.SetSkill(models.SkillKey(i), true)
		case 'n':
			p.SetSkill(models.SkillKey(i), false)
		default:
			return fmt.Errorf("invalid --skills answer %q at position %d: use y or n", ch, i+1)
		}
	}
	return nil
}

func nextQuestion(root *rootOptions, p models.LevelProfile, bracket leveling.Bracket) string {
	if bracket == leveling.BracketToddler {
		return "pass --parent-in-water=true|false"
	}
	c, err := root.loadCatalog()
	if err != nil {
		return err.Error()
	}
	for i, skill := range c.Skills() {
		if p.Skill(models.SkillKey(i)) == nil {
			return fmt.Sprintf("skill %d: %s", i+1, skill.Text)
		}
	}
	return c.Prompts().Endurance + " (pass --endurance=true|false)"
}
