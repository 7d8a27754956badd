package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/chriserin/cukeplan/internal/db"
	"github.com/chriserin/cukeplan/internal/ui"
)

var undefinedCmd = &cobra.Command{
	Use:   "undefined",
	Short: "List undefined steps of the stored plan with the closest known pattern",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunUndefined(cmd.OutOrStdout(), cfg.Database)
	},
}

func init() {
	rootCmd.AddCommand(undefinedCmd)
}

func RunUndefined(w io.Writer, dbPath string) error {
	if err := openStored(dbPath); err != nil {
		return err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	steps, err := db.UndefinedSteps(sqlDB)
	if err != nil {
		return err
	}
	patterns, err := db.StepDefinitionPatterns(sqlDB)
	if err != nil {
		return err
	}

	for _, s := range steps {
		ui.UndefinedLine(w, s.Text, fmt.Sprintf("%s (%s)", s.PickleName, s.URI), closestPattern(s.Text, patterns))
	}
	fmt.Fprintf(w, "%d undefined steps\n", len(steps))
	return nil
}

// closestPattern suggests the pattern nearest to text: a fuzzy containment
// match when there is one, else the smallest edit distance within half the
// text's length.
func closestPattern(text string, patterns []string) string {
	if len(patterns) == 0 {
		return ""
	}
	if ranks := fuzzy.RankFindFold(text, patterns); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", len(text)/2+1
	for _, p := range patterns {
		if d := fuzzy.LevenshteinDistance(text, p); d < bestDistance {
			best, bestDistance = p, d
		}
	}
	return best
}
