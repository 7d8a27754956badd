package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/cukeplan/internal/db"
	"github.com/chriserin/cukeplan/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <pickle-id>",
	Short: "Show the stored test case of a pickle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunShow(cmd.OutOrStdout(), cfg.Database, args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func RunShow(w io.Writer, dbPath, pickleID string) error {
	if err := openStored(dbPath); err != nil {
		return err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	tc, steps, err := db.TestCase(sqlDB, pickleID)
	if err != nil {
		return err
	}

	ui.ShowHeader(w, tc.PickleName, tc.URI, tc.ID, tc.Status())
	fmt.Fprintln(w)
	for _, s := range steps {
		if s.Step.IsHook() {
			ui.HookLine(w, s.Step.ID, s.Step.HookIDs)
			continue
		}
		ui.StepLine(w, s.Step.ID, s.Text, stepStatus(s.Step), s.Step.StepDefinitionIDs)
	}
	return nil
}
