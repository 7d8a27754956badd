package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chriserin/cukeplan/internal/db"
	"github.com/chriserin/cukeplan/internal/ui"
)

var statusFlag string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the test cases of the stored plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.OutOrStdout(), cfg.Database, statusFlag)
	},
}

func init() {
	listCmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status: ok, undefined or ambiguous")
	rootCmd.AddCommand(listCmd)
}

func openStored(dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("no database configured")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("run `cukeplan init` and `cukeplan plan` first")
	}
	return nil
}

func RunList(w io.Writer, dbPath, statusFilter string) error {
	if err := openStored(dbPath); err != nil {
		return err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	rows, err := db.TestCases(sqlDB)
	if err != nil {
		return err
	}

	var results []db.TestCaseRow
	for _, r := range rows {
		if statusFilter != "" && r.Status() != statusFilter {
			continue
		}
		results = append(results, r)
	}

	if len(results) == 0 {
		return nil
	}

	// Compute column widths
	idWidth, nameWidth := 0, 0
	for _, r := range results {
		if len(r.PickleID) > idWidth {
			idWidth = len(r.PickleID)
		}
		if len(r.PickleName) > nameWidth {
			nameWidth = len(r.PickleName)
		}
	}

	for _, r := range results {
		ui.ListRow(w, r.PickleID, r.PickleName, r.Steps, r.Status(), idWidth, nameWidth)
	}

	return nil
}
