package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/cukeplan/internal/config"
	"github.com/chriserin/cukeplan/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cukeplan in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterSupport = `# Step definitions and hooks that plans are assembled against.
parameterTypes: []
stepDefinitions: []
hooks: []
`

func RunInit(w io.Writer) error {
	// configuration
	c := config.Default()
	if _, err := os.Stat(config.FileName); err == nil {
		loaded, err := config.Load(config.FileName)
		if err != nil {
			return err
		}
		c = loaded
		fmt.Fprintf(w, "%s already exists\n", config.FileName)
	} else {
		if err := config.Write(config.FileName, c); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s created\n", config.FileName)
	}

	// support file
	if c.Support != "" {
		if _, err := os.Stat(c.Support); err == nil {
			fmt.Fprintf(w, "%s already exists\n", c.Support)
		} else {
			if err := os.WriteFile(c.Support, []byte(starterSupport), 0o644); err != nil {
				return fmt.Errorf("creating %s: %w", c.Support, err)
			}
			fmt.Fprintf(w, "%s created\n", c.Support)
		}
	}

	if c.Database == "" {
		return nil
	}

	// database
	_, err := os.Stat(c.Database)
	dbExists := err == nil
	sqlDB, err := db.Open(c.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	sqlDB.Close()
	if dbExists {
		fmt.Fprintf(w, "%s already exists\n", c.Database)
	} else {
		fmt.Fprintf(w, "%s created\n", c.Database)
	}

	// gitignore
	msgs, err := ensureGitignore(c.Database)
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

func ensureGitignore(entry string) ([]string, error) {
	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", entry + " added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == entry {
			return []string{entry + " already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{entry + " added to .gitignore"}, nil
}
