package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chriserin/cukeplan/internal/config"
	"github.com/chriserin/cukeplan/internal/db"
	"github.com/chriserin/cukeplan/internal/emitter"
	"github.com/chriserin/cukeplan/internal/idgen"
	"github.com/chriserin/cukeplan/internal/messages"
	"github.com/chriserin/cukeplan/internal/parser"
	"github.com/chriserin/cukeplan/internal/support"
	"github.com/chriserin/cukeplan/internal/ui"
)

var (
	formatFlag   string
	idsFlag      string
	supportFlag  string
	databaseFlag string
	noSaveFlag   bool
)

var planCmd = &cobra.Command{
	Use:   "plan [paths...]",
	Short: "Assemble test cases for feature files and write them as envelopes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		flags := cmd.Flags()
		if flags.Changed("format") {
			c.Format = formatFlag
		}
		if flags.Changed("ids") {
			c.IDs = idsFlag
		}
		if flags.Changed("support") {
			c.Support = supportFlag
		}
		if flags.Changed("db") {
			c.Database = databaseFlag
		}
		if noSaveFlag {
			c.Database = ""
		}
		if err := c.Validate(); err != nil {
			return err
		}
		return RunPlan(cmd.Context(), cmd.OutOrStdout(), c, args, logger)
	},
}

func init() {
	planCmd.Flags().StringVar(&formatFlag, "format", config.FormatNDJSON, "Output format: ndjson, cbor or text")
	planCmd.Flags().StringVar(&idsFlag, "ids", idgen.StrategyIncrementing, "Id strategy: incrementing or uuid")
	planCmd.Flags().StringVar(&supportFlag, "support", "", "Path to the support code file")
	planCmd.Flags().StringVar(&databaseFlag, "db", "", "Path to the plan database")
	planCmd.Flags().BoolVar(&noSaveFlag, "no-save", false, "Do not store the plan")
	rootCmd.AddCommand(planCmd)
}

type envelopeWriter interface {
	emitter.Observer
	Write(env messages.Envelope) error
}

func RunPlan(ctx context.Context, w io.Writer, c config.Config, paths []string, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = zap.NewNop()
	}

	gen, err := idgen.FromName(c.IDs)
	if err != nil {
		return err
	}

	lib, err := loadSupport(c.Support, gen, log)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		paths, err = expandFeatures(c.Features)
		if err != nil {
			return err
		}
	}
	pickles, err := loadPickles(ctx, paths, gen)
	if err != nil {
		return err
	}
	log.Debug("inputs loaded", zap.Int("files", len(paths)), zap.Int("pickles", len(pickles)))

	defs := make([]messages.StepDefinition, 0, len(lib.StepDefinitions()))
	for _, d := range lib.StepDefinitions() {
		defs = append(defs, d.Message())
	}

	var out envelopeWriter
	switch c.Format {
	case config.FormatNDJSON:
		out = emitter.NewNDJSONWriter(w)
	case config.FormatCBOR:
		out = emitter.NewCBORWriter(w)
	}

	var obs emitter.Observer = emitter.LogObserver{Logger: log}
	if out != nil {
		if err := writeSupportEnvelopes(out, defs, lib.AllHooks(), pickles); err != nil {
			return err
		}
		obs = emitter.Multi(out, obs)
	}

	plan, err := emitter.AssembleAll(ctx, pickles, lib, gen, obs, emitter.WithLogger(log))
	if err != nil {
		return err
	}

	if c.Format == config.FormatText {
		renderPlan(w, pickles, plan, lib)
	}

	if c.Database != "" {
		sqlDB, err := db.Open(c.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer sqlDB.Close()
		if err := db.SavePlan(sqlDB, pickles, plan, defs); err != nil {
			return fmt.Errorf("saving plan: %w", err)
		}
		log.Info("plan stored", zap.String("database", c.Database), zap.Int("testCases", len(plan)))
	}
	return nil
}

func loadSupport(path string, gen idgen.Generator, log *zap.Logger) (*support.Library, error) {
	if path == "" {
		return support.NewLibrary(), nil
	}
	lib, err := support.LoadFile(path, gen)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("support file not found, every step will be undefined", zap.String("path", path))
		return support.NewLibrary(), nil
	}
	if err != nil {
		return nil, err
	}
	log.Debug("support code loaded",
		zap.String("path", path),
		zap.Int("stepDefinitions", len(lib.StepDefinitions())),
		zap.Int("hooks", len(lib.AllHooks())))
	return lib, nil
}

func expandFeatures(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

// loadPickles reads every input concurrently, then parses them in argument
// order so ids follow the order the files were given in.
func loadPickles(ctx context.Context, paths []string, gen idgen.Generator) ([]messages.Pickle, error) {
	contents := make([][]byte, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pickles []messages.Pickle
	for i, path := range paths {
		if strings.HasSuffix(path, ".ndjson") {
			ps, err := parser.ReadPickles(bytes.NewReader(contents[i]))
			if err != nil {
				return nil, fmt.Errorf("reading pickles from %s: %w", path, err)
			}
			pickles = append(pickles, ps...)
			continue
		}

		doc, parseErrors := parser.Parse(path, contents[i])
		if len(parseErrors) > 0 {
			errs := make([]error, 0, len(parseErrors))
			for _, pe := range parseErrors {
				errs = append(errs, fmt.Errorf("%s: %w", path, pe))
			}
			return nil, fmt.Errorf("parsing %s: %w", path, errors.Join(errs...))
		}
		pickles = append(pickles, parser.Compile(doc, path, gen)...)
	}
	return pickles, nil
}

func writeSupportEnvelopes(out envelopeWriter, defs []messages.StepDefinition, hooks []support.Hook, pickles []messages.Pickle) error {
	for i := range defs {
		if err := out.Write(messages.Envelope{StepDefinition: &defs[i]}); err != nil {
			return err
		}
	}
	for _, h := range hooks {
		m := h.Message()
		if err := out.Write(messages.Envelope{Hook: &m}); err != nil {
			return err
		}
	}
	for i := range pickles {
		if err := out.Write(messages.Envelope{Pickle: &pickles[i]}); err != nil {
			return err
		}
	}
	return nil
}

func stepStatus(s messages.TestStep) string {
	switch {
	case s.IsUndefined():
		return "undefined"
	case s.IsAmbiguous():
		return "ambiguous"
	}
	return "ok"
}

// renderPlan prints each test case with the decoded value of every argument
// of its single-match steps.
func renderPlan(w io.Writer, pickles []messages.Pickle, plan emitter.Plan, lib *support.Library) {
	defs := make(map[string]support.StepDefinition)
	for _, d := range lib.StepDefinitions() {
		defs[d.ID] = d
	}

	var undefined, ambiguous int
	for _, p := range pickles {
		tc, ok := plan[p.ID]
		if !ok {
			continue
		}
		texts := make(map[string]string, len(p.Steps))
		for _, s := range p.Steps {
			texts[s.ID] = s.Text
		}

		status := "ok"
		for _, s := range tc.TestSteps {
			if st := stepStatus(s); st != "ok" && status == "ok" {
				status = st
			}
		}
		ui.ShowHeader(w, p.Name, p.URI, tc.ID, status)

		for _, s := range tc.TestSteps {
			if s.IsHook() {
				ui.HookLine(w, s.ID, s.HookIDs)
				continue
			}
			text := texts[s.PickleStepID]
			st := stepStatus(s)
			switch st {
			case "undefined":
				undefined++
			case "ambiguous":
				ambiguous++
			}
			ui.StepLine(w, s.ID, text, st, s.StepDefinitionIDs)
			if st != "ok" {
				continue
			}
			d, ok := defs[s.StepDefinitionIDs[0]]
			if !ok {
				continue
			}
			args, matched := d.Expression.Match(text)
			if !matched {
				continue
			}
			for _, a := range args {
				v, err := a.Decode()
				if err != nil {
					v = fmt.Sprintf("<%v>", err)
				}
				ui.ArgumentLine(w, a.ParameterTypeName, v)
			}
		}
		fmt.Fprintln(w)
	}
	ui.SummaryLine(w, len(plan), undefined, ambiguous)
}
