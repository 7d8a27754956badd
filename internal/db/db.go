// Package db stores assembled plans in a sqlite database so that later
// commands can list and inspect them without re-planning.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/chriserin/cukeplan/internal/messages"
)

var ErrNotFound = errors.New("test case not found")

const (
	KindHook   = "hook"
	KindPickle = "pickle"
)

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	// foreign keys are per connection, so enable them in the DSN for every
	// connection the pool opens
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := Migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// SavePlan replaces the stored plan with the given one. Test cases are stored
// in pickle order; pickles missing from plan are skipped.
func SavePlan(db *sql.DB, pickles []messages.Pickle, plan map[string]messages.TestCase, defs []messages.StepDefinition) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM test_steps`, `DELETE FROM test_cases`, `DELETE FROM step_definitions`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clearing previous plan: %w", err)
		}
	}

	for _, d := range defs {
		if _, err := tx.Exec(`INSERT INTO step_definitions (id, pattern, pattern_type) VALUES (?, ?, ?)`,
			d.ID, d.Pattern.Source, string(d.Pattern.Type)); err != nil {
			return fmt.Errorf("inserting step definition %s: %w", d.ID, err)
		}
	}

	for position, p := range pickles {
		tc, ok := plan[p.ID]
		if !ok {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO test_cases (id, pickle_id, pickle_name, uri, position) VALUES (?, ?, ?, ?, ?)`,
			tc.ID, p.ID, p.Name, p.URI, position); err != nil {
			return fmt.Errorf("inserting test case %s: %w", tc.ID, err)
		}

		texts := make(map[string]string, len(p.Steps))
		for _, s := range p.Steps {
			texts[s.ID] = s.Text
		}
		for i, s := range tc.TestSteps {
			payload, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("encoding test step %s: %w", s.ID, err)
			}
			var hookID, pickleStepID, text sql.NullString
			kind := KindPickle
			if s.IsHook() {
				kind = KindHook
				hookID = sql.NullString{String: strings.Join(s.HookIDs, ","), Valid: true}
			} else {
				pickleStepID = sql.NullString{String: s.PickleStepID, Valid: true}
				text = sql.NullString{String: texts[s.PickleStepID], Valid: true}
			}
			if _, err := tx.Exec(`INSERT INTO test_steps (id, test_case_id, position, kind, hook_id, pickle_step_id, step_text, match_count, payload)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				s.ID, tc.ID, i, kind, hookID, pickleStepID, text, len(s.StepDefinitionIDs), string(payload)); err != nil {
				return fmt.Errorf("inserting test step %s: %w", s.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plan: %w", err)
	}
	return nil
}

// TestCaseRow summarizes one stored test case.
type TestCaseRow struct {
	ID         string
	PickleID   string
	PickleName string
	URI        string
	Steps      int
	Undefined  int
	Ambiguous  int
}

// Status is "undefined" when any pickle step has no match, "ambiguous" when
// any has several, and "ok" otherwise.
func (r TestCaseRow) Status() string {
	switch {
	case r.Undefined > 0:
		return "undefined"
	case r.Ambiguous > 0:
		return "ambiguous"
	}
	return "ok"
}

const testCaseSummary = `
	SELECT tc.id, tc.pickle_id, tc.pickle_name, tc.uri,
		COUNT(ts.id),
		COALESCE(SUM(CASE WHEN ts.kind = 'pickle' AND ts.match_count = 0 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN ts.kind = 'pickle' AND ts.match_count > 1 THEN 1 ELSE 0 END), 0)
	FROM test_cases tc
	LEFT JOIN test_steps ts ON ts.test_case_id = tc.id`

func scanTestCase(row interface{ Scan(...any) error }) (TestCaseRow, error) {
	var r TestCaseRow
	err := row.Scan(&r.ID, &r.PickleID, &r.PickleName, &r.URI, &r.Steps, &r.Undefined, &r.Ambiguous)
	return r, err
}

// TestCases lists stored test cases in pickle order.
func TestCases(db *sql.DB) ([]TestCaseRow, error) {
	rows, err := db.Query(testCaseSummary + ` GROUP BY tc.id ORDER BY tc.position`)
	if err != nil {
		return nil, fmt.Errorf("querying test cases: %w", err)
	}
	defer rows.Close()

	var out []TestCaseRow
	for rows.Next() {
		r, err := scanTestCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning test case: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StepRow is one stored test step together with the text of its pickle step.
type StepRow struct {
	Position int
	Kind     string
	Text     string
	Step     messages.TestStep
}

// TestCase loads the test case planned for pickleID with its steps in order.
func TestCase(db *sql.DB, pickleID string) (TestCaseRow, []StepRow, error) {
	tc, err := scanTestCase(db.QueryRow(testCaseSummary+` WHERE tc.pickle_id = ? GROUP BY tc.id`, pickleID))
	if errors.Is(err, sql.ErrNoRows) {
		return TestCaseRow{}, nil, fmt.Errorf("%w: pickle %s", ErrNotFound, pickleID)
	}
	if err != nil {
		return TestCaseRow{}, nil, fmt.Errorf("querying test case for pickle %s: %w", pickleID, err)
	}

	rows, err := db.Query(`SELECT position, kind, COALESCE(step_text, ''), payload FROM test_steps WHERE test_case_id = ? ORDER BY position`, tc.ID)
	if err != nil {
		return TestCaseRow{}, nil, fmt.Errorf("querying test steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRow
	for rows.Next() {
		var s StepRow
		var payload string
		if err := rows.Scan(&s.Position, &s.Kind, &s.Text, &payload); err != nil {
			return TestCaseRow{}, nil, fmt.Errorf("scanning test step: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &s.Step); err != nil {
			return TestCaseRow{}, nil, fmt.Errorf("decoding test step %d: %w", s.Position, err)
		}
		steps = append(steps, s)
	}
	return tc, steps, rows.Err()
}

// UndefinedStep is a stored pickle step with no matching definition.
type UndefinedStep struct {
	PickleID   string
	PickleName string
	URI        string
	Text       string
}

// UndefinedSteps lists undefined steps in plan order.
func UndefinedSteps(db *sql.DB) ([]UndefinedStep, error) {
	rows, err := db.Query(`
		SELECT tc.pickle_id, tc.pickle_name, tc.uri, ts.step_text
		FROM test_steps ts
		JOIN test_cases tc ON tc.id = ts.test_case_id
		WHERE ts.kind = 'pickle' AND ts.match_count = 0
		ORDER BY tc.position, ts.position`)
	if err != nil {
		return nil, fmt.Errorf("querying undefined steps: %w", err)
	}
	defer rows.Close()

	var out []UndefinedStep
	for rows.Next() {
		var u UndefinedStep
		if err := rows.Scan(&u.PickleID, &u.PickleName, &u.URI, &u.Text); err != nil {
			return nil, fmt.Errorf("scanning undefined step: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// StepDefinitionPatterns lists the stored pattern sources.
func StepDefinitionPatterns(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT pattern FROM step_definitions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying step definitions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning step definition: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
