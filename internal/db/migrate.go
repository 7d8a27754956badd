package db

import (
	"database/sql"
	"fmt"
)

// All contains the ordered list of migrations to apply.
var All = []string{
	`CREATE TABLE step_definitions (
		id           TEXT PRIMARY KEY,
		pattern      TEXT NOT NULL,
		pattern_type TEXT NOT NULL
	)`,
	`CREATE TABLE test_cases (
		id          TEXT PRIMARY KEY,
		pickle_id   TEXT UNIQUE NOT NULL,
		pickle_name TEXT NOT NULL,
		uri         TEXT NOT NULL,
		position    INTEGER NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE test_steps (
		id             TEXT PRIMARY KEY,
		test_case_id   TEXT NOT NULL REFERENCES test_cases(id) ON DELETE CASCADE,
		position       INTEGER NOT NULL,
		kind           TEXT NOT NULL,
		hook_id        TEXT,
		pickle_step_id TEXT,
		step_text      TEXT,
		match_count    INTEGER NOT NULL DEFAULT 0,
		payload        TEXT NOT NULL
	)`,
	`CREATE INDEX test_steps_by_case ON test_steps (test_case_id, position)`,
}

func Migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initializing schema version: %w", err)
		}
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(All); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(All[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}

		if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}
