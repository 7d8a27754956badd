package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_CreatesSchemaVersionTable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "schema_version", name)
}

func TestMigrate_AppliesEveryMigration(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, len(All), version)
}

func TestMigrate_RunsPendingMigrations(t *testing.T) {
	origAll := All
	defer func() { All = origAll }()

	All = []string{
		`CREATE TABLE test_one (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE test_two (id INTEGER PRIMARY KEY)`,
	}

	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, 2, version)

	// Verify tables were created
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='test_one'`).Scan(&name)
	require.NoError(t, err)
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='test_two'`).Scan(&name)
	require.NoError(t, err)
}

func TestMigrate_SkipsAlreadyAppliedMigrations(t *testing.T) {
	origAll := All
	defer func() { All = origAll }()

	All = []string{
		`CREATE TABLE test_idem (id INTEGER PRIMARY KEY)`,
	}

	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, 1, version)
}

func TestMigrate_RollsBackOnFailure(t *testing.T) {
	origAll := All
	defer func() { All = origAll }()

	All = []string{
		`CREATE TABLE test_good (id INTEGER PRIMARY KEY)`,
		`INVALID SQL STATEMENT`,
	}

	db := openTestDB(t)
	err := Migrate(db)
	require.Error(t, err)

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, 1, version)
}

func insertCase(t *testing.T, db *sql.DB, id, pickleID string) error {
	t.Helper()
	_, err := db.Exec(`INSERT INTO test_cases (id, pickle_id, pickle_name, uri, position) VALUES (?, ?, 'name', 'a.feature', 0)`, id, pickleID)
	return err
}

func TestSchema_DeletingATestCaseDeletesItsSteps(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "plan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// spread work over several pooled connections
	db.SetMaxIdleConns(0)

	require.NoError(t, insertCase(t, db, "tc1", "p1"))
	require.NoError(t, insertCase(t, db, "tc2", "p2"))
	for i, tc := range []string{"tc1", "tc1", "tc2"} {
		_, err := db.Exec(`INSERT INTO test_steps (id, test_case_id, position, kind, payload) VALUES (?, ?, ?, 'hook', '{}')`, fmt.Sprint("s", i), tc, i)
		require.NoError(t, err)
	}

	_, err = db.Exec(`DELETE FROM test_cases WHERE id = 'tc1'`)
	require.NoError(t, err)

	var remaining int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM test_steps`).Scan(&remaining))
	assert.Equal(t, 1, remaining)
}

func TestSchema_StepNeedsAnExistingTestCase(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "plan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`INSERT INTO test_steps (id, test_case_id, position, kind, payload) VALUES ('s', 'missing', 0, 'hook', '{}')`)
	require.Error(t, err)
}

func TestSchema_PickleIDIsUnique(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	require.NoError(t, insertCase(t, db, "tc1", "p1"))
	require.Error(t, insertCase(t, db, "tc2", "p1"))
}
