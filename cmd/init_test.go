package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/cukeplan/internal/config"
	"github.com/chriserin/cukeplan/internal/db"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
	return dir
}

func runInit(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunInit(&buf))
	return buf.String()
}

const dbPath = ".cukeplan/plan.db"

func TestInit_CreatesConfig(t *testing.T) {
	dir := inTempDir(t)
	out := runInit(t)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Contains(t, out, "cukeplan.yaml created")
}

func TestInit_ConfigAlreadyExists(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("database: plans/custom.db\n"), 0o644))

	out := runInit(t)

	assert.Contains(t, out, "cukeplan.yaml already exists")
	assert.Contains(t, out, "plans/custom.db created")
	_, err := os.Stat(filepath.Join(dir, "plans", "custom.db"))
	require.NoError(t, err)
}

func TestInit_CreatesStarterSupportFile(t *testing.T) {
	dir := inTempDir(t)
	out := runInit(t)

	data, err := os.ReadFile(filepath.Join(dir, "support.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "stepDefinitions: []")
	assert.Contains(t, out, "support.yaml created")

	out = runInit(t)
	assert.Contains(t, out, "support.yaml already exists")
}

func TestInit_InitializesSQLiteDatabase(t *testing.T) {
	dir := inTempDir(t)
	out := runInit(t)

	_, err := os.Stat(filepath.Join(dir, dbPath))
	require.NoError(t, err)
	assert.Contains(t, out, dbPath+" created")
}

func TestInit_DatabaseAlreadyExists(t *testing.T) {
	inTempDir(t)
	runInit(t)

	out := runInit(t)
	assert.Contains(t, out, dbPath+" already exists")
}

func TestInit_AppliesMigrations(t *testing.T) {
	inTempDir(t)
	runInit(t)

	sqlDB, err := db.Open(dbPath)
	require.NoError(t, err)
	defer sqlDB.Close()

	var version int
	require.NoError(t, sqlDB.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, len(db.All), version)
}

func TestInit_NoDatabaseConfigured(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("database: \"\"\n"), 0o644))

	runInit(t)

	_, err := os.Stat(filepath.Join(dir, ".gitignore"))
	assert.True(t, os.IsNotExist(err))
}

func TestInit_AddsToGitignore(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("node_modules\n"), 0o644))

	out := runInit(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), dbPath+"\n")
	assert.Contains(t, string(data), "node_modules\n")
	assert.Contains(t, out, dbPath+" added to .gitignore")
}

func TestInit_GitignoreAlreadyHasEntry(t *testing.T) {
	dir := inTempDir(t)
	original := "node_modules\n" + dbPath + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(original), 0o644))

	out := runInit(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
	assert.Contains(t, out, dbPath+" already in .gitignore")
}

func TestInit_NoGitignoreExists(t *testing.T) {
	dir := inTempDir(t)
	out := runInit(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, dbPath+"\n", string(data))
	assert.Contains(t, out, ".gitignore created")
	assert.Contains(t, out, dbPath+" added to .gitignore")
}
