package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("ids: uuid\nformat: text\nfeatures: [acceptance/*.feature]\nlogging:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "uuid", cfg.IDs)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, []string{"acceptance/*.feature"}, cfg.Features)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, Default().Support, cfg.Support)
}

func TestLoad_Invalid(t *testing.T) {
	for name, content := range map[string]string{
		"bad yaml":     "ids: [",
		"bad strategy": "ids: sequential\n",
		"bad format":   "format: xml\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := Default()
	cfg.Database = ""
	require.NoError(t, Write(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
