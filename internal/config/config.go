// Package config loads cukeplan.yaml.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chriserin/cukeplan/internal/idgen"
)

const FileName = "cukeplan.yaml"

const (
	FormatNDJSON = "ndjson"
	FormatCBOR   = "cbor"
	FormatText   = "text"
)

type Config struct {
	IDs      string   `yaml:"ids" json:"ids"`
	Format   string   `yaml:"format" json:"format"`
	Support  string   `yaml:"support" json:"support"`
	Database string   `yaml:"database" json:"database"`
	Features []string `yaml:"features" json:"features"`
	Logging  Logging  `yaml:"logging" json:"logging"`
}

type Logging struct {
	Level string `yaml:"level" json:"level"`
}

func Default() Config {
	return Config{
		IDs:      idgen.StrategyIncrementing,
		Format:   FormatNDJSON,
		Support:  "support.yaml",
		Database: ".cukeplan/plan.db",
		Features: []string{"features/*.feature"},
		Logging:  Logging{Level: "warn"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := idgen.FromName(c.IDs); err != nil {
		return err
	}
	switch c.Format {
	case FormatNDJSON, FormatCBOR, FormatText:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}

// Write stores c at path in YAML.
func Write(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
