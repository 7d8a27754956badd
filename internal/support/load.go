package support

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/chriserin/cukeplan/internal/idgen"
	"github.com/chriserin/cukeplan/internal/messages"
)

//go:embed schema.json
var schemaSource string

const schemaURL = "schema://cukeplan/support.json"

// File is the on-disk description of support code. YAML and JSON are both
// accepted.
type File struct {
	ParameterTypes  []ParameterTypeEntry  `yaml:"parameterTypes" json:"parameterTypes,omitempty"`
	StepDefinitions []StepDefinitionEntry `yaml:"stepDefinitions" json:"stepDefinitions,omitempty"`
	Hooks           []HookEntry           `yaml:"hooks" json:"hooks,omitempty"`
}

type ParameterTypeEntry struct {
	Name                 string   `yaml:"name" json:"name"`
	Regexps              []string `yaml:"regexps" json:"regexps"`
	PreferForRegexpMatch bool     `yaml:"preferForRegexpMatch" json:"preferForRegexpMatch,omitempty"`
}

type StepDefinitionEntry struct {
	ID          string `yaml:"id" json:"id,omitempty"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	PatternType string `yaml:"patternType" json:"patternType,omitempty"`
}

type HookEntry struct {
	ID            string `yaml:"id" json:"id,omitempty"`
	Kind          string `yaml:"kind" json:"kind"`
	TagExpression string `yaml:"tagExpression" json:"tagExpression,omitempty"`
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func supportSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks a decoded support document against the embedded schema.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding support file: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	// round-trip through JSON so the validator sees plain JSON values
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalizing support file: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("normalizing support file: %w", err)
	}

	schema, err := supportSchema()
	if err != nil {
		return fmt.Errorf("compiling support schema: %w", err)
	}
	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("validating support file: %w", err)
	}
	return nil
}

func patternType(s string) messages.PatternType {
	switch s {
	case "cucumber-expression":
		return messages.CucumberExpression
	case "regular-expression":
		return messages.RegularExpression
	}
	return ""
}

// Load validates and decodes data and registers its contents in order:
// parameter types first, then step definitions, then hooks. Entries without
// an id get one from gen.
func Load(data []byte, gen idgen.Generator) (*Library, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding support file: %w", err)
	}
	return f.Library(gen)
}

// LoadFile reads and loads a support file from disk.
func LoadFile(path string, gen idgen.Generator) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	lib, err := Load(data, gen)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return lib, nil
}

// Library registers the file's contents in a new Library.
func (f File) Library(gen idgen.Generator) (*Library, error) {
	lib := NewLibrary()
	for i, p := range f.ParameterTypes {
		if err := lib.DefineParameterType(p.Name, p.Regexps, p.PreferForRegexpMatch); err != nil {
			return nil, fmt.Errorf("parameter type %d (%s): %w", i, p.Name, err)
		}
	}
	for i, d := range f.StepDefinitions {
		id := d.ID
		if id == "" {
			id = gen.Next()
		}
		if _, err := lib.AddStepDefinition(id, d.Pattern, patternType(d.PatternType)); err != nil {
			return nil, fmt.Errorf("step definition %d (%q): %w", i, d.Pattern, err)
		}
	}
	for i, h := range f.Hooks {
		id := h.ID
		if id == "" {
			id = gen.Next()
		}
		if _, err := lib.AddHook(id, HookKind(h.Kind), h.TagExpression); err != nil {
			return nil, fmt.Errorf("hook %d (%s): %w", i, h.Kind, err)
		}
	}
	return lib, nil
}
