// Package support holds the registered step definitions and hooks that test
// cases are assembled against. Patterns and tag expressions are compiled when
// they are added, so a malformed one fails registration rather than assembly.
package support

import (
	"errors"
	"fmt"

	"github.com/chriserin/cukeplan/internal/expression"
	"github.com/chriserin/cukeplan/internal/messages"
	"github.com/chriserin/cukeplan/internal/tagexpr"
)

var (
	ErrDuplicateID = errors.New("duplicate id")
	ErrMissingID   = errors.New("missing id")
)

// HookKind is the lifecycle point a hook is bound to.
type HookKind string

const (
	BeforeCase HookKind = "beforeCase"
	AfterCase  HookKind = "afterCase"
	BeforeStep HookKind = "beforeStep"
	AfterStep  HookKind = "afterStep"
)

// Valid reports whether k is one of the four known kinds.
func (k HookKind) Valid() bool {
	switch k {
	case BeforeCase, AfterCase, BeforeStep, AfterStep:
		return true
	}
	return false
}

// StepDefinition is a registered pattern.
type StepDefinition struct {
	ID         string
	Expression expression.Expression
}

// Message describes the definition for downstream consumers.
func (d StepDefinition) Message() messages.StepDefinition {
	return messages.StepDefinition{
		ID:      d.ID,
		Pattern: messages.StepDefinitionPattern{Source: d.Expression.Source(), Type: d.Expression.Type()},
	}
}

// Hook is registered code bound to a lifecycle point, optionally restricted
// by a tag expression.
type Hook struct {
	ID            string
	Kind          HookKind
	TagExpression string

	tags tagexpr.Expr
}

// AppliesTo reports whether the hook's tag expression accepts tags. A hook
// without an expression applies everywhere.
func (h Hook) AppliesTo(tags []string) bool {
	return h.tags.Evaluate(tags)
}

// Message describes the hook for downstream consumers.
func (h Hook) Message() messages.Hook {
	return messages.Hook{ID: h.ID, Type: string(h.Kind), TagExpression: h.TagExpression}
}

// StepDefinitionSource lists step definitions in registration order.
type StepDefinitionSource interface {
	StepDefinitions() []StepDefinition
}

// HookSource lists hooks of one kind in registration order.
type HookSource interface {
	Hooks(kind HookKind) []Hook
}

// Registry is the read-only query contract assembly depends on.
type Registry interface {
	StepDefinitionSource
	HookSource
}

// Library is an in-memory Registry.
type Library struct {
	parameterTypes  *expression.ParameterTypeRegistry
	stepDefinitions []StepDefinition
	hooks           []Hook
	ids             map[string]bool
}

func NewLibrary() *Library {
	return &Library{
		parameterTypes: expression.NewParameterTypeRegistry(),
		ids:            make(map[string]bool),
	}
}

// ParameterTypes exposes the registry expressions are compiled against.
func (l *Library) ParameterTypes() *expression.ParameterTypeRegistry {
	return l.parameterTypes
}

// DefineParameterType adds a custom parameter type whose values decode to the
// matched text. It must be defined before any expression that uses it.
func (l *Library) DefineParameterType(name string, regexps []string, preferForRegexpMatch bool) error {
	p, err := expression.NewParameterType(name, regexps, preferForRegexpMatch, nil)
	if err != nil {
		return err
	}
	return l.parameterTypes.Define(p)
}

func (l *Library) claim(id string) error {
	if id == "" {
		return ErrMissingID
	}
	if l.ids[id] {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	l.ids[id] = true
	return nil
}

// AddStepDefinition compiles pattern and registers it. An empty patternType
// is detected from the pattern.
func (l *Library) AddStepDefinition(id, pattern string, patternType messages.PatternType) (StepDefinition, error) {
	expr, err := expression.Compile(pattern, patternType, l.parameterTypes)
	if err != nil {
		return StepDefinition{}, err
	}
	if err := l.claim(id); err != nil {
		return StepDefinition{}, err
	}
	d := StepDefinition{ID: id, Expression: expr}
	l.stepDefinitions = append(l.stepDefinitions, d)
	return d, nil
}

// AddHook parses tagExpression and registers the hook.
func (l *Library) AddHook(id string, kind HookKind, tagExpression string) (Hook, error) {
	if !kind.Valid() {
		return Hook{}, fmt.Errorf("unknown hook kind %q", kind)
	}
	h := Hook{ID: id, Kind: kind, TagExpression: tagExpression}
	if tagExpression != "" {
		e, err := tagexpr.Parse(tagExpression)
		if err != nil {
			return Hook{}, err
		}
		h.tags = e
	}
	if err := l.claim(id); err != nil {
		return Hook{}, err
	}
	l.hooks = append(l.hooks, h)
	return h, nil
}

func (l *Library) StepDefinitions() []StepDefinition {
	return append([]StepDefinition(nil), l.stepDefinitions...)
}

func (l *Library) Hooks(kind HookKind) []Hook {
	var out []Hook
	for _, h := range l.hooks {
		if h.Kind == kind {
			out = append(out, h)
		}
	}
	return out
}

// AllHooks returns every hook in registration order.
func (l *Library) AllHooks() []Hook {
	return append([]Hook(nil), l.hooks...)
}
