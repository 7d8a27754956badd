// Package expression compiles step definition patterns and matches step text
// against them.
//
// Two pattern languages are supported. Cucumber expressions are plain text
// with {parameter} placeholders, (optional) text and word/alternation; they
// compile to an anchored regexp. Regular expressions are used as written.
// Either way a successful match yields one Argument per parameter, each
// carrying the capture group tree of that parameter with absolute character
// offsets into the matched text.
package expression

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	cucumberexpressions "github.com/cucumber/cucumber-expressions/go/v16"

	"github.com/chriserin/cukeplan/internal/messages"
)

var (
	ErrInvalidExpression        = errors.New("invalid expression")
	ErrUndefinedParameterType   = errors.New("undefined parameter type")
	ErrInvalidParameterTypeName = errors.New("invalid parameter type name")
	ErrDuplicateParameterType   = errors.New("duplicate parameter type")
)

// Error reports a pattern or parameter type that cannot be compiled.
type Error struct {
	Kind       error
	Expression string
	Msg        string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %q: %s", e.Kind, e.Expression, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// Expression is a compiled step definition pattern.
type Expression interface {
	// Source is the pattern as written.
	Source() string
	// Type tells which language Source is written in.
	Type() messages.PatternType
	// Regexp is the compiled matcher.
	Regexp() *regexp.Regexp
	// Match reports whether text matches and returns one Argument per
	// parameter. A match without parameters returns an empty slice and true.
	Match(text string) ([]*Argument, bool)
}

// Argument is one parameter extracted from a match.
type Argument struct {
	ParameterTypeName string
	Group             messages.Group

	arg *cucumberexpressions.Argument
}

// Decode converts the captured text into the parameter type's value.
func (a *Argument) Decode() (v any, err error) {
	// transforms report failure by panicking
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("decoding {%s}: %v", a.ParameterTypeName, r)
		}
	}()
	return a.arg.GetValue(), nil
}

// Compile builds an expression for pattern. An empty pattern type is
// detected from the pattern itself: ^anchors$ or /slashes/ select a regular
// expression, anything else is a cucumber expression.
func Compile(pattern string, patternType messages.PatternType, registry *ParameterTypeRegistry) (Expression, error) {
	if patternType == "" {
		patternType = DetectType(pattern)
	}
	switch patternType {
	case messages.CucumberExpression:
		return NewCucumberExpression(pattern, registry)
	case messages.RegularExpression:
		return NewRegularExpression(pattern, registry)
	default:
		return nil, &Error{Kind: ErrInvalidExpression, Expression: pattern, Msg: fmt.Sprintf("unknown pattern type %q", patternType)}
	}
}

// DetectType guesses the language of an untyped pattern.
func DetectType(pattern string) messages.PatternType {
	if strings.HasPrefix(pattern, "^") || strings.HasSuffix(pattern, "$") {
		return messages.RegularExpression
	}
	if len(pattern) >= 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		return messages.RegularExpression
	}
	return messages.CucumberExpression
}

// NewCucumberExpression compiles source, resolving {parameters} against
// registry.
func NewCucumberExpression(source string, registry *ParameterTypeRegistry) (Expression, error) {
	var expr cucumberexpressions.Expression
	expr, err := cucumberexpressions.NewCucumberExpression(source, registry.lib)
	if err != nil {
		kind := ErrInvalidExpression
		if strings.Contains(strings.ToLower(err.Error()), "undefined parameter type") {
			kind = ErrUndefinedParameterType
		}
		return nil, &Error{Kind: kind, Expression: source, Msg: err.Error()}
	}
	return &compiled{source: source, patternType: messages.CucumberExpression, expr: expr}, nil
}

// NewRegularExpression compiles source. Surrounding /slashes/ are stripped.
// Each outermost capture group is a parameter whose type is looked up by the
// group's regexp.
func NewRegularExpression(source string, registry *ParameterTypeRegistry) (Expression, error) {
	pattern := source
	if len(pattern) >= 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		pattern = pattern[1 : len(pattern)-1]
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidExpression, Expression: source, Msg: err.Error()}
	}
	var expr cucumberexpressions.Expression = cucumberexpressions.NewRegularExpression(re, registry.lib)
	return &compiled{source: source, patternType: messages.RegularExpression, expr: expr}, nil
}

type compiled struct {
	source      string
	patternType messages.PatternType
	expr        cucumberexpressions.Expression
}

func (c *compiled) Source() string             { return c.source }
func (c *compiled) Type() messages.PatternType { return c.patternType }
func (c *compiled) Regexp() *regexp.Regexp     { return c.expr.Regexp() }

// Match builds arguments only for text the regexp accepts. A regular
// expression whose groups cannot be bound to a single parameter type does
// not match.
func (c *compiled) Match(text string) ([]*Argument, bool) {
	if !c.expr.Regexp().MatchString(text) {
		return nil, false
	}
	args, err := c.expr.Match(text)
	if err != nil {
		return nil, false
	}
	out := make([]*Argument, 0, len(args))
	for _, a := range args {
		out = append(out, &Argument{
			ParameterTypeName: a.ParameterType().Name(),
			Group:             group(text, a.Group()),
			arg:               a,
		})
	}
	return out, true
}

// group converts a matched group tree. Offsets become character indexes and
// a group that took no part in the match keeps its children but has no
// value or start.
func group(text string, g *cucumberexpressions.Group) messages.Group {
	out := messages.Group{Children: make([]messages.Group, 0, len(g.Children()))}
	if v := g.Value(); v != nil && g.Start() >= 0 && g.Start() <= len(text) {
		value := *v
		start := utf8.RuneCountInString(text[:g.Start()])
		out.Value = &value
		out.Start = &start
	}
	for _, c := range g.Children() {
		out.Children = append(out.Children, group(text, c))
	}
	return out
}
