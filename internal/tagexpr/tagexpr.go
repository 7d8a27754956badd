// Package tagexpr parses and evaluates boolean tag expressions such as
// "@smoke and not (@slow or @wip)".
//
// Operators are "not", "and" and "or", in decreasing precedence. Parentheses
// group. A backslash escapes a space, a parenthesis or another backslash so it
// becomes part of a tag name. An empty expression matches every tag set.
package tagexpr

import (
	"errors"
	"fmt"

	tagexpressions "github.com/cucumber/tag-expressions/go/v6"
)

var ErrSyntax = errors.New("invalid tag expression")

// Error describes why an expression could not be parsed.
type Error struct {
	Expression string
	Msg        string
}

func (e *Error) Error() string {
	return fmt.Sprintf("tag expression %q could not be parsed: %s", e.Expression, e.Msg)
}

func (e *Error) Unwrap() error { return ErrSyntax }

// Expr is a parsed tag expression.
type Expr struct {
	source string
	eval   tagexpressions.Evaluatable
}

// Evaluate reports whether tags satisfy the expression.
func (e Expr) Evaluate(tags []string) bool {
	if e.eval == nil {
		return true
	}
	return e.eval.Evaluate(tags)
}

// String returns the expression as written.
func (e Expr) String() string { return e.source }

// Parse compiles an infix tag expression.
func Parse(expression string) (Expr, error) {
	eval, err := tagexpressions.Parse(expression)
	if err != nil {
		return Expr{}, &Error{Expression: expression, Msg: err.Error()}
	}
	return Expr{source: expression, eval: eval}, nil
}

func MustParse(expression string) Expr {
	e, err := Parse(expression)
	if err != nil {
		panic(err)
	}
	return e
}
