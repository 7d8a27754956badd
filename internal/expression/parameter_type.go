package expression

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	cucumberexpressions "github.com/cucumber/cucumber-expressions/go/v16"
)

// Transformer decodes the values of a parameter's capture groups. A nil entry
// is a group that did not take part in the match.
type Transformer func(values ...*string) (any, error)

// ParameterType names a family of regexps and knows how to decode what they
// capture.
type ParameterType struct {
	Name    string
	Regexps []string
	// PreferForRegexpMatch picks this type when several share a regexp and a
	// regular expression step definition captures it.
	PreferForRegexpMatch bool

	transform Transformer
	compiled  []*regexp.Regexp
}

// NewParameterType validates name and regexps. A nil transform yields the
// first participating value unchanged.
func NewParameterType(name string, regexps []string, prefer bool, transform Transformer) (*ParameterType, error) {
	if strings.ContainsAny(name, `{}()\/`) {
		return nil, &Error{Kind: ErrInvalidParameterTypeName, Expression: name, Msg: "parameter type names may not contain '{', '}', '(', ')', '\\' or '/'"}
	}
	if len(regexps) == 0 {
		return nil, &Error{Kind: ErrInvalidParameterTypeName, Expression: name, Msg: "parameter type needs at least one regexp"}
	}
	p := &ParameterType{Name: name, Regexps: regexps, PreferForRegexpMatch: prefer, transform: transform}
	for _, source := range regexps {
		re, err := regexp.Compile(source)
		if err != nil {
			return nil, &Error{Kind: ErrInvalidExpression, Expression: source, Msg: err.Error()}
		}
		p.compiled = append(p.compiled, re)
	}
	return p, nil
}

// decode adapts the transform to the matcher, which takes no error result.
// A failed transform panics and Argument.Decode turns it back into an error.
func (p *ParameterType) decode(values ...*string) interface{} {
	if p.transform == nil {
		return firstValue(values)
	}
	v, err := p.transform(values...)
	if err != nil {
		panic(err)
	}
	return v
}

func firstValue(values []*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

// ParameterTypeRegistry holds the parameter types expressions may refer to:
// the matcher's built-in int, float, word, string and anonymous types plus
// the sized numeric types below.
type ParameterTypeRegistry struct {
	lib *cucumberexpressions.ParameterTypeRegistry
}

func NewParameterTypeRegistry() *ParameterTypeRegistry {
	r := &ParameterTypeRegistry{lib: cucumberexpressions.NewParameterTypeRegistry()}
	for _, p := range numericTypes() {
		if r.Defined(p.Name) {
			continue
		}
		if err := r.Define(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Define registers a parameter type. Names must be unique.
func (r *ParameterTypeRegistry) Define(p *ParameterType) error {
	if r.Defined(p.Name) {
		return &Error{Kind: ErrDuplicateParameterType, Expression: p.Name, Msg: fmt.Sprintf("there is already a parameter type with name %q", p.Name)}
	}
	lp, err := cucumberexpressions.NewParameterType(p.Name, p.compiled, p.Name, p.decode, false, p.PreferForRegexpMatch, false)
	if err != nil {
		return &Error{Kind: ErrInvalidParameterTypeName, Expression: p.Name, Msg: err.Error()}
	}
	if err := r.lib.DefineParameterType(lp); err != nil {
		return &Error{Kind: ErrDuplicateParameterType, Expression: p.Name, Msg: err.Error()}
	}
	return nil
}

// Defined reports whether name can be used inside {braces}.
func (r *ParameterTypeRegistry) Defined(name string) bool {
	return r.lib.LookupByTypeName(name) != nil
}

const (
	intRegexp   = `-?\d+`
	uintRegexp  = `\d+`
	floatRegexp = `[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?`
)

// numericTypes fills in sized numbers the matcher does not ship. None is
// preferred, so a bare \d+ in a regular expression still reads as {int}.
func numericTypes() []*ParameterType {
	sized := func(name string, bits int, convert func(int64) any) *ParameterType {
		p, _ := NewParameterType(name, []string{intRegexp, uintRegexp}, false, func(values ...*string) (any, error) {
			n, err := strconv.ParseInt(firstValue(values), 10, bits)
			if err != nil {
				return nil, err
			}
			return convert(n), nil
		})
		return p
	}
	double, _ := NewParameterType("double", []string{floatRegexp}, false, func(values ...*string) (any, error) {
		return strconv.ParseFloat(firstValue(values), 64)
	})
	bigInteger, _ := NewParameterType("biginteger", []string{intRegexp, uintRegexp}, false, func(values ...*string) (any, error) {
		n, ok := new(big.Int).SetString(firstValue(values), 10)
		if !ok {
			return nil, fmt.Errorf("invalid biginteger %q", firstValue(values))
		}
		return n, nil
	})
	bigDecimal, _ := NewParameterType("bigdecimal", []string{floatRegexp}, false, func(values ...*string) (any, error) {
		f, ok := new(big.Float).SetString(firstValue(values))
		if !ok {
			return nil, fmt.Errorf("invalid bigdecimal %q", firstValue(values))
		}
		return f, nil
	})

	return []*ParameterType{
		sized("byte", 8, func(n int64) any { return int8(n) }),
		sized("short", 16, func(n int64) any { return int16(n) }),
		sized("long", 64, func(n int64) any { return n }),
		double,
		bigInteger,
		bigDecimal,
	}
}
