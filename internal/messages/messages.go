// Package messages defines the records exchanged with upstream and downstream
// collaborators: pickles coming in, test cases going out, and the envelope
// that wraps each of them on the wire.
package messages

// Envelope wraps exactly one record for transport to observers.
type Envelope struct {
	Pickle         *Pickle         `json:"pickle,omitempty"`
	StepDefinition *StepDefinition `json:"stepDefinition,omitempty"`
	Hook           *Hook           `json:"hook,omitempty"`
	TestCase       *TestCase       `json:"testCase,omitempty"`
}

// Location is a 1-based source position.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column,omitempty"`
}

// Pickle is a fully resolved, executable scenario instance.
type Pickle struct {
	ID    string       `json:"id"`
	URI   string       `json:"uri,omitempty"`
	Name  string       `json:"name,omitempty"`
	Steps []PickleStep `json:"steps"`
	Tags  []PickleTag  `json:"tags"`
}

// TagNames returns the pickle's tag names in declaration order.
func (p Pickle) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// PickleStep is one step of a pickle.
type PickleStep struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Location *Location `json:"location,omitempty"`
}

// PickleTag is a tag attached to a pickle, including the leading "@".
type PickleTag struct {
	Name string `json:"name"`
}

// PatternType tells how a step definition pattern is compiled.
type PatternType string

const (
	CucumberExpression PatternType = "CUCUMBER_EXPRESSION"
	RegularExpression  PatternType = "REGULAR_EXPRESSION"
)

// StepDefinitionPattern is the source of a step definition pattern.
type StepDefinitionPattern struct {
	Source string      `json:"source"`
	Type   PatternType `json:"type"`
}

// StepDefinition announces a registered step definition to downstream consumers.
type StepDefinition struct {
	ID      string                `json:"id"`
	Pattern StepDefinitionPattern `json:"pattern"`
}

// Hook announces a registered hook to downstream consumers.
type Hook struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	TagExpression string `json:"tagExpression,omitempty"`
}

// TestCase is the assembled plan for one pickle.
type TestCase struct {
	ID        string     `json:"id"`
	PickleID  string     `json:"pickleId"`
	TestSteps []TestStep `json:"testSteps"`
}

// StepMatchArgumentsList holds the arguments extracted by one matching step
// definition.
type StepMatchArgumentsList struct {
	StepMatchArguments []StepMatchArgument `json:"stepMatchArguments"`
}

// StepMatchArgument is one parameter of a matched step.
type StepMatchArgument struct {
	ParameterTypeName string `json:"parameterTypeName"`
	Group             Group  `json:"group"`
}

// Group mirrors a capture group of the matching pattern. Value and Start are
// nil when the group did not take part in the match. Start is a character
// index into the step text.
type Group struct {
	Children []Group `json:"children"`
	Start    *int    `json:"start,omitempty"`
	Value    *string `json:"value,omitempty"`
}
