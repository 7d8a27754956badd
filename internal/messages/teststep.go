package messages

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// TestStep is either a hook step or a pickle step. The two shapes are
// mutually exclusive: a hook step carries HookIDs only, a pickle step carries
// PickleStepID with its (possibly empty) matches. Use NewHookStep and
// NewPickleStep to build one.
type TestStep struct {
	ID                      string
	HookIDs                 []string
	PickleStepID            string
	StepDefinitionIDs       []string
	StepMatchArgumentsLists []StepMatchArgumentsList
}

// NewHookStep returns a test step that runs the given hooks.
func NewHookStep(id string, hookIDs ...string) TestStep {
	return TestStep{ID: id, HookIDs: append([]string{}, hookIDs...)}
}

// NewPickleStep returns a test step bound to a pickle step. definitionIDs and
// argumentLists are parallel: one arguments list per matching definition.
func NewPickleStep(id, pickleStepID string, definitionIDs []string, argumentLists []StepMatchArgumentsList) TestStep {
	if definitionIDs == nil {
		definitionIDs = []string{}
	}
	if argumentLists == nil {
		argumentLists = []StepMatchArgumentsList{}
	}
	return TestStep{
		ID:                      id,
		PickleStepID:            pickleStepID,
		StepDefinitionIDs:       definitionIDs,
		StepMatchArgumentsLists: argumentLists,
	}
}

// IsHook reports whether the step runs hooks rather than a pickle step.
func (s TestStep) IsHook() bool {
	return len(s.HookIDs) > 0
}

// IsUndefined reports whether a pickle step has no matching definition.
func (s TestStep) IsUndefined() bool {
	return !s.IsHook() && len(s.StepDefinitionIDs) == 0
}

// IsAmbiguous reports whether a pickle step matches more than one definition.
func (s TestStep) IsAmbiguous() bool {
	return !s.IsHook() && len(s.StepDefinitionIDs) > 1
}

// Clone returns a copy of tc that shares no memory with it. Empty and nil
// slices stay as they were, so the copy encodes identically.
func (tc TestCase) Clone() TestCase {
	out := tc
	if tc.TestSteps != nil {
		out.TestSteps = make([]TestStep, len(tc.TestSteps))
		for i, s := range tc.TestSteps {
			out.TestSteps[i] = s.Clone()
		}
	}
	return out
}

func (s TestStep) Clone() TestStep {
	out := s
	out.HookIDs = cloneStrings(s.HookIDs)
	out.StepDefinitionIDs = cloneStrings(s.StepDefinitionIDs)
	if s.StepMatchArgumentsLists != nil {
		out.StepMatchArgumentsLists = make([]StepMatchArgumentsList, len(s.StepMatchArgumentsLists))
		for i, l := range s.StepMatchArgumentsLists {
			out.StepMatchArgumentsLists[i] = l.Clone()
		}
	}
	return out
}

func (l StepMatchArgumentsList) Clone() StepMatchArgumentsList {
	if l.StepMatchArguments == nil {
		return l
	}
	args := make([]StepMatchArgument, len(l.StepMatchArguments))
	for i, a := range l.StepMatchArguments {
		args[i] = StepMatchArgument{ParameterTypeName: a.ParameterTypeName, Group: a.Group.Clone()}
	}
	return StepMatchArgumentsList{StepMatchArguments: args}
}

func (g Group) Clone() Group {
	out := Group{}
	if g.Value != nil {
		v := *g.Value
		out.Value = &v
	}
	if g.Start != nil {
		n := *g.Start
		out.Start = &n
	}
	if g.Children != nil {
		out.Children = make([]Group, len(g.Children))
		for i, c := range g.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

type hookStepWire struct {
	ID      string   `json:"id"`
	HookIDs []string `json:"hookId"`
}

type pickleStepWire struct {
	ID                      string                   `json:"id"`
	PickleStepID            string                   `json:"pickleStepId"`
	StepDefinitionIDs       []string                 `json:"stepDefinitionIds"`
	StepMatchArgumentsLists []StepMatchArgumentsList `json:"stepMatchArgumentsLists"`
}

func (s TestStep) wire() any {
	if s.IsHook() {
		return hookStepWire{ID: s.ID, HookIDs: s.HookIDs}
	}
	w := pickleStepWire{
		ID:                      s.ID,
		PickleStepID:            s.PickleStepID,
		StepDefinitionIDs:       s.StepDefinitionIDs,
		StepMatchArgumentsLists: make([]StepMatchArgumentsList, 0, len(s.StepMatchArgumentsLists)),
	}
	if w.StepDefinitionIDs == nil {
		w.StepDefinitionIDs = []string{}
	}
	for _, l := range s.StepMatchArgumentsLists {
		if l.StepMatchArguments == nil {
			l.StepMatchArguments = []StepMatchArgument{}
		}
		w.StepMatchArgumentsLists = append(w.StepMatchArgumentsLists, l)
	}
	return w
}

// MarshalJSON writes hookId for hook steps and the pickle step fields
// otherwise. Presence of the keys, not their emptiness, tells them apart.
func (s TestStep) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

// UnmarshalJSON reads either wire shape.
func (s *TestStep) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["hookId"]; ok {
		var w hookStepWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		if len(w.HookIDs) == 0 {
			return fmt.Errorf("test step %s: empty hookId", w.ID)
		}
		*s = NewHookStep(w.ID, w.HookIDs...)
		return nil
	}
	if _, ok := keys["pickleStepId"]; !ok {
		return fmt.Errorf("test step has neither hookId nor pickleStepId")
	}
	var w pickleStepWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = NewPickleStep(w.ID, w.PickleStepID, w.StepDefinitionIDs, w.StepMatchArgumentsLists)
	return nil
}

// MarshalCBOR encodes the same shapes as MarshalJSON.
func (s TestStep) MarshalCBOR() ([]byte, error) {
	return cborMode.Marshal(s.wire())
}

// MarshalJSON always writes children, as an empty list when there are none.
func (g Group) MarshalJSON() ([]byte, error) {
	type plain Group
	if g.Children == nil {
		g.Children = []Group{}
	}
	return json.Marshal(plain(g))
}

// MarshalCBOR mirrors MarshalJSON.
func (g Group) MarshalCBOR() ([]byte, error) {
	type plain Group
	if g.Children == nil {
		g.Children = []Group{}
	}
	return cborMode.Marshal(plain(g))
}

var cborMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("messages: building CBOR encoder: %v", err))
	}
	return em
}

// MarshalCBOR encodes an envelope deterministically.
func MarshalCBOR(env Envelope) ([]byte, error) {
	return cborMode.Marshal(env)
}
