package messages

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestStep_HookShape(t *testing.T) {
	b, err := json.Marshal(NewHookStep("4", "hook-a"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"4","hookId":["hook-a"]}`, string(b))
}

func TestTestStep_PickleShapeKeepsEmptyLists(t *testing.T) {
	b, err := json.Marshal(NewPickleStep("5", "ps", nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"5","pickleStepId":"ps","stepDefinitionIds":[],"stepMatchArgumentsLists":[]}`, string(b))
}

func TestTestStep_NilArgumentsBecomeEmpty(t *testing.T) {
	s := NewPickleStep("5", "ps", []string{"d"}, []StepMatchArgumentsList{{}})
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"5","pickleStepId":"ps","stepDefinitionIds":["d"],"stepMatchArgumentsLists":[{"stepMatchArguments":[]}]}`, string(b))
}

func TestGroup_AbsentValueAndStart(t *testing.T) {
	start, value := 3, "x"
	g := Group{Children: []Group{{Value: &value, Start: &start}, {}}}

	b, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"children":[{"children":[],"start":3,"value":"x"},{"children":[]}]}`, string(b))
}

func TestTestStep_UnmarshalBothShapes(t *testing.T) {
	var tc TestCase
	require.NoError(t, json.Unmarshal([]byte(`{"id":"0","pickleId":"p","testSteps":[
		{"id":"1","hookId":["h1","h2"]},
		{"id":"2","pickleStepId":"s","stepDefinitionIds":["d"],"stepMatchArgumentsLists":[
			{"stepMatchArguments":[{"parameterTypeName":"int","group":{"children":[],"start":0,"value":"1"}}]}]},
		{"id":"3","pickleStepId":"t","stepDefinitionIds":[],"stepMatchArgumentsLists":[]}
	]}`), &tc))

	require.Len(t, tc.TestSteps, 3)
	assert.True(t, tc.TestSteps[0].IsHook())
	assert.Equal(t, []string{"h1", "h2"}, tc.TestSteps[0].HookIDs)

	matched := tc.TestSteps[1]
	assert.False(t, matched.IsHook())
	assert.Equal(t, "s", matched.PickleStepID)
	arg := matched.StepMatchArgumentsLists[0].StepMatchArguments[0]
	assert.Equal(t, "int", arg.ParameterTypeName)
	assert.Equal(t, "1", *arg.Group.Value)
	assert.Equal(t, 0, *arg.Group.Start)

	assert.True(t, tc.TestSteps[2].IsUndefined())
	assert.False(t, tc.TestSteps[2].IsAmbiguous())
}

func TestTestStep_UnmarshalRejectsMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"empty hook list": `{"id":"1","hookId":[]}`,
		"no shape":        `{"id":"1"}`,
		"not an object":   `["id"]`,
	} {
		t.Run(name, func(t *testing.T) {
			var s TestStep
			assert.Error(t, json.Unmarshal([]byte(doc), &s))
		})
	}
}

func TestPickle_TagNames(t *testing.T) {
	p := Pickle{Tags: []PickleTag{{Name: "@a"}, {Name: "@b"}}}
	assert.Equal(t, []string{"@a", "@b"}, p.TagNames())
	assert.Equal(t, []string{}, Pickle{}.TagNames())
}

func TestMarshalCBOR_Deterministic(t *testing.T) {
	tc := TestCase{ID: "0", PickleID: "p", TestSteps: []TestStep{
		NewHookStep("1", "h"),
		NewPickleStep("2", "s", nil, nil),
	}}
	a, err := MarshalCBOR(Envelope{TestCase: &tc})
	require.NoError(t, err)
	b, err := MarshalCBOR(Envelope{TestCase: &tc})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var decoded map[string]any
	require.NoError(t, cbor.Unmarshal(a, &decoded))
	assert.Contains(t, decoded, "testCase")
	assert.NotContains(t, decoded, "pickle")
}

func TestTestCase_CloneKeepsEncoding(t *testing.T) {
	value, start := "7", 5
	tc := TestCase{ID: "0", PickleID: "p", TestSteps: []TestStep{
		NewHookStep("1", "h"),
		NewPickleStep("2", "s", []string{"d"}, []StepMatchArgumentsList{{StepMatchArguments: []StepMatchArgument{{
			ParameterTypeName: "int",
			Group:             Group{Value: &value, Start: &start, Children: []Group{}},
		}}}}),
		NewPickleStep("3", "s2", nil, nil),
	}}

	clone := tc.Clone()
	want, err := json.Marshal(tc)
	require.NoError(t, err)
	got, err := json.Marshal(clone)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	*clone.TestSteps[1].StepMatchArgumentsLists[0].StepMatchArguments[0].Group.Value = "8"
	clone.TestSteps[0].HookIDs[0] = "other"
	assert.Equal(t, "7", value)
	assert.Equal(t, "h", tc.TestSteps[0].HookIDs[0])
}
