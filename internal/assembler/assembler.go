// Package assembler builds the test case for a single pickle.
package assembler

import (
	"github.com/chriserin/cukeplan/internal/hooks"
	"github.com/chriserin/cukeplan/internal/idgen"
	"github.com/chriserin/cukeplan/internal/messages"
	"github.com/chriserin/cukeplan/internal/stepmatch"
	"github.com/chriserin/cukeplan/internal/support"
)

// Assemble lays out the test steps of pickle:
//
//	before-case hooks
//	for each pickle step: before-step hooks, the step, after-step hooks
//	after-case hooks
//
// Each hook becomes its own step. The test case id is drawn from gen first,
// then one id per step in the order the steps appear.
func Assemble(pickle messages.Pickle, resolved hooks.Resolved, defs []support.StepDefinition, gen idgen.Generator) messages.TestCase {
	tc := messages.TestCase{ID: gen.Next(), PickleID: pickle.ID}

	capacity := len(resolved.BeforeCase) + len(resolved.AfterCase) +
		len(pickle.Steps)*(1+len(resolved.BeforeStep)+len(resolved.AfterStep))
	steps := make([]messages.TestStep, 0, capacity)

	appendHooks := func(hs []support.Hook) {
		for _, h := range hs {
			steps = append(steps, messages.NewHookStep(gen.Next(), h.ID))
		}
	}

	appendHooks(resolved.BeforeCase)
	for _, ps := range pickle.Steps {
		appendHooks(resolved.BeforeStep)
		ids, lists := stepmatch.Split(stepmatch.Match(ps.Text, defs))
		steps = append(steps, messages.NewPickleStep(gen.Next(), ps.ID, ids, lists))
		appendHooks(resolved.AfterStep)
	}
	appendHooks(resolved.AfterCase)

	tc.TestSteps = steps
	return tc
}
