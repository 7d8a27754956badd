// Package stepmatch finds the step definitions matching a step's text.
package stepmatch

import (
	"github.com/chriserin/cukeplan/internal/messages"
	"github.com/chriserin/cukeplan/internal/support"
)

// Result is one matching step definition and the arguments it extracted.
type Result struct {
	DefinitionID string
	Arguments    []messages.StepMatchArgument
}

// Match tests text against every definition in order. No result means the
// step is undefined, more than one means it is ambiguous. Neither is an
// error here.
func Match(text string, defs []support.StepDefinition) []Result {
	var results []Result
	for _, d := range defs {
		args, ok := d.Expression.Match(text)
		if !ok {
			continue
		}
		r := Result{DefinitionID: d.ID, Arguments: make([]messages.StepMatchArgument, 0, len(args))}
		for _, a := range args {
			r.Arguments = append(r.Arguments, messages.StepMatchArgument{
				ParameterTypeName: a.ParameterTypeName,
				Group:             a.Group,
			})
		}
		results = append(results, r)
	}
	return results
}

// Split separates results into the parallel lists carried by a pickle test
// step. Both are non-nil.
func Split(results []Result) ([]string, []messages.StepMatchArgumentsList) {
	ids := make([]string, 0, len(results))
	lists := make([]messages.StepMatchArgumentsList, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.DefinitionID)
		args := r.Arguments
		if args == nil {
			args = []messages.StepMatchArgument{}
		}
		lists = append(lists, messages.StepMatchArgumentsList{StepMatchArguments: args})
	}
	return ids, lists
}
