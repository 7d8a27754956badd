// Package hooks selects the hooks that apply to a pickle.
package hooks

import (
	"github.com/chriserin/cukeplan/internal/messages"
	"github.com/chriserin/cukeplan/internal/support"
)

// Resolved holds the hooks applying to one pickle, per kind, in registration
// order.
type Resolved struct {
	BeforeCase []support.Hook
	AfterCase  []support.Hook
	BeforeStep []support.Hook
	AfterStep  []support.Hook
}

// Len counts the resolved hooks of every kind.
func (r Resolved) Len() int {
	return len(r.BeforeCase) + len(r.AfterCase) + len(r.BeforeStep) + len(r.AfterStep)
}

// Resolve filters the registered hooks of each kind by their tag expression
// against the pickle's tags.
func Resolve(reg support.HookSource, pickle messages.Pickle) Resolved {
	tags := pickle.TagNames()
	pick := func(kind support.HookKind) []support.Hook {
		var out []support.Hook
		for _, h := range reg.Hooks(kind) {
			if h.AppliesTo(tags) {
				out = append(out, h)
			}
		}
		return out
	}
	return Resolved{
		BeforeCase: pick(support.BeforeCase),
		AfterCase:  pick(support.AfterCase),
		BeforeStep: pick(support.BeforeStep),
		AfterStep:  pick(support.AfterStep),
	}
}
