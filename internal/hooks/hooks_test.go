package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/cukeplan/internal/messages"
	"github.com/chriserin/cukeplan/internal/support"
)

func pickleWithTags(tags ...string) messages.Pickle {
	p := messages.Pickle{ID: "p"}
	for _, t := range tags {
		p.Tags = append(p.Tags, messages.PickleTag{Name: t})
	}
	return p
}

func ids(hooks []support.Hook) []string {
	out := []string{}
	for _, h := range hooks {
		out = append(out, h.ID)
	}
	return out
}

func newLibrary(t *testing.T) *support.Library {
	t.Helper()
	lib := support.NewLibrary()
	add := func(id string, kind support.HookKind, expr string) {
		_, err := lib.AddHook(id, kind, expr)
		require.NoError(t, err)
	}
	add("before-all", support.BeforeCase, "")
	add("before-db", support.BeforeCase, "@db")
	add("after-fast", support.AfterCase, "not @slow")
	add("step-ui", support.BeforeStep, "@ui or @web")
	add("after-step", support.AfterStep, "")
	add("before-last", support.BeforeCase, "")
	return lib
}

func TestResolve_UntaggedPickle(t *testing.T) {
	r := Resolve(newLibrary(t), pickleWithTags())

	assert.Equal(t, []string{"before-all", "before-last"}, ids(r.BeforeCase))
	assert.Equal(t, []string{"after-fast"}, ids(r.AfterCase))
	assert.Empty(t, r.BeforeStep)
	assert.Equal(t, []string{"after-step"}, ids(r.AfterStep))
	assert.Equal(t, 4, r.Len())
}

func TestResolve_FiltersByTags(t *testing.T) {
	r := Resolve(newLibrary(t), pickleWithTags("@db", "@slow", "@web"))

	assert.Equal(t, []string{"before-all", "before-db", "before-last"}, ids(r.BeforeCase))
	assert.Empty(t, r.AfterCase)
	assert.Equal(t, []string{"step-ui"}, ids(r.BeforeStep))
}

func TestResolve_EmptyRegistry(t *testing.T) {
	r := Resolve(support.NewLibrary(), pickleWithTags("@x"))
	assert.Zero(t, r.Len())
}
