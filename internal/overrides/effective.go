package overrides

import (
	"sort"

	"github.com/avrabe/bbdeps/internal/recipe"
	"github.com/avrabe/bbdeps/internal/store"
)

// Effective is the read-only result of override resolution: one value per
// base variable name, with every active variant already folded in.
type Effective struct {
	values map[string]string
}

func newEffective() *Effective {
	return &Effective{values: make(map[string]string)}
}

func (e *Effective) set(name, value string) {
	e.values[name] = value
}

// Get returns the effective value for a base name.
func (e *Effective) Get(name string) (string, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Names returns all resolved base names, sorted.
func (e *Effective) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand resolves ${name} references in value against the effective store,
// routing ${@...} spans through eval when non-nil. Missing names stay
// literal; diags may be nil.
func (e *Effective) Expand(value string, eval store.InlineEvalFunc, diags *recipe.Diagnostics) string {
	return store.ExpandWith(value, e.Get, eval, diags)
}
