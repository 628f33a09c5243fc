package overrides

import (
	"sort"
	"strings"

	"github.com/avrabe/bbdeps/internal/store"
)

// Resolver folds operator histories into effective values. With Inclusive
// set (or no contexts supplied) it runs in context-agnostic mode: every
// override variant is unioned in. Contexts, when present, gate
// override-suffixed assignments and are the only thing that can confirm a
// suffixed remove as active.
type Resolver struct {
	Contexts  []Context
	Inclusive bool
}

// NewInclusive returns a context-agnostic resolver.
func NewInclusive() *Resolver {
	return &Resolver{Inclusive: true}
}

// NewForContexts returns a resolver that unions the supplied contexts.
func NewForContexts(ctxs ...Context) *Resolver {
	return &Resolver{Contexts: ctxs}
}

// activeForAny reports whether some supplied context activates all tags.
func (r *Resolver) activeForAny(tags []string) bool {
	for _, ctx := range r.Contexts {
		if ctx.allActive(tags) {
			return true
		}
	}
	return false
}

// mergeAllowed gates override-suffixed assign/weak-assign records.
func (r *Resolver) mergeAllowed(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	return r.Inclusive || len(r.Contexts) == 0 || r.activeForAny(tags)
}

// Resolve replays every variable's operator history in file order and
// returns the effective store. Suffix-style appends and prepends are held
// back until the replay is done, and removes run after those. The input
// store is not mutated.
func (r *Resolver) Resolve(st *store.Store) *Effective {
	eff := newEffective()
	names := st.Names()
	sort.Strings(names)
	for _, name := range names {
		value, present := r.resolveOne(st.History(name))
		if present {
			eff.set(name, value)
		}
	}
	return eff
}

func (r *Resolver) resolveOne(records []store.Record) (string, bool) {
	value := ""
	present := false
	var deferred []store.Record
	var removes []store.Record

	for _, rec := range records {
		suffixed := len(rec.Overrides) > 0
		switch rec.Op {
		case store.OpAssign:
			if !suffixed {
				value = rec.Value
				present = true
			} else if r.mergeAllowed(rec.Overrides) {
				// Additive merge: a conditional assignment may or may not
				// replace the base at build time, so keep both.
				value = joinSpaced(value, rec.Value, present)
				present = true
			}
		case store.OpWeakAssign:
			if !present && r.mergeAllowed(rec.Overrides) {
				value = rec.Value
				present = true
			}
		case store.OpAppend:
			value = joinSpaced(value, rec.Value, present)
			present = true
		case store.OpPrepend:
			value = joinSpaced(rec.Value, value, present)
			present = true
		case store.OpAppendNoSpace:
			value += rec.Value
			present = true
		case store.OpPrependNoSpace:
			value = rec.Value + value
			present = true
		case store.OpAppendDeferred, store.OpPrependDeferred:
			deferred = append(deferred, rec)
		case store.OpRemove:
			removes = append(removes, rec)
		}
	}

	// :append and :prepend take effect only after the whole file-order
	// replay, so a later plain assignment cannot wipe them.
	for _, rec := range deferred {
		if rec.Op == store.OpAppendDeferred {
			value += rec.Value
		} else {
			value = rec.Value + value
		}
		present = true
	}

	// Removes apply last, mirroring the orchestrator's end-of-parse
	// semantics. A suffixed remove needs an explicitly active tag set.
	for _, rec := range removes {
		if len(rec.Overrides) > 0 && !r.activeForAny(rec.Overrides) {
			continue
		}
		value = removeTokens(value, rec.Value)
	}
	return value, present
}

func joinSpaced(left, right string, leftPresent bool) string {
	if !leftPresent || left == "" {
		return right
	}
	if right == "" {
		return left
	}
	return left + " " + right
}

func removeTokens(value, operand string) string {
	drop := make(map[string]bool)
	for _, tok := range strings.Fields(operand) {
		drop[tok] = true
	}
	var kept []string
	for _, tok := range strings.Fields(value) {
		if !drop[tok] {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}
