// Package store implements the variable store at the heart of recipe
// resolution: override-qualified variable values, the operator history each
// variable accumulates in file order, and ${...} reference expansion.
//
// # Why keep operator history
//
// A recipe's final value for a variable like DEPENDS cannot be computed in a
// single pass, because :remove and override-suffixed operators are only
// decidable once the build context is known. The store therefore applies
// non-deferred operators eagerly (so plain Get works mid-parse) while keeping
// every record, in encounter order, for the override evaluator to replay.
package store

import (
	"fmt"
	"strings"
)

// OpKind is a variable mutation operator.
type OpKind int

const (
	// OpAssign replaces the value unconditionally (=, :=).
	OpAssign OpKind = iota
	// OpWeakAssign sets the value only if the exact key is unset (?=, ??=).
	OpWeakAssign
	// OpAppend concatenates after the value with one separating space (+=).
	OpAppend
	// OpPrepend concatenates before the value with one separating space (=+).
	OpPrepend
	// OpAppendNoSpace concatenates after the value verbatim (.=).
	OpAppendNoSpace
	// OpPrependNoSpace concatenates before the value verbatim (=.).
	OpPrependNoSpace
	// OpAppendDeferred is the :append suffix: verbatim concatenation that
	// only takes effect once the whole history has been replayed, so a
	// plain assignment later in the file cannot wipe it.
	OpAppendDeferred
	// OpPrependDeferred is the :prepend suffix, deferred like OpAppendDeferred.
	OpPrependDeferred
	// OpRemove records tokens to drop from the final value. Application is
	// deferred to override resolution; the store only keeps the record.
	OpRemove
)

// String returns the operator's canonical recipe-language spelling.
func (k OpKind) String() string {
	switch k {
	case OpAssign:
		return "="
	case OpWeakAssign:
		return "?="
	case OpAppend:
		return "+="
	case OpPrepend:
		return "=+"
	case OpAppendNoSpace:
		return ".="
	case OpPrependNoSpace:
		return "=."
	case OpAppendDeferred:
		return ":append"
	case OpPrependDeferred:
		return ":prepend"
	case OpRemove:
		return ":remove"
	default:
		return fmt.Sprintf("opkind(%d)", int(k))
	}
}

// Record is one operator application against a variable, in source order.
type Record struct {
	Name      string
	Overrides []string
	Op        OpKind
	Value     string
	// Order is the store-wide encounter ordinal.
	Order int
}

// Key returns the exact override-qualified key this record targets.
func (r Record) Key() string {
	return Key(r.Name, r.Overrides)
}

// Key builds the canonical map key for a base name plus override suffix list.
func Key(name string, overrides []string) string {
	if len(overrides) == 0 {
		return name
	}
	return name + ":" + strings.Join(overrides, ":")
}

// Store maps override-qualified variable keys to values and keeps the full
// operator history per base name. It is not safe for concurrent mutation;
// each recipe owns its own store.
type Store struct {
	values  map[string]string
	present map[string]bool
	history map[string][]Record
	// variants remembers, per base name, the override-suffixed keys in
	// first-seen order so Get can scan them deterministically.
	variants map[string][]string
	order    int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		values:   make(map[string]string),
		present:  make(map[string]bool),
		history:  make(map[string][]Record),
		variants: make(map[string][]string),
	}
}

// Set assigns a value under the given override suffix list, recording an
// assign operation.
func (s *Store) Set(name string, overrides []string, value string) {
	s.Apply(name, overrides, OpAssign, value)
}

// Apply runs one operator against the exact override-qualified key and
// appends the record to the variable's history. Each record acts on the value
// as it stood after the previous record; nothing is reordered or discarded.
func (s *Store) Apply(name string, overrides []string, op OpKind, value string) {
	key := Key(name, overrides)
	rec := Record{Name: name, Overrides: append([]string(nil), overrides...), Op: op, Value: value, Order: s.order}
	s.order++
	s.history[name] = append(s.history[name], rec)
	s.trackVariant(name, key)

	switch op {
	case OpAssign:
		s.values[key] = value
		s.present[key] = true
	case OpWeakAssign:
		if !s.present[key] {
			s.values[key] = value
			s.present[key] = true
		}
	case OpAppend:
		s.values[key] = joinSpaced(s.values[key], value, s.present[key])
		s.present[key] = true
	case OpPrepend:
		s.values[key] = joinSpaced(value, s.values[key], s.present[key])
		s.present[key] = true
	case OpAppendNoSpace, OpAppendDeferred:
		// Deferred appends are applied eagerly here too: the mid-parse
		// value only feeds tag and path expansion, where a best-guess
		// beats an absent one. The replay in the override evaluator is
		// what orders them correctly.
		s.values[key] += value
		s.present[key] = true
	case OpPrependNoSpace, OpPrependDeferred:
		s.values[key] = value + s.values[key]
		s.present[key] = true
	case OpRemove:
		// Deferred: whether the removal is active depends on the build
		// context, which is not known until override resolution.
	}
}

func (s *Store) trackVariant(name, key string) {
	if key == name {
		return
	}
	for _, v := range s.variants[name] {
		if v == key {
			return
		}
	}
	s.variants[name] = append(s.variants[name], key)
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

// Get looks a name up under the active override set. Override-suffixed
// variants whose tags are all active shadow the unsuffixed value; among
// several matching variants the last-seen one wins. Falls back to the
// unsuffixed variant, then reports absence.
func (s *Store) Get(name string, active []string) (string, bool) {
	value, ok := "", false
	if s.present[name] {
		value, ok = s.values[name], true
	}
	for _, key := range s.variants[name] {
		tags := strings.Split(strings.TrimPrefix(key, name+":"), ":")
		if !allIn(tags, active) {
			continue
		}
		if s.present[key] {
			value, ok = s.values[key], true
		}
	}
	return value, ok
}

// GetExact looks up the exact override-qualified key with no fallback.
func (s *Store) GetExact(name string, overrides []string) (string, bool) {
	key := Key(name, overrides)
	if !s.present[key] {
		return "", false
	}
	return s.values[key], true
}

// History returns the variable's operator records in application order.
func (s *Store) History(name string) []Record {
	return s.history[name]
}

// Names returns every base name with at least one record, in no particular
// order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.history))
	for name := range s.history {
		names = append(names, name)
	}
	return names
}

func allIn(tags, active []string) bool {
	for _, tag := range tags {
		found := false
		for _, a := range active {
			if a == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
