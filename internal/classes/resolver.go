// Package classes resolves class inheritance and include directives into
// parsed statement units. File content comes exclusively through the Source
// interface: the core never reads the file system itself. A class whose
// file is missing or yields nothing parseable falls back to the built-in
// knowledge table, so inheritance degrades instead of aborting.
package classes

import (
	"sync"

	"github.com/avrabe/bbdeps/internal/parser"
	"github.com/avrabe/bbdeps/internal/recipe"
)

// Source supplies raw file text to the resolver. Implementations search the
// configured class-path order; the map-backed test implementation and the
// CLI's directory-backed one both satisfy it.
type Source interface {
	// ClassFile returns the text of <name>.bbclass, if found.
	ClassFile(name string) (string, bool)
	// IncludeFile returns the text of an include/require target, if found.
	IncludeFile(path string) (string, bool)
}

// NoSource is a Source with no files at all; every class resolves through
// built-in knowledge.
type NoSource struct{}

func (NoSource) ClassFile(string) (string, bool)   { return "", false }
func (NoSource) IncludeFile(string) (string, bool) { return "", false }

// Unit is one parsed class: its statements in file order plus provenance.
type Unit struct {
	Name       string
	Statements []parser.Statement
	// Fallback marks a unit synthesized from built-in knowledge rather
	// than parsed from a file.
	Fallback bool
	// Diags holds parse findings, replayed into each inheriting recipe's
	// diagnostics.
	Diags []recipe.Diagnostic
}

// Resolver loads and caches class units. The cache is populated at most
// once per class name and may be read from many recipe workers at once.
type Resolver struct {
	source Source
	know   *Knowledge

	mu    sync.Mutex
	cache map[string]*Unit
}

// NewResolver builds a resolver over the given source and knowledge table.
func NewResolver(source Source, know *Knowledge) *Resolver {
	if source == nil {
		source = NoSource{}
	}
	return &Resolver{
		source: source,
		know:   know,
		cache:  make(map[string]*Unit),
	}
}

// Unit resolves a class by name: search paths first, built-in knowledge as
// fallback. The second return is true when the fallback (or an empty unit
// for a wholly unknown class) was used, which callers record as a
// diagnostic. The returned unit is shared and must not be mutated.
func (r *Resolver) Unit(name string) (*Unit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[name]; ok {
		return cached, cached.Fallback
	}

	unit := r.load(name)
	r.cache[name] = unit
	return unit, unit.Fallback
}

func (r *Resolver) load(name string) *Unit {
	if text, ok := r.source.ClassFile(name); ok {
		var diags recipe.Diagnostics
		parsed := parser.Parse(text, &diags)
		if len(parsed.Statements) > 0 {
			return &Unit{Name: name, Statements: parsed.Statements, Diags: diags.Items()}
		}
		// A file that parses to nothing is treated like a missing one.
	}
	if unit, ok := r.know.unit(name); ok {
		return unit
	}
	// Unknown everywhere: empty fallback so inheritance continues.
	return &Unit{Name: name, Fallback: true}
}

// Include fetches include/require file text through the source.
func (r *Resolver) Include(path string) (string, bool) {
	return r.source.IncludeFile(path)
}
