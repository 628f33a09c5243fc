// Package recipe defines the shared data model for a single unit of
// extraction work: the recipe identity, its raw input sources, and the
// diagnostics the pipeline accumulates while resolving it.
package recipe

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Identity names a recipe. Version may be empty when the caller cannot
// derive one.
type Identity struct {
	Name    string
	Version string
}

// String returns "name" or "name-version".
func (id Identity) String() string {
	if id.Version == "" {
		return id.Name
	}
	return id.Name + "-" + id.Version
}

// IdentityFromPath derives a recipe identity from a file name following the
// "name_version.bb" convention, e.g. "bash_5.2.21.bb" -> (bash, 5.2.21).
func IdentityFromPath(path string) Identity {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name, version, found := strings.Cut(stem, "_")
	if !found {
		return Identity{Name: stem}
	}
	return Identity{Name: name, Version: version}
}

// SourceKind tags where a piece of raw text came from.
type SourceKind int

const (
	// SourceRecipe is the recipe body itself.
	SourceRecipe SourceKind = iota
	// SourceInclude is a file pulled in by an include/require directive.
	SourceInclude
	// SourceClass is an inherited class file.
	SourceClass
)

// String returns the kind's report label.
func (k SourceKind) String() string {
	switch k {
	case SourceRecipe:
		return "recipe"
	case SourceInclude:
		return "include"
	case SourceClass:
		return "class"
	default:
		return fmt.Sprintf("sourcekind(%d)", int(k))
	}
}

// Source is one unit of already-read text handed to the core. The core never
// touches the file system; callers supply content in processing order.
type Source struct {
	Kind SourceKind
	// Name is a label for diagnostics: a file path, class name, or similar.
	Name string
	Text string
}
