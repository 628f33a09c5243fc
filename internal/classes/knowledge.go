package classes

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/avrabe/bbdeps/internal/parser"
	"github.com/avrabe/bbdeps/internal/store"
	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

// builtinClass is one entry of the embedded knowledge table.
type builtinClass struct {
	// Feature gates the entry on DISTRO_FEATURES containing the value.
	Feature  string   `yaml:"feature"`
	Depends  []string `yaml:"depends"`
	RDepends []string `yaml:"rdepends"`
	Tasks    []string `yaml:"tasks"`
}

type builtinFile struct {
	Version int                     `yaml:"version"`
	Classes map[string]builtinClass `yaml:"classes"`
}

// Knowledge is the immutable built-in class table, constructed once at
// startup and shared by reference.
type Knowledge struct {
	version int
	classes map[string]builtinClass
}

// NewKnowledge parses the embedded table. It only fails if the embedded
// data itself is broken, which is a build defect rather than an input
// problem.
func NewKnowledge() (*Knowledge, error) {
	var f builtinFile
	if err := yaml.Unmarshal(builtinYAML, &f); err != nil {
		return nil, fmt.Errorf("parsing builtin class table: %w", err)
	}
	return &Knowledge{version: f.Version, classes: f.Classes}, nil
}

// Version returns the table's declared version.
func (k *Knowledge) Version() int {
	return k.version
}

// Known reports whether the table has an entry for the class.
func (k *Knowledge) Known(name string) bool {
	_, ok := k.classes[name]
	return ok
}

// unit synthesizes a fallback Unit for the class. Feature-gated entries are
// expressed through a containment expression so the static evaluator
// decides them against the resolved DISTRO_FEATURES. Returns false for a
// class the table does not know.
func (k *Knowledge) unit(name string) (*Unit, bool) {
	entry, ok := k.classes[name]
	if !ok {
		return nil, false
	}
	u := &Unit{Name: name, Fallback: true}
	// Deferred appends survive the recipe's own plain assignments, the same
	// way a real class's :append would.
	if deps := fallbackValue(entry.Feature, entry.Depends); deps != "" {
		u.Statements = append(u.Statements, parser.Assignment{
			Name: "DEPENDS", Op: store.OpAppendDeferred, Value: " " + deps,
		})
	}
	if rdeps := fallbackValue(entry.Feature, entry.RDepends); rdeps != "" {
		u.Statements = append(u.Statements, parser.Assignment{
			Name: "RDEPENDS", Op: store.OpAppendDeferred, Value: " " + rdeps,
		})
	}
	for _, line := range entry.Tasks {
		parsed := parser.Parse(line, nil)
		u.Statements = append(u.Statements, parsed.Statements...)
	}
	return u, true
}

func fallbackValue(feature string, deps []string) string {
	if len(deps) == 0 {
		return ""
	}
	joined := strings.Join(deps, " ")
	if feature == "" {
		return joined
	}
	return fmt.Sprintf("${@bb.utils.contains('DISTRO_FEATURES', '%s', '%s', '', d)}", feature, joined)
}
