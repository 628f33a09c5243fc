// Package graph holds the shared dependency graph that accumulates edges
// across recipes. Edge insertion is mutex-guarded so recipe workers can
// merge their fragments concurrently; (from, to, kind) triples are
// deduplicated on insert.
package graph

import (
	"fmt"
	"sort"
	"sync"
)

// EdgeKind tags the relationship an edge expresses.
type EdgeKind int

const (
	// EdgeBuild is a build-time dependency (DEPENDS family).
	EdgeBuild EdgeKind = iota
	// EdgeRun is a run-time dependency (RDEPENDS family).
	EdgeRun
	// EdgeProvides links a recipe to a capability it provides.
	EdgeProvides
	// EdgePossible is a dependency surfaced from an unresolved expression:
	// it may or may not apply, and is kept rather than dropped.
	EdgePossible
)

// String returns the kind's report label.
func (k EdgeKind) String() string {
	switch k {
	case EdgeBuild:
		return "build"
	case EdgeRun:
		return "run"
	case EdgeProvides:
		return "provides"
	case EdgePossible:
		return "possible"
	default:
		return fmt.Sprintf("edgekind(%d)", int(k))
	}
}

// Edge is one directed, kind-tagged edge between recipe/package nodes.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph is the shared, thread-safe dependency graph. Suffixed package names
// like foo-native are distinct nodes from foo.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]bool
	seen  map[Edge]bool
	edges []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		seen:  make(map[Edge]bool),
	}
}

// AddNode ensures a node exists. Adding an existing node does nothing.
func (g *Graph) AddNode(name string) {
	if name == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[name] = true
}

// AddEdge inserts a directed edge of the given kind, creating both nodes as
// needed. Duplicate (from, to, kind) triples are ignored.
func (g *Graph) AddEdge(from, to string, kind EdgeKind) {
	if from == "" || to == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[from] = true
	g.nodes[to] = true
	e := Edge{From: from, To: to, Kind: kind}
	if g.seen[e] {
		return
	}
	g.seen[e] = true
	g.edges = append(g.edges, e)
}

// Nodes returns all node names, sorted.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgesFrom returns the edges leaving a node, in insertion order.
func (g *Graph) EdgesFrom(name string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Edge
	for _, e := range g.edges {
		if e.From == name {
			out = append(out, e)
		}
	}
	return out
}

// Stats summarizes the graph for reports.
type Stats struct {
	Nodes    int
	Build    int
	Run      int
	Provides int
	Possible int
}

// Stats counts nodes and edges per kind.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Stats{Nodes: len(g.nodes)}
	for _, e := range g.edges {
		switch e.Kind {
		case EdgeBuild:
			s.Build++
		case EdgeRun:
			s.Run++
		case EdgeProvides:
			s.Provides++
		case EdgePossible:
			s.Possible++
		}
	}
	return s
}
