// Package tasks builds the per-recipe task graph from addtask/deltask
// declarations and detects ordering cycles. Task graphs never cross recipe
// boundaries; a cycle invalidates one recipe's task graph and nothing else.
package tasks

import (
	"fmt"
	"sort"
)

// Task is one named task and its ordering constraints. After lists the
// tasks this one depends on; Before lists tasks that must wait for it.
type Task struct {
	Name   string
	After  []string
	Before []string
	Flags  map[string]string
}

// Graph is one recipe's task graph.
type Graph struct {
	recipe   string
	tasks    map[string]*Task
	order    []string
	disabled map[string]bool
}

// New creates an empty task graph for a recipe.
func New(recipeName string) *Graph {
	return &Graph{
		recipe:   recipeName,
		tasks:    make(map[string]*Task),
		disabled: make(map[string]bool),
	}
}

// Recipe returns the owning recipe's name.
func (g *Graph) Recipe() string {
	return g.recipe
}

// Add declares a task, merging ordering constraints into an existing
// declaration of the same name.
func (g *Graph) Add(name string, after, before []string) {
	t, ok := g.tasks[name]
	if !ok {
		t = &Task{Name: name, Flags: make(map[string]string)}
		g.tasks[name] = t
		g.order = append(g.order, name)
	}
	for _, a := range after {
		t.After = appendUnique(t.After, a)
	}
	for _, b := range before {
		t.Before = appendUnique(t.Before, b)
	}
}

// Disable marks a task removed by deltask. Removal is applied by Finalize,
// so a later re-add within the same recipe does not resurrect it.
func (g *Graph) Disable(name string) {
	g.disabled[name] = true
}

// SetFlag attaches a flag to a task, declaring the task if needed.
func (g *Graph) SetFlag(task, flag, value string) {
	g.Add(task, nil, nil)
	g.tasks[task].Flags[flag] = value
}

// Finalize drops disabled tasks and prunes dangling constraint references.
func (g *Graph) Finalize() {
	if len(g.disabled) == 0 {
		return
	}
	var kept []string
	for _, name := range g.order {
		if g.disabled[name] {
			delete(g.tasks, name)
			continue
		}
		kept = append(kept, name)
	}
	g.order = kept
	for _, t := range g.tasks {
		t.After = pruneDisabled(t.After, g.disabled)
		t.Before = pruneDisabled(t.Before, g.disabled)
	}
}

// Task returns a task by name.
func (g *Graph) Task(name string) (*Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Names returns all task names, sorted.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	return len(g.tasks)
}

// dependencies returns the tasks name must run after, combining its own
// After list with other tasks' Before declarations.
func (g *Graph) dependencies(name string) []string {
	var deps []string
	if t, ok := g.tasks[name]; ok {
		for _, a := range t.After {
			if _, exists := g.tasks[a]; exists {
				deps = appendUnique(deps, a)
			}
		}
	}
	for _, other := range g.order {
		if other == name {
			continue
		}
		for _, b := range g.tasks[other].Before {
			if b == name {
				deps = appendUnique(deps, other)
			}
		}
	}
	return deps
}

// DetectCycle walks the dependency edges depth-first with the classic
// three-set coloring and returns a descriptive error for the first cycle
// found, or nil for an acyclic graph.
func (g *Graph) DetectCycle() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if permanent[name] {
			return nil
		}
		if temporary[name] {
			return fmt.Errorf("task cycle involving '%s' in recipe %s", name, g.recipe)
		}
		temporary[name] = true
		for _, dep := range g.dependencies(name) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(temporary, name)
		permanent[name] = true
		return nil
	}

	for _, name := range g.order {
		if !permanent[name] {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func pruneDisabled(list []string, disabled map[string]bool) []string {
	var kept []string
	for _, item := range list {
		if !disabled[item] {
			kept = append(kept, item)
		}
	}
	return kept
}
