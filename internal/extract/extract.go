// Package extract runs the per-recipe resolution pipeline: statement
// application in file order (with inherit and include merging at their
// points of occurrence), override resolution, expression-aware expansion,
// and graph building. One call produces one best-effort Result per recipe.
// The pipeline records diagnostics instead of failing, and never lets one
// recipe's problems surface as an error to another.
package extract

import (
	"context"
	"strings"

	"github.com/avrabe/bbdeps/internal/classes"
	"github.com/avrabe/bbdeps/internal/ctxlog"
	"github.com/avrabe/bbdeps/internal/graph"
	"github.com/avrabe/bbdeps/internal/overrides"
	"github.com/avrabe/bbdeps/internal/parser"
	"github.com/avrabe/bbdeps/internal/recipe"
	"github.com/avrabe/bbdeps/internal/store"
	"github.com/avrabe/bbdeps/internal/tasks"
)

// Options configures an extractor. Zero value means context-agnostic
// resolution with no seeded variables.
type Options struct {
	// Contexts are the target build contexts to union. Empty means
	// context-agnostic (fully inclusive) resolution.
	Contexts []overrides.Context
	// Inclusive forces context-agnostic merging even when Contexts are
	// supplied; the contexts then only serve to confirm remove tags.
	Inclusive bool
	// DefaultVariables seeds build-time variables (DISTRO_FEATURES and
	// friends) as weak defaults, so recipe assignments win.
	DefaultVariables map[string]string
}

// Result is everything the pipeline produced for one recipe.
type Result struct {
	Identity  recipe.Identity
	Store     *store.Store
	Effective *overrides.Effective
	Fragment  *graph.Fragment
	Tasks     *tasks.Graph
	// TaskGraphValid is false when a task cycle was detected; the rest of
	// the result is still usable.
	TaskGraphValid bool
	Diags          []recipe.Diagnostic
}

// Extractor resolves recipes against a shared class resolver. It is safe
// for concurrent use: per-recipe state lives entirely in the call.
type Extractor struct {
	classes *classes.Resolver
	opts    Options
}

// New builds an extractor.
func New(classResolver *classes.Resolver, opts Options) *Extractor {
	return &Extractor{classes: classResolver, opts: opts}
}

// run carries one extraction's mutable state through recursive statement
// application.
type run struct {
	ex        *Extractor
	st        *store.Store
	diags     *recipe.Diagnostics
	inherited map[string]bool
	taskStmts []parser.Statement
	flags     []parser.VarFlag
}

// Extract resolves one recipe from its already-read sources. The context
// carries the logger; the pipeline itself has no suspension points and
// performs no I/O.
func (e *Extractor) Extract(ctx context.Context, id recipe.Identity, sources []recipe.Source) *Result {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("extracting recipe", "recipe", id.String(), "sources", len(sources))

	r := &run{
		ex:        e,
		st:        store.New(),
		diags:     &recipe.Diagnostics{},
		inherited: make(map[string]bool),
	}
	r.seedDefaults(id)

	// Every recipe implicitly inherits base, which carries the standard
	// task chain. No fallback diagnostic for it: the recipe never asked.
	r.applyClassImplicit("base")

	for _, src := range sources {
		r.applyText(src.Text)
	}

	resolver := e.resolver(id)
	eff := resolver.Resolve(r.st)

	fragment := graph.NewFragment(id.Name)
	buildDependencies(r, eff, fragment)

	taskGraph := r.buildTasks(id)
	valid := true
	if err := taskGraph.DetectCycle(); err != nil {
		r.diags.Add(recipe.DiagTaskCycle, id.Name, err.Error())
		valid = false
	}

	logger.Debug("recipe extracted",
		"recipe", id.String(),
		"build_deps", len(fragment.Build),
		"run_deps", len(fragment.Run),
		"tasks", taskGraph.Len(),
		"diagnostics", len(r.diags.Items()),
	)

	return &Result{
		Identity:       id,
		Store:          r.st,
		Effective:      eff,
		Fragment:       fragment,
		Tasks:          taskGraph,
		TaskGraphValid: valid,
		Diags:          r.diags.Items(),
	}
}

// resolver builds the override resolver for this recipe, extending each
// context's extra overrides with the package name so RDEPENDS:${PN}-style
// qualifiers resolve as active.
func (e *Extractor) resolver(id recipe.Identity) *overrides.Resolver {
	if len(e.opts.Contexts) == 0 {
		return overrides.NewInclusive()
	}
	ctxs := make([]overrides.Context, len(e.opts.Contexts))
	for i, c := range e.opts.Contexts {
		c.Extra = append(append([]string(nil), c.Extra...), id.Name)
		ctxs[i] = c
	}
	return &overrides.Resolver{Contexts: ctxs, Inclusive: e.opts.Inclusive}
}

func (r *run) seedDefaults(id recipe.Identity) {
	r.st.Apply("PN", nil, store.OpWeakAssign, id.Name)
	if id.Version != "" {
		r.st.Apply("PV", nil, store.OpWeakAssign, id.Version)
	}
	bpn := strings.TrimPrefix(strings.TrimPrefix(id.Name, "nativesdk-"), "native-")
	r.st.Apply("BPN", nil, store.OpWeakAssign, bpn)
	r.st.Apply("P", nil, store.OpWeakAssign, "${PN}-${PV}")
	for name, value := range r.ex.opts.DefaultVariables {
		r.st.Apply(name, nil, store.OpWeakAssign, value)
	}
}

// applyText parses one source text and applies its statements in order.
func (r *run) applyText(text string) {
	parsed := parser.Parse(text, r.diags)
	r.applyStatements(parsed.Statements)
}

func (r *run) applyStatements(stmts []parser.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case parser.Assignment:
			r.st.Apply(s.Name, r.expandTags(s.Overrides), s.Op, s.Value)
		case parser.Inherit:
			for _, class := range s.Classes {
				r.applyClass(r.st.Expand(class, nil, nil))
			}
		case parser.Include:
			r.applyInclude(s)
		case parser.AddTask, parser.DelTask:
			r.taskStmts = append(r.taskStmts, s)
		case parser.VarFlag:
			r.flags = append(r.flags, s)
			if strings.HasPrefix(s.Name, "do_") {
				r.taskStmts = append(r.taskStmts, s)
			}
		}
	}
}

// expandTags resolves variable references inside override qualifiers, so
// RDEPENDS:${PN} is recorded under the actual package name.
func (r *run) expandTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		if strings.Contains(tag, "${") {
			tag = r.st.Expand(tag, nil, nil)
		}
		out[i] = tag
	}
	return out
}

// applyClass merges an inherited class at the point of inheritance. Each
// class is applied at most once per recipe; nested inherits recurse with
// the same guard.
func (r *run) applyClass(name string) {
	r.applyClassWith(name, true)
}

func (r *run) applyClassImplicit(name string) {
	r.applyClassWith(name, false)
}

func (r *run) applyClassWith(name string, diagnose bool) {
	if name == "" || r.inherited[name] {
		return
	}
	r.inherited[name] = true

	unit, fallback := r.ex.classes.Unit(name)
	if fallback && diagnose {
		r.diags.Add(recipe.DiagClassFallback, name, "class file not found; built-in knowledge used")
	}
	for _, d := range unit.Diags {
		r.diags.Add(d.Kind, d.Subject, d.Detail)
	}
	r.applyStatements(unit.Statements)
}

// applyInclude merges an included file at the point of the directive. A
// missing include is skipped silently; a missing require gets a
// diagnostic. Either way processing continues.
func (r *run) applyInclude(inc parser.Include) {
	path := r.st.Expand(inc.Path, nil, nil)
	text, ok := r.ex.classes.Include(path)
	if !ok {
		if inc.Required {
			r.diags.Add(recipe.DiagMissingInclude, path, "required file not found in any search path")
		}
		return
	}
	r.applyText(text)
}

// buildTasks replays the collected task statements into a task graph.
// Disabled tasks are dropped after all declarations, mirroring the
// orchestrator's deltask handling.
func (r *run) buildTasks(id recipe.Identity) *tasks.Graph {
	tg := tasks.New(id.Name)
	for _, stmt := range r.taskStmts {
		switch s := stmt.(type) {
		case parser.AddTask:
			tg.Add(s.Task, s.After, s.Before)
		case parser.DelTask:
			tg.Disable(s.Task)
		case parser.VarFlag:
			tg.SetFlag(strings.TrimPrefix(s.Name, "do_"), s.Flag, s.Value)
		}
	}
	tg.Finalize()
	return tg
}
