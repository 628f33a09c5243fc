package extract

import (
	"strings"

	"github.com/avrabe/bbdeps/internal/graph"
	"github.com/avrabe/bbdeps/internal/overrides"
	"github.com/avrabe/bbdeps/internal/pyexpr"
	"github.com/avrabe/bbdeps/internal/recipe"
	"github.com/avrabe/bbdeps/internal/store"
)

// buildDependencies harvests the dependency variables out of the effective
// store into the recipe's graph fragment. Expression spans are evaluated on
// the way; anything that stays unresolved contributes its string literals
// as possible dependencies instead of vanishing.
func buildDependencies(r *run, eff *overrides.Effective, fragment *graph.Fragment) {
	eval := r.evaluator(eff, fragment)
	get := func(name string) string {
		value, ok := eff.Get(name)
		if !ok {
			return ""
		}
		return eff.Expand(value, eval, r.diags)
	}

	for _, dep := range depTokens(get("DEPENDS")) {
		fragment.AddBuild(dep)
	}
	for _, dep := range depTokens(get("RDEPENDS")) {
		fragment.AddRun(dep)
	}
	for _, dep := range depTokens(get("RRECOMMENDS")) {
		fragment.AddPossible(dep)
	}
	for _, capability := range depTokens(get("PROVIDES")) {
		fragment.AddProvides(capability)
	}
	for _, capability := range depTokens(get("RPROVIDES")) {
		fragment.AddProvides(capability)
	}

	r.applyPackageConfig(eff, eval, fragment, get("PACKAGECONFIG"))
	r.applyTaskFlagDepends(eff, eval, fragment)
}

// evaluator adapts the expression evaluator into the expansion hook.
// Literal and boolean results substitute inline; unresolved expressions
// stay in place, get a diagnostic, and feed their literals to the fragment.
func (r *run) evaluator(eff *overrides.Effective, fragment *graph.Fragment) store.InlineEvalFunc {
	lookup := func(name string) (string, bool) {
		value, ok := eff.Get(name)
		if !ok {
			return "", false
		}
		return eff.Expand(value, nil, nil), true
	}
	return func(expr string) (string, bool) {
		res := pyexpr.Evaluate(expr, lookup)
		switch res.Kind {
		case pyexpr.Literal:
			return res.Str, true
		case pyexpr.Boolean:
			if res.Bool {
				return "True", true
			}
			return "False", true
		default:
			r.diags.Add(recipe.DiagUnresolvedExpression, fragment.Recipe, strings.TrimSpace(expr))
			for _, candidate := range res.Candidates {
				fragment.AddPossible(candidate)
			}
			return "", false
		}
	}
}

// applyPackageConfig folds enabled PACKAGECONFIG options into the fragment.
// Each declaration carries comma-separated fields; fields three to five are
// build deps, runtime deps, and runtime recommendations.
func (r *run) applyPackageConfig(eff *overrides.Effective, eval store.InlineEvalFunc, fragment *graph.Fragment, enabledValue string) {
	declared := make(map[string]string)
	for _, flag := range r.flags {
		if flag.Name == "PACKAGECONFIG" {
			declared[flag.Flag] = flag.Value
		}
	}
	if len(declared) == 0 {
		return
	}
	for _, option := range strings.Fields(enabledValue) {
		declaration, ok := declared[option]
		if !ok {
			continue
		}
		fields := strings.Split(eff.Expand(declaration, eval, r.diags), ",")
		if len(fields) > 2 {
			for _, dep := range depTokens(fields[2]) {
				fragment.AddBuild(dep)
			}
		}
		if len(fields) > 3 {
			for _, dep := range depTokens(fields[3]) {
				fragment.AddRun(dep)
			}
		}
		if len(fields) > 4 {
			for _, dep := range depTokens(fields[4]) {
				fragment.AddPossible(dep)
			}
		}
	}
}

// applyTaskFlagDepends turns do_*[depends] = "recipe:do_task ..." flags into
// build dependencies on the recipe part of each token.
func (r *run) applyTaskFlagDepends(eff *overrides.Effective, eval store.InlineEvalFunc, fragment *graph.Fragment) {
	for _, flag := range r.flags {
		if !strings.HasPrefix(flag.Name, "do_") || flag.Flag != "depends" {
			continue
		}
		for _, token := range strings.Fields(eff.Expand(flag.Value, eval, r.diags)) {
			dep, _, _ := strings.Cut(token, ":")
			if dep != "" {
				fragment.AddBuild(dep)
			}
		}
	}
}

// depTokens splits a dependency value on whitespace, strips version
// constraint fragments like "pkg (>= 2.30)", and drops leftover expression
// spans. Plain unexpanded ${VAR} tokens are kept as-is.
func depTokens(value string) []string {
	var out []string
	skipConstraint := false
	for _, tok := range strings.Fields(stripExprSpans(value)) {
		if skipConstraint {
			if strings.HasSuffix(tok, ")") {
				skipConstraint = false
			}
			continue
		}
		if i := strings.IndexByte(tok, '('); i >= 0 {
			if head := tok[:i]; head != "" {
				out = append(out, head)
			}
			if !strings.HasSuffix(tok, ")") {
				skipConstraint = true
			}
			continue
		}
		out = append(out, tok)
	}
	return out
}

// stripExprSpans removes ${@...} spans that survived expansion, so their
// bodies never masquerade as dependency tokens. Nested braces inside the
// span are honored.
func stripExprSpans(value string) string {
	var b strings.Builder
	for {
		i := strings.Index(value, "${@")
		if i < 0 {
			b.WriteString(value)
			return b.String()
		}
		b.WriteString(value[:i])
		rest := value[i:]
		end := spanEnd(rest)
		if end < 0 {
			return b.String()
		}
		value = rest[end+1:]
	}
}

// spanEnd returns the index of the brace closing the ${ opening at the
// start of s, or -1 when unterminated.
func spanEnd(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
