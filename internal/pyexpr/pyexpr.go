// Package pyexpr statically evaluates the closed set of embedded-script
// expression shapes that recipes commonly use inside ${@...}: containment
// checks, containment-any checks, token filtering, direct variable lookups
// with an optional or-default, and exact-equality conditionals. Everything
// else is Unresolved.
//
// This is a pattern matcher, not an interpreter. It sees only the variable
// lookup function it is handed and a fixed table of recognized call shapes;
// it cannot execute code, and that boundary is the design, not a gap.
package pyexpr

import "strings"

// Kind classifies an evaluation outcome.
type Kind int

const (
	// Literal means the expression reduced to a string.
	Literal Kind = iota
	// Boolean means the expression reduced to a truth value.
	Boolean
	// Unresolved means the expression is outside the recognized grammar or
	// referenced an unknown variable. Consumers must treat its effect as
	// "may or may not apply", never drop it silently.
	Unresolved
)

// Result is the tri-state outcome of evaluating one expression.
type Result struct {
	Kind Kind
	Str  string
	Bool bool
	// Candidates holds the string literals found in an unresolved
	// expression, tokenized; the graph builder records them as possible
	// dependencies rather than omitting them.
	Candidates []string
}

// Lookup resolves a variable name to its effective value.
type Lookup func(name string) (string, bool)

func literal(s string) Result { return Result{Kind: Literal, Str: s} }

func boolean(b bool) Result { return Result{Kind: Boolean, Bool: b} }

func unresolved(expr string) Result {
	return Result{Kind: Unresolved, Candidates: harvestCandidates(expr)}
}

// Evaluate reduces one expression body (the text between ${@ and }) to a
// Result. It never errors and never executes anything.
func Evaluate(expr string, lookup Lookup) Result {
	inner := strings.TrimSpace(expr)
	inner = strings.TrimPrefix(inner, "@")

	switch {
	case strings.Contains(inner, "bb.utils.contains_any"):
		return evalContains(inner, "bb.utils.contains_any", lookup, true)
	case strings.Contains(inner, "bb.utils.contains"):
		return evalContains(inner, "bb.utils.contains", lookup, false)
	case strings.Contains(inner, "bb.utils.filter"):
		return evalFilter(inner, lookup)
	case strings.Contains(inner, "oe.utils.conditional"):
		return evalConditional(inner, lookup)
	case strings.Contains(inner, " if ") && strings.Contains(inner, " else "):
		return evalTernary(inner, lookup)
	case strings.HasPrefix(inner, "d.getVar("):
		return evalGetVar(inner, lookup)
	default:
		return unresolved(inner)
	}
}

// evalContains handles bb.utils.contains('VAR', 'item', trueVal, falseVal, d)
// and, with any set, the contains_any variant where a single matching token
// suffices.
func evalContains(expr, funcName string, lookup Lookup, any bool) Result {
	args, ok := callArgs(expr, funcName)
	if !ok || len(args) < 4 {
		return unresolved(expr)
	}
	varValue, found := lookup(args[0].text)
	if !found {
		return unresolved(expr)
	}
	have := strings.Fields(varValue)
	want := strings.Fields(args[1].text)
	matched := false
	if any {
		matched = containsAny(have, want)
	} else {
		matched = containsAll(have, want)
	}
	chosen := args[2]
	if !matched {
		chosen = args[3]
	}
	if !chosen.quoted {
		switch chosen.text {
		case "True":
			return boolean(true)
		case "False":
			return boolean(false)
		default:
			return unresolved(expr)
		}
	}
	return literal(chosen.text)
}

// evalFilter handles bb.utils.filter('VAR', 'item item...', d): the items
// present in the variable's tokenized value, original order preserved.
func evalFilter(expr string, lookup Lookup) Result {
	args, ok := callArgs(expr, "bb.utils.filter")
	if !ok || len(args) < 2 {
		return unresolved(expr)
	}
	varValue, found := lookup(args[0].text)
	if !found {
		return unresolved(expr)
	}
	have := strings.Fields(varValue)
	var kept []string
	for _, item := range strings.Fields(args[1].text) {
		if containsAll(have, []string{item}) {
			kept = append(kept, item)
		}
	}
	return literal(strings.Join(kept, " "))
}

// evalConditional handles oe.utils.conditional('VAR', 'value', trueVal,
// falseVal, d): exact equality of the whole variable value.
func evalConditional(expr string, lookup Lookup) Result {
	args, ok := callArgs(expr, "oe.utils.conditional")
	if !ok || len(args) < 4 {
		return unresolved(expr)
	}
	varValue, found := lookup(args[0].text)
	if !found {
		return unresolved(expr)
	}
	chosen := args[2]
	if varValue != args[1].text {
		chosen = args[3]
	}
	if !chosen.quoted {
		return unresolved(expr)
	}
	return literal(chosen.text)
}

// evalGetVar handles d.getVar('VAR'), d.getVar('VAR', True), and the
// empty-default idiom d.getVar('VAR') or 'fallback'. The call must account
// for the whole expression; any other trailing operator or call chain is
// outside the grammar and stays Unresolved.
func evalGetVar(expr string, lookup Lookup) Result {
	body, ok := untilMatchingParen(expr[len("d.getVar("):])
	if !ok {
		return unresolved(expr)
	}
	args := splitArgs(body)
	if len(args) < 1 || !args[0].quoted {
		return unresolved(expr)
	}

	fallback := ""
	hasFallback := false
	tail := strings.TrimSpace(expr[len("d.getVar(")+len(body)+1:])
	switch {
	case tail == "":
	case strings.HasPrefix(tail, "or "):
		fallback, ok = quotedLiteral(strings.TrimPrefix(tail, "or "))
		if !ok {
			return unresolved(expr)
		}
		hasFallback = true
	default:
		return unresolved(expr)
	}

	value, found := lookup(args[0].text)
	if !found {
		return unresolved(expr)
	}
	if value == "" && hasFallback {
		return literal(fallback)
	}
	return literal(value)
}

// evalTernary handles 'A' if d.getVar('VAR') == 'lit' else 'B' (and !=).
func evalTernary(expr string, lookup Lookup) Result {
	head, tail, ok := cutTopLevel(expr, " if ")
	if !ok {
		return unresolved(expr)
	}
	cond, alt, ok := cutTopLevel(tail, " else ")
	if !ok {
		return unresolved(expr)
	}
	trueVal, tok := quotedLiteral(head)
	falseVal, fok := quotedLiteral(alt)
	if !tok || !fok {
		return unresolved(expr)
	}

	negate := false
	lhs, rhs, found := strings.Cut(cond, "==")
	if !found {
		lhs, rhs, found = strings.Cut(cond, "!=")
		negate = true
	}
	if !found {
		return unresolved(expr)
	}
	varArgs, ok := callArgs(strings.TrimSpace(lhs), "d.getVar")
	if !ok || len(varArgs) < 1 || !varArgs[0].quoted {
		return unresolved(expr)
	}
	value, present := lookup(varArgs[0].text)
	if !present {
		return unresolved(expr)
	}
	compare, ok := quotedLiteral(strings.TrimSpace(rhs))
	if !ok {
		return unresolved(expr)
	}
	equal := value == compare
	if negate {
		equal = !equal
	}
	if equal {
		return literal(trueVal)
	}
	return literal(falseVal)
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return len(want) > 0
}

func containsAny(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
