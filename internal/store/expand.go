package store

import (
	"strings"

	"github.com/avrabe/bbdeps/internal/recipe"
)

// maxExpandDepth bounds reference nesting. Real recipes stay well below
// this; hitting the ceiling means a pathological or cyclic input, and the
// remaining references are left literal.
const maxExpandDepth = 20

// LookupFunc resolves a variable name to its value.
type LookupFunc func(name string) (string, bool)

// InlineEvalFunc reduces the body of a ${@...} expression to a literal
// string. A false return leaves the expression in place.
type InlineEvalFunc func(expr string) (string, bool)

// ExpandWith substitutes ${name} references in value using lookup,
// recursing into substituted text. ${@...} spans are routed to eval when
// non-nil. Expansion is best-effort: unresolvable references stay literal,
// cycles are broken, and the function always terminates with a string.
// diags may be nil.
func ExpandWith(value string, lookup LookupFunc, eval InlineEvalFunc, diags *recipe.Diagnostics) string {
	return expand(value, lookup, eval, diags, nil, 0)
}

// Expand resolves ${name} references against the store under the active
// override set.
func (s *Store) Expand(value string, active []string, diags *recipe.Diagnostics) string {
	return ExpandWith(value, func(name string) (string, bool) {
		return s.Get(name, active)
	}, nil, diags)
}

func expand(value string, lookup LookupFunc, eval InlineEvalFunc, diags *recipe.Diagnostics, seen []string, depth int) string {
	if depth >= maxExpandDepth {
		return value
	}

	var out strings.Builder
	rest := value
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			out.WriteString(rest)
			return out.String()
		}
		out.WriteString(rest[:start])
		rest = rest[start:]

		end := closingBrace(rest)
		if end < 0 {
			// Unterminated reference: emit verbatim and stop scanning.
			out.WriteString(rest)
			return out.String()
		}
		span := rest[:end+1]
		body := rest[2:end]
		rest = rest[end+1:]

		if strings.HasPrefix(body, "@") {
			if eval != nil {
				if result, ok := eval(body[1:]); ok {
					out.WriteString(expand(result, lookup, eval, diags, seen, depth+1))
					continue
				}
			}
			out.WriteString(span)
			continue
		}

		if !validName(body) {
			out.WriteString(span)
			continue
		}
		if contains(seen, body) {
			if diags != nil {
				diags.Add(recipe.DiagReferenceCycle, body, "reference cycle broken during expansion")
			}
			out.WriteString(span)
			continue
		}
		resolved, ok := lookup(body)
		if !ok {
			if diags != nil {
				diags.Add(recipe.DiagMissingReference, body, "no value anywhere in store")
			}
			out.WriteString(span)
			continue
		}
		out.WriteString(expand(resolved, lookup, eval, diags, append(seen, body), depth+1))
	}
}

// closingBrace returns the index of the brace closing the ${ opener at the
// start of s, honoring nested braces inside ${@...} bodies. Returns -1 when
// unterminated.
func closingBrace(s string) int {
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

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_' || c == '-' || c == '.' || c == '+' || c == '~':
		default:
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
