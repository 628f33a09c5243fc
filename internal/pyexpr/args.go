package pyexpr

import "strings"

// arg is one parsed call argument. quoted distinguishes 'literal' arguments
// from bare tokens like d, True, or nested calls.
type arg struct {
	text   string
	quoted bool
}

// callArgs extracts the argument list of funcName(...) from expr, honoring
// quotes and nested parentheses. Returns false when the call or its closing
// parenthesis is missing.
func callArgs(expr, funcName string) ([]arg, bool) {
	start := strings.Index(expr, funcName)
	if start < 0 {
		return nil, false
	}
	rest := expr[start+len(funcName):]
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return nil, false
	}
	body, ok := untilMatchingParen(rest[open+1:])
	if !ok {
		return nil, false
	}
	return splitArgs(body), true
}

// untilMatchingParen returns the text up to the parenthesis closing an
// already-open call, tracking quote state.
func untilMatchingParen(s string) (string, bool) {
	depth := 1
	quote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[:i], true
			}
		}
	}
	return "", false
}

// splitArgs splits a call body on top-level commas, stripping one layer of
// quotes per argument and remembering which arguments were quoted.
func splitArgs(body string) []arg {
	var args []arg
	var current strings.Builder
	quote := byte(0)
	wasQuoted := false
	depth := 0

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" || wasQuoted || len(args) > 0 {
			args = append(args, arg{text: text, quoted: wasQuoted})
		}
		current.Reset()
		wasQuoted = false
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			wasQuoted = true
		case c == '(':
			depth++
			current.WriteByte(c)
		case c == ')':
			depth--
			current.WriteByte(c)
		case c == ',' && depth == 0:
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return args
}

// quotedLiteral parses a lone 'text' or "text" token.
func quotedLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", false
	}
	if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
		inner := s[1 : len(s)-1]
		if strings.ContainsAny(inner, "'\"") {
			return "", false
		}
		return inner, true
	}
	return "", false
}

// cutTopLevel splits s on the first occurrence of sep outside quotes and
// parentheses.
func cutTopLevel(s, sep string) (string, string, bool) {
	quote := byte(0)
	depth := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			continue
		case c == '\'' || c == '"':
			quote = c
			continue
		case c == '(':
			depth++
			continue
		case c == ')':
			depth--
			continue
		}
		if depth == 0 && s[i:i+len(sep)] == sep {
			return s[:i], s[i+len(sep):], true
		}
	}
	return "", "", false
}

// harvestCandidates collects the whitespace-split tokens of string literals
// in an unresolved expression, excluding variable names, match items, and
// comparison operands, so the graph builder can surface them as possible
// dependencies.
func harvestCandidates(expr string) []string {
	masked := maskVarNames(expr)
	var out []string
	quote := byte(0)
	afterCompare := false
	var current strings.Builder
	for i := 0; i < len(masked); i++ {
		c := masked[i]
		if quote != 0 {
			if c == quote {
				quote = 0
				if !afterCompare {
					for _, tok := range strings.Fields(current.String()) {
						if packageish(tok) {
							out = append(out, tok)
						}
					}
				}
				afterCompare = false
				current.Reset()
			} else {
				current.WriteByte(c)
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '=', '!':
			if i+1 < len(masked) && masked[i+1] == '=' {
				afterCompare = true
			}
		}
	}
	return out
}

// maskVarNames blanks the argument positions of the recognized call shapes
// that hold variable names or match values rather than dependency strings:
// the whole argument list of d.getVar, the variable-name and item arguments
// of the bb.utils containment helpers and oe.utils.conditional, and the
// variable-name argument of bb.utils.filter.
func maskVarNames(expr string) string {
	out := maskCall(expr, "d.getVar(", -1)
	for _, fn := range []string{"bb.utils.contains_any(", "bb.utils.contains(", "oe.utils.conditional("} {
		out = maskCall(out, fn, 2)
	}
	return maskCall(out, "bb.utils.filter(", 1)
}

// maskCall rewrites every call to fn in expr: with n negative the whole
// argument list is removed, otherwise the first n quoted arguments are
// blanked in place.
func maskCall(expr, fn string, n int) string {
	out := expr
	from := 0
	for {
		idx := strings.Index(out[from:], fn)
		if idx < 0 {
			return out
		}
		start := from + idx + len(fn)
		body, ok := untilMatchingParen(out[start:])
		if !ok {
			return out
		}
		if n < 0 {
			out = out[:from+idx] + out[start+len(body)+1:]
			from = from + idx
			continue
		}
		masked := blankQuotedArgs(body, n)
		out = out[:start] + masked + out[start+len(body):]
		from = start + len(masked) + 1
	}
}

// blankQuotedArgs drops the inner text of the first n quoted strings in a
// call body, keeping the quotes themselves so argument positions survive.
func blankQuotedArgs(body string, n int) string {
	var b strings.Builder
	quote := byte(0)
	seen := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == quote {
				quote = 0
				b.WriteByte(c)
			} else if seen > n {
				b.WriteByte(c)
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			seen++
		}
		b.WriteByte(c)
	}
	return b.String()
}

// packageish filters tokens that could plausibly be package names.
func packageish(tok string) bool {
	if tok == "" || tok == "True" || tok == "False" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == '+' || c == '/':
		default:
			return false
		}
	}
	return true
}
