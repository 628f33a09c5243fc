package parser

import (
	"strings"

	"github.com/avrabe/bbdeps/internal/recipe"
	"github.com/avrabe/bbdeps/internal/store"
)

// parseAssignment handles variable operator lines and flag assignments,
// appending a statement to f or recording a diagnostic for malformed input.
func parseAssignment(f *File, line string, number int, diags *recipe.Diagnostics) {
	eq := topLevelEquals(line)
	if eq < 0 {
		if diags != nil {
			diags.Add(recipe.DiagMalformedStatement, line, "not a recognized statement")
		}
		return
	}

	op := store.OpAssign
	lhsEnd := eq
	rhsStart := eq + 1
	switch {
	case eq >= 2 && line[eq-2] == '?' && line[eq-1] == '?':
		op = store.OpWeakAssign
		lhsEnd = eq - 2
	case eq >= 1 && line[eq-1] == '?':
		op = store.OpWeakAssign
		lhsEnd = eq - 1
	case eq >= 1 && line[eq-1] == '+':
		op = store.OpAppend
		lhsEnd = eq - 1
	case eq >= 1 && line[eq-1] == '.':
		op = store.OpAppendNoSpace
		lhsEnd = eq - 1
	case eq >= 1 && line[eq-1] == ':':
		// := immediate assignment; a static pass treats it as plain assign.
		op = store.OpAssign
		lhsEnd = eq - 1
	case eq+1 < len(line) && line[eq+1] == '+':
		op = store.OpPrepend
		rhsStart = eq + 2
	case eq+1 < len(line) && line[eq+1] == '.':
		op = store.OpPrependNoSpace
		rhsStart = eq + 2
	}

	lhs := strings.TrimSpace(line[:lhsEnd])
	value, errMsg := cleanValue(line[rhsStart:])
	if errMsg != "" {
		if diags != nil {
			diags.Add(recipe.DiagMalformedStatement, line, errMsg)
		}
		return
	}
	if lhs == "" {
		if diags != nil {
			diags.Add(recipe.DiagMalformedStatement, line, "assignment without a variable name")
		}
		return
	}

	// Flag assignment: VAR[flag] = value.
	if open := strings.IndexByte(lhs, '['); open >= 0 {
		closeIdx := strings.IndexByte(lhs, ']')
		if closeIdx <= open {
			if diags != nil {
				diags.Add(recipe.DiagMalformedStatement, line, "unterminated variable flag")
			}
			return
		}
		f.Statements = append(f.Statements, VarFlag{
			Name:  strings.TrimSpace(lhs[:open]),
			Flag:  strings.TrimSpace(lhs[open+1 : closeIdx]),
			Value: value,
			Line:  number,
		})
		return
	}

	parts := strings.Split(lhs, ":")
	name := strings.TrimSpace(parts[0])
	var overrides []string
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch part {
		case "append":
			op = store.OpAppendDeferred
		case "prepend":
			op = store.OpPrependDeferred
		case "remove":
			op = store.OpRemove
		case "":
			if diags != nil {
				diags.Add(recipe.DiagMalformedStatement, line, "empty override qualifier")
			}
			return
		default:
			overrides = append(overrides, part)
		}
	}
	if name == "" {
		if diags != nil {
			diags.Add(recipe.DiagMalformedStatement, line, "assignment without a variable name")
		}
		return
	}

	f.Statements = append(f.Statements, Assignment{
		Name:      name,
		Overrides: overrides,
		Op:        op,
		Value:     value,
		Line:      number,
	})
}

// topLevelEquals returns the index of the first '=' outside brackets and
// quotes, or -1.
func topLevelEquals(line string) int {
	depth := 0
	inQuote := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
		case c == '=' && depth == 0:
			return i
		}
	}
	return -1
}

// cleanValue strips the surrounding quotes from an operand, preserving any
// deliberate leading or trailing spaces inside them. A bare unquoted token
// stream is accepted as-is for leniency. The second return is a non-empty
// problem description when the operand is unusable.
func cleanValue(raw string) (string, string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "operator with no operand"
	}
	if trimmed[0] == '"' || trimmed[0] == '\'' {
		quote := trimmed[0]
		if len(trimmed) < 2 || trimmed[len(trimmed)-1] != quote {
			return "", "unterminated quoted value"
		}
		return trimmed[1 : len(trimmed)-1], ""
	}
	return trimmed, ""
}
