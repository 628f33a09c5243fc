package recipe

import "fmt"

// DiagKind classifies a diagnostic. None of these are fatal: the pipeline
// always produces a best-effort result and reports what it could not fully
// resolve.
type DiagKind int

const (
	// DiagMissingReference marks a ${name} with no value anywhere in the store.
	DiagMissingReference DiagKind = iota
	// DiagReferenceCycle marks a ${name} chain that referenced itself.
	DiagReferenceCycle
	// DiagClassFallback marks a class resolved from built-in knowledge
	// because its file was missing or unparseable.
	DiagClassFallback
	// DiagUnresolvedExpression marks a ${@...} outside the recognized grammar.
	DiagUnresolvedExpression
	// DiagTaskCycle marks a dependency cycle in the recipe's task graph.
	DiagTaskCycle
	// DiagMalformedStatement marks a skipped statement (no operand,
	// unterminated override syntax, and similar).
	DiagMalformedStatement
	// DiagMissingInclude marks a require directive whose file was not found.
	DiagMissingInclude
)

// String returns the kind's report label.
func (k DiagKind) String() string {
	switch k {
	case DiagMissingReference:
		return "missing-reference"
	case DiagReferenceCycle:
		return "reference-cycle"
	case DiagClassFallback:
		return "class-fallback"
	case DiagUnresolvedExpression:
		return "unresolved-expression"
	case DiagTaskCycle:
		return "task-cycle"
	case DiagMalformedStatement:
		return "malformed-statement"
	case DiagMissingInclude:
		return "missing-include"
	default:
		return fmt.Sprintf("diagkind(%d)", int(k))
	}
}

// Diagnostic is a single non-fatal finding, scoped to the recipe whose
// resolution produced it.
type Diagnostic struct {
	Kind DiagKind
	// Subject is the variable, class, expression, or statement concerned.
	Subject string
	Detail  string
}

// String renders the diagnostic for reports and logs.
func (d Diagnostic) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Subject)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.Subject, d.Detail)
}

// Diagnostics accumulates findings during one recipe's resolution.
type Diagnostics struct {
	items []Diagnostic
}

// Add records a diagnostic.
func (ds *Diagnostics) Add(kind DiagKind, subject, detail string) {
	ds.items = append(ds.items, Diagnostic{Kind: kind, Subject: subject, Detail: detail})
}

// Items returns the recorded diagnostics in order.
func (ds *Diagnostics) Items() []Diagnostic {
	return ds.items
}

// HasKind reports whether any diagnostic of the given kind was recorded.
func (ds *Diagnostics) HasKind(kind DiagKind) bool {
	for _, d := range ds.items {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
