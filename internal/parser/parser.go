// Package parser turns raw recipe, include, and class file text into an
// ordered list of statements. Only static statements are recognized:
// variable operators (with override suffixes), inherit and include
// directives, task declarations, and variable flags. Shell and Python
// function bodies are skipped wholesale; embedded expression evaluation is
// someone else's job. Malformed lines produce diagnostics and are dropped,
// never aborting the file.
package parser

import (
	"strings"

	"github.com/avrabe/bbdeps/internal/recipe"
	"github.com/avrabe/bbdeps/internal/store"
)

// Statement is one parsed line (after continuation joining) of a recipe-like
// file, in encounter order.
type Statement interface {
	stmt()
}

// Assignment is a variable operator statement, e.g.
// DEPENDS:append:class-native = " foo".
type Assignment struct {
	Name      string
	Overrides []string
	Op        store.OpKind
	Value     string
	Line      int
}

// Inherit is an "inherit class..." directive.
type Inherit struct {
	Classes []string
	Line    int
}

// Include is an "include path" or "require path" directive. Required marks
// the require form, whose absence is worth a diagnostic.
type Include struct {
	Path     string
	Required bool
	Line     int
}

// AddTask is an "addtask name [after ...] [before ...]" declaration. Task
// names are stored without the do_ prefix.
type AddTask struct {
	Task   string
	After  []string
	Before []string
	Line   int
}

// DelTask is a "deltask name" declaration.
type DelTask struct {
	Task string
	Line int
}

// VarFlag is a flag assignment, e.g. do_compile[depends] = "...". Name keeps
// its original spelling; consumers normalize as needed.
type VarFlag struct {
	Name  string
	Flag  string
	Value string
	Line  int
}

func (Assignment) stmt() {}
func (Inherit) stmt()    {}
func (Include) stmt()    {}
func (AddTask) stmt()    {}
func (DelTask) stmt()    {}
func (VarFlag) stmt()    {}

// File is the parse result for one source text.
type File struct {
	Statements []Statement
}

// Parse scans text into statements. diags may be nil.
func Parse(text string, diags *recipe.Diagnostics) *File {
	f := &File{}
	lines := joinContinuations(text)

	inBody := false
	inPyDef := false
	for _, ln := range lines {
		raw := ln.text

		// Leave a brace-delimited function body on its closing brace.
		if inBody {
			if strings.TrimSpace(raw) == "}" {
				inBody = false
			}
			continue
		}
		// A python def block ends at the first non-indented, non-empty line,
		// which must itself be examined as a normal statement.
		if inPyDef {
			if strings.TrimSpace(raw) == "" || raw[0] == ' ' || raw[0] == '\t' {
				continue
			}
			inPyDef = false
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if isFunctionOpener(line) {
			if !strings.Contains(line, "}") {
				inBody = true
			}
			continue
		}
		if strings.HasPrefix(line, "def ") && strings.HasSuffix(line, ":") {
			inPyDef = true
			continue
		}

		switch {
		case strings.HasPrefix(line, "inherit "):
			classes := strings.Fields(strings.TrimPrefix(line, "inherit "))
			if len(classes) > 0 {
				f.Statements = append(f.Statements, Inherit{Classes: classes, Line: ln.number})
			}
		case strings.HasPrefix(line, "include "):
			f.Statements = append(f.Statements, Include{Path: strings.TrimSpace(strings.TrimPrefix(line, "include ")), Line: ln.number})
		case strings.HasPrefix(line, "require "):
			f.Statements = append(f.Statements, Include{Path: strings.TrimSpace(strings.TrimPrefix(line, "require ")), Required: true, Line: ln.number})
		case strings.HasPrefix(line, "addtask ") || line == "addtask":
			if task, ok := parseAddTask(line, ln.number); ok {
				f.Statements = append(f.Statements, task)
			} else if diags != nil {
				diags.Add(recipe.DiagMalformedStatement, line, "addtask without a task name")
			}
		case strings.HasPrefix(line, "deltask ") || line == "deltask":
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				f.Statements = append(f.Statements, DelTask{Task: normalizeTask(fields[1]), Line: ln.number})
			} else if diags != nil {
				diags.Add(recipe.DiagMalformedStatement, line, "deltask without a task name")
			}
		case strings.HasPrefix(line, "EXPORT_FUNCTIONS ") || strings.HasPrefix(line, "unset "):
			// Declarations with no bearing on dependency extraction.
		default:
			parseAssignment(f, line, ln.number, diags)
		}
	}
	return f
}

// isFunctionOpener matches shell/python task definitions like
// "do_install() {" or "python do_configure:prepend() {".
func isFunctionOpener(line string) bool {
	open := strings.Index(line, "(")
	if open <= 0 || !strings.Contains(line[open:], ")") {
		return false
	}
	if !strings.HasSuffix(strings.TrimSpace(line), "{") {
		return false
	}
	head := strings.TrimSpace(line[:open])
	head = strings.TrimPrefix(head, "fakeroot ")
	head = strings.TrimPrefix(head, "python")
	head = strings.TrimSpace(head)
	if head == "" {
		return true // anonymous python block
	}
	return !strings.ContainsAny(head, " \t=")
}

type numberedLine struct {
	text   string
	number int
}

// joinContinuations folds backslash-continued lines into single logical
// lines, keeping the first physical line's number.
func joinContinuations(text string) []numberedLine {
	var out []numberedLine
	var pending strings.Builder
	pendingLine := 0

	flush := func() {
		if pendingLine != 0 {
			out = append(out, numberedLine{text: pending.String(), number: pendingLine})
			pending.Reset()
			pendingLine = 0
		}
	}

	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(raw, " \t")
		if strings.HasSuffix(trimmed, "\\") {
			if pendingLine == 0 {
				pendingLine = i + 1
			}
			pending.WriteString(strings.TrimSuffix(trimmed, "\\"))
			pending.WriteString(" ")
			continue
		}
		if pendingLine != 0 {
			pending.WriteString(raw)
			flush()
			continue
		}
		out = append(out, numberedLine{text: raw, number: i + 1})
	}
	flush()
	return out
}

func parseAddTask(line string, number int) (AddTask, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return AddTask{}, false
	}
	task := AddTask{Task: normalizeTask(fields[1]), Line: number}
	mode := ""
	for _, word := range fields[2:] {
		switch word {
		case "after", "before":
			mode = word
		default:
			switch mode {
			case "after":
				task.After = append(task.After, normalizeTask(word))
			case "before":
				task.Before = append(task.Before, normalizeTask(word))
			}
		}
	}
	return task, true
}

func normalizeTask(name string) string {
	return strings.TrimPrefix(name, "do_")
}
