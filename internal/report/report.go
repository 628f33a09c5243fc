// Package report renders extraction results: a per-recipe text report, a
// whole-graph summary, and Graphviz DOT export.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/avrabe/bbdeps/internal/extract"
	"github.com/avrabe/bbdeps/internal/graph"
)

// Writer renders text output, with ANSI color when the destination is an
// interactive terminal and NO_COLOR is unset.
type Writer struct {
	out   io.Writer
	color bool
}

// NewWriter builds a writer for out, detecting color support.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, color: colorEnabled(out)}
}

func colorEnabled(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const (
	ansiBold   = "\033[1m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiReset  = "\033[0m"
)

func (w *Writer) paint(code, s string) string {
	if !w.color {
		return s
	}
	return code + s + ansiReset
}

// Recipe prints one recipe's extraction result.
func (w *Writer) Recipe(res *extract.Result) {
	fmt.Fprintf(w.out, "%s\n", w.paint(ansiBold, res.Identity.String()))
	w.list("  depends:", res.Fragment.Build)
	w.list("  rdepends:", res.Fragment.Run)
	w.list("  provides:", res.Fragment.Provides)
	if len(res.Fragment.Possible) > 0 {
		fmt.Fprintf(w.out, "  %s %s\n",
			w.paint(ansiYellow, "possible:"), strings.Join(res.Fragment.Possible, " "))
	}
	if res.Tasks.Len() > 0 {
		fmt.Fprintf(w.out, "  tasks: %d", res.Tasks.Len())
		if !res.TaskGraphValid {
			fmt.Fprintf(w.out, " %s", w.paint(ansiRed, "(cycle)"))
		}
		fmt.Fprintln(w.out)
	}
	for _, d := range res.Diags {
		fmt.Fprintf(w.out, "  %s %s: %s: %s\n",
			w.paint(ansiYellow, "diagnostic:"), d.Kind, d.Subject, d.Detail)
	}
}

func (w *Writer) list(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w.out, "%s %s\n", label, strings.Join(items, " "))
}

// Summary prints whole-graph statistics.
func (w *Writer) Summary(g *graph.Graph) {
	s := g.Stats()
	fmt.Fprintf(w.out, "\n%s %d nodes, %d build, %d run, %d provides, %d possible\n",
		w.paint(ansiBold, "graph:"), s.Nodes, s.Build, s.Run, s.Provides, s.Possible)
}

// edgeStyles maps edge kinds to DOT attributes.
var edgeStyles = map[graph.EdgeKind]string{
	graph.EdgeBuild:    `color="black"`,
	graph.EdgeRun:      `color="blue" style="dashed"`,
	graph.EdgeProvides: `color="darkgreen" arrowhead="empty"`,
	graph.EdgePossible: `color="gray" style="dotted"`,
}

// WriteDOT renders the shared graph in Graphviz DOT form. Nodes are sorted
// for stable output.
func WriteDOT(out io.Writer, g *graph.Graph) error {
	if _, err := fmt.Fprintln(out, "digraph dependencies {"); err != nil {
		return err
	}
	fmt.Fprintln(out, "  rankdir=LR;")
	fmt.Fprintln(out, "  node [shape=box fontsize=10];")
	for _, name := range g.Nodes() {
		fmt.Fprintf(out, "  %q;\n", name)
	}
	edges := g.Edges()
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	for _, e := range edges {
		fmt.Fprintf(out, "  %q -> %q [label=%q %s];\n", e.From, e.To, e.Kind, edgeStyles[e.Kind])
	}
	_, err := fmt.Fprintln(out, "}")
	return err
}
