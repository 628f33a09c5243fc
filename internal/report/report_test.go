package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrabe/bbdeps/internal/classes"
	"github.com/avrabe/bbdeps/internal/extract"
	"github.com/avrabe/bbdeps/internal/graph"
	"github.com/avrabe/bbdeps/internal/recipe"
)

func demoResult(t *testing.T) *extract.Result {
	t.Helper()
	know, err := classes.NewKnowledge()
	require.NoError(t, err)
	ex := extract.New(classes.NewResolver(classes.NoSource{}, know), extract.Options{})
	return ex.Extract(context.Background(), recipe.Identity{Name: "bash", Version: "5.2"}, []recipe.Source{{
		Kind: recipe.SourceRecipe,
		Name: "bash_5.2.bb",
		Text: "DEPENDS = \"ncurses\"\nRDEPENDS:${PN} = \"glibc\"\nPROVIDES = \"virtual/sh\"\n",
	}})
}

func TestRecipeReport(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Recipe(demoResult(t))

	out := buf.String()
	assert.Contains(t, out, "bash-5.2")
	assert.Contains(t, out, "depends: ncurses")
	assert.Contains(t, out, "rdepends: glibc")
	assert.Contains(t, out, "provides: virtual/sh")
	assert.NotContains(t, out, "\033[", "no ANSI codes when the destination is not a terminal")
}

func TestSummary(t *testing.T) {
	g := graph.New()
	g.AddEdge("bash", "ncurses", graph.EdgeBuild)
	g.AddEdge("bash", "glibc", graph.EdgeRun)

	var buf bytes.Buffer
	NewWriter(&buf).Summary(g)
	assert.Contains(t, buf.String(), "3 nodes, 1 build, 1 run")
}

func TestWriteDOT(t *testing.T) {
	g := graph.New()
	g.AddEdge("bash", "ncurses", graph.EdgeBuild)
	g.AddEdge("bash", "glibc", graph.EdgeRun)
	g.AddEdge("bash", "virtual/sh", graph.EdgeProvides)
	g.AddEdge("bash", "systemd", graph.EdgePossible)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, g))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph dependencies {"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
	assert.Contains(t, out, `"bash" -> "ncurses" [label="build"`)
	assert.Contains(t, out, `"bash" -> "glibc" [label="run"`)
	assert.Contains(t, out, `"bash" -> "virtual/sh" [label="provides"`)
	assert.Contains(t, out, `"bash" -> "systemd" [label="possible"`)
}

func TestWriteDOTStableOrder(t *testing.T) {
	build := func(order []string) string {
		g := graph.New()
		for _, dep := range order {
			g.AddEdge("bash", dep, graph.EdgeBuild)
		}
		var buf bytes.Buffer
		require.NoError(t, WriteDOT(&buf, g))
		return buf.String()
	}

	assert.Equal(t,
		build([]string{"zlib", "ncurses", "attr"}),
		build([]string{"attr", "zlib", "ncurses"}),
		"output must not depend on insertion order")
}
