package graph

// Fragment is one recipe's contribution to the shared graph: deduplicated
// dependency tokens grouped by kind. Fragments are built per recipe with no
// shared state, then merged under the graph's lock.
type Fragment struct {
	Recipe   string
	Build    []string
	Run      []string
	Provides []string
	// Possible holds dependencies surfaced from unresolved expressions.
	Possible []string
}

// NewFragment creates an empty fragment for a recipe node.
func NewFragment(recipe string) *Fragment {
	return &Fragment{Recipe: recipe}
}

// AddBuild appends a build dependency token, skipping duplicates.
func (f *Fragment) AddBuild(dep string) { f.Build = appendUnique(f.Build, dep) }

// AddRun appends a run dependency token, skipping duplicates.
func (f *Fragment) AddRun(dep string) { f.Run = appendUnique(f.Run, dep) }

// AddProvides appends a provided capability, skipping duplicates.
func (f *Fragment) AddProvides(capability string) { f.Provides = appendUnique(f.Provides, capability) }

// AddPossible appends a possible dependency, skipping duplicates.
func (f *Fragment) AddPossible(dep string) { f.Possible = appendUnique(f.Possible, dep) }

// Merge folds the fragment's tokens into the shared graph as kind-tagged
// edges from the fragment's recipe node.
func (g *Graph) Merge(f *Fragment) {
	g.AddNode(f.Recipe)
	for _, dep := range f.Build {
		g.AddEdge(f.Recipe, dep, EdgeBuild)
	}
	for _, dep := range f.Run {
		g.AddEdge(f.Recipe, dep, EdgeRun)
	}
	for _, capability := range f.Provides {
		g.AddEdge(f.Recipe, capability, EdgeProvides)
	}
	for _, dep := range f.Possible {
		g.AddEdge(f.Recipe, dep, EdgePossible)
	}
}

func appendUnique(list []string, item string) []string {
	if item == "" {
		return list
	}
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
