// Package app wires the extraction pipeline together: configuration,
// logging, recipe discovery, a bounded worker pool over recipes, and the
// shared dependency graph the per-recipe fragments merge into.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/avrabe/bbdeps/internal/classes"
	"github.com/avrabe/bbdeps/internal/config"
	"github.com/avrabe/bbdeps/internal/ctxlog"
	"github.com/avrabe/bbdeps/internal/extract"
	"github.com/avrabe/bbdeps/internal/fsutil"
	"github.com/avrabe/bbdeps/internal/graph"
	"github.com/avrabe/bbdeps/internal/recipe"
	"github.com/avrabe/bbdeps/internal/report"
)

// App encapsulates the tool's dependencies, configuration, and lifecycle.
type App struct {
	out       io.Writer
	logger    *slog.Logger
	cfg       *config.Model
	extractor *extract.Extractor
}

// New constructs a fully initialized App with its own isolated logger.
// Reports go to out, logs to logOut.
func New(out, logOut io.Writer, cfg *config.Model) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logOut)

	know, err := classes.NewKnowledge()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in class knowledge: %w", err)
	}
	source := NewDirSource(cfg.ClassPaths, cfg.IncludePaths)
	resolver := classes.NewResolver(source, know)
	extractor := extract.New(resolver, extract.Options{
		Contexts:         cfg.Contexts,
		Inclusive:        cfg.Inclusive,
		DefaultVariables: cfg.DefaultVariables,
	})
	logger.Debug("application initialized",
		"class_paths", len(cfg.ClassPaths),
		"contexts", len(cfg.Contexts),
		"inclusive", cfg.Inclusive,
		"knowledge_version", know.Version(),
	)

	return &App{out: out, logger: logger, cfg: cfg, extractor: extractor}, nil
}

// Run extracts every recipe under recipePath, merges the fragments into one
// graph, and writes the report. With dotPath set the graph is also exported
// as DOT.
func (a *App) Run(ctx context.Context, recipePath, dotPath string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	files, err := fsutil.FindFilesByExtension(recipePath, ".bb")
	if err != nil {
		return fmt.Errorf("failed to discover recipes under %s: %w", recipePath, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .bb recipes found under %s", recipePath)
	}
	a.logger.Info("recipes discovered", "count", len(files), "path", recipePath)

	results := a.extractAll(ctx, files)

	shared := graph.New()
	writer := report.NewWriter(a.out)
	for _, res := range results {
		if res == nil {
			continue
		}
		shared.Merge(res.Fragment)
		writer.Recipe(res)
	}
	writer.Summary(shared)

	if dotPath != "" {
		if err := a.writeDOT(shared, dotPath); err != nil {
			return err
		}
		a.logger.Info("graph exported", "path", dotPath)
	}
	return nil
}

// extractAll fans the recipe files out over a bounded worker pool. Results
// keep file order; a file that cannot be read logs a warning and leaves a
// nil slot.
func (a *App) extractAll(ctx context.Context, files []string) []*extract.Result {
	logger := ctxlog.FromContext(ctx)
	workers := a.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	results := make([]*extract.Result, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for workerID := 0; workerID < workers; workerID++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				path := files[i]
				data, err := os.ReadFile(path)
				if err != nil {
					logger.Warn("skipping unreadable recipe", "workerID", workerID, "path", path, "error", err)
					continue
				}
				id := recipe.IdentityFromPath(path)
				results[i] = a.extractor.Extract(ctx, id, []recipe.Source{{
					Kind: recipe.SourceRecipe,
					Name: path,
					Text: string(data),
				}})
			}
		}(workerID)
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (a *App) writeDOT(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create DOT file %s: %w", path, err)
	}
	defer f.Close()
	if err := report.WriteDOT(f, g); err != nil {
		return fmt.Errorf("failed to write DOT file %s: %w", path, err)
	}
	return nil
}
