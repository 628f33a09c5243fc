// Package cli defines the bbdeps command line surface. Flags override
// values from an optional bbdeps.hcl configuration file.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/avrabe/bbdeps/internal/app"
	"github.com/avrabe/bbdeps/internal/config"
)

// Command builds the root command.
func Command() *cli.Command {
	return &cli.Command{
		Name:      "bbdeps",
		Usage:     "Static dependency extraction for BitBake-style recipes",
		ArgsUsage: "<recipe.bb | directory>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a bbdeps.hcl configuration file",
			},
			&cli.StringSliceFlag{
				Name:  "classes",
				Usage: "Directory searched for .bbclass files (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "includes",
				Usage: "Directory searched for include/require targets (repeatable)",
			},
			&cli.StringFlag{
				Name:  "dot",
				Usage: "Write the merged dependency graph to this file as Graphviz DOT",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format: 'text' or 'json'",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Logging level: 'debug', 'info', 'warn', or 'error'",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent recipe workers",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: bbdeps [options] <recipe.bb | directory>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	application, err := app.New(os.Stdout, os.Stderr, cfg)
	if err != nil {
		return err
	}
	return application.Run(ctx, cmd.Args().First(), cmd.String("dot"))
}

// loadConfig merges the optional config file with flag overrides.
func loadConfig(cmd *cli.Command) (*config.Model, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if classes := cmd.StringSlice("classes"); len(classes) > 0 {
		cfg.ClassPaths = classes
	}
	if includes := cmd.StringSlice("includes"); len(includes) > 0 {
		cfg.IncludePaths = includes
	}
	if format := cmd.String("log-format"); format != "" {
		if format != "text" && format != "json" {
			return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", format)
		}
		cfg.LogFormat = format
	}
	if level := cmd.String("log-level"); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", level)
		}
	}
	if workers := cmd.Int("workers"); workers > 0 {
		cfg.Workers = int(workers)
	}
	return cfg, nil
}
