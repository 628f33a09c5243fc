// Package config loads the optional bbdeps.hcl tool configuration. The file
// is decoded with gohcl; values can reference process environment variables
// through the env object, e.g. class_paths = [env.BBDEPS_CLASSES].
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/avrabe/bbdeps/internal/overrides"
)

// Model is the fully defaulted tool configuration.
type Model struct {
	// ClassPaths are directories searched for .bbclass files.
	ClassPaths []string
	// IncludePaths are directories searched for include/require targets.
	// ClassPaths are searched too.
	IncludePaths []string
	// Contexts are the build contexts to union during override resolution.
	// Empty means context-agnostic resolution.
	Contexts []overrides.Context
	// Inclusive keeps resolution context-agnostic even with contexts set.
	Inclusive bool
	// DefaultVariables seed the store before recipe statements apply.
	DefaultVariables map[string]string

	LogFormat string
	LogLevel  string
	Workers   int
}

// fileRoot mirrors the top-level HCL schema.
type fileRoot struct {
	ClassPaths   []string          `hcl:"class_paths,optional"`
	IncludePaths []string          `hcl:"include_paths,optional"`
	Inclusive    *bool             `hcl:"inclusive,optional"`
	Defaults     map[string]string `hcl:"defaults,optional"`
	LogFormat    string            `hcl:"log_format,optional"`
	LogLevel     string            `hcl:"log_level,optional"`
	Workers      int               `hcl:"workers,optional"`
	Contexts     []contextBlock    `hcl:"context,block"`
}

// contextBlock is one context "name" { ... } block.
type contextBlock struct {
	Name  string   `hcl:"name,label"`
	Class string   `hcl:"class,optional"`
	Libc  string   `hcl:"libc,optional"`
	Arch  string   `hcl:"arch,optional"`
	Extra []string `hcl:"extra,optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Model {
	return &Model{
		Inclusive: true,
		LogFormat: "text",
		LogLevel:  "info",
		Workers:   8,
	}
}

// Load parses and decodes one configuration file, applying defaults for
// everything the file leaves unset.
func Load(path string) (*Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	model := Default()
	model.ClassPaths = root.ClassPaths
	model.IncludePaths = root.IncludePaths
	model.DefaultVariables = root.Defaults
	if root.Inclusive != nil {
		model.Inclusive = *root.Inclusive
	}
	if root.LogFormat != "" {
		model.LogFormat = root.LogFormat
	}
	if root.LogLevel != "" {
		model.LogLevel = root.LogLevel
	}
	if root.Workers > 0 {
		model.Workers = root.Workers
	}
	for _, block := range root.Contexts {
		model.Contexts = append(model.Contexts, overrides.Context{
			Class: block.Class,
			Libc:  block.Libc,
			Arch:  block.Arch,
			Extra: block.Extra,
		})
	}
	// Contexts in the file switch off the inclusive default unless the
	// file asked for both explicitly.
	if len(model.Contexts) > 0 && root.Inclusive == nil {
		model.Inclusive = false
	}
	return model, nil
}

// evalContext exposes the process environment as the env object.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if ok && name != "" {
			env[name] = cty.StringVal(value)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}
