package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrabe/bbdeps/internal/overrides"
)

// writeConfig writes an HCL config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bbdeps.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Inclusive)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Workers)
	assert.Empty(t, cfg.Contexts)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
class_paths   = ["/srv/meta/classes"]
include_paths = ["/srv/meta/include"]
log_format    = "json"
log_level     = "debug"
workers       = 4

defaults = {
  DISTRO_FEATURES = "systemd wayland"
}

context "target-glibc" {
  class = "target"
  libc  = "glibc"
  arch  = "x86-64"
}

context "native" {
  class = "native"
  extra = ["build-host"]
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/meta/classes"}, cfg.ClassPaths)
	assert.Equal(t, []string{"/srv/meta/include"}, cfg.IncludePaths)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "systemd wayland", cfg.DefaultVariables["DISTRO_FEATURES"])

	require.Len(t, cfg.Contexts, 2)
	assert.Equal(t, overrides.Context{Class: "target", Libc: "glibc", Arch: "x86-64"}, cfg.Contexts[0])
	assert.Equal(t, overrides.Context{Class: "native", Extra: []string{"build-host"}}, cfg.Contexts[1])
	assert.False(t, cfg.Inclusive, "supplying contexts switches off the inclusive default")
}

func TestLoadContextsWithExplicitInclusive(t *testing.T) {
	path := writeConfig(t, `
inclusive = true

context "target-glibc" {
  class = "target"
  libc  = "glibc"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Inclusive)
	assert.Len(t, cfg.Contexts, 1)
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvReference(t *testing.T) {
	t.Setenv("BBDEPS_TEST_CLASSES", "/opt/classes")
	path := writeConfig(t, `
class_paths = [env.BBDEPS_TEST_CLASSES]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/classes"}, cfg.ClassPaths)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
		assert.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := Load(writeConfig(t, `class_paths = [`))
		assert.Error(t, err)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := Load(writeConfig(t, `no_such_setting = 1`))
		assert.Error(t, err)
	})
}
