package overrides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrabe/bbdeps/internal/store"
)

func TestContextIsActive(t *testing.T) {
	native := Context{Class: ClassNative, Libc: LibcGlibc, Arch: "x86-64"}
	target := Context{Class: ClassTarget, Libc: LibcMusl, Arch: "aarch64", Extra: []string{"qemuall"}}

	testCases := []struct {
		name     string
		ctx      Context
		tag      string
		expected bool
	}{
		{name: "class tag matches", ctx: native, tag: "class-native", expected: true},
		{name: "class tag mismatch", ctx: target, tag: "class-native", expected: false},
		{name: "libc tag matches", ctx: target, tag: "libc-musl", expected: true},
		{name: "libc tag mismatch", ctx: native, tag: "libc-musl", expected: false},
		{name: "arch alias amd64", ctx: native, tag: "amd64", expected: true},
		{name: "arch alias arm64", ctx: target, tag: "arm64", expected: true},
		{name: "arch direct", ctx: target, tag: "aarch64", expected: true},
		{name: "extra override", ctx: target, tag: "qemuall", expected: true},
		{name: "unknown tag", ctx: native, tag: "qemuall", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.ctx.IsActive(tc.tag))
		})
	}
}

func TestContextAllActive(t *testing.T) {
	ctx := Context{Class: ClassNative, Arch: "arm"}
	assert.True(t, ctx.allActive([]string{"class-native", "arm"}))
	assert.False(t, ctx.allActive([]string{"class-native", "aarch64"}))
	assert.True(t, ctx.allActive(nil))
}

func TestResolveAppendScenario(t *testing.T) {
	st := store.New()
	st.Apply("DEPENDS", nil, store.OpAssign, "foo")
	st.Apply("DEPENDS", nil, store.OpAppendDeferred, " bar")

	eff := NewInclusive().Resolve(st)
	value, ok := eff.Get("DEPENDS")
	require.True(t, ok)
	assert.Equal(t, "foo bar", value)
}

func TestResolveDeferredSurvivesLaterAssign(t *testing.T) {
	st := store.New()
	st.Apply("DEPENDS", nil, store.OpPrependDeferred, "cmake-native ")
	st.Apply("DEPENDS", nil, store.OpAssign, "libfoo")

	value, ok := NewInclusive().Resolve(st).Get("DEPENDS")
	require.True(t, ok)
	assert.Equal(t, "cmake-native libfoo", value,
		"suffix-style prepends apply after the whole replay")
}

func TestResolveInclusiveUnionsSuffixedOperators(t *testing.T) {
	st := store.New()
	st.Apply("DEPENDS", nil, store.OpAssign, "base")
	st.Apply("DEPENDS", []string{"class-native"}, store.OpAppendNoSpace, " native-extra")
	st.Apply("DEPENDS", []string{"libc-musl"}, store.OpAssign, "musl-only")

	eff := NewInclusive().Resolve(st)
	value, ok := eff.Get("DEPENDS")
	require.True(t, ok)
	assert.Contains(t, value, "base")
	assert.Contains(t, value, "native-extra", "suffixed append always merges")
	assert.Contains(t, value, "musl-only", "suffixed assign merges additively")
}

func TestResolveContextGatesSuffixedAssign(t *testing.T) {
	st := store.New()
	st.Apply("SRC_URI", nil, store.OpAssign, "file://base.patch")
	st.Apply("SRC_URI", []string{"libc-musl"}, store.OpAssign, "file://musl.patch")

	glibc := NewForContexts(Context{Class: ClassTarget, Libc: LibcGlibc})
	value, ok := glibc.Resolve(st).Get("SRC_URI")
	require.True(t, ok)
	assert.NotContains(t, value, "musl.patch")

	musl := NewForContexts(Context{Class: ClassTarget, Libc: LibcMusl})
	value, ok = musl.Resolve(st).Get("SRC_URI")
	require.True(t, ok)
	assert.Contains(t, value, "musl.patch")
}

func TestResolveRemoveSemantics(t *testing.T) {
	build := func() *store.Store {
		st := store.New()
		st.Apply("DEPENDS", nil, store.OpAssign, "foo bar baz")
		return st
	}

	t.Run("unsuffixed remove always applies", func(t *testing.T) {
		st := build()
		st.Apply("DEPENDS", nil, store.OpRemove, "bar")
		value, _ := NewInclusive().Resolve(st).Get("DEPENDS")
		assert.Equal(t, "foo baz", value)
	})

	t.Run("suffixed remove is skipped in inclusive mode", func(t *testing.T) {
		st := build()
		st.Apply("DEPENDS", []string{"libc-musl"}, store.OpRemove, "bar")
		value, _ := NewInclusive().Resolve(st).Get("DEPENDS")
		assert.Equal(t, "foo bar baz", value, "a conditional remove must never hide a dependency")
	})

	t.Run("suffixed remove applies when a context confirms the tag", func(t *testing.T) {
		st := build()
		st.Apply("DEPENDS", []string{"libc-musl"}, store.OpRemove, "bar")
		musl := NewForContexts(Context{Class: ClassTarget, Libc: LibcMusl})
		value, _ := musl.Resolve(st).Get("DEPENDS")
		assert.Equal(t, "foo baz", value)
	})

	t.Run("suffixed remove skipped when no context activates the tag", func(t *testing.T) {
		st := build()
		st.Apply("DEPENDS", []string{"libc-musl"}, store.OpRemove, "bar")
		glibc := NewForContexts(Context{Class: ClassTarget, Libc: LibcGlibc})
		value, _ := glibc.Resolve(st).Get("DEPENDS")
		assert.Equal(t, "foo bar baz", value)
	})
}

func TestResolveRemoveAppliesAfterLaterAppends(t *testing.T) {
	st := store.New()
	st.Apply("DEPENDS", nil, store.OpAssign, "foo")
	st.Apply("DEPENDS", nil, store.OpRemove, "bar")
	st.Apply("DEPENDS", nil, store.OpAppendNoSpace, " bar")

	value, _ := NewInclusive().Resolve(st).Get("DEPENDS")
	assert.Equal(t, "foo", value, "removes run after the whole history")
}

func TestResolveWeakAssignOrdering(t *testing.T) {
	st := store.New()
	st.Apply("PROVIDES", nil, store.OpWeakAssign, "virtual/foo")
	st.Apply("PROVIDES", nil, store.OpWeakAssign, "virtual/bar")

	value, ok := NewInclusive().Resolve(st).Get("PROVIDES")
	require.True(t, ok)
	assert.Equal(t, "virtual/foo", value, "first weak assign wins")
}

func TestEffectiveNames(t *testing.T) {
	st := store.New()
	st.Apply("B", nil, store.OpAssign, "2")
	st.Apply("A", nil, store.OpAssign, "1")

	eff := NewInclusive().Resolve(st)
	assert.Equal(t, []string{"A", "B"}, eff.Names())

	_, ok := eff.Get("C")
	assert.False(t, ok)
}
