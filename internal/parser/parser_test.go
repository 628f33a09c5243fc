package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrabe/bbdeps/internal/recipe"
	"github.com/avrabe/bbdeps/internal/store"
)

// singleAssignment parses one line and requires exactly one Assignment.
func singleAssignment(t *testing.T, line string) Assignment {
	t.Helper()
	f := Parse(line, nil)
	require.Len(t, f.Statements, 1)
	a, ok := f.Statements[0].(Assignment)
	require.True(t, ok, "expected an Assignment, got %T", f.Statements[0])
	return a
}

func TestParseOperators(t *testing.T) {
	testCases := []struct {
		name      string
		line      string
		varName   string
		op        store.OpKind
		value     string
		overrides []string
	}{
		{
			name:    "plain assign",
			line:    `DEPENDS = "foo"`,
			varName: "DEPENDS",
			op:      store.OpAssign,
			value:   "foo",
		},
		{
			name:    "immediate assign treated as assign",
			line:    `PV := "1.0"`,
			varName: "PV",
			op:      store.OpAssign,
			value:   "1.0",
		},
		{
			name:    "weak assign",
			line:    `PROVIDES ?= "virtual/foo"`,
			varName: "PROVIDES",
			op:      store.OpWeakAssign,
			value:   "virtual/foo",
		},
		{
			name:    "lazy weak assign",
			line:    `PREFERRED_PROVIDER ??= "bar"`,
			varName: "PREFERRED_PROVIDER",
			op:      store.OpWeakAssign,
			value:   "bar",
		},
		{
			name:    "spaced append",
			line:    `DEPENDS += "zlib"`,
			varName: "DEPENDS",
			op:      store.OpAppend,
			value:   "zlib",
		},
		{
			name:    "spaced prepend",
			line:    `DEPENDS =+ "zlib"`,
			varName: "DEPENDS",
			op:      store.OpPrepend,
			value:   "zlib",
		},
		{
			name:    "verbatim append",
			line:    `FILES .= "/extra"`,
			varName: "FILES",
			op:      store.OpAppendNoSpace,
			value:   "/extra",
		},
		{
			name:    "verbatim prepend",
			line:    `PATH =. "/opt/bin:"`,
			varName: "PATH",
			op:      store.OpPrependNoSpace,
			value:   "/opt/bin:",
		},
		{
			name:    "append suffix keeps its leading space",
			line:    `DEPENDS:append = " bar"`,
			varName: "DEPENDS",
			op:      store.OpAppendDeferred,
			value:   " bar",
		},
		{
			name:    "prepend suffix keeps its trailing space",
			line:    `DEPENDS:prepend = "cmake-native "`,
			varName: "DEPENDS",
			op:      store.OpPrependDeferred,
			value:   "cmake-native ",
		},
		{
			name:    "remove suffix",
			line:    `DEPENDS:remove = "foo"`,
			varName: "DEPENDS",
			op:      store.OpRemove,
			value:   "foo",
		},
		{
			name:      "append with override tag",
			line:      `DEPENDS:append:class-native = " bar-native"`,
			varName:   "DEPENDS",
			op:        store.OpAppendDeferred,
			value:     " bar-native",
			overrides: []string{"class-native"},
		},
		{
			name:      "assign with override tag",
			line:      `SRC_URI:libc-musl = "file://musl.patch"`,
			varName:   "SRC_URI",
			op:        store.OpAssign,
			value:     "file://musl.patch",
			overrides: []string{"libc-musl"},
		},
		{
			name:      "package-qualified runtime depends",
			line:      `RDEPENDS:${PN} = "libfoo"`,
			varName:   "RDEPENDS",
			op:        store.OpAssign,
			value:     "libfoo",
			overrides: []string{"${PN}"},
		},
		{
			name:    "single quoted value",
			line:    `SUMMARY = 'A tool'`,
			varName: "SUMMARY",
			op:      store.OpAssign,
			value:   "A tool",
		},
		{
			name:    "value containing equals sign",
			line:    `EXTRA_OECONF = "--with-ssl=openssl"`,
			varName: "EXTRA_OECONF",
			op:      store.OpAssign,
			value:   "--with-ssl=openssl",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := singleAssignment(t, tc.line)
			assert.Equal(t, tc.varName, a.Name)
			assert.Equal(t, tc.op, a.Op)
			assert.Equal(t, tc.value, a.Value)
			assert.Equal(t, tc.overrides, a.Overrides)
		})
	}
}

func TestParseContinuationLines(t *testing.T) {
	text := "DEPENDS = \"foo \\\n\tbar \\\n\tbaz\"\nPN = \"x\"\n"
	f := Parse(text, nil)
	require.Len(t, f.Statements, 2)

	a := f.Statements[0].(Assignment)
	assert.Equal(t, "DEPENDS", a.Name)
	assert.Contains(t, a.Value, "foo")
	assert.Contains(t, a.Value, "bar")
	assert.Contains(t, a.Value, "baz")
	assert.Equal(t, 1, a.Line, "joined statement keeps the first physical line number")

	assert.Equal(t, 4, f.Statements[1].(Assignment).Line)
}

func TestParseSkipsFunctionBodies(t *testing.T) {
	text := `
DEPENDS = "foo"

do_install() {
    install -d ${D}${bindir}
    NOT_A_VAR = "inside shell"
}

python do_configure:prepend() {
    d.setVar('X', 'y')
}

fakeroot do_package() {
    true
}

def get_dep(d):
    if d.getVar('X'):
        return 'yes'
    return 'no'

RDEPENDS:${PN} = "bar"
`
	f := Parse(text, nil)
	require.Len(t, f.Statements, 2)
	assert.Equal(t, "DEPENDS", f.Statements[0].(Assignment).Name)
	assert.Equal(t, "RDEPENDS", f.Statements[1].(Assignment).Name)
}

func TestParseDirectives(t *testing.T) {
	text := `
inherit autotools pkgconfig
include optional.inc
require ${BPN}-common.inc
addtask do_deploy after do_install before do_build
deltask do_fetch
do_compile[depends] = "gettext-native:do_populate_sysroot"
unset BAD_VAR
EXPORT_FUNCTIONS do_install
`
	var diags recipe.Diagnostics
	f := Parse(text, &diags)
	require.Len(t, f.Statements, 6)
	assert.Empty(t, diags.Items())

	inherit := f.Statements[0].(Inherit)
	assert.Equal(t, []string{"autotools", "pkgconfig"}, inherit.Classes)

	include := f.Statements[1].(Include)
	assert.Equal(t, "optional.inc", include.Path)
	assert.False(t, include.Required)

	req := f.Statements[2].(Include)
	assert.Equal(t, "${BPN}-common.inc", req.Path)
	assert.True(t, req.Required)

	addtask := f.Statements[3].(AddTask)
	assert.Equal(t, "deploy", addtask.Task)
	assert.Equal(t, []string{"install"}, addtask.After)
	assert.Equal(t, []string{"build"}, addtask.Before)

	deltask := f.Statements[4].(DelTask)
	assert.Equal(t, "fetch", deltask.Task)

	flag := f.Statements[5].(VarFlag)
	assert.Equal(t, "do_compile", flag.Name)
	assert.Equal(t, "depends", flag.Flag)
	assert.Equal(t, "gettext-native:do_populate_sysroot", flag.Value)
}

func TestParseCommentsAndBlanks(t *testing.T) {
	text := "# a comment\n\n   \nDEPENDS = \"foo\"\n# DEPENDS = \"commented out\"\n"
	f := Parse(text, nil)
	require.Len(t, f.Statements, 1)
}

func TestParseMalformedStatements(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{name: "no operand", line: `DEPENDS =`},
		{name: "unterminated quote", line: `DEPENDS = "foo`},
		{name: "no variable name", line: `= "foo"`},
		{name: "empty override qualifier", line: `DEPENDS: = "foo"`},
		{name: "addtask without task", line: `addtask`},
		{name: "deltask without task", line: `deltask`},
		{name: "not a statement", line: `random words here`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var diags recipe.Diagnostics
			f := Parse(tc.line, &diags)
			assert.Empty(t, f.Statements)
			assert.True(t, diags.HasKind(recipe.DiagMalformedStatement))
		})
	}
}

func TestParsePackageConfigDeclaration(t *testing.T) {
	f := Parse(`PACKAGECONFIG[ssl] = "--with-ssl,--without-ssl,openssl,libssl"`, nil)
	require.Len(t, f.Statements, 1)
	flag := f.Statements[0].(VarFlag)
	assert.Equal(t, "PACKAGECONFIG", flag.Name)
	assert.Equal(t, "ssl", flag.Flag)
	assert.Equal(t, "--with-ssl,--without-ssl,openssl,libssl", flag.Value)
}
