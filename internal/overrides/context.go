// Package overrides decides which override-suffixed variable variants are
// active for a build context and folds a recipe's operator history into
// effective values.
//
// # Inclusive union policy
//
// The point of static extraction is "what could this recipe possibly depend
// on", not "what does it depend on for exactly this target". Append and
// prepend operands are therefore always merged in, whatever their override
// tags; override-suffixed assignments merge additively instead of replacing
// the base. Remove is the one exclusionary operator: it only applies when
// its tags are confirmed active for at least one supplied context, so a
// remove that is conditional on some other target can never hide a
// dependency here.
package overrides

// Class kinds a build context can take.
const (
	ClassNative    = "native"
	ClassTarget    = "target"
	ClassNativeSDK = "nativesdk"
	ClassCross     = "cross"
)

// Libc kinds a build context can take.
const (
	LibcGlibc  = "glibc"
	LibcMusl   = "musl"
	LibcNewlib = "newlib"
)

// Context describes one target configuration. Zero values mean "none": a
// context with no class kind activates no class-* tag.
type Context struct {
	Class string
	Libc  string
	Arch  string
	// Extra holds free-form override tags (machine names, distro names).
	Extra []string
}

// archAliases maps override spellings to the canonical architecture string
// they select.
var archAliases = map[string]string{
	"x86-64":  "x86-64",
	"amd64":   "x86-64",
	"x86":     "x86",
	"arm":     "arm",
	"aarch64": "aarch64",
	"arm64":   "aarch64",
	"mips":    "mips",
	"powerpc": "powerpc",
	"riscv64": "riscv64",
}

// IsActive reports whether a single override tag is active for this
// context. It is a pure function of the tag and context: class-* tags match
// the class kind, libc-* tags match the libc kind, known architecture
// aliases match the arch string, and anything else matches the arch string
// or the extra-override set.
func (c Context) IsActive(tag string) bool {
	switch tag {
	case "class-native":
		return c.Class == ClassNative
	case "class-target":
		return c.Class == ClassTarget
	case "class-nativesdk":
		return c.Class == ClassNativeSDK
	case "class-cross":
		return c.Class == ClassCross
	case "libc-glibc":
		return c.Libc == LibcGlibc
	case "libc-musl":
		return c.Libc == LibcMusl
	case "libc-newlib":
		return c.Libc == LibcNewlib
	}
	if arch, known := archAliases[tag]; known {
		return c.Arch == arch
	}
	if tag == c.Arch && tag != "" {
		return true
	}
	for _, extra := range c.Extra {
		if extra == tag {
			return true
		}
	}
	return false
}

// allActive reports whether every tag is active for this context. A
// multi-tag suffix like VAR:append:qemuarm:arm requires all its qualifiers
// at once.
func (c Context) allActive(tags []string) bool {
	for _, tag := range tags {
		if !c.IsActive(tag) {
			return false
		}
	}
	return true
}
