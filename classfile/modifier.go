package classfile

import "fmt"

// Context names the kind of entity an access_flags value belongs to. The
// same bit means different things in different contexts.
type Context int

const (
	ContextClass Context = iota
	ContextInnerClass
	ContextField
	ContextMethod
	ContextModule
	ContextRequires
	ContextExports
	ContextOpens
	ContextMethodParameters
)

var contextNames = [...]string{
	ContextClass:            "class",
	ContextInnerClass:       "inner-class",
	ContextField:            "field",
	ContextMethod:           "method",
	ContextModule:           "module",
	ContextRequires:         "requires",
	ContextExports:          "exports",
	ContextOpens:            "opens",
	ContextMethodParameters: "method-parameters",
}

func (c Context) String() string {
	if c >= 0 && int(c) < len(contextNames) {
		return contextNames[c]
	}
	return fmt.Sprintf("context(%d)", int(c))
}

// ParseContext maps a context name back to its value.
func ParseContext(s string) (Context, error) {
	for i, name := range contextNames {
		if name == s {
			return Context(i), nil
		}
	}
	return 0, fmt.Errorf("unknown flags context %q", s)
}

// Modifier is one access flag meaning.
type Modifier struct {
	Bit     AccessFlags
	Keyword string
	Name    string
}

var (
	modPublic       = Modifier{AccPublic, "public", "ACC_PUBLIC"}
	modPrivate      = Modifier{AccPrivate, "private", "ACC_PRIVATE"}
	modProtected    = Modifier{AccProtected, "protected", "ACC_PROTECTED"}
	modStatic       = Modifier{AccStatic, "static", "ACC_STATIC"}
	modFinal        = Modifier{AccFinal, "final", "ACC_FINAL"}
	modSuper        = Modifier{AccSuper, "super", "ACC_SUPER"}
	modIdentity     = Modifier{AccIdentity, "identity", "ACC_IDENTITY"}
	modSynchronized = Modifier{AccSynchronized, "synchronized", "ACC_SYNCHRONIZED"}
	modTransitive   = Modifier{AccTransitive, "transitive", "ACC_TRANSITIVE"}
	modOpen         = Modifier{AccOpen, "open", "ACC_OPEN"}
	modVolatile     = Modifier{AccVolatile, "volatile", "ACC_VOLATILE"}
	modBridge       = Modifier{AccBridge, "bridge", "ACC_BRIDGE"}
	modStaticPhase  = Modifier{AccStaticPhase, "static", "ACC_STATIC_PHASE"}
	modTransient    = Modifier{AccTransient, "transient", "ACC_TRANSIENT"}
	modVarargs      = Modifier{AccVarargs, "varargs", "ACC_VARARGS"}
	modNative       = Modifier{AccNative, "native", "ACC_NATIVE"}
	modInterface    = Modifier{AccInterface, "interface", "ACC_INTERFACE"}
	modAbstract     = Modifier{AccAbstract, "abstract", "ACC_ABSTRACT"}
	modStrict       = Modifier{AccStrict, "strict", "ACC_STRICT"}
	modStrictInit   = Modifier{AccStrict, "strict", "ACC_STRICT_INIT"}
	modSynthetic    = Modifier{AccSynthetic, "synthetic", "ACC_SYNTHETIC"}
	modAnnotation   = Modifier{AccAnnotation, "annotation", "ACC_ANNOTATION"}
	modEnum         = Modifier{AccEnum, "enum", "ACC_ENUM"}
	modModule       = Modifier{AccModule, "module", "ACC_MODULE"}
	modMandated     = Modifier{AccMandated, "mandated", "ACC_MANDATED"}
)

// modifierBits lists every bit in rendering order.
var modifierBits = [...]AccessFlags{
	0x0001, 0x0002, 0x0004, 0x0008, 0x0010, 0x0020, 0x0040, 0x0080,
	0x0100, 0x0200, 0x0400, 0x0800, 0x1000, 0x2000, 0x4000, 0x8000,
}

// plainModifiers are bits whose meaning does not depend on the context.
var plainModifiers = map[AccessFlags]Modifier{
	AccPublic:     modPublic,
	AccPrivate:    modPrivate,
	AccProtected:  modProtected,
	AccStatic:     modStatic,
	AccFinal:      modFinal,
	AccNative:     modNative,
	AccInterface:  modInterface,
	AccAbstract:   modAbstract,
	AccSynthetic:  modSynthetic,
	AccAnnotation: modAnnotation,
	AccEnum:       modEnum,
}

// LookupModifier returns the meaning of a single bit in ctx. Overloaded
// bits are routed by context first; ok is false when the bit has no
// meaning there.
func LookupModifier(bit AccessFlags, ctx Context, variant Variant) (Modifier, bool) {
	switch bit {
	case 0x0020:
		switch ctx {
		case ContextClass, ContextInnerClass:
			if variant == VariantValueObjects {
				return modIdentity, true
			}
			if ctx == ContextClass {
				return modSuper, true
			}
		case ContextMethod:
			return modSynchronized, true
		case ContextRequires:
			return modTransitive, true
		case ContextModule:
			return modOpen, true
		}
		return Modifier{}, false
	case 0x0040:
		switch ctx {
		case ContextField:
			return modVolatile, true
		case ContextMethod:
			return modBridge, true
		case ContextRequires:
			return modStaticPhase, true
		}
		return Modifier{}, false
	case 0x0080:
		switch ctx {
		case ContextField:
			return modTransient, true
		case ContextMethod:
			return modVarargs, true
		}
		return Modifier{}, false
	case 0x0800:
		switch ctx {
		case ContextMethod:
			return modStrict, true
		case ContextField:
			if variant == VariantValueObjects {
				return modStrictInit, true
			}
		}
		return Modifier{}, false
	case 0x8000:
		switch ctx {
		case ContextClass:
			return modModule, true
		case ContextModule, ContextRequires, ContextExports, ContextOpens, ContextMethodParameters:
			return modMandated, true
		}
		return Modifier{}, false
	}
	m, ok := plainModifiers[bit]
	return m, ok
}

// Render returns the keywords for flags in ctx, in bit order. Bits with no
// meaning in ctx are appended as a single hex residue.
func Render(flags AccessFlags, ctx Context, variant Variant) []string {
	return render(flags, ctx, variant, func(m Modifier) string { return m.Keyword })
}

// Names is Render with ACC_* names.
func Names(flags AccessFlags, ctx Context, variant Variant) []string {
	return render(flags, ctx, variant, func(m Modifier) string { return m.Name })
}

func render(flags AccessFlags, ctx Context, variant Variant, pick func(Modifier) string) []string {
	var out []string
	rest := flags
	for _, bit := range modifierBits {
		if rest&bit == 0 {
			continue
		}
		m, ok := LookupModifier(bit, ctx, variant)
		if !ok {
			continue
		}
		out = append(out, pick(m))
		rest &^= bit
	}
	if rest != 0 {
		out = append(out, fmt.Sprintf("0x%04x", uint16(rest)))
	}
	return out
}

// LegalFlags returns the mask of bits that may appear in ctx.
func LegalFlags(ctx Context, variant Variant) AccessFlags {
	var mask AccessFlags
	switch ctx {
	case ContextClass:
		mask = AccPublic | AccFinal | AccSuper | AccInterface | AccAbstract | AccSynthetic | AccAnnotation | AccEnum | AccModule
	case ContextInnerClass:
		mask = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal | AccInterface | AccAbstract | AccSynthetic | AccAnnotation | AccEnum
		if variant == VariantValueObjects {
			mask |= AccIdentity
		}
	case ContextField:
		mask = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal | AccVolatile | AccTransient | AccSynthetic | AccEnum
		if variant == VariantValueObjects {
			mask |= AccStrict
		}
	case ContextMethod:
		mask = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal | AccSynchronized | AccBridge | AccVarargs | AccNative | AccAbstract | AccStrict | AccSynthetic
	case ContextModule:
		mask = AccOpen | AccSynthetic | AccMandated
	case ContextRequires:
		mask = AccTransitive | AccStaticPhase | AccSynthetic | AccMandated
	case ContextExports, ContextOpens:
		mask = AccSynthetic | AccMandated
	case ContextMethodParameters:
		mask = AccFinal | AccSynthetic | AccMandated
	}
	return mask
}

// Illegal returns the bits of flags that are not allowed in ctx. flags is
// not modified.
func Illegal(flags AccessFlags, ctx Context, variant Variant) AccessFlags {
	return flags &^ LegalFlags(ctx, variant)
}

// ModifierSet is an access_flags value together with the context it is
// interpreted in.
type ModifierSet struct {
	Flags   AccessFlags
	Context Context
}

func (s ModifierSet) Keywords(variant Variant) []string { return Render(s.Flags, s.Context, variant) }

func (s ModifierSet) Names(variant Variant) []string { return Names(s.Flags, s.Context, variant) }

func (s ModifierSet) Illegal(variant Variant) AccessFlags { return Illegal(s.Flags, s.Context, variant) }
