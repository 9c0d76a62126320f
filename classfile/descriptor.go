package classfile

import "strings"

// Type is a node of a parsed descriptor or signature.
type Type interface {
	// Descriptor renders the compact form the type was parsed from.
	Descriptor() string
	// String renders the type the way it is written in source.
	String() string
}

// BaseType is a primitive type or void, identified by its descriptor letter.
type BaseType byte

const (
	Byte    BaseType = 'B'
	Char    BaseType = 'C'
	Double  BaseType = 'D'
	Float   BaseType = 'F'
	Int     BaseType = 'I'
	Long    BaseType = 'J'
	Short   BaseType = 'S'
	Boolean BaseType = 'Z'
	Void    BaseType = 'V'
)

func (b BaseType) Descriptor() string { return string(rune(b)) }

func (b BaseType) String() string {
	switch b {
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Double:
		return "double"
	case Float:
		return "float"
	case Int:
		return "int"
	case Long:
		return "long"
	case Short:
		return "short"
	case Boolean:
		return "boolean"
	case Void:
		return "void"
	}
	return "?"
}

// Slots returns the number of local variable slots a value takes.
func (b BaseType) Slots() int {
	switch b {
	case Long, Double:
		return 2
	case Void:
		return 0
	}
	return 1
}

type ArrayType struct {
	Dims int
	Elem Type
}

func (a *ArrayType) Descriptor() string {
	return strings.Repeat("[", a.Dims) + a.Elem.Descriptor()
}

func (a *ArrayType) String() string {
	return a.Elem.String() + strings.Repeat("[]", a.Dims)
}

// ClassType is a class reference. Nested segments of a generic signature
// (Outer<T>.Inner) are linked through Outer, innermost last.
type ClassType struct {
	Name     string
	TypeArgs []TypeArgument
	Outer    *ClassType
}

func (c *ClassType) Descriptor() string {
	return "L" + c.body() + ";"
}

func (c *ClassType) body() string {
	var sb strings.Builder
	if c.Outer != nil {
		sb.WriteString(c.Outer.body())
		sb.WriteByte('.')
	}
	sb.WriteString(c.Name)
	if len(c.TypeArgs) > 0 {
		sb.WriteByte('<')
		for _, a := range c.TypeArgs {
			sb.WriteString(a.Descriptor())
		}
		sb.WriteByte('>')
	}
	return sb.String()
}

func (c *ClassType) String() string {
	var sb strings.Builder
	if c.Outer != nil {
		sb.WriteString(c.Outer.String())
		sb.WriteByte('.')
	}
	sb.WriteString(InternalToSourceName(c.Name))
	if len(c.TypeArgs) > 0 {
		sb.WriteByte('<')
		for i, a := range c.TypeArgs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	return sb.String()
}

// InternalName joins the enclosing chain with '$' and drops type arguments.
func (c *ClassType) InternalName() string {
	if c.Outer != nil {
		return c.Outer.InternalName() + "$" + c.Name
	}
	return c.Name
}

type TypeVariable struct {
	Name string
}

func (v *TypeVariable) Descriptor() string { return "T" + v.Name + ";" }

func (v *TypeVariable) String() string { return v.Name }

type WildcardKind int

const (
	WildcardNone WildcardKind = iota
	WildcardUnbounded
	WildcardExtends
	WildcardSuper
)

// TypeArgument is one entry of a generic argument list.
type TypeArgument struct {
	Wildcard WildcardKind
	Type     Type
}

func (a TypeArgument) Descriptor() string {
	switch a.Wildcard {
	case WildcardUnbounded:
		return "*"
	case WildcardExtends:
		return "+" + a.Type.Descriptor()
	case WildcardSuper:
		return "-" + a.Type.Descriptor()
	}
	return a.Type.Descriptor()
}

func (a TypeArgument) String() string {
	switch a.Wildcard {
	case WildcardUnbounded:
		return "?"
	case WildcardExtends:
		return "? extends " + a.Type.String()
	case WildcardSuper:
		return "? super " + a.Type.String()
	}
	return a.Type.String()
}

type TypeParameter struct {
	Name            string
	ClassBound      Type
	InterfaceBounds []Type
}

func (p TypeParameter) Descriptor() string {
	var sb strings.Builder
	sb.WriteString(p.Name)
	sb.WriteByte(':')
	if p.ClassBound != nil {
		sb.WriteString(p.ClassBound.Descriptor())
	}
	for _, b := range p.InterfaceBounds {
		sb.WriteByte(':')
		sb.WriteString(b.Descriptor())
	}
	return sb.String()
}

func (p TypeParameter) String() string {
	var bounds []string
	if p.ClassBound != nil {
		bounds = append(bounds, p.ClassBound.String())
	}
	for _, b := range p.InterfaceBounds {
		bounds = append(bounds, b.String())
	}
	if len(bounds) == 0 {
		return p.Name
	}
	return p.Name + " extends " + strings.Join(bounds, " & ")
}

func typeParamsDescriptor(params []TypeParameter) string {
	if len(params) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('<')
	for _, p := range params {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte('>')
	return sb.String()
}

func typeParamsString(params []TypeParameter) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// MethodType is a parsed method descriptor or method signature.
// ParamCount and ParamSlots are filled in while parsing.
type MethodType struct {
	TypeParams []TypeParameter
	Params     []Type
	Return     Type
	Throws     []Type
	ParamCount int
	ParamSlots int
}

func (m *MethodType) Descriptor() string {
	var sb strings.Builder
	sb.WriteString(typeParamsDescriptor(m.TypeParams))
	sb.WriteByte('(')
	for _, p := range m.Params {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte(')')
	sb.WriteString(m.Return.Descriptor())
	for _, t := range m.Throws {
		sb.WriteByte('^')
		sb.WriteString(t.Descriptor())
	}
	return sb.String()
}

func (m *MethodType) String() string {
	var sb strings.Builder
	if tp := typeParamsString(m.TypeParams); tp != "" {
		sb.WriteString(tp)
		sb.WriteByte(' ')
	}
	sb.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") ")
	sb.WriteString(m.Return.String())
	if len(m.Throws) > 0 {
		sb.WriteString(" throws ")
		for i, t := range m.Throws {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.String())
		}
	}
	return sb.String()
}

// ReturnsVoid reports whether the method returns nothing.
func (m *MethodType) ReturnsVoid() bool {
	return m.Return == Void
}

// ClassSignature is the parsed Signature attribute of a class.
type ClassSignature struct {
	TypeParams []TypeParameter
	Super      *ClassType
	Interfaces []*ClassType
}

func (c *ClassSignature) Descriptor() string {
	var sb strings.Builder
	sb.WriteString(typeParamsDescriptor(c.TypeParams))
	sb.WriteString(c.Super.Descriptor())
	for _, i := range c.Interfaces {
		sb.WriteString(i.Descriptor())
	}
	return sb.String()
}

func (c *ClassSignature) String() string {
	var sb strings.Builder
	sb.WriteString(typeParamsString(c.TypeParams))
	sb.WriteString(" extends ")
	sb.WriteString(c.Super.String())
	if len(c.Interfaces) > 0 {
		sb.WriteString(" implements ")
		for i, t := range c.Interfaces {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.String())
		}
	}
	return strings.TrimSpace(sb.String())
}

func InternalToSourceName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

func SourceToInternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
