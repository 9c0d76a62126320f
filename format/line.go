package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/classkit/classfile"
)

// LineEncoder writes one tab-separated line per entity. Pool adds the
// constant pool entries and Frames adds the stack map listing of every
// method.
type LineEncoder struct {
	w      io.Writer
	class  *classfile.ClassFile
	Pool   bool
	Frames bool
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	c := e.class
	cp := c.ConstantPool
	variant := c.Variant()

	fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", classKind(c), c.ClassName(), c.Version(),
		modifiersStr(c.AccessFlags, classfile.ContextClass, variant))
	if super := c.SuperClassName(); super != "" {
		fmt.Fprintf(&sb, "super\t%s\n", super)
	}
	for _, name := range c.InterfaceNames() {
		fmt.Fprintf(&sb, "interface\t%s\n", name)
	}

	if e.Pool {
		cp.Walk(func(index uint16, _ classfile.ConstantPoolEntry) {
			fmt.Fprintf(&sb, "#%d\t%s\n", index, cp.Display(index))
		})
	}

	for i := range c.Fields {
		f := &c.Fields[i]
		fmt.Fprintf(&sb, "field\t%s\t%s\t%s\n",
			f.Name(cp),
			fieldTypeStr(f, cp),
			modifiersStr(f.AccessFlags, classfile.ContextField, variant),
		)
	}

	for i := range c.Methods {
		m := &c.Methods[i]
		fmt.Fprintf(&sb, "method\t%s\t%s\t%s\n",
			m.Name(cp),
			methodTypeStr(m, cp),
			modifiersStr(m.AccessFlags, classfile.ContextMethod, variant),
		)
		if e.Frames {
			for _, line := range classfile.FrameListing(m.StackMapFrames(cp), cp) {
				fmt.Fprintf(&sb, "\tframe\t%s\n", line)
			}
		}
	}

	for i := range c.Attributes {
		a := &c.Attributes[i]
		data, err := classfile.EncodeAttribute(a)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "attribute\t%s\t%d\t%s\n", attributeName(a, cp), len(data), attributeState(a))
	}

	for _, d := range c.Diagnostics {
		fmt.Fprintf(&sb, "diagnostic\t%s\n", d)
	}

	return []byte(sb.String()), nil
}

func classKind(c *classfile.ClassFile) string {
	switch {
	case c.IsAnnotation():
		return "annotation"
	case c.IsEnum():
		return "enum"
	case c.IsInterface():
		return "interface"
	case c.IsModule():
		return "module"
	case c.GetAttribute("Record") != nil:
		return "record"
	default:
		return "class"
	}
}

func modifiersStr(flags classfile.AccessFlags, ctx classfile.Context, variant classfile.Variant) string {
	mods := classfile.Render(flags, ctx, variant)
	if len(mods) == 0 {
		return "-"
	}
	return strings.Join(mods, ",")
}

// fieldTypeStr falls back to the raw descriptor when it does not parse.
func fieldTypeStr(f *classfile.FieldInfo, cp *classfile.ConstantPool) string {
	t, err := f.ParsedDescriptor(cp)
	if err != nil {
		return f.Descriptor(cp)
	}
	return t.String()
}

func methodTypeStr(m *classfile.MethodInfo, cp *classfile.ConstantPool) string {
	t, err := m.ParsedDescriptor(cp)
	if err != nil {
		return m.Descriptor(cp)
	}
	return t.String()
}

func attributeName(a *classfile.AttributeInfo, cp *classfile.ConstantPool) string {
	if name := a.Name(cp); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", a.NameIndex)
}

func attributeState(a *classfile.AttributeInfo) string {
	switch {
	case a.IsRaw():
		return "raw"
	case len(a.Trailing) > 0:
		return "trailing"
	default:
		return "ok"
	}
}
