package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/classkit/classfile"
)

// JSONEncoder writes the class as an indented JSON document. Pool adds
// the rendered constant pool.
type JSONEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
	Pool  bool
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data, err := e.buildClassData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

type jsonClass struct {
	Name        string            `json:"name"`
	SuperClass  string            `json:"superClass,omitempty"`
	Interfaces  []string          `json:"interfaces,omitempty"`
	Kind        string            `json:"kind"`
	Modifiers   []string          `json:"modifiers,omitempty"`
	Version     classfile.Version `json:"version"`
	Variant     string            `json:"variant"`
	Signature   string            `json:"signature,omitempty"`
	Pool        map[uint16]string `json:"constantPool,omitempty"`
	Fields      []jsonMember      `json:"fields,omitempty"`
	Methods     []jsonMember      `json:"methods,omitempty"`
	Attributes  []jsonAttribute   `json:"attributes,omitempty"`
	Diagnostics []jsonDiagnostic  `json:"diagnostics,omitempty"`
	Trailing    int               `json:"trailingBytes,omitempty"`
}

type jsonMember struct {
	Name       string          `json:"name"`
	Descriptor string          `json:"descriptor"`
	Type       string          `json:"type,omitempty"`
	Modifiers  []string        `json:"modifiers,omitempty"`
	Attributes []jsonAttribute `json:"attributes,omitempty"`
	Frames     []string        `json:"frames,omitempty"`
}

type jsonAttribute struct {
	Name     string `json:"name"`
	Length   int    `json:"length"`
	Raw      bool   `json:"raw,omitempty"`
	Trailing int    `json:"trailingBytes,omitempty"`
}

type jsonDiagnostic struct {
	Offset   int    `json:"offset"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func (e *JSONEncoder) buildClassData() (jsonClass, error) {
	c := e.class
	cp := c.ConstantPool
	variant := c.Variant()
	data := jsonClass{
		Name:       c.ClassName(),
		SuperClass: c.SuperClassName(),
		Interfaces: c.InterfaceNames(),
		Kind:       classKind(c),
		Modifiers:  classfile.Render(c.AccessFlags, classfile.ContextClass, variant),
		Version:    c.Version(),
		Variant:    variant.String(),
		Trailing:   len(c.Remainder),
	}
	if e.Pool {
		data.Pool = make(map[uint16]string)
		cp.Walk(func(index uint16, _ classfile.ConstantPoolEntry) {
			data.Pool[index] = cp.Display(index)
		})
	}
	if sig := c.GetAttribute("Signature").AsSignature(); sig != nil {
		if cs, err := classfile.ParseClassSignature(cp.GetUtf8(sig.SignatureIndex)); err == nil {
			data.Signature = cs.String()
		}
	}

	var err error
	if data.Attributes, err = buildAttributes(c.Attributes, cp); err != nil {
		return data, err
	}
	for i := range c.Fields {
		f := &c.Fields[i]
		member := jsonMember{
			Name:       f.Name(cp),
			Descriptor: f.Descriptor(cp),
			Modifiers:  classfile.Render(f.AccessFlags, classfile.ContextField, variant),
		}
		if t, err := f.ParsedDescriptor(cp); err == nil {
			member.Type = t.String()
		}
		if member.Attributes, err = buildAttributes(f.Attributes, cp); err != nil {
			return data, err
		}
		data.Fields = append(data.Fields, member)
	}
	for i := range c.Methods {
		m := &c.Methods[i]
		member := jsonMember{
			Name:       m.Name(cp),
			Descriptor: m.Descriptor(cp),
			Modifiers:  classfile.Render(m.AccessFlags, classfile.ContextMethod, variant),
			Frames:     classfile.FrameListing(m.StackMapFrames(cp), cp),
		}
		if t, err := m.ParsedDescriptor(cp); err == nil {
			member.Type = t.String()
		}
		if member.Attributes, err = buildAttributes(m.Attributes, cp); err != nil {
			return data, err
		}
		data.Methods = append(data.Methods, member)
	}
	for _, d := range c.Diagnostics {
		data.Diagnostics = append(data.Diagnostics, jsonDiagnostic{
			Offset:   d.Offset,
			Severity: d.Severity.String(),
			Message:  d.Message,
		})
	}
	return data, nil
}

func buildAttributes(attrs []classfile.AttributeInfo, cp *classfile.ConstantPool) ([]jsonAttribute, error) {
	result := make([]jsonAttribute, 0, len(attrs))
	for i := range attrs {
		a := &attrs[i]
		payload, err := classfile.EncodeAttribute(a)
		if err != nil {
			return nil, err
		}
		result = append(result, jsonAttribute{
			Name:     attributeName(a, cp),
			Length:   len(payload),
			Raw:      a.IsRaw(),
			Trailing: len(a.Trailing),
		})
	}
	return result, nil
}
