package classfile

import (
	"fmt"
	"os"
)

// Encode writes cf in the binary format. A zero version is replaced by the
// default for the kind of class file, and a zero magic by the standard one.
// Remainder is appended verbatim.
func Encode(cf *ClassFile) ([]byte, error) {
	w := NewWriter()
	magic := cf.Magic
	if magic == 0 {
		magic = Magic
	}
	v := cf.Version()
	if v.IsZero() {
		v = DefaultVersion(cf.IsModule())
	}
	w.U4(magic)
	w.U2(v.Minor)
	w.U2(v.Major)

	cp := cf.ConstantPool
	if cp == nil {
		cp = NewConstantPool()
	}
	cp.encode(w)

	w.U2(uint16(cf.AccessFlags))
	w.U2(cf.ThisClass)
	w.U2(cf.SuperClass)
	writeU2List(w, "interfaces", cf.Interfaces)

	w.Count16("fields", len(cf.Fields))
	for i := range cf.Fields {
		f := &cf.Fields[i]
		w.U2(uint16(f.AccessFlags))
		w.U2(f.NameIndex)
		w.U2(f.DescriptorIndex)
		writeAttributes(w, f.Attributes)
	}
	w.Count16("methods", len(cf.Methods))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		w.U2(uint16(m.AccessFlags))
		w.U2(m.NameIndex)
		w.U2(m.DescriptorIndex)
		writeAttributes(w, m.Attributes)
	}
	writeAttributes(w, cf.Attributes)
	w.Raw(cf.Remainder)

	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encode class file: %w", err)
	}
	return w.Bytes(), nil
}

// EncodeAttribute returns the payload bytes of a single attribute, without
// its name index and length, including any trailing bytes.
func EncodeAttribute(a *AttributeInfo) ([]byte, error) {
	w := NewWriter()
	writeAttributeBody(w, a.Parsed)
	w.Raw(a.Trailing)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encode attribute: %w", err)
	}
	return w.Bytes(), nil
}

// WriteFile encodes cf into the file at path.
func WriteFile(path string, cf *ClassFile) error {
	data, err := Encode(cf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write class file: %w", err)
	}
	return nil
}
