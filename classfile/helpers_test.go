package classfile

import (
	"strings"
	"testing"
)

// newTestClass returns a minimal public class extending java/lang/Object.
func newTestClass(name string) *ClassFile {
	cp := NewConstantPool()
	cf := &ClassFile{
		MajorVersion: 52,
		ConstantPool: cp,
		AccessFlags:  AccPublic | AccSuper,
	}
	cf.ThisClass = cp.AddClass(name)
	cf.SuperClass = cp.AddClass("java/lang/Object")
	return cf
}

// rawAttr builds an attribute whose payload is written verbatim.
func rawAttr(cp *ConstantPool, name string, payload []byte) AttributeInfo {
	return AttributeInfo{NameIndex: cp.AddUtf8(name), Parsed: &RawAttribute{Data: payload}}
}

func parsedAttr(cp *ConstantPool, a Attribute) AttributeInfo {
	return AttributeInfo{NameIndex: cp.AddUtf8(a.Kind().String()), Parsed: a}
}

func payload(fn func(w *Writer)) []byte {
	w := NewWriter()
	fn(w)
	return w.Bytes()
}

func mustEncode(t *testing.T, cf *ClassFile) []byte {
	t.Helper()
	data, err := Encode(cf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

func mustDecode(t *testing.T, data []byte, opts ...Option) *ClassFile {
	t.Helper()
	cf, err := Decode(data, opts...)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return cf
}

// findDiagnostic returns the first diagnostic whose message contains substr.
func findDiagnostic(ds Diagnostics, substr string) (Diagnostic, bool) {
	for _, d := range ds {
		if strings.Contains(d.Message, substr) {
			return d, true
		}
	}
	return Diagnostic{}, false
}

// testDecoder returns a session positioned at the start of data.
func testDecoder(data []byte, opts ...Option) *decoder {
	return newDecoder(data, opts)
}
