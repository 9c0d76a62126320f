package classfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sampleClass builds a small class with fields, constructors, methods and
// a SourceFile attribute as the last record.
func sampleClass() *ClassFile {
	cf := newTestClass("testdata/TestClass")
	cp := cf.ConstantPool
	cf.Interfaces = []uint16{cp.AddClass("java/lang/Runnable")}

	field := func(flags AccessFlags, name, desc string, attrs ...AttributeInfo) {
		cf.Fields = append(cf.Fields, FieldInfo{
			AccessFlags:     flags,
			NameIndex:       cp.AddUtf8(name),
			DescriptorIndex: cp.AddUtf8(desc),
			Attributes:      attrs,
		})
	}
	method := func(flags AccessFlags, name, desc string, maxStack, maxLocals uint16, code ...byte) {
		cf.Methods = append(cf.Methods, MethodInfo{
			AccessFlags:     flags,
			NameIndex:       cp.AddUtf8(name),
			DescriptorIndex: cp.AddUtf8(desc),
			Attributes: []AttributeInfo{parsedAttr(cp, &CodeAttribute{
				MaxStack:  maxStack,
				MaxLocals: maxLocals,
				Code:      code,
			})},
		})
	}

	field(AccPublic|AccStatic|AccFinal, "CONSTANT_VALUE", "I",
		parsedAttr(cp, &ConstantValueAttribute{ConstantValueIndex: cp.Add(&ConstantIntegerInfo{Value: 42})}))
	field(AccPrivate, "name", "Ljava/lang/String;")
	field(AccProtected, "count", "I")

	method(AccPublic, "<init>", "()V", 1, 1, 0x2A, 0xB7, 0x00, 0x01, 0xB1)
	method(AccPublic, "<init>", "(Ljava/lang/String;)V", 2, 2, 0x2A, 0xB7, 0x00, 0x01, 0xB1)
	method(AccPublic, "getName", "()Ljava/lang/String;", 1, 1, 0x2A, 0xB4, 0x00, 0x02, 0xB0)
	method(AccPublic, "setName", "(Ljava/lang/String;)V", 2, 2, 0xB1)
	method(AccPrivate|AccStatic, "helper", "(II)I", 2, 2, 0x1A, 0x1B, 0x60, 0xAC)
	method(AccPublic, "run", "()V", 0, 1, 0xB1)

	cf.Attributes = []AttributeInfo{parsedAttr(cp, &SourceFileAttribute{SourceFileIndex: cp.AddUtf8("TestClass.java")})}
	return cf
}

func sampleBytes(t *testing.T) []byte {
	t.Helper()
	return mustEncode(t, sampleClass())
}

func TestParseClassFile(t *testing.T) {
	cf, err := Parse(bytes.NewReader(sampleBytes(t)))
	if err != nil {
		t.Fatalf("Failed to parse class file: %v", err)
	}

	t.Run("class name", func(t *testing.T) {
		expected := "testdata/TestClass"
		if got := cf.ClassName(); got != expected {
			t.Errorf("ClassName() = %q, want %q", got, expected)
		}
	})

	t.Run("super class", func(t *testing.T) {
		expected := "java/lang/Object"
		if got := cf.SuperClassName(); got != expected {
			t.Errorf("SuperClassName() = %q, want %q", got, expected)
		}
	})

	t.Run("interfaces", func(t *testing.T) {
		interfaces := cf.InterfaceNames()
		if len(interfaces) != 1 {
			t.Fatalf("Expected 1 interface, got %d", len(interfaces))
		}
		if interfaces[0] != "java/lang/Runnable" {
			t.Errorf("Interface[0] = %q, want %q", interfaces[0], "java/lang/Runnable")
		}
	})

	t.Run("is class", func(t *testing.T) {
		if !cf.IsClass() {
			t.Error("Expected IsClass() to be true")
		}
		if cf.IsInterface() || cf.IsModule() {
			t.Error("Expected IsInterface() and IsModule() to be false")
		}
	})

	t.Run("version", func(t *testing.T) {
		if got := cf.Version(); got != (Version{52, 0}) {
			t.Errorf("Version() = %s, want 52.0", got)
		}
		if cf.Variant() != VariantOrdinary {
			t.Errorf("Variant() = %s, want ordinary", cf.Variant())
		}
	})

	t.Run("fields", func(t *testing.T) {
		if len(cf.Fields) != 3 {
			t.Fatalf("Expected 3 fields, got %d", len(cf.Fields))
		}
		constantValue := cf.GetField("CONSTANT_VALUE")
		if constantValue == nil {
			t.Fatal("Expected to find CONSTANT_VALUE field")
		}
		if !constantValue.IsPublic() || !constantValue.IsStatic() || !constantValue.IsFinal() {
			t.Error("CONSTANT_VALUE should be public static final")
		}
		cv := constantValue.ConstantValue(cf.ConstantPool)
		if cv == nil {
			t.Fatal("Expected CONSTANT_VALUE to have a ConstantValue attribute")
		}
		if v, err := cf.ConstantPool.Integer(cv.ConstantValueIndex); err != nil || v != 42 {
			t.Errorf("constant value = %d, %v, want 42", v, err)
		}

		nameField := cf.GetField("name")
		if nameField == nil || !nameField.IsPrivate() {
			t.Fatal("Expected a private name field")
		}
		typ, err := nameField.ParsedDescriptor(cf.ConstantPool)
		if err != nil || typ.String() != "java.lang.String" {
			t.Errorf("ParsedDescriptor() = %v, %v", typ, err)
		}

		if countField := cf.GetField("count"); countField == nil || !countField.IsProtected() {
			t.Error("Expected a protected count field")
		}
	})

	t.Run("methods", func(t *testing.T) {
		constructors := cf.GetMethods("<init>")
		if len(constructors) != 2 {
			t.Fatalf("Expected 2 constructors, got %d", len(constructors))
		}
		if !constructors[0].IsConstructor(cf.ConstantPool) {
			t.Error("IsConstructor() = false for <init>")
		}
		helper := cf.GetMethod("helper", "(II)I")
		if helper == nil {
			t.Fatal("Expected to find helper method")
		}
		if !helper.IsPrivate() || !helper.IsStatic() {
			t.Error("helper should be private static")
		}
		mt, err := helper.ParsedDescriptor(cf.ConstantPool)
		if err != nil || mt.ParamCount != 2 || mt.Return.String() != "int" {
			t.Errorf("ParsedDescriptor() = %v, %v", mt, err)
		}
		if cf.GetMethod("run", "()V") == nil {
			t.Error("Expected to find run method")
		}
		if cf.GetMethod("run", "(I)V") != nil {
			t.Error("GetMethod matched the wrong descriptor")
		}
	})

	t.Run("method code attribute", func(t *testing.T) {
		getName := cf.GetMethod("getName", "()Ljava/lang/String;")
		if getName == nil {
			t.Fatal("Expected to find getName method")
		}
		code := getName.GetCodeAttribute(cf.ConstantPool)
		if code == nil {
			t.Fatal("Expected getName to have Code attribute")
		}
		if code.MaxStack != 1 || code.MaxLocals != 1 {
			t.Errorf("MaxStack, MaxLocals = %d, %d, want 1, 1", code.MaxStack, code.MaxLocals)
		}
		if len(code.Code) != 5 {
			t.Errorf("len(Code) = %d, want 5", len(code.Code))
		}
	})

	t.Run("source file", func(t *testing.T) {
		attr := cf.GetAttribute("SourceFile")
		if attr == nil {
			t.Fatal("Expected a SourceFile attribute")
		}
		if got := cf.ConstantPool.GetUtf8(attr.AsSourceFile().SourceFileIndex); got != "TestClass.java" {
			t.Errorf("SourceFile = %q, want %q", got, "TestClass.java")
		}
	})

	t.Run("no diagnostics", func(t *testing.T) {
		if len(cf.Diagnostics) != 0 {
			t.Errorf("Diagnostics = %v, want none", cf.Diagnostics)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	data := sampleBytes(t)
	cf := mustDecode(t, data)
	if again := mustEncode(t, cf); !bytes.Equal(again, data) {
		t.Errorf("encode(decode(b)) differs from b:\n got %x\nwant %x", again, data)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TestClass.class")
	if err := WriteFile(path, sampleClass()); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	cf, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile error = %v", err)
	}
	if cf.ClassName() != "testdata/TestClass" {
		t.Errorf("ClassName() = %q", cf.ClassName())
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.class")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestWrongMagic(t *testing.T) {
	cf := sampleClass()
	cf.Magic = 0xDEADBEEF
	decoded := mustDecode(t, mustEncode(t, cf))
	diag, ok := findDiagnostic(decoded.Diagnostics, "wrong magic 0xDEADBEEF, want 0xCAFEBABE")
	if !ok {
		t.Fatalf("missing magic diagnostic in %v", decoded.Diagnostics)
	}
	if diag.Offset != 0 || diag.Severity != SeverityWarning {
		t.Errorf("diagnostic = %v, want a warning at offset 0", diag)
	}
	if decoded.ClassName() != "testdata/TestClass" {
		t.Error("decoding did not go on after a wrong magic")
	}
}

func TestUnknownConstantTagIsFatal(t *testing.T) {
	data := []byte{
		0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52,
		0, 3,
		byte(ConstantUtf8), 0, 1, 'A',
		99, 0xDE, 0xAD,
	}
	cf, err := Decode(data)
	if !errors.Is(err, ErrFatal) {
		t.Fatalf("Decode error = %v, want ErrFatal", err)
	}
	var ute *UnknownTagError
	if !errors.As(err, &ute) || ute.Tag != 99 || ute.Offset != 14 {
		t.Errorf("error = %v, want unknown tag 99 at offset 14", err)
	}
	if cf == nil || !cf.Fatal() {
		t.Fatal("Fatal() = false")
	}
	if got := cf.ConstantPool.GetUtf8(1); got != "A" {
		t.Errorf("partial pool #1 = %q, want A", got)
	}
	if !bytes.Equal(cf.Remainder, data[14:]) {
		t.Errorf("Remainder = %x, want %x", cf.Remainder, data[14:])
	}
	if d := cf.Diagnostics[len(cf.Diagnostics)-1]; d.Offset != 14 || d.Severity != SeverityFatal {
		t.Errorf("last diagnostic = %v, want fatal at offset 14", d)
	}
}

func TestTruncatedClassIsFatal(t *testing.T) {
	data := sampleBytes(t)
	cf, err := Decode(data[:len(data)-3])
	if !errors.Is(err, ErrFatal) || !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("Decode error = %v, want ErrFatal and ErrUnexpectedEnd", err)
	}
	if cf.Diagnostics.Worst() != SeverityFatal {
		t.Errorf("Worst() = %s, want fatal", cf.Diagnostics.Worst())
	}
	if len(cf.Methods) != 6 {
		t.Errorf("partial model has %d methods, want 6", len(cf.Methods))
	}

	if _, err := Decode(data[:5]); !errors.Is(err, ErrUnexpectedEnd) {
		t.Errorf("Decode(header only) error = %v, want ErrUnexpectedEnd", err)
	}
}

func TestTrailingBytesKept(t *testing.T) {
	data := append(sampleBytes(t), 1, 2, 3)
	cf := mustDecode(t, data)
	if _, ok := findDiagnostic(cf.Diagnostics, "3 bytes after the end of the class file"); !ok {
		t.Errorf("missing trailing bytes diagnostic in %v", cf.Diagnostics)
	}
	if !bytes.Equal(cf.Remainder, []byte{1, 2, 3}) {
		t.Errorf("Remainder = %x, want 010203", cf.Remainder)
	}
	if again := mustEncode(t, cf); !bytes.Equal(again, data) {
		t.Error("trailing bytes were not written back")
	}
}

func TestInvalidDescriptorWarns(t *testing.T) {
	cf := newTestClass("pkg/A")
	addMethod(cf, "bad", "(Q)V")
	data := mustEncode(t, cf)

	decoded := mustDecode(t, data)
	diag, ok := findDiagnostic(decoded.Diagnostics, `invalid descriptor/signature "(Q)V" at offset 1`)
	if !ok {
		t.Fatalf("missing descriptor diagnostic in %v", decoded.Diagnostics)
	}
	if diag.Severity != SeverityWarning {
		t.Errorf("Severity = %s, want warning", diag.Severity)
	}

	strict, err := Decode(data, WithStrict(true))
	if !errors.Is(err, ErrStrict) {
		t.Fatalf("strict Decode error = %v, want ErrStrict", err)
	}
	if errors.Is(err, ErrFatal) {
		t.Error("strict error should not be fatal")
	}
	if strict == nil || len(strict.Methods) != 1 {
		t.Error("strict Decode did not return the model")
	}
}

func TestIllegalClassFlagsWarn(t *testing.T) {
	cf := newTestClass("pkg/A")
	cf.AccessFlags |= AccPrivate
	decoded := mustDecode(t, mustEncode(t, cf))
	if _, ok := findDiagnostic(decoded.Diagnostics, "class flags 0x0023: illegal bits 0x0002"); !ok {
		t.Errorf("missing flags diagnostic in %v", decoded.Diagnostics)
	}
}

func TestBadThisClassWarns(t *testing.T) {
	cf := newTestClass("pkg/A")
	cf.ThisClass = cf.ConstantPool.AddUtf8("pkg/A")
	decoded := mustDecode(t, mustEncode(t, cf))
	if _, ok := findDiagnostic(decoded.Diagnostics, "this_class: wrong constant kind"); !ok {
		t.Errorf("missing this_class diagnostic in %v", decoded.Diagnostics)
	}
}

func TestFrozenVersionGate(t *testing.T) {
	data := sampleBytes(t)

	gate := NewVersionGate()
	gate.SetVersion(Version{50, 0})
	gate.Freeze()
	cf := mustDecode(t, data, WithVersionGate(gate))
	if gate.Current() != (Version{50, 0}) {
		t.Errorf("frozen gate moved to %s", gate.Current())
	}
	if cf.MajorVersion != 52 {
		t.Errorf("MajorVersion = %d, want 52", cf.MajorVersion)
	}

	open := NewVersionGate()
	mustDecode(t, data, WithVersionGate(open))
	if open.Current() != (Version{52, 0}) {
		t.Errorf("unfrozen gate = %s, want 52.0", open.Current())
	}
}

func TestEncodeDefaults(t *testing.T) {
	cf := newTestClass("pkg/A")
	cf.MajorVersion = 0
	data := mustEncode(t, cf)
	if !bytes.Equal(data[:8], []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 3, 0, 45}) {
		t.Errorf("header = %x, want cafebabe0003002d", data[:8])
	}

	mod := &ClassFile{ConstantPool: NewConstantPool(), AccessFlags: AccModule}
	mod.ThisClass = mod.ConstantPool.AddClass("module-info")
	data = mustEncode(t, mod)
	if !bytes.Equal(data[4:8], []byte{0, 0, 0, 53}) {
		t.Errorf("module version = %x, want 00000035", data[4:8])
	}
}

func TestVariantFollowsSession(t *testing.T) {
	cf := newTestClass("pkg/Value")
	cf.Fields = []FieldInfo{{
		AccessFlags:     AccPrivate | AccStrict,
		NameIndex:       cf.ConstantPool.AddUtf8("x"),
		DescriptorIndex: cf.ConstantPool.AddUtf8("I"),
	}}
	if cf.Variant() != VariantOrdinary {
		t.Errorf("built class Variant() = %s, want ordinary", cf.Variant())
	}
	data := mustEncode(t, cf)

	t.Run("file version", func(t *testing.T) {
		got := mustDecode(t, data)
		if got.Variant() != VariantOrdinary {
			t.Errorf("Variant() = %s, want ordinary", got.Variant())
		}
		if _, ok := findDiagnostic(got.Diagnostics, "field flags 0x0802: illegal bits 0x0800"); !ok {
			t.Errorf("missing illegal field flags warning: %v", got.Diagnostics)
		}
	})

	t.Run("frozen session version", func(t *testing.T) {
		gate := NewVersionGate()
		gate.SetVersion(ValueObjectsVersion)
		gate.Freeze()
		got := mustDecode(t, data, WithVersionGate(gate))
		if got.Variant() != VariantValueObjects {
			t.Errorf("Variant() = %s, want value-objects", got.Variant())
		}
		if got.MajorVersion != 52 {
			t.Errorf("MajorVersion = %d, want 52", got.MajorVersion)
		}
		if len(got.Diagnostics) != 0 {
			t.Errorf("Diagnostics = %v, want none", got.Diagnostics)
		}
		keywords := got.Fields[0].Modifiers().Keywords(got.Variant())
		if strings.Join(keywords, " ") != "private strict" {
			t.Errorf("Keywords() = %v, want [private strict]", keywords)
		}
	})
}
