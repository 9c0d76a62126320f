package classfile

import (
	"bytes"
	"testing"
)

// roundTrip encodes cf, decodes the result and checks that encoding the
// decoded model reproduces the same bytes.
func roundTrip(t *testing.T, cf *ClassFile, opts ...Option) *ClassFile {
	t.Helper()
	data := mustEncode(t, cf)
	decoded := mustDecode(t, data, opts...)
	again := mustEncode(t, decoded)
	if !bytes.Equal(again, data) {
		t.Errorf("re-encoded class differs:\n got %x\nwant %x", again, data)
	}
	return decoded
}

func addMethod(cf *ClassFile, name, desc string, attrs ...AttributeInfo) {
	cp := cf.ConstantPool
	cf.Methods = append(cf.Methods, MethodInfo{
		AccessFlags:     AccPublic,
		NameIndex:       cp.AddUtf8(name),
		DescriptorIndex: cp.AddUtf8(desc),
		Attributes:      attrs,
	})
}

func TestFixedLengthMismatch(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	cf.Fields = []FieldInfo{{
		AccessFlags:     AccStatic | AccFinal,
		NameIndex:       cp.AddUtf8("x"),
		DescriptorIndex: cp.AddUtf8("I"),
		Attributes:      []AttributeInfo{rawAttr(cp, "ConstantValue", []byte{0, 1, 0, 2})},
	}}

	decoded := roundTrip(t, cf)
	diag, ok := findDiagnostic(decoded.Diagnostics, "ConstantValue: invalid length 4, want 2")
	if !ok {
		t.Fatalf("missing length diagnostic in %v", decoded.Diagnostics)
	}
	if diag.Severity != SeverityWarning {
		t.Errorf("Severity = %s, want warning", diag.Severity)
	}
	a := &decoded.Fields[0].Attributes[0]
	raw, ok := AttributeAs[*RawAttribute](a)
	if !ok || len(raw.Data) != 4 {
		t.Errorf("Parsed = %#v, want 4 raw bytes", a.Parsed)
	}
	if cv := decoded.Fields[0].ConstantValue(decoded.ConstantPool); cv != nil {
		t.Errorf("ConstantValue() = %+v, want nil for a raw attribute", cv)
	}
}

func TestAttributeTrailingBytes(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	exc := cp.AddClass("java/io/IOException")
	body := payload(func(w *Writer) {
		w.U2(1)
		w.U2(exc)
		w.U1(0xAB)
		w.U1(0xCD)
	})
	addMethod(cf, "run", "()V", rawAttr(cp, "Exceptions", body))

	decoded := roundTrip(t, cf)
	if _, ok := findDiagnostic(decoded.Diagnostics, "Exceptions: attribute declared more bytes than consumed (2 unread)"); !ok {
		t.Fatalf("missing trailing bytes diagnostic in %v", decoded.Diagnostics)
	}
	a := &decoded.Methods[0].Attributes[0]
	if !bytes.Equal(a.Trailing, []byte{0xAB, 0xCD}) {
		t.Errorf("Trailing = %x, want abcd", a.Trailing)
	}
	ex, ok := AttributeAs[*ExceptionsAttribute](a)
	if !ok || len(ex.ExceptionIndexTable) != 1 || ex.ExceptionIndexTable[0] != exc {
		t.Errorf("Parsed = %#v", a.Parsed)
	}
}

func TestTruncatedAttributeIsContained(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	source := cp.AddUtf8("A.java")
	cf.Attributes = []AttributeInfo{
		rawAttr(cp, "LineNumberTable", []byte{0, 2, 0, 0, 0, 1}),
		parsedAttr(cp, &SourceFileAttribute{SourceFileIndex: source}),
	}

	decoded := roundTrip(t, cf)
	diag, ok := findDiagnostic(decoded.Diagnostics, "LineNumberTable: unexpected end of attribute")
	if !ok {
		t.Fatalf("missing truncation diagnostic in %v", decoded.Diagnostics)
	}
	if diag.Severity != SeverityRecord {
		t.Errorf("Severity = %s, want error", diag.Severity)
	}
	if decoded.Fatal() {
		t.Error("Fatal() = true for a record-level problem")
	}
	if !decoded.Attributes[0].IsRaw() {
		t.Errorf("Attributes[0] = %T, want raw", decoded.Attributes[0].Parsed)
	}
	sf := decoded.Attributes[1].AsSourceFile()
	if sf == nil || sf.SourceFileIndex != source {
		t.Errorf("SourceFile after the truncated attribute = %#v", decoded.Attributes[1].Parsed)
	}
}

func TestUnknownElementTag(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	typ := cp.AddUtf8("Lpkg/Ann;")
	name := cp.AddUtf8("value")
	body := payload(func(w *Writer) {
		w.U2(1)
		w.U2(typ)
		w.U2(1)
		w.U2(name)
		w.U1('x')
		w.U2(0)
	})
	cf.Attributes = []AttributeInfo{rawAttr(cp, "RuntimeVisibleAnnotations", body)}

	decoded := roundTrip(t, cf)
	diag, ok := findDiagnostic(decoded.Diagnostics, "RuntimeVisibleAnnotations: invalid attribute")
	if !ok {
		t.Fatalf("missing element tag diagnostic in %v", decoded.Diagnostics)
	}
	if diag.Severity != SeverityRecord {
		t.Errorf("Severity = %s, want error", diag.Severity)
	}
	if !decoded.Attributes[0].IsRaw() {
		t.Errorf("Attributes[0] = %T, want raw", decoded.Attributes[0].Parsed)
	}
}

func TestUnknownAttributeKeptRaw(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	cf.Attributes = []AttributeInfo{rawAttr(cp, "org.example.Custom", []byte{1, 2, 3})}

	decoded := roundTrip(t, cf)
	a := &decoded.Attributes[0]
	if a.Kind != KindUnknown || !a.IsRaw() {
		t.Errorf("Kind = %s, raw = %v, want unknown raw attribute", a.Kind, a.IsRaw())
	}
	if got := a.Name(decoded.ConstantPool); got != "org.example.Custom" {
		t.Errorf("Name() = %q", got)
	}
	if len(decoded.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", decoded.Diagnostics)
	}
}

func TestAnnotationsRoundTrip(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	inner := Annotation{
		TypeIndex: cp.AddUtf8("Lpkg/Inner;"),
		Pairs: []ElementValuePair{
			{NameIndex: cp.AddUtf8("id"), Value: &ConstValue{Tag: 'I', Index: cp.Add(&ConstantIntegerInfo{Value: 7})}},
		},
	}
	outer := Annotation{
		TypeIndex: cp.AddUtf8("Lpkg/Outer;"),
		Pairs: []ElementValuePair{
			{NameIndex: cp.AddUtf8("nested"), Value: &AnnotationValue{Annotation: inner}},
			{NameIndex: cp.AddUtf8("items"), Value: &ArrayValue{Values: []ElementValue{
				&EnumValue{TypeNameIndex: cp.AddUtf8("Lpkg/Color;"), ConstNameIndex: cp.AddUtf8("RED")},
				&ClassValue{ClassInfoIndex: cp.AddUtf8("Ljava/lang/String;")},
				&ConstValue{Tag: 's', Index: cp.AddUtf8("text")},
			}}},
		},
	}
	cf.Attributes = []AttributeInfo{
		parsedAttr(cp, &RuntimeVisibleAnnotationsAttribute{Annotations: []Annotation{outer}}),
	}
	addMethod(cf, "run", "(I)V",
		parsedAttr(cp, &RuntimeInvisibleParameterAnnotationsAttribute{ParameterAnnotations: [][]Annotation{{inner}}}),
		parsedAttr(cp, &AnnotationDefaultAttribute{DefaultValue: &ConstValue{Tag: 'Z', Index: cp.Add(&ConstantIntegerInfo{Value: 1})}}),
	)

	decoded := roundTrip(t, cf)
	if len(decoded.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", decoded.Diagnostics)
	}
	rva, ok := AttributeAs[*RuntimeVisibleAnnotationsAttribute](&decoded.Attributes[0])
	if !ok || len(rva.Annotations) != 1 {
		t.Fatalf("Attributes[0] = %#v", decoded.Attributes[0].Parsed)
	}
	pairs := rva.Annotations[0].Pairs
	nested, ok := pairs[0].Value.(*AnnotationValue)
	if !ok || len(nested.Annotation.Pairs) != 1 {
		t.Fatalf("pairs[0] = %#v, want a nested annotation", pairs[0].Value)
	}
	arr, ok := pairs[1].Value.(*ArrayValue)
	if !ok || len(arr.Values) != 3 {
		t.Fatalf("pairs[1] = %#v, want a three element array", pairs[1].Value)
	}
	if tag := arr.Values[2].ElementTag(); tag != 's' {
		t.Errorf("arr.Values[2] tag = %c, want s", tag)
	}
}

func TestTypeAnnotationsRoundTrip(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	ann := Annotation{TypeIndex: cp.AddUtf8("Lpkg/NonNull;")}
	tas := []TypeAnnotation{
		{TargetType: 0x10, Target: &SupertypeTarget{Index: 0xFFFF}, Annotation: ann},
		{TargetType: 0x40, Target: &LocalVarTarget{Table: []LocalVarTargetEntry{{StartPC: 0, Length: 5, Index: 1}}},
			Path: []TypePathEntry{{Kind: 3, ArgumentIndex: 0}, {Kind: 0, ArgumentIndex: 0}}, Annotation: ann},
		{TargetType: 0x47, Target: &TypeArgumentTarget{Offset: 4, Index: 1}, Annotation: ann},
		{TargetType: 0x13, Target: &EmptyTarget{}, Annotation: ann},
	}
	cf.Attributes = []AttributeInfo{
		parsedAttr(cp, &RuntimeVisibleTypeAnnotationsAttribute{Annotations: tas}),
	}

	decoded := roundTrip(t, cf)
	got, ok := AttributeAs[*RuntimeVisibleTypeAnnotationsAttribute](&decoded.Attributes[0])
	if !ok || len(got.Annotations) != len(tas) {
		t.Fatalf("Attributes[0] = %#v", decoded.Attributes[0].Parsed)
	}
	lv, ok := got.Annotations[1].Target.(*LocalVarTarget)
	if !ok || len(lv.Table) != 1 || lv.Table[0].Length != 5 {
		t.Errorf("Target = %#v", got.Annotations[1].Target)
	}
	if len(got.Annotations[1].Path) != 2 {
		t.Errorf("len(Path) = %d, want 2", len(got.Annotations[1].Path))
	}
}

func TestUnknownTargetType(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	cf.Attributes = []AttributeInfo{rawAttr(cp, "RuntimeInvisibleTypeAnnotations", []byte{0, 1, 0x30, 0, 0})}

	decoded := roundTrip(t, cf)
	if _, ok := findDiagnostic(decoded.Diagnostics, "RuntimeInvisibleTypeAnnotations: invalid attribute"); !ok {
		t.Errorf("missing target type diagnostic in %v", decoded.Diagnostics)
	}
}

func TestModuleFlagsChecked(t *testing.T) {
	cp := NewConstantPool()
	cf := &ClassFile{
		MajorVersion: 53,
		ConstantPool: cp,
		AccessFlags:  AccModule,
	}
	cf.ThisClass = cp.AddClass("module-info")
	mod := &ModuleAttribute{
		ModuleNameIndex: cp.AddModule("app"),
		Requires: []ModuleRequires{
			{RequiresIndex: cp.AddModule("java.base"), RequiresFlags: AccMandated},
			{RequiresIndex: cp.AddModule("lib"), RequiresFlags: 0x0021},
		},
		Exports: []ModuleExports{{ExportsIndex: cp.AddPackage("app/api")}},
	}
	cf.Attributes = []AttributeInfo{parsedAttr(cp, mod)}

	decoded := roundTrip(t, cf)
	if !decoded.IsModule() {
		t.Error("IsModule() = false")
	}
	diag, ok := findDiagnostic(decoded.Diagnostics, "requires flags 0x0021: illegal bits 0x0001")
	if !ok {
		t.Fatalf("missing requires diagnostic in %v", decoded.Diagnostics)
	}
	if diag.Severity != SeverityWarning {
		t.Errorf("Severity = %s, want warning", diag.Severity)
	}
	if len(decoded.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %v, want exactly one", decoded.Diagnostics)
	}
	m := decoded.Attributes[0].AsModule()
	if m == nil || len(m.Requires) != 2 || m.Requires[1].RequiresFlags != 0x0021 {
		t.Errorf("Module = %#v", decoded.Attributes[0].Parsed)
	}
}

func TestInnerClassFlagsChecked(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	cf.Attributes = []AttributeInfo{parsedAttr(cp, &InnerClassesAttribute{Classes: []InnerClassEntry{{
		InnerClassInfoIndex:   cp.AddClass("pkg/A$B"),
		OuterClassInfoIndex:   cf.ThisClass,
		InnerNameIndex:        cp.AddUtf8("B"),
		InnerClassAccessFlags: AccPrivate | AccStrict,
	}}})}

	decoded := roundTrip(t, cf)
	if _, ok := findDiagnostic(decoded.Diagnostics, "inner-class flags 0x0802: illegal bits 0x0800"); !ok {
		t.Errorf("missing inner class diagnostic in %v", decoded.Diagnostics)
	}
}

func TestCodeWithNestedAttributes(t *testing.T) {
	cf := newTestClass("pkg/A")
	cp := cf.ConstantPool
	code := &CodeAttribute{
		MaxStack:  1,
		MaxLocals: 1,
		Code:      []byte{0x2A, 0xB1},
		ExceptionTable: []ExceptionTableEntry{
			{StartPC: 0, EndPC: 1, HandlerPC: 1, CatchType: 0},
		},
		Attributes: []AttributeInfo{
			parsedAttr(cp, &LineNumberTableAttribute{LineNumberTable: []LineNumberEntry{{StartPC: 0, LineNumber: 3}}}),
			parsedAttr(cp, &StackMapTableAttribute{Entries: []StackMapFrame{&SameFrame{Type: 1}}}),
		},
	}
	addMethod(cf, "run", "()V", parsedAttr(cp, code))

	decoded := roundTrip(t, cf)
	m := &decoded.Methods[0]
	got := m.GetCodeAttribute(decoded.ConstantPool)
	if got == nil {
		t.Fatal("GetCodeAttribute() = nil")
	}
	if got.Compact {
		t.Error("Compact = true for a 52.0 class file")
	}
	if len(got.Attributes) != 2 || len(got.ExceptionTable) != 1 {
		t.Errorf("Code = %+v", got)
	}
	if frames := m.StackMapFrames(decoded.ConstantPool); len(frames) != 1 {
		t.Errorf("StackMapFrames() = %v, want one frame", frames)
	}
}

func TestCompactCode(t *testing.T) {
	cf := newTestClass("pkg/Old")
	cf.MajorVersion = 45
	cp := cf.ConstantPool
	addMethod(cf, "run", "()V", parsedAttr(cp, &CodeAttribute{Compact: true, MaxStack: 2, MaxLocals: 1, Code: []byte{0xB1}}))

	data := mustEncode(t, cf)
	decoded := mustDecode(t, data)
	a := &decoded.Methods[0].Attributes[0]
	code := a.AsCode()
	if code == nil || !code.Compact || code.MaxStack != 2 || code.MaxLocals != 1 {
		t.Fatalf("Code = %#v, want compact layout", a.Parsed)
	}
	body, err := EncodeAttribute(a)
	if err != nil {
		t.Fatalf("EncodeAttribute error = %v", err)
	}
	if want := []byte{2, 1, 0, 1, 0xB1, 0, 0, 0, 0}; !bytes.Equal(body, want) {
		t.Errorf("payload = %x, want %x", body, want)
	}
	if again := mustEncode(t, decoded); !bytes.Equal(again, data) {
		t.Errorf("re-encoded class differs")
	}
}

func TestAttributeKindNames(t *testing.T) {
	for k := KindCode; k <= KindCompilationID; k++ {
		if got := LookupAttributeKind(k.String()); got != k {
			t.Errorf("LookupAttributeKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if LookupAttributeKind("Bogus") != KindUnknown {
		t.Error("LookupAttributeKind(\"Bogus\") is not unknown")
	}
	var nilInfo *AttributeInfo
	if nilInfo.AsCode() != nil {
		t.Error("AsCode() on nil returned a value")
	}
}
