package classfile

// AttributeKind is the decoded meaning of an attribute name.
type AttributeKind int

const (
	KindUnknown AttributeKind = iota
	KindCode
	KindConstantValue
	KindExceptions
	KindInnerClasses
	KindEnclosingMethod
	KindSynthetic
	KindDeprecated
	KindSignature
	KindSourceFile
	KindSourceDebugExtension
	KindLineNumberTable
	KindLocalVariableTable
	KindLocalVariableTypeTable
	KindStackMapTable
	KindStackMap
	KindBootstrapMethods
	KindMethodParameters
	KindRuntimeVisibleAnnotations
	KindRuntimeInvisibleAnnotations
	KindRuntimeVisibleParameterAnnotations
	KindRuntimeInvisibleParameterAnnotations
	KindRuntimeVisibleTypeAnnotations
	KindRuntimeInvisibleTypeAnnotations
	KindAnnotationDefault
	KindModule
	KindModulePackages
	KindModuleMainClass
	KindModuleTarget
	KindModuleResolution
	KindModuleHashes
	KindNestHost
	KindNestMembers
	KindRecord
	KindPermittedSubclasses
	KindLoadableDescriptors
	KindCharacterRangeTable
	KindSourceID
	KindCompilationID
)

var kindNames = [...]string{
	KindUnknown:                              "",
	KindCode:                                 "Code",
	KindConstantValue:                        "ConstantValue",
	KindExceptions:                           "Exceptions",
	KindInnerClasses:                         "InnerClasses",
	KindEnclosingMethod:                      "EnclosingMethod",
	KindSynthetic:                            "Synthetic",
	KindDeprecated:                           "Deprecated",
	KindSignature:                            "Signature",
	KindSourceFile:                           "SourceFile",
	KindSourceDebugExtension:                 "SourceDebugExtension",
	KindLineNumberTable:                      "LineNumberTable",
	KindLocalVariableTable:                   "LocalVariableTable",
	KindLocalVariableTypeTable:               "LocalVariableTypeTable",
	KindStackMapTable:                        "StackMapTable",
	KindStackMap:                             "StackMap",
	KindBootstrapMethods:                     "BootstrapMethods",
	KindMethodParameters:                     "MethodParameters",
	KindRuntimeVisibleAnnotations:            "RuntimeVisibleAnnotations",
	KindRuntimeInvisibleAnnotations:          "RuntimeInvisibleAnnotations",
	KindRuntimeVisibleParameterAnnotations:   "RuntimeVisibleParameterAnnotations",
	KindRuntimeInvisibleParameterAnnotations: "RuntimeInvisibleParameterAnnotations",
	KindRuntimeVisibleTypeAnnotations:        "RuntimeVisibleTypeAnnotations",
	KindRuntimeInvisibleTypeAnnotations:      "RuntimeInvisibleTypeAnnotations",
	KindAnnotationDefault:                    "AnnotationDefault",
	KindModule:                               "Module",
	KindModulePackages:                       "ModulePackages",
	KindModuleMainClass:                      "ModuleMainClass",
	KindModuleTarget:                         "ModuleTarget",
	KindModuleResolution:                     "ModuleResolution",
	KindModuleHashes:                         "ModuleHashes",
	KindNestHost:                             "NestHost",
	KindNestMembers:                          "NestMembers",
	KindRecord:                               "Record",
	KindPermittedSubclasses:                  "PermittedSubclasses",
	KindLoadableDescriptors:                  "LoadableDescriptors",
	KindCharacterRangeTable:                  "CharacterRangeTable",
	KindSourceID:                             "SourceID",
	KindCompilationID:                        "CompilationID",
}

// attributeKinds maps attribute names to kinds. It is filled once at
// package initialization and never written afterwards.
var attributeKinds = func() map[string]AttributeKind {
	m := make(map[string]AttributeKind, len(kindNames))
	for k, name := range kindNames {
		if name != "" {
			m[name] = AttributeKind(k)
		}
	}
	return m
}()

// fixedLengths holds the exact payload size of kinds that have one.
var fixedLengths = map[AttributeKind]int{
	KindConstantValue:    2,
	KindEnclosingMethod:  4,
	KindSynthetic:        0,
	KindDeprecated:       0,
	KindSignature:        2,
	KindSourceFile:       2,
	KindModuleMainClass:  2,
	KindModuleTarget:     2,
	KindModuleResolution: 2,
	KindNestHost:         2,
	KindSourceID:         2,
	KindCompilationID:    2,
}

func LookupAttributeKind(name string) AttributeKind {
	return attributeKinds[name]
}

func (k AttributeKind) String() string {
	if k > KindUnknown && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Attribute is the decoded payload of an attribute.
type Attribute interface {
	Kind() AttributeKind
}

// AttributeInfo is one attribute record as it appears in the container.
// Kind is resolved from the name; Parsed is a *RawAttribute when the name
// is unknown or the payload could not be decoded. Trailing holds bytes the
// payload declared but the decoder did not consume.
type AttributeInfo struct {
	NameIndex uint16
	Length    uint32
	Offset    int
	Kind      AttributeKind
	Parsed    Attribute
	Trailing  []byte
}

// Name resolves the attribute name, or "" when the index is unusable.
func (a *AttributeInfo) Name(cp *ConstantPool) string {
	return cp.GetUtf8(a.NameIndex)
}

// IsRaw reports whether the payload is kept as uninterpreted bytes.
func (a *AttributeInfo) IsRaw() bool {
	_, ok := a.Parsed.(*RawAttribute)
	return ok
}

// AttributeAs returns the payload of a as T.
func AttributeAs[T Attribute](a *AttributeInfo) (T, bool) {
	var zero T
	if a == nil || a.Parsed == nil {
		return zero, false
	}
	t, ok := a.Parsed.(T)
	return t, ok
}

func (a *AttributeInfo) AsCode() *CodeAttribute {
	code, _ := AttributeAs[*CodeAttribute](a)
	return code
}

func (a *AttributeInfo) AsConstantValue() *ConstantValueAttribute {
	cv, _ := AttributeAs[*ConstantValueAttribute](a)
	return cv
}

func (a *AttributeInfo) AsSignature() *SignatureAttribute {
	sig, _ := AttributeAs[*SignatureAttribute](a)
	return sig
}

func (a *AttributeInfo) AsSourceFile() *SourceFileAttribute {
	sf, _ := AttributeAs[*SourceFileAttribute](a)
	return sf
}

func (a *AttributeInfo) AsStackMapTable() *StackMapTableAttribute {
	smt, _ := AttributeAs[*StackMapTableAttribute](a)
	return smt
}

func (a *AttributeInfo) AsModule() *ModuleAttribute {
	m, _ := AttributeAs[*ModuleAttribute](a)
	return m
}

func (a *AttributeInfo) AsRecord() *RecordAttribute {
	r, _ := AttributeAs[*RecordAttribute](a)
	return r
}

func findAttribute(attrs []AttributeInfo, cp *ConstantPool, name string) *AttributeInfo {
	for i := range attrs {
		if attrs[i].Name(cp) == name {
			return &attrs[i]
		}
	}
	return nil
}

// RawAttribute holds an attribute payload verbatim.
type RawAttribute struct {
	Data []byte
}

type CodeAttribute struct {
	// Compact marks the layout of class files older than 45.3, with u1
	// max_stack and max_locals and a u2 code_length.
	Compact        bool
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type ConstantValueAttribute struct {
	ConstantValueIndex uint16
}

type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16
}

type InnerClassesAttribute struct {
	Classes []InnerClassEntry
}

type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

type EnclosingMethodAttribute struct {
	ClassIndex  uint16
	MethodIndex uint16
}

type SyntheticAttribute struct{}

type DeprecatedAttribute struct{}

type SignatureAttribute struct {
	SignatureIndex uint16
}

type SourceFileAttribute struct {
	SourceFileIndex uint16
}

// SourceDebugExtensionAttribute keeps the payload bytes as a string; they
// are usually, but not necessarily, modified UTF-8.
type SourceDebugExtensionAttribute struct {
	DebugExtension string
}

type LineNumberTableAttribute struct {
	LineNumberTable []LineNumberEntry
}

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type LocalVariableTableAttribute struct {
	LocalVariableTable []LocalVariableEntry
}

type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

type LocalVariableTypeTableAttribute struct {
	LocalVariableTypeTable []LocalVariableTypeEntry
}

type LocalVariableTypeEntry struct {
	StartPC        uint16
	Length         uint16
	NameIndex      uint16
	SignatureIndex uint16
	Index          uint16
}

type StackMapTableAttribute struct {
	Entries []StackMapFrame
}

// StackMapAttribute is the older StackMap layout where every entry is a
// full frame carrying an absolute bytecode offset.
type StackMapAttribute struct {
	Entries []*FullFrame
}

type BootstrapMethodsAttribute struct {
	BootstrapMethods []BootstrapMethod
}

type BootstrapMethod struct {
	BootstrapMethodRef uint16
	BootstrapArguments []uint16
}

type MethodParametersAttribute struct {
	Parameters []MethodParameter
}

type MethodParameter struct {
	NameIndex   uint16
	AccessFlags AccessFlags
}

type RuntimeVisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

type RuntimeInvisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

type RuntimeVisibleParameterAnnotationsAttribute struct {
	ParameterAnnotations [][]Annotation
}

type RuntimeInvisibleParameterAnnotationsAttribute struct {
	ParameterAnnotations [][]Annotation
}

type RuntimeVisibleTypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
}

type RuntimeInvisibleTypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
}

type AnnotationDefaultAttribute struct {
	DefaultValue ElementValue
}

type ModuleAttribute struct {
	ModuleNameIndex    uint16
	ModuleFlags        AccessFlags
	ModuleVersionIndex uint16
	Requires           []ModuleRequires
	Exports            []ModuleExports
	Opens              []ModuleOpens
	Uses               []uint16
	Provides           []ModuleProvides
}

type ModuleRequires struct {
	RequiresIndex        uint16
	RequiresFlags        AccessFlags
	RequiresVersionIndex uint16
}

type ModuleExports struct {
	ExportsIndex   uint16
	ExportsFlags   AccessFlags
	ExportsToIndex []uint16
}

type ModuleOpens struct {
	OpensIndex   uint16
	OpensFlags   AccessFlags
	OpensToIndex []uint16
}

type ModuleProvides struct {
	ProvidesIndex     uint16
	ProvidesWithIndex []uint16
}

type ModulePackagesAttribute struct {
	PackageIndex []uint16
}

type ModuleMainClassAttribute struct {
	MainClassIndex uint16
}

type ModuleTargetAttribute struct {
	TargetPlatformIndex uint16
}

type ModuleResolutionAttribute struct {
	ResolutionFlags uint16
}

type ModuleHashesAttribute struct {
	AlgorithmIndex uint16
	Hashes         []ModuleHash
}

type ModuleHash struct {
	ModuleNameIndex uint16
	Hash            []byte
}

type NestHostAttribute struct {
	HostClassIndex uint16
}

type NestMembersAttribute struct {
	Classes []uint16
}

type RecordAttribute struct {
	Components []RecordComponentInfo
}

type RecordComponentInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

type PermittedSubclassesAttribute struct {
	Classes []uint16
}

type LoadableDescriptorsAttribute struct {
	Descriptors []uint16
}

type CharacterRangeTableAttribute struct {
	Entries []CharacterRange
}

type CharacterRange struct {
	StartPC             uint16
	EndPC               uint16
	CharacterRangeStart uint32
	CharacterRangeEnd   uint32
	Flags               uint16
}

type SourceIDAttribute struct {
	SourceIDIndex uint16
}

type CompilationIDAttribute struct {
	CompilationIDIndex uint16
}

func (*RawAttribute) Kind() AttributeKind                  { return KindUnknown }
func (*CodeAttribute) Kind() AttributeKind                 { return KindCode }
func (*ConstantValueAttribute) Kind() AttributeKind        { return KindConstantValue }
func (*ExceptionsAttribute) Kind() AttributeKind           { return KindExceptions }
func (*InnerClassesAttribute) Kind() AttributeKind         { return KindInnerClasses }
func (*EnclosingMethodAttribute) Kind() AttributeKind      { return KindEnclosingMethod }
func (*SyntheticAttribute) Kind() AttributeKind            { return KindSynthetic }
func (*DeprecatedAttribute) Kind() AttributeKind           { return KindDeprecated }
func (*SignatureAttribute) Kind() AttributeKind            { return KindSignature }
func (*SourceFileAttribute) Kind() AttributeKind           { return KindSourceFile }
func (*SourceDebugExtensionAttribute) Kind() AttributeKind { return KindSourceDebugExtension }
func (*LineNumberTableAttribute) Kind() AttributeKind      { return KindLineNumberTable }
func (*LocalVariableTableAttribute) Kind() AttributeKind   { return KindLocalVariableTable }
func (*LocalVariableTypeTableAttribute) Kind() AttributeKind {
	return KindLocalVariableTypeTable
}
func (*StackMapTableAttribute) Kind() AttributeKind    { return KindStackMapTable }
func (*StackMapAttribute) Kind() AttributeKind         { return KindStackMap }
func (*BootstrapMethodsAttribute) Kind() AttributeKind { return KindBootstrapMethods }
func (*MethodParametersAttribute) Kind() AttributeKind { return KindMethodParameters }
func (*RuntimeVisibleAnnotationsAttribute) Kind() AttributeKind {
	return KindRuntimeVisibleAnnotations
}
func (*RuntimeInvisibleAnnotationsAttribute) Kind() AttributeKind {
	return KindRuntimeInvisibleAnnotations
}
func (*RuntimeVisibleParameterAnnotationsAttribute) Kind() AttributeKind {
	return KindRuntimeVisibleParameterAnnotations
}
func (*RuntimeInvisibleParameterAnnotationsAttribute) Kind() AttributeKind {
	return KindRuntimeInvisibleParameterAnnotations
}
func (*RuntimeVisibleTypeAnnotationsAttribute) Kind() AttributeKind {
	return KindRuntimeVisibleTypeAnnotations
}
func (*RuntimeInvisibleTypeAnnotationsAttribute) Kind() AttributeKind {
	return KindRuntimeInvisibleTypeAnnotations
}
func (*AnnotationDefaultAttribute) Kind() AttributeKind    { return KindAnnotationDefault }
func (*ModuleAttribute) Kind() AttributeKind               { return KindModule }
func (*ModulePackagesAttribute) Kind() AttributeKind       { return KindModulePackages }
func (*ModuleMainClassAttribute) Kind() AttributeKind      { return KindModuleMainClass }
func (*ModuleTargetAttribute) Kind() AttributeKind         { return KindModuleTarget }
func (*ModuleResolutionAttribute) Kind() AttributeKind     { return KindModuleResolution }
func (*ModuleHashesAttribute) Kind() AttributeKind         { return KindModuleHashes }
func (*NestHostAttribute) Kind() AttributeKind             { return KindNestHost }
func (*NestMembersAttribute) Kind() AttributeKind          { return KindNestMembers }
func (*RecordAttribute) Kind() AttributeKind               { return KindRecord }
func (*PermittedSubclassesAttribute) Kind() AttributeKind  { return KindPermittedSubclasses }
func (*LoadableDescriptorsAttribute) Kind() AttributeKind  { return KindLoadableDescriptors }
func (*CharacterRangeTableAttribute) Kind() AttributeKind  { return KindCharacterRangeTable }
func (*SourceIDAttribute) Kind() AttributeKind             { return KindSourceID }
func (*CompilationIDAttribute) Kind() AttributeKind        { return KindCompilationID }
