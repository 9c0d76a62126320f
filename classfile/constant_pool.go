package classfile

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf16"
)

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
	// Raw holds the original bytes when they are not the canonical
	// modified UTF-8 encoding of Value.
	Raw []byte
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

type ConstantFieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldrefInfo) Tag() ConstantTag { return ConstantFieldref }

type ConstantMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodrefInfo) Tag() ConstantTag { return ConstantMethodref }

type ConstantInterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodrefInfo) Tag() ConstantTag { return ConstantInterfaceMethodref }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type ConstantMethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() ConstantTag { return ConstantMethodHandle }

type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() ConstantTag { return ConstantMethodType }

type ConstantDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamicInfo) Tag() ConstantTag { return ConstantDynamic }

type ConstantInvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantInvokeDynamicInfo) Tag() ConstantTag { return ConstantInvokeDynamic }

type ConstantModuleInfo struct {
	NameIndex uint16
}

func (c *ConstantModuleInfo) Tag() ConstantTag { return ConstantModule }

type ConstantPackageInfo struct {
	NameIndex uint16
}

func (c *ConstantPackageInfo) Tag() ConstantTag { return ConstantPackage }

// ConstantPool is the 1-indexed constant table of a class file. Slot 0 and
// the slot following a Long or Double entry hold nil.
type ConstantPool struct {
	entries []ConstantPoolEntry
	offsets []int
}

func NewConstantPool() *ConstantPool {
	return &ConstantPool{entries: []ConstantPoolEntry{nil}, offsets: []int{0}}
}

// Count returns the constant_pool_count value: one more than the highest
// usable index.
func (cp *ConstantPool) Count() int {
	if cp == nil {
		return 0
	}
	return len(cp.entries)
}

// Len returns the number of usable entries.
func (cp *ConstantPool) Len() int {
	n := 0
	cp.Walk(func(uint16, ConstantPoolEntry) { n++ })
	return n
}

// Bytes returns the binary form of the pool, count included.
func (cp *ConstantPool) Bytes() ([]byte, error) {
	w := NewWriter()
	cp.encode(w)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Resolve returns the entry at index.
func (cp *ConstantPool) Resolve(index uint16) (ConstantPoolEntry, error) {
	if cp == nil || index == 0 || int(index) >= len(cp.entries) {
		return nil, &IndexError{Index: index, Count: cp.Count(), Kind: IndexOutOfRange}
	}
	e := cp.entries[index]
	if e == nil {
		return nil, &IndexError{Index: index, Count: cp.Count(), Kind: IndexUnusable}
	}
	return e, nil
}

// Entry returns the entry at index or nil.
func (cp *ConstantPool) Entry(index uint16) ConstantPoolEntry {
	e, _ := cp.Resolve(index)
	return e
}

// Offset returns the source offset of the entry's tag byte, or -1.
func (cp *ConstantPool) Offset(index uint16) int {
	if cp == nil || int(index) >= len(cp.offsets) || index == 0 {
		return -1
	}
	return cp.offsets[index]
}

// Walk calls fn for every usable entry in index order.
func (cp *ConstantPool) Walk(fn func(index uint16, e ConstantPoolEntry)) {
	if cp == nil {
		return
	}
	for i := 1; i < len(cp.entries); i++ {
		if cp.entries[i] == nil {
			continue
		}
		fn(uint16(i), cp.entries[i])
	}
}

// Add appends an entry and returns its index. Long and Double entries
// reserve the following slot.
func (cp *ConstantPool) Add(e ConstantPoolEntry) uint16 {
	if len(cp.entries) == 0 {
		cp.entries = append(cp.entries, nil)
		cp.offsets = append(cp.offsets, 0)
	}
	index := uint16(len(cp.entries))
	cp.entries = append(cp.entries, e)
	cp.offsets = append(cp.offsets, -1)
	if e.Tag().IsWide() {
		cp.entries = append(cp.entries, nil)
		cp.offsets = append(cp.offsets, -1)
	}
	return index
}

func (cp *ConstantPool) lookup(match func(ConstantPoolEntry) bool) uint16 {
	for i := 1; i < len(cp.entries); i++ {
		if cp.entries[i] != nil && match(cp.entries[i]) {
			return uint16(i)
		}
	}
	return 0
}

func (cp *ConstantPool) AddUtf8(s string) uint16 {
	if i := cp.lookup(func(e ConstantPoolEntry) bool {
		u, ok := e.(*ConstantUtf8Info)
		return ok && u.Raw == nil && u.Value == s
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantUtf8Info{Value: s})
}

func (cp *ConstantPool) AddClass(name string) uint16 {
	nameIndex := cp.AddUtf8(name)
	if i := cp.lookup(func(e ConstantPoolEntry) bool {
		c, ok := e.(*ConstantClassInfo)
		return ok && c.NameIndex == nameIndex
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantClassInfo{NameIndex: nameIndex})
}

func (cp *ConstantPool) AddString(s string) uint16 {
	valueIndex := cp.AddUtf8(s)
	if i := cp.lookup(func(e ConstantPoolEntry) bool {
		c, ok := e.(*ConstantStringInfo)
		return ok && c.StringIndex == valueIndex
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantStringInfo{StringIndex: valueIndex})
}

func (cp *ConstantPool) AddNameAndType(name, descriptor string) uint16 {
	nameIndex := cp.AddUtf8(name)
	descIndex := cp.AddUtf8(descriptor)
	if i := cp.lookup(func(e ConstantPoolEntry) bool {
		c, ok := e.(*ConstantNameAndTypeInfo)
		return ok && c.NameIndex == nameIndex && c.DescriptorIndex == descIndex
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantNameAndTypeInfo{NameIndex: nameIndex, DescriptorIndex: descIndex})
}

func (cp *ConstantPool) AddMethodref(class, name, descriptor string) uint16 {
	classIndex := cp.AddClass(class)
	natIndex := cp.AddNameAndType(name, descriptor)
	if i := cp.lookup(func(e ConstantPoolEntry) bool {
		c, ok := e.(*ConstantMethodrefInfo)
		return ok && c.ClassIndex == classIndex && c.NameAndTypeIndex == natIndex
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantMethodrefInfo{ClassIndex: classIndex, NameAndTypeIndex: natIndex})
}

func (cp *ConstantPool) AddModule(name string) uint16 {
	nameIndex := cp.AddUtf8(name)
	if i := cp.lookup(func(e ConstantPoolEntry) bool {
		c, ok := e.(*ConstantModuleInfo)
		return ok && c.NameIndex == nameIndex
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantModuleInfo{NameIndex: nameIndex})
}

func (cp *ConstantPool) AddPackage(name string) uint16 {
	nameIndex := cp.AddUtf8(name)
	if i := cp.lookup(func(e ConstantPoolEntry) bool {
		c, ok := e.(*ConstantPackageInfo)
		return ok && c.NameIndex == nameIndex
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantPackageInfo{NameIndex: nameIndex})
}

func entryAs[T ConstantPoolEntry](cp *ConstantPool, index uint16, want ConstantTag) (T, error) {
	var zero T
	e, err := cp.Resolve(index)
	if err != nil {
		return zero, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, &ConstantKindError{Index: index, Want: want, Got: e.Tag()}
	}
	return t, nil
}

func (cp *ConstantPool) Utf8(index uint16) (string, error) {
	e, err := entryAs[*ConstantUtf8Info](cp, index, ConstantUtf8)
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (cp *ConstantPool) ClassName(index uint16) (string, error) {
	e, err := entryAs[*ConstantClassInfo](cp, index, ConstantClass)
	if err != nil {
		return "", err
	}
	return cp.Utf8(e.NameIndex)
}

func (cp *ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	e, err := entryAs[*ConstantNameAndTypeInfo](cp, index, ConstantNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = cp.Utf8(e.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = cp.Utf8(e.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

func (cp *ConstantPool) StringValue(index uint16) (string, error) {
	e, err := entryAs[*ConstantStringInfo](cp, index, ConstantString)
	if err != nil {
		return "", err
	}
	return cp.Utf8(e.StringIndex)
}

func (cp *ConstantPool) ModuleName(index uint16) (string, error) {
	e, err := entryAs[*ConstantModuleInfo](cp, index, ConstantModule)
	if err != nil {
		return "", err
	}
	return cp.Utf8(e.NameIndex)
}

func (cp *ConstantPool) PackageName(index uint16) (string, error) {
	e, err := entryAs[*ConstantPackageInfo](cp, index, ConstantPackage)
	if err != nil {
		return "", err
	}
	return cp.Utf8(e.NameIndex)
}

func (cp *ConstantPool) Integer(index uint16) (int32, error) {
	e, err := entryAs[*ConstantIntegerInfo](cp, index, ConstantInteger)
	if err != nil {
		return 0, err
	}
	return e.Value, nil
}

func (cp *ConstantPool) Long(index uint16) (int64, error) {
	e, err := entryAs[*ConstantLongInfo](cp, index, ConstantLong)
	if err != nil {
		return 0, err
	}
	return e.Value, nil
}

func (cp *ConstantPool) Float(index uint16) (float32, error) {
	e, err := entryAs[*ConstantFloatInfo](cp, index, ConstantFloat)
	if err != nil {
		return 0, err
	}
	return e.Value, nil
}

func (cp *ConstantPool) Double(index uint16) (float64, error) {
	e, err := entryAs[*ConstantDoubleInfo](cp, index, ConstantDouble)
	if err != nil {
		return 0, err
	}
	return e.Value, nil
}

func (cp *ConstantPool) MethodHandle(index uint16) (*ConstantMethodHandleInfo, error) {
	return entryAs[*ConstantMethodHandleInfo](cp, index, ConstantMethodHandle)
}

func (cp *ConstantPool) MethodType(index uint16) (string, error) {
	e, err := entryAs[*ConstantMethodTypeInfo](cp, index, ConstantMethodType)
	if err != nil {
		return "", err
	}
	return cp.Utf8(e.DescriptorIndex)
}

func (cp *ConstantPool) Dynamic(index uint16) (*ConstantDynamicInfo, error) {
	return entryAs[*ConstantDynamicInfo](cp, index, ConstantDynamic)
}

func (cp *ConstantPool) InvokeDynamic(index uint16) (*ConstantInvokeDynamicInfo, error) {
	return entryAs[*ConstantInvokeDynamicInfo](cp, index, ConstantInvokeDynamic)
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry.
func (cp *ConstantPool) MemberRef(index uint16) (className, name, descriptor string, err error) {
	e, err := cp.Resolve(index)
	if err != nil {
		return "", "", "", err
	}
	var classIndex, natIndex uint16
	switch ref := e.(type) {
	case *ConstantFieldrefInfo:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *ConstantMethodrefInfo:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *ConstantInterfaceMethodrefInfo:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	default:
		return "", "", "", &ConstantKindError{Index: index, Want: ConstantMethodref, Got: e.Tag()}
	}
	if className, err = cp.ClassName(classIndex); err != nil {
		return "", "", "", err
	}
	name, descriptor, err = cp.NameAndType(natIndex)
	return className, name, descriptor, err
}

func (cp *ConstantPool) GetUtf8(index uint16) string {
	s, _ := cp.Utf8(index)
	return s
}

func (cp *ConstantPool) GetClassName(index uint16) string {
	s, _ := cp.ClassName(index)
	return s
}

func (cp *ConstantPool) GetNameAndType(index uint16) (name, descriptor string) {
	name, descriptor, _ = cp.NameAndType(index)
	return name, descriptor
}

func (cp *ConstantPool) GetString(index uint16) string {
	s, _ := cp.StringValue(index)
	return s
}

func (cp *ConstantPool) GetModuleName(index uint16) string {
	s, _ := cp.ModuleName(index)
	return s
}

func (cp *ConstantPool) GetPackageName(index uint16) string {
	s, _ := cp.PackageName(index)
	return s
}

// Display renders the entry at index for listings. Unresolvable indices
// render as "#n" followed by the problem.
func (cp *ConstantPool) Display(index uint16) string {
	e, err := cp.Resolve(index)
	if err != nil {
		return fmt.Sprintf("#%d <%v>", index, err)
	}
	switch c := e.(type) {
	case *ConstantUtf8Info:
		return fmt.Sprintf("%q", c.Value)
	case *ConstantIntegerInfo:
		return fmt.Sprintf("int %d", c.Value)
	case *ConstantFloatInfo:
		return fmt.Sprintf("float %v", c.Value)
	case *ConstantLongInfo:
		return fmt.Sprintf("long %dl", c.Value)
	case *ConstantDoubleInfo:
		return fmt.Sprintf("double %vd", c.Value)
	case *ConstantClassInfo:
		return "class " + cp.GetUtf8(c.NameIndex)
	case *ConstantStringInfo:
		return fmt.Sprintf("String %q", cp.GetUtf8(c.StringIndex))
	case *ConstantFieldrefInfo, *ConstantMethodrefInfo, *ConstantInterfaceMethodrefInfo:
		class, name, desc, err := cp.MemberRef(index)
		if err != nil {
			return fmt.Sprintf("%s <%v>", e.Tag(), err)
		}
		return fmt.Sprintf("%s %s.%s:%s", e.Tag(), class, name, desc)
	case *ConstantNameAndTypeInfo:
		name, desc := cp.GetNameAndType(index)
		return fmt.Sprintf("NameAndType %s:%s", name, desc)
	case *ConstantMethodHandleInfo:
		return fmt.Sprintf("MethodHandle %s:#%d", c.ReferenceKind, c.ReferenceIndex)
	case *ConstantMethodTypeInfo:
		return "MethodType " + cp.GetUtf8(c.DescriptorIndex)
	case *ConstantDynamicInfo:
		name, desc := cp.GetNameAndType(c.NameAndTypeIndex)
		return fmt.Sprintf("Dynamic #%d:%s:%s", c.BootstrapMethodAttrIndex, name, desc)
	case *ConstantInvokeDynamicInfo:
		name, desc := cp.GetNameAndType(c.NameAndTypeIndex)
		return fmt.Sprintf("InvokeDynamic #%d:%s:%s", c.BootstrapMethodAttrIndex, name, desc)
	case *ConstantModuleInfo:
		return "module " + cp.GetUtf8(c.NameIndex)
	case *ConstantPackageInfo:
		return "package " + cp.GetUtf8(c.NameIndex)
	default:
		return e.Tag().String()
	}
}

// readConstantPool decodes the constant pool at the cursor. On an unknown
// tag it returns the entries read so far together with an *UnknownTagError;
// the cursor is left just after the offending tag byte.
func readConstantPool(c *Cursor) (*ConstantPool, error) {
	count := int(c.U2())
	if err := c.Err(); err != nil {
		return NewConstantPool(), err
	}
	cp := &ConstantPool{
		entries: make([]ConstantPoolEntry, count),
		offsets: make([]int, count),
	}
	for i := 1; i < count; i++ {
		offset := c.Offset()
		entry, err := readConstantPoolEntry(c)
		if err != nil {
			if ute, ok := err.(*UnknownTagError); ok {
				ute.Index = i
				ute.Offset = offset
			}
			cp.entries = cp.entries[:i]
			cp.offsets = cp.offsets[:i]
			return cp, err
		}
		cp.entries[i] = entry
		cp.offsets[i] = offset
		if entry.Tag().IsWide() {
			i++
			if i < count {
				cp.offsets[i] = offset
			}
		}
	}
	return cp, nil
}

func readConstantPoolEntry(c *Cursor) (ConstantPoolEntry, error) {
	tag := ConstantTag(c.U1())
	if err := c.Err(); err != nil {
		return nil, err
	}

	var entry ConstantPoolEntry
	switch tag {
	case ConstantUtf8:
		length := int(c.U2())
		raw := c.Bytes(length)
		entry = newUtf8Entry(raw)
	case ConstantInteger:
		entry = &ConstantIntegerInfo{Value: int32(c.U4())}
	case ConstantFloat:
		entry = &ConstantFloatInfo{Value: c.F4()}
	case ConstantLong:
		entry = &ConstantLongInfo{Value: int64(c.U8())}
	case ConstantDouble:
		entry = &ConstantDoubleInfo{Value: c.F8()}
	case ConstantClass:
		entry = &ConstantClassInfo{NameIndex: c.U2()}
	case ConstantString:
		entry = &ConstantStringInfo{StringIndex: c.U2()}
	case ConstantFieldref:
		entry = &ConstantFieldrefInfo{ClassIndex: c.U2(), NameAndTypeIndex: c.U2()}
	case ConstantMethodref:
		entry = &ConstantMethodrefInfo{ClassIndex: c.U2(), NameAndTypeIndex: c.U2()}
	case ConstantInterfaceMethodref:
		entry = &ConstantInterfaceMethodrefInfo{ClassIndex: c.U2(), NameAndTypeIndex: c.U2()}
	case ConstantNameAndType:
		entry = &ConstantNameAndTypeInfo{NameIndex: c.U2(), DescriptorIndex: c.U2()}
	case ConstantMethodHandle:
		entry = &ConstantMethodHandleInfo{ReferenceKind: MethodHandleKind(c.U1()), ReferenceIndex: c.U2()}
	case ConstantMethodType:
		entry = &ConstantMethodTypeInfo{DescriptorIndex: c.U2()}
	case ConstantDynamic:
		entry = &ConstantDynamicInfo{BootstrapMethodAttrIndex: c.U2(), NameAndTypeIndex: c.U2()}
	case ConstantInvokeDynamic:
		entry = &ConstantInvokeDynamicInfo{BootstrapMethodAttrIndex: c.U2(), NameAndTypeIndex: c.U2()}
	case ConstantModule:
		entry = &ConstantModuleInfo{NameIndex: c.U2()}
	case ConstantPackage:
		entry = &ConstantPackageInfo{NameIndex: c.U2()}
	default:
		return nil, &UnknownTagError{Tag: uint8(tag)}
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (cp *ConstantPool) encode(w *Writer) {
	w.Count16("constant pool", cp.Count())
	for i := 1; i < len(cp.entries); i++ {
		e := cp.entries[i]
		if e == nil {
			if i > 1 && cp.entries[i-1] != nil && cp.entries[i-1].Tag().IsWide() {
				continue
			}
			w.Fail(&EncodeError{What: "constant pool", Detail: fmt.Sprintf("empty slot #%d", i)})
			return
		}
		w.U1(uint8(e.Tag()))
		switch c := e.(type) {
		case *ConstantUtf8Info:
			raw := c.Raw
			if raw == nil {
				raw = encodeModifiedUtf8(c.Value)
			}
			if len(raw) > math.MaxUint16 {
				w.Fail(&EncodeError{What: "Utf8 constant", Detail: fmt.Sprintf("#%d is %d bytes long", i, len(raw))})
				return
			}
			w.U2(uint16(len(raw)))
			w.Raw(raw)
		case *ConstantIntegerInfo:
			w.U4(uint32(c.Value))
		case *ConstantFloatInfo:
			w.F4(c.Value)
		case *ConstantLongInfo:
			w.U8(uint64(c.Value))
		case *ConstantDoubleInfo:
			w.F8(c.Value)
		case *ConstantClassInfo:
			w.U2(c.NameIndex)
		case *ConstantStringInfo:
			w.U2(c.StringIndex)
		case *ConstantFieldrefInfo:
			w.U2(c.ClassIndex)
			w.U2(c.NameAndTypeIndex)
		case *ConstantMethodrefInfo:
			w.U2(c.ClassIndex)
			w.U2(c.NameAndTypeIndex)
		case *ConstantInterfaceMethodrefInfo:
			w.U2(c.ClassIndex)
			w.U2(c.NameAndTypeIndex)
		case *ConstantNameAndTypeInfo:
			w.U2(c.NameIndex)
			w.U2(c.DescriptorIndex)
		case *ConstantMethodHandleInfo:
			w.U1(uint8(c.ReferenceKind))
			w.U2(c.ReferenceIndex)
		case *ConstantMethodTypeInfo:
			w.U2(c.DescriptorIndex)
		case *ConstantDynamicInfo:
			w.U2(c.BootstrapMethodAttrIndex)
			w.U2(c.NameAndTypeIndex)
		case *ConstantInvokeDynamicInfo:
			w.U2(c.BootstrapMethodAttrIndex)
			w.U2(c.NameAndTypeIndex)
		case *ConstantModuleInfo:
			w.U2(c.NameIndex)
		case *ConstantPackageInfo:
			w.U2(c.NameIndex)
		default:
			w.Fail(&EncodeError{What: "constant pool", Detail: fmt.Sprintf("unsupported entry %T at #%d", e, i)})
			return
		}
	}
}

func newUtf8Entry(raw []byte) *ConstantUtf8Info {
	value, ok := decodeModifiedUtf8(raw)
	if ok && bytes.Equal(encodeModifiedUtf8(value), raw) {
		return &ConstantUtf8Info{Value: value}
	}
	return &ConstantUtf8Info{Value: value, Raw: raw}
}

// decodeModifiedUtf8 decodes the class file flavour of UTF-8: NUL is two
// bytes and supplementary characters are encoded as surrogate pairs.
func decodeModifiedUtf8(b []byte) (string, bool) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b) && b[i+1]&0xC0 == 0x80:
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b) && b[i+1]&0xC0 == 0x80 && b[i+2]&0xC0 == 0x80:
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return strings.ToValidUTF8(string(b), "�"), false
		}
	}
	return string(utf16.Decode(units)), true
}

func encodeModifiedUtf8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, 0xC0|byte(u>>6), 0x80|byte(u&0x3F))
		default:
			out = append(out, 0xE0|byte(u>>12), 0x80|byte((u>>6)&0x3F), 0x80|byte(u&0x3F))
		}
	}
	return out
}
