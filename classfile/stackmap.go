package classfile

import (
	"fmt"
	"strings"
)

// VerificationTag identifies the kind of a verification_type_info entry.
type VerificationTag uint8

const (
	VerificationTop               VerificationTag = 0
	VerificationInteger           VerificationTag = 1
	VerificationFloat             VerificationTag = 2
	VerificationDouble            VerificationTag = 3
	VerificationLong              VerificationTag = 4
	VerificationNull              VerificationTag = 5
	VerificationUninitializedThis VerificationTag = 6
	VerificationObject            VerificationTag = 7
	VerificationUninitialized     VerificationTag = 8
)

// Known reports whether the tag is one the format defines.
func (t VerificationTag) Known() bool { return t <= VerificationUninitialized }

func (t VerificationTag) String() string {
	switch t {
	case VerificationTop:
		return "top"
	case VerificationInteger:
		return "int"
	case VerificationFloat:
		return "float"
	case VerificationDouble:
		return "double"
	case VerificationLong:
		return "long"
	case VerificationNull:
		return "null"
	case VerificationUninitializedThis:
		return "uninitializedThis"
	case VerificationObject:
		return "object"
	case VerificationUninitialized:
		return "uninitialized"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// VerificationType is one stack or local slot of a frame. Value holds the
// class constant index for Object and the bytecode offset of the new
// instruction for Uninitialized. Unknown tags keep their raw byte.
type VerificationType struct {
	Tag   VerificationTag
	Value uint16
}

func (v VerificationType) hasValue() bool {
	return v.Tag == VerificationObject || v.Tag == VerificationUninitialized
}

// Display renders the slot, resolving class names through cp when given.
func (v VerificationType) Display(cp *ConstantPool) string {
	switch v.Tag {
	case VerificationObject:
		if cp != nil {
			if name, err := cp.ClassName(v.Value); err == nil {
				return "class " + name
			}
		}
		return fmt.Sprintf("class #%d", v.Value)
	case VerificationUninitialized:
		return fmt.Sprintf("uninitialized %d", v.Value)
	}
	return v.Tag.String()
}

// StackMapFrame is one entry of a StackMapTable. The concrete types are the
// frame shapes selected by the frame_type byte.
type StackMapFrame interface {
	FrameType() uint8
	isFrame()
}

// SameFrame covers frame types 0-63; the offset delta is the type itself.
type SameFrame struct {
	Type uint8
}

// SameLocals1StackItemFrame covers frame types 64-127.
type SameLocals1StackItemFrame struct {
	Type  uint8
	Stack VerificationType
}

// InvalidFrame is a reserved frame type (128-245). It carries no payload.
type InvalidFrame struct {
	Type uint8
}

// EarlyLarvalFrame (246) lists the fields still unset on a larval value
// object and wraps the frame that follows it in the same table slot.
type EarlyLarvalFrame struct {
	UnsetFields []uint16
	Frame       StackMapFrame
}

type SameLocals1StackItemFrameExtended struct {
	OffsetDelta uint16
	Stack       VerificationType
}

// ChopFrame covers frame types 248-250, removing 251-Type locals.
type ChopFrame struct {
	Type        uint8
	OffsetDelta uint16
}

type SameFrameExtended struct {
	OffsetDelta uint16
}

// AppendFrame covers frame types 252-254; the type is 251+len(Locals).
type AppendFrame struct {
	OffsetDelta uint16
	Locals      []VerificationType
}

type FullFrame struct {
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

const (
	frameEarlyLarval       = 246
	frameSameLocals1Ext    = 247
	frameSameFrameExtended = 251
	frameFull              = 255
)

func (f *SameFrame) FrameType() uint8                 { return f.Type }
func (f *SameLocals1StackItemFrame) FrameType() uint8 { return f.Type }
func (f *InvalidFrame) FrameType() uint8              { return f.Type }
func (f *EarlyLarvalFrame) FrameType() uint8          { return frameEarlyLarval }
func (f *SameLocals1StackItemFrameExtended) FrameType() uint8 {
	return frameSameLocals1Ext
}
func (f *ChopFrame) FrameType() uint8         { return f.Type }
func (f *SameFrameExtended) FrameType() uint8 { return frameSameFrameExtended }
func (f *AppendFrame) FrameType() uint8       { return uint8(frameSameFrameExtended + len(f.Locals)) }
func (f *FullFrame) FrameType() uint8         { return frameFull }

func (*SameFrame) isFrame()                         {}
func (*SameLocals1StackItemFrame) isFrame()         {}
func (*InvalidFrame) isFrame()                      {}
func (*EarlyLarvalFrame) isFrame()                  {}
func (*SameLocals1StackItemFrameExtended) isFrame() {}
func (*ChopFrame) isFrame()                         {}
func (*SameFrameExtended) isFrame()                 {}
func (*AppendFrame) isFrame()                       {}
func (*FullFrame) isFrame()                         {}

// OffsetDelta returns the offset_delta of f, looking through early larval
// wrappers.
func OffsetDelta(f StackMapFrame) uint16 {
	for {
		el, ok := f.(*EarlyLarvalFrame)
		if !ok {
			break
		}
		f = el.Frame
	}
	switch f := f.(type) {
	case *SameFrame:
		return uint16(f.Type)
	case *SameLocals1StackItemFrame:
		return uint16(f.Type - 64)
	case *SameLocals1StackItemFrameExtended:
		return f.OffsetDelta
	case *ChopFrame:
		return f.OffsetDelta
	case *SameFrameExtended:
		return f.OffsetDelta
	case *AppendFrame:
		return f.OffsetDelta
	case *FullFrame:
		return f.OffsetDelta
	}
	return 0
}

func (d *decoder) readVerificationType() VerificationType {
	offset := d.c.Offset()
	v := VerificationType{Tag: VerificationTag(d.c.U1())}
	if d.c.Err() != nil {
		return v
	}
	if !v.Tag.Known() {
		d.warnf(offset, "unknown verification type tag %d", uint8(v.Tag))
		return v
	}
	if v.hasValue() {
		v.Value = d.c.U2()
	}
	return v
}

func (d *decoder) readVerificationTypes(n int) []VerificationType {
	out := make([]VerificationType, 0, n)
	for i := 0; i < n && d.c.Err() == nil; i++ {
		out = append(out, d.readVerificationType())
	}
	return out
}

// readStackMapFrame reads one table slot. A run of early larval wrappers is
// read in a loop and linked to the frame that ends it.
func (d *decoder) readStackMapFrame() StackMapFrame {
	var wrappers []*EarlyLarvalFrame
	for {
		offset := d.c.Offset()
		ft := d.c.U1()
		if d.c.Err() != nil {
			return linkEarlyLarval(wrappers, nil)
		}
		if ft != frameEarlyLarval {
			return linkEarlyLarval(wrappers, d.readFrameBody(offset, ft))
		}
		if d.variant() != VariantValueObjects {
			d.warnf(offset, "early larval frame in a class file of version %s", d.gate.Current())
		}
		n := int(d.c.U2())
		f := &EarlyLarvalFrame{UnsetFields: make([]uint16, 0, n)}
		for i := 0; i < n && d.c.Err() == nil; i++ {
			f.UnsetFields = append(f.UnsetFields, d.c.U2())
		}
		wrappers = append(wrappers, f)
	}
}

// linkEarlyLarval nests wrappers outermost first around inner and returns
// the outermost frame, or inner when there are no wrappers.
func linkEarlyLarval(wrappers []*EarlyLarvalFrame, inner StackMapFrame) StackMapFrame {
	for i := len(wrappers) - 1; i >= 0; i-- {
		wrappers[i].Frame = inner
		inner = wrappers[i]
	}
	return inner
}

func (d *decoder) readFrameBody(offset int, ft uint8) StackMapFrame {
	switch {
	case ft <= 63:
		return &SameFrame{Type: ft}
	case ft <= 127:
		return &SameLocals1StackItemFrame{Type: ft, Stack: d.readVerificationType()}
	case ft < frameSameLocals1Ext:
		d.warnf(offset, "invalid stack map frame type %d", ft)
		return &InvalidFrame{Type: ft}
	case ft == frameSameLocals1Ext:
		f := &SameLocals1StackItemFrameExtended{OffsetDelta: d.c.U2()}
		f.Stack = d.readVerificationType()
		return f
	case ft < frameSameFrameExtended:
		return &ChopFrame{Type: ft, OffsetDelta: d.c.U2()}
	case ft == frameSameFrameExtended:
		return &SameFrameExtended{OffsetDelta: d.c.U2()}
	case ft < frameFull:
		f := &AppendFrame{OffsetDelta: d.c.U2()}
		f.Locals = d.readVerificationTypes(int(ft) - frameSameFrameExtended)
		return f
	default:
		return d.readFullFrame()
	}
}

func (d *decoder) readFullFrame() *FullFrame {
	f := &FullFrame{OffsetDelta: d.c.U2()}
	f.Locals = d.readVerificationTypes(int(d.c.U2()))
	f.Stack = d.readVerificationTypes(int(d.c.U2()))
	return f
}

func writeVerificationTypes(w *Writer, what string, types []VerificationType) {
	w.Count16(what, len(types))
	for _, v := range types {
		writeVerificationType(w, v)
	}
}

func writeVerificationType(w *Writer, v VerificationType) {
	w.U1(uint8(v.Tag))
	if v.hasValue() {
		w.U2(v.Value)
	}
}

func writeStackMapFrame(w *Writer, f StackMapFrame) {
	for {
		el, ok := f.(*EarlyLarvalFrame)
		if !ok {
			break
		}
		w.U1(frameEarlyLarval)
		w.Count16("early larval unset fields", len(el.UnsetFields))
		for _, idx := range el.UnsetFields {
			w.U2(idx)
		}
		if el.Frame == nil {
			w.Fail(&EncodeError{What: "StackMapTable", Detail: "early larval frame wraps nothing"})
			return
		}
		f = el.Frame
	}
	switch f := f.(type) {
	case *SameFrame:
		w.U1(f.Type)
	case *SameLocals1StackItemFrame:
		w.U1(f.Type)
		writeVerificationType(w, f.Stack)
	case *InvalidFrame:
		w.U1(f.Type)
	case *SameLocals1StackItemFrameExtended:
		w.U1(frameSameLocals1Ext)
		w.U2(f.OffsetDelta)
		writeVerificationType(w, f.Stack)
	case *ChopFrame:
		w.U1(f.Type)
		w.U2(f.OffsetDelta)
	case *SameFrameExtended:
		w.U1(frameSameFrameExtended)
		w.U2(f.OffsetDelta)
	case *AppendFrame:
		if len(f.Locals) < 1 || len(f.Locals) > 3 {
			w.Fail(&EncodeError{What: "StackMapTable", Detail: fmt.Sprintf("append frame with %d locals", len(f.Locals))})
			return
		}
		w.U1(f.FrameType())
		w.U2(f.OffsetDelta)
		for _, v := range f.Locals {
			writeVerificationType(w, v)
		}
	case *FullFrame:
		w.U1(frameFull)
		writeFullFrameBody(w, f)
	default:
		w.Fail(&EncodeError{What: "StackMapTable", Detail: fmt.Sprintf("unsupported frame %T", f)})
	}
}

func writeFullFrameBody(w *Writer, f *FullFrame) {
	w.U2(f.OffsetDelta)
	writeVerificationTypes(w, "frame locals", f.Locals)
	writeVerificationTypes(w, "frame stack", f.Stack)
}

// FrameLister renders frames as a flat listing. Early larval wrappers open
// a level each; the next ordinary frame closes every open level, deepest
// first, right before its own line.
type FrameLister struct {
	cp     *ConstantPool
	depth  int
	offset int
	count  int
	lines  []string
}

func NewFrameLister(cp *ConstantPool) *FrameLister {
	return &FrameLister{cp: cp, offset: -1}
}

// Depth returns the number of wrappers currently open.
func (l *FrameLister) Depth() int { return l.depth }

func (l *FrameLister) Lines() []string { return l.lines }

// maxListingIndent caps the indentation of deeply nested wrappers.
const maxListingIndent = 64

func (l *FrameLister) emit(depth int, s string) {
	l.lines = append(l.lines, strings.Repeat("  ", min(depth, maxListingIndent))+s)
}

// Add lists one table slot.
func (l *FrameLister) Add(f StackMapFrame) {
	for {
		el, ok := f.(*EarlyLarvalFrame)
		if !ok {
			break
		}
		l.emit(l.depth, "early_larval "+l.indexList(el.UnsetFields)+" {")
		l.depth++
		f = el.Frame
	}
	for ; l.depth > 0; l.depth-- {
		l.emit(l.depth-1, "}")
	}
	if f == nil {
		return
	}
	if l.count == 0 {
		l.offset = int(OffsetDelta(f))
	} else {
		l.offset += int(OffsetDelta(f)) + 1
	}
	l.count++
	l.emit(0, fmt.Sprintf("%d: %s", l.offset, l.describe(f)))
}

func (l *FrameLister) indexList(indices []uint16) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprintf("#%d", idx)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *FrameLister) types(types []VerificationType) string {
	parts := make([]string, len(types))
	for i, v := range types {
		parts[i] = v.Display(l.cp)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *FrameLister) describe(f StackMapFrame) string {
	switch f := f.(type) {
	case *SameFrame:
		return "same_frame"
	case *SameLocals1StackItemFrame:
		return "same_locals_1_stack_item_frame stack=" + l.types([]VerificationType{f.Stack})
	case *InvalidFrame:
		return fmt.Sprintf("invalid_frame type=%d", f.Type)
	case *SameLocals1StackItemFrameExtended:
		return "same_locals_1_stack_item_frame_extended stack=" + l.types([]VerificationType{f.Stack})
	case *ChopFrame:
		return fmt.Sprintf("chop_frame k=%d", frameSameFrameExtended-int(f.Type))
	case *SameFrameExtended:
		return "same_frame_extended"
	case *AppendFrame:
		return "append_frame locals=" + l.types(f.Locals)
	case *FullFrame:
		return "full_frame locals=" + l.types(f.Locals) + " stack=" + l.types(f.Stack)
	}
	return fmt.Sprintf("%T", f)
}

// FrameListing lists a whole table.
func FrameListing(frames []StackMapFrame, cp *ConstantPool) []string {
	l := NewFrameLister(cp)
	for _, f := range frames {
		l.Add(f)
	}
	return l.Lines()
}
