package classfile

import "fmt"

type Annotation struct {
	TypeIndex uint16
	Pairs     []ElementValuePair
}

type ElementValuePair struct {
	NameIndex uint16
	Value     ElementValue
}

// ElementValue is the value of an annotation element. The concrete type is
// chosen by the tag byte.
type ElementValue interface {
	ElementTag() byte
	isElementValue()
}

// ConstValue is a primitive or String constant (tags B C D F I J S Z s).
type ConstValue struct {
	Tag   byte
	Index uint16
}

type EnumValue struct {
	TypeNameIndex  uint16
	ConstNameIndex uint16
}

type ClassValue struct {
	ClassInfoIndex uint16
}

type AnnotationValue struct {
	Annotation Annotation
}

type ArrayValue struct {
	Values []ElementValue
}

func (v *ConstValue) ElementTag() byte      { return v.Tag }
func (v *EnumValue) ElementTag() byte       { return 'e' }
func (v *ClassValue) ElementTag() byte      { return 'c' }
func (v *AnnotationValue) ElementTag() byte { return '@' }
func (v *ArrayValue) ElementTag() byte      { return '[' }

func (*ConstValue) isElementValue()      {}
func (*EnumValue) isElementValue()       {}
func (*ClassValue) isElementValue()      {}
func (*AnnotationValue) isElementValue() {}
func (*ArrayValue) isElementValue()      {}

// ElementTagError reports an element_value tag outside the known set.
type ElementTagError struct {
	Tag    byte
	Offset int
}

func (e *ElementTagError) Error() string {
	return fmt.Sprintf("unknown element value tag %q at offset %d", e.Tag, e.Offset)
}

// TargetTypeError reports a type annotation target_type outside the known set.
type TargetTypeError struct {
	TargetType uint8
	Offset     int
}

func (e *TargetTypeError) Error() string {
	return fmt.Sprintf("unknown type annotation target 0x%02x at offset %d", e.TargetType, e.Offset)
}

// TypeAnnotation is an annotation on a use of a type.
type TypeAnnotation struct {
	TargetType uint8
	Target     TargetInfo
	Path       []TypePathEntry
	Annotation
}

type TypePathEntry struct {
	Kind          uint8
	ArgumentIndex uint8
}

// TargetInfo locates the annotated type. The concrete type follows from
// TargetType.
type TargetInfo interface {
	isTargetInfo()
}

type TypeParameterTarget struct{ Index uint8 }

type SupertypeTarget struct{ Index uint16 }

type TypeParameterBoundTarget struct {
	ParamIndex uint8
	BoundIndex uint8
}

type EmptyTarget struct{}

type FormalParameterTarget struct{ Index uint8 }

type ThrowsTarget struct{ Index uint16 }

type LocalVarTarget struct {
	Table []LocalVarTargetEntry
}

type LocalVarTargetEntry struct {
	StartPC uint16
	Length  uint16
	Index   uint16
}

type CatchTarget struct{ ExceptionTableIndex uint16 }

type OffsetTarget struct{ Offset uint16 }

type TypeArgumentTarget struct {
	Offset uint16
	Index  uint8
}

func (*TypeParameterTarget) isTargetInfo()      {}
func (*SupertypeTarget) isTargetInfo()          {}
func (*TypeParameterBoundTarget) isTargetInfo() {}
func (*EmptyTarget) isTargetInfo()              {}
func (*FormalParameterTarget) isTargetInfo()    {}
func (*ThrowsTarget) isTargetInfo()             {}
func (*LocalVarTarget) isTargetInfo()           {}
func (*CatchTarget) isTargetInfo()              {}
func (*OffsetTarget) isTargetInfo()             {}
func (*TypeArgumentTarget) isTargetInfo()       {}

func (d *decoder) readAnnotation() Annotation {
	a := Annotation{TypeIndex: d.c.U2()}
	n := int(d.c.U2())
	for i := 0; i < n && d.c.Err() == nil; i++ {
		name := d.c.U2()
		a.Pairs = append(a.Pairs, ElementValuePair{NameIndex: name, Value: d.readElementValue()})
	}
	return a
}

func (d *decoder) readAnnotations() []Annotation {
	n := int(d.c.U2())
	out := make([]Annotation, 0, n)
	for i := 0; i < n && d.c.Err() == nil; i++ {
		out = append(out, d.readAnnotation())
	}
	return out
}

// openElement is an array or annotation value whose members are still
// being read.
type openElement struct {
	array *ArrayValue
	ann   *AnnotationValue
	left  int
	name  uint16
}

// readElementValue reads one element_value. Nested arrays and annotations
// are kept on an explicit stack, so nesting is bounded by the input only.
func (d *decoder) readElementValue() ElementValue {
	var stack []*openElement
	for {
		v := d.readElementHead(&stack)
		if v == nil && len(stack) > 0 && d.c.Err() == nil {
			continue
		}
		for {
			if len(stack) == 0 {
				return v
			}
			top := stack[len(stack)-1]
			if top.array != nil {
				top.array.Values = append(top.array.Values, v)
			} else {
				top.ann.Annotation.Pairs = append(top.ann.Annotation.Pairs, ElementValuePair{NameIndex: top.name, Value: v})
			}
			top.left--
			if top.left > 0 && d.c.Err() == nil {
				if top.ann != nil {
					top.name = d.c.U2()
				}
				break
			}
			stack = stack[:len(stack)-1]
			if top.array != nil {
				v = top.array
			} else {
				v = top.ann
			}
		}
	}
}

// readElementHead reads a tag and its fixed part. A non-empty array or
// annotation is pushed onto stack and nil is returned; its members follow.
func (d *decoder) readElementHead(stack *[]*openElement) ElementValue {
	offset := d.c.Offset()
	tag := d.c.U1()
	if d.c.Err() != nil {
		return nil
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		return &ConstValue{Tag: tag, Index: d.c.U2()}
	case 'e':
		return &EnumValue{TypeNameIndex: d.c.U2(), ConstNameIndex: d.c.U2()}
	case 'c':
		return &ClassValue{ClassInfoIndex: d.c.U2()}
	case '@':
		v := &AnnotationValue{Annotation: Annotation{TypeIndex: d.c.U2()}}
		n := int(d.c.U2())
		if n == 0 || d.c.Err() != nil {
			return v
		}
		*stack = append(*stack, &openElement{ann: v, left: n, name: d.c.U2()})
		return nil
	case '[':
		n := int(d.c.U2())
		v := &ArrayValue{Values: make([]ElementValue, 0, n)}
		if n == 0 || d.c.Err() != nil {
			return v
		}
		*stack = append(*stack, &openElement{array: v, left: n})
		return nil
	}
	d.c.Fail(&ElementTagError{Tag: tag, Offset: offset})
	return nil
}

func (d *decoder) readParameterAnnotations() [][]Annotation {
	n := int(d.c.U1())
	out := make([][]Annotation, 0, n)
	for i := 0; i < n && d.c.Err() == nil; i++ {
		out = append(out, d.readAnnotations())
	}
	return out
}

func (d *decoder) readTypeAnnotations() []TypeAnnotation {
	n := int(d.c.U2())
	out := make([]TypeAnnotation, 0, n)
	for i := 0; i < n && d.c.Err() == nil; i++ {
		out = append(out, d.readTypeAnnotation())
	}
	return out
}

func (d *decoder) readTypeAnnotation() TypeAnnotation {
	offset := d.c.Offset()
	ta := TypeAnnotation{TargetType: d.c.U1()}
	if d.c.Err() != nil {
		return ta
	}
	switch tt := ta.TargetType; {
	case tt == 0x00 || tt == 0x01:
		ta.Target = &TypeParameterTarget{Index: d.c.U1()}
	case tt == 0x10:
		ta.Target = &SupertypeTarget{Index: d.c.U2()}
	case tt == 0x11 || tt == 0x12:
		ta.Target = &TypeParameterBoundTarget{ParamIndex: d.c.U1(), BoundIndex: d.c.U1()}
	case tt >= 0x13 && tt <= 0x15:
		ta.Target = &EmptyTarget{}
	case tt == 0x16:
		ta.Target = &FormalParameterTarget{Index: d.c.U1()}
	case tt == 0x17:
		ta.Target = &ThrowsTarget{Index: d.c.U2()}
	case tt == 0x40 || tt == 0x41:
		n := int(d.c.U2())
		lv := &LocalVarTarget{Table: make([]LocalVarTargetEntry, 0, n)}
		for i := 0; i < n && d.c.Err() == nil; i++ {
			lv.Table = append(lv.Table, LocalVarTargetEntry{StartPC: d.c.U2(), Length: d.c.U2(), Index: d.c.U2()})
		}
		ta.Target = lv
	case tt == 0x42:
		ta.Target = &CatchTarget{ExceptionTableIndex: d.c.U2()}
	case tt >= 0x43 && tt <= 0x46:
		ta.Target = &OffsetTarget{Offset: d.c.U2()}
	case tt >= 0x47 && tt <= 0x4B:
		ta.Target = &TypeArgumentTarget{Offset: d.c.U2(), Index: d.c.U1()}
	default:
		d.c.Fail(&TargetTypeError{TargetType: tt, Offset: offset})
		return ta
	}
	ta.Path = d.readTypePath()
	ta.Annotation = d.readAnnotation()
	return ta
}

// readTypePath reads the path entries inside their own bounded region.
func (d *decoder) readTypePath() []TypePathEntry {
	n := int(d.c.U1())
	if d.c.Err() != nil {
		return nil
	}
	region, err := d.c.Enter(2 * n)
	if err != nil {
		d.c.Fail(err)
		return nil
	}
	path := make([]TypePathEntry, 0, n)
	for i := 0; i < n; i++ {
		path = append(path, TypePathEntry{Kind: d.c.U1(), ArgumentIndex: d.c.U1()})
	}
	if _, err := region.Leave(); err != nil {
		d.c.Fail(err)
	}
	return path
}

func writeAnnotation(w *Writer, a Annotation) {
	w.U2(a.TypeIndex)
	w.Count16("element value pairs", len(a.Pairs))
	for _, p := range a.Pairs {
		w.U2(p.NameIndex)
		writeElementValue(w, p.Value)
	}
}

func writeAnnotations(w *Writer, as []Annotation) {
	w.Count16("annotations", len(as))
	for _, a := range as {
		writeAnnotation(w, a)
	}
}

func writeParameterAnnotations(w *Writer, params [][]Annotation) {
	w.Count8("parameter annotations", len(params))
	for _, as := range params {
		writeAnnotations(w, as)
	}
}

// writeElementValue writes v depth first from an explicit stack of pending
// values.
func writeElementValue(w *Writer, v ElementValue) {
	type pending struct {
		value ElementValue
		name  uint16
		named bool
	}
	stack := []pending{{value: v}}
	for len(stack) > 0 && w.Err() == nil {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.named {
			w.U2(p.name)
		}
		if p.value == nil {
			w.Fail(&EncodeError{What: "element value", Detail: "missing value"})
			return
		}
		w.U1(p.value.ElementTag())
		switch v := p.value.(type) {
		case *ConstValue:
			w.U2(v.Index)
		case *EnumValue:
			w.U2(v.TypeNameIndex)
			w.U2(v.ConstNameIndex)
		case *ClassValue:
			w.U2(v.ClassInfoIndex)
		case *AnnotationValue:
			w.U2(v.Annotation.TypeIndex)
			w.Count16("element value pairs", len(v.Annotation.Pairs))
			for i := len(v.Annotation.Pairs) - 1; i >= 0; i-- {
				pair := v.Annotation.Pairs[i]
				stack = append(stack, pending{value: pair.Value, name: pair.NameIndex, named: true})
			}
		case *ArrayValue:
			w.Count16("array element values", len(v.Values))
			for i := len(v.Values) - 1; i >= 0; i-- {
				stack = append(stack, pending{value: v.Values[i]})
			}
		}
	}
}

func writeTypeAnnotations(w *Writer, tas []TypeAnnotation) {
	w.Count16("type annotations", len(tas))
	for _, ta := range tas {
		writeTypeAnnotation(w, ta)
	}
}

func writeTypeAnnotation(w *Writer, ta TypeAnnotation) {
	w.U1(ta.TargetType)
	switch t := ta.Target.(type) {
	case *TypeParameterTarget:
		w.U1(t.Index)
	case *SupertypeTarget:
		w.U2(t.Index)
	case *TypeParameterBoundTarget:
		w.U1(t.ParamIndex)
		w.U1(t.BoundIndex)
	case *EmptyTarget:
	case *FormalParameterTarget:
		w.U1(t.Index)
	case *ThrowsTarget:
		w.U2(t.Index)
	case *LocalVarTarget:
		w.Count16("local variable targets", len(t.Table))
		for _, e := range t.Table {
			w.U2(e.StartPC)
			w.U2(e.Length)
			w.U2(e.Index)
		}
	case *CatchTarget:
		w.U2(t.ExceptionTableIndex)
	case *OffsetTarget:
		w.U2(t.Offset)
	case *TypeArgumentTarget:
		w.U2(t.Offset)
		w.U1(t.Index)
	default:
		w.Fail(&EncodeError{What: "type annotation", Detail: fmt.Sprintf("target 0x%02x has no target info", ta.TargetType)})
		return
	}
	w.Count8("type path", len(ta.Path))
	for _, p := range ta.Path {
		w.U1(p.Kind)
		w.U1(p.ArgumentIndex)
	}
	writeAnnotation(w, ta.Annotation)
}
