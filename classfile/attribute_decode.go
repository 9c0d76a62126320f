package classfile

import (
	"errors"
	"fmt"
)

// readAttributes reads a u2-counted attribute list. It stops early when an
// attribute header cannot be read; the cursor error is left pending.
func (d *decoder) readAttributes() []AttributeInfo {
	n := int(d.c.U2())
	if d.c.Err() != nil {
		return nil
	}
	attrs := make([]AttributeInfo, 0, n)
	for i := 0; i < n; i++ {
		a, ok := d.readAttribute()
		if !ok {
			break
		}
		attrs = append(attrs, a)
	}
	return attrs
}

// readAttribute decodes one attribute inside a region of its declared
// length. Problems inside the payload are diagnosed and confined to the
// record; only a header that does not fit its budget stops the caller.
func (d *decoder) readAttribute() (AttributeInfo, bool) {
	a := AttributeInfo{Offset: d.c.Offset()}
	a.NameIndex = d.c.U2()
	a.Length = d.c.U4()
	if d.c.Err() != nil {
		return a, false
	}
	name, err := d.cp.Utf8(a.NameIndex)
	if err != nil {
		d.warnf(a.Offset, "attribute name: %v", err)
		name = fmt.Sprintf("#%d", a.NameIndex)
	} else {
		a.Kind = LookupAttributeKind(name)
	}
	region, err := d.c.Enter(int(a.Length))
	if err != nil {
		d.c.Fail(err)
		return a, false
	}
	defer region.Leave()

	if want, fixed := fixedLengths[a.Kind]; fixed && int(a.Length) != want {
		d.warnf(a.Offset, "%s: invalid length %d, want %d", name, a.Length, want)
		a.Parsed = &RawAttribute{Data: d.c.Rest()}
		return a, true
	}
	if a.Kind == KindUnknown {
		a.Parsed = &RawAttribute{Data: d.c.Rest()}
		return a, true
	}

	a.Parsed = d.readAttributeBody(a.Kind)
	unread, err := region.Leave()
	switch {
	case errors.Is(err, ErrUnexpectedEnd):
		d.report(a.Offset, SeverityRecord, "%s: unexpected end of attribute: %v", name, err)
		a.Parsed = &RawAttribute{Data: region.Bytes()}
	case err != nil:
		d.report(a.Offset, SeverityRecord, "%s: invalid attribute: %v", name, err)
		a.Parsed = &RawAttribute{Data: region.Bytes()}
	case len(unread) > 0:
		d.warnf(a.Offset, "%s: attribute declared more bytes than consumed (%d unread)", name, len(unread))
		a.Trailing = unread
	}
	return a, true
}

func (d *decoder) readU2List() []uint16 {
	n := int(d.c.U2())
	out := make([]uint16, 0, n)
	for i := 0; i < n && d.c.Err() == nil; i++ {
		out = append(out, d.c.U2())
	}
	return out
}

func (d *decoder) readAttributeBody(kind AttributeKind) Attribute {
	c := d.c
	switch kind {
	case KindCode:
		return d.readCode()
	case KindConstantValue:
		return &ConstantValueAttribute{ConstantValueIndex: c.U2()}
	case KindExceptions:
		return &ExceptionsAttribute{ExceptionIndexTable: d.readU2List()}
	case KindInnerClasses:
		return d.readInnerClasses()
	case KindEnclosingMethod:
		return &EnclosingMethodAttribute{ClassIndex: c.U2(), MethodIndex: c.U2()}
	case KindSynthetic:
		return &SyntheticAttribute{}
	case KindDeprecated:
		return &DeprecatedAttribute{}
	case KindSignature:
		return &SignatureAttribute{SignatureIndex: c.U2()}
	case KindSourceFile:
		return &SourceFileAttribute{SourceFileIndex: c.U2()}
	case KindSourceDebugExtension:
		return &SourceDebugExtensionAttribute{DebugExtension: string(c.Rest())}
	case KindLineNumberTable:
		n := int(c.U2())
		lnt := &LineNumberTableAttribute{LineNumberTable: make([]LineNumberEntry, 0, n)}
		for i := 0; i < n && c.Err() == nil; i++ {
			lnt.LineNumberTable = append(lnt.LineNumberTable, LineNumberEntry{StartPC: c.U2(), LineNumber: c.U2()})
		}
		return lnt
	case KindLocalVariableTable:
		n := int(c.U2())
		lvt := &LocalVariableTableAttribute{LocalVariableTable: make([]LocalVariableEntry, 0, n)}
		for i := 0; i < n && c.Err() == nil; i++ {
			lvt.LocalVariableTable = append(lvt.LocalVariableTable, LocalVariableEntry{
				StartPC: c.U2(), Length: c.U2(), NameIndex: c.U2(), DescriptorIndex: c.U2(), Index: c.U2(),
			})
		}
		return lvt
	case KindLocalVariableTypeTable:
		n := int(c.U2())
		lvtt := &LocalVariableTypeTableAttribute{LocalVariableTypeTable: make([]LocalVariableTypeEntry, 0, n)}
		for i := 0; i < n && c.Err() == nil; i++ {
			lvtt.LocalVariableTypeTable = append(lvtt.LocalVariableTypeTable, LocalVariableTypeEntry{
				StartPC: c.U2(), Length: c.U2(), NameIndex: c.U2(), SignatureIndex: c.U2(), Index: c.U2(),
			})
		}
		return lvtt
	case KindStackMapTable:
		n := int(c.U2())
		smt := &StackMapTableAttribute{Entries: make([]StackMapFrame, 0, n)}
		for i := 0; i < n && c.Err() == nil; i++ {
			if f := d.readStackMapFrame(); f != nil {
				smt.Entries = append(smt.Entries, f)
			}
		}
		return smt
	case KindStackMap:
		n := int(c.U2())
		sm := &StackMapAttribute{Entries: make([]*FullFrame, 0, n)}
		for i := 0; i < n && c.Err() == nil; i++ {
			sm.Entries = append(sm.Entries, d.readFullFrame())
		}
		return sm
	case KindBootstrapMethods:
		n := int(c.U2())
		bm := &BootstrapMethodsAttribute{BootstrapMethods: make([]BootstrapMethod, 0, n)}
		for i := 0; i < n && c.Err() == nil; i++ {
			ref := c.U2()
			bm.BootstrapMethods = append(bm.BootstrapMethods, BootstrapMethod{BootstrapMethodRef: ref, BootstrapArguments: d.readU2List()})
		}
		return bm
	case KindMethodParameters:
		n := int(c.U1())
		mp := &MethodParametersAttribute{Parameters: make([]MethodParameter, 0, n)}
		for i := 0; i < n && c.Err() == nil; i++ {
			offset := c.Offset()
			p := MethodParameter{NameIndex: c.U2(), AccessFlags: AccessFlags(c.U2())}
			if c.Err() == nil {
				d.checkFlags(offset+2, p.AccessFlags, ContextMethodParameters)
			}
			mp.Parameters = append(mp.Parameters, p)
		}
		return mp
	case KindRuntimeVisibleAnnotations:
		return &RuntimeVisibleAnnotationsAttribute{Annotations: d.readAnnotations()}
	case KindRuntimeInvisibleAnnotations:
		return &RuntimeInvisibleAnnotationsAttribute{Annotations: d.readAnnotations()}
	case KindRuntimeVisibleParameterAnnotations:
		return &RuntimeVisibleParameterAnnotationsAttribute{ParameterAnnotations: d.readParameterAnnotations()}
	case KindRuntimeInvisibleParameterAnnotations:
		return &RuntimeInvisibleParameterAnnotationsAttribute{ParameterAnnotations: d.readParameterAnnotations()}
	case KindRuntimeVisibleTypeAnnotations:
		return &RuntimeVisibleTypeAnnotationsAttribute{Annotations: d.readTypeAnnotations()}
	case KindRuntimeInvisibleTypeAnnotations:
		return &RuntimeInvisibleTypeAnnotationsAttribute{Annotations: d.readTypeAnnotations()}
	case KindAnnotationDefault:
		return &AnnotationDefaultAttribute{DefaultValue: d.readElementValue()}
	case KindModule:
		return d.readModule()
	case KindModulePackages:
		return &ModulePackagesAttribute{PackageIndex: d.readU2List()}
	case KindModuleMainClass:
		return &ModuleMainClassAttribute{MainClassIndex: c.U2()}
	case KindModuleTarget:
		return &ModuleTargetAttribute{TargetPlatformIndex: c.U2()}
	case KindModuleResolution:
		return &ModuleResolutionAttribute{ResolutionFlags: c.U2()}
	case KindModuleHashes:
		mh := &ModuleHashesAttribute{AlgorithmIndex: c.U2()}
		n := int(c.U2())
		for i := 0; i < n && c.Err() == nil; i++ {
			name := c.U2()
			hash := c.Bytes(int(c.U2()))
			mh.Hashes = append(mh.Hashes, ModuleHash{ModuleNameIndex: name, Hash: hash})
		}
		return mh
	case KindNestHost:
		return &NestHostAttribute{HostClassIndex: c.U2()}
	case KindNestMembers:
		return &NestMembersAttribute{Classes: d.readU2List()}
	case KindRecord:
		return d.readRecord()
	case KindPermittedSubclasses:
		return &PermittedSubclassesAttribute{Classes: d.readU2List()}
	case KindLoadableDescriptors:
		return &LoadableDescriptorsAttribute{Descriptors: d.readU2List()}
	case KindCharacterRangeTable:
		n := int(c.U2())
		crt := &CharacterRangeTableAttribute{Entries: make([]CharacterRange, 0, n)}
		for i := 0; i < n && c.Err() == nil; i++ {
			crt.Entries = append(crt.Entries, CharacterRange{
				StartPC: c.U2(), EndPC: c.U2(), CharacterRangeStart: c.U4(), CharacterRangeEnd: c.U4(), Flags: c.U2(),
			})
		}
		return crt
	case KindSourceID:
		return &SourceIDAttribute{SourceIDIndex: c.U2()}
	case KindCompilationID:
		return &CompilationIDAttribute{CompilationIDIndex: c.U2()}
	}
	return &RawAttribute{Data: c.Rest()}
}

func (d *decoder) readCode() *CodeAttribute {
	c := d.c
	code := &CodeAttribute{Compact: d.gate.Current().Less(compactCodeVersion)}
	var length int
	if code.Compact {
		code.MaxStack = uint16(c.U1())
		code.MaxLocals = uint16(c.U1())
		length = int(c.U2())
	} else {
		code.MaxStack = c.U2()
		code.MaxLocals = c.U2()
		length = int(c.U4())
	}
	code.Code = c.Bytes(length)
	n := int(c.U2())
	code.ExceptionTable = make([]ExceptionTableEntry, 0, n)
	for i := 0; i < n && c.Err() == nil; i++ {
		code.ExceptionTable = append(code.ExceptionTable, ExceptionTableEntry{
			StartPC: c.U2(), EndPC: c.U2(), HandlerPC: c.U2(), CatchType: c.U2(),
		})
	}
	if c.Err() == nil {
		code.Attributes = d.readAttributes()
	}
	return code
}

func (d *decoder) readInnerClasses() *InnerClassesAttribute {
	c := d.c
	n := int(c.U2())
	ic := &InnerClassesAttribute{Classes: make([]InnerClassEntry, 0, n)}
	for i := 0; i < n && c.Err() == nil; i++ {
		offset := c.Offset()
		e := InnerClassEntry{
			InnerClassInfoIndex:   c.U2(),
			OuterClassInfoIndex:   c.U2(),
			InnerNameIndex:        c.U2(),
			InnerClassAccessFlags: AccessFlags(c.U2()),
		}
		if c.Err() == nil {
			d.checkFlags(offset+6, e.InnerClassAccessFlags, ContextInnerClass)
		}
		ic.Classes = append(ic.Classes, e)
	}
	return ic
}

func (d *decoder) readModule() *ModuleAttribute {
	c := d.c
	m := &ModuleAttribute{ModuleNameIndex: c.U2()}
	offset := c.Offset()
	m.ModuleFlags = AccessFlags(c.U2())
	m.ModuleVersionIndex = c.U2()
	if c.Err() != nil {
		return m
	}
	d.checkFlags(offset, m.ModuleFlags, ContextModule)

	n := int(c.U2())
	for i := 0; i < n && c.Err() == nil; i++ {
		r := ModuleRequires{RequiresIndex: c.U2()}
		offset := c.Offset()
		r.RequiresFlags = AccessFlags(c.U2())
		r.RequiresVersionIndex = c.U2()
		if c.Err() == nil {
			d.checkFlags(offset, r.RequiresFlags, ContextRequires)
		}
		m.Requires = append(m.Requires, r)
	}
	n = int(c.U2())
	for i := 0; i < n && c.Err() == nil; i++ {
		e := ModuleExports{ExportsIndex: c.U2()}
		offset := c.Offset()
		e.ExportsFlags = AccessFlags(c.U2())
		e.ExportsToIndex = d.readU2List()
		if c.Err() == nil {
			d.checkFlags(offset, e.ExportsFlags, ContextExports)
		}
		m.Exports = append(m.Exports, e)
	}
	n = int(c.U2())
	for i := 0; i < n && c.Err() == nil; i++ {
		o := ModuleOpens{OpensIndex: c.U2()}
		offset := c.Offset()
		o.OpensFlags = AccessFlags(c.U2())
		o.OpensToIndex = d.readU2List()
		if c.Err() == nil {
			d.checkFlags(offset, o.OpensFlags, ContextOpens)
		}
		m.Opens = append(m.Opens, o)
	}
	m.Uses = d.readU2List()
	n = int(c.U2())
	for i := 0; i < n && c.Err() == nil; i++ {
		p := ModuleProvides{ProvidesIndex: c.U2()}
		p.ProvidesWithIndex = d.readU2List()
		m.Provides = append(m.Provides, p)
	}
	return m
}

func (d *decoder) readRecord() *RecordAttribute {
	c := d.c
	n := int(c.U2())
	r := &RecordAttribute{Components: make([]RecordComponentInfo, 0, n)}
	for i := 0; i < n && c.Err() == nil; i++ {
		rc := RecordComponentInfo{NameIndex: c.U2()}
		offset := c.Offset()
		rc.DescriptorIndex = c.U2()
		if c.Err() != nil {
			break
		}
		d.checkFieldDescriptor(offset, rc.DescriptorIndex)
		rc.Attributes = d.readAttributes()
		r.Components = append(r.Components, rc)
	}
	return r
}

// checkFieldDescriptor warns when the Utf8 at index is not a field descriptor.
func (d *decoder) checkFieldDescriptor(offset int, index uint16) {
	desc, err := d.cp.Utf8(index)
	if err != nil {
		d.warnf(offset, "descriptor: %v", err)
		return
	}
	if _, err := ParseFieldDescriptor(desc); err != nil {
		d.warnf(offset, "%v", err)
	}
}

// checkMethodDescriptor warns when the Utf8 at index is not a method descriptor.
func (d *decoder) checkMethodDescriptor(offset int, index uint16) {
	desc, err := d.cp.Utf8(index)
	if err != nil {
		d.warnf(offset, "descriptor: %v", err)
		return
	}
	if _, err := ParseMethodDescriptor(desc); err != nil {
		d.warnf(offset, "%v", err)
	}
}
