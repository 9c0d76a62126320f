package classfile

import (
	"fmt"
	"math"
)

func writeAttributes(w *Writer, attrs []AttributeInfo) {
	w.Count16("attributes", len(attrs))
	for i := range attrs {
		writeAttribute(w, &attrs[i])
	}
}

// writeAttribute emits the record with a length computed from the payload,
// followed by any trailing bytes kept from decoding.
func writeAttribute(w *Writer, a *AttributeInfo) {
	w.U2(a.NameIndex)
	mark := w.BeginLength()
	writeAttributeBody(w, a.Parsed)
	w.Raw(a.Trailing)
	w.EndLength(mark)
}

func writeU2List(w *Writer, what string, list []uint16) {
	w.Count16(what, len(list))
	for _, v := range list {
		w.U2(v)
	}
}

func writeAttributeBody(w *Writer, attr Attribute) {
	switch a := attr.(type) {
	case nil:
		w.Fail(&EncodeError{What: "attribute", Detail: "missing payload"})
	case *RawAttribute:
		w.Raw(a.Data)
	case *CodeAttribute:
		writeCode(w, a)
	case *ConstantValueAttribute:
		w.U2(a.ConstantValueIndex)
	case *ExceptionsAttribute:
		writeU2List(w, "Exceptions", a.ExceptionIndexTable)
	case *InnerClassesAttribute:
		w.Count16("InnerClasses", len(a.Classes))
		for _, e := range a.Classes {
			w.U2(e.InnerClassInfoIndex)
			w.U2(e.OuterClassInfoIndex)
			w.U2(e.InnerNameIndex)
			w.U2(uint16(e.InnerClassAccessFlags))
		}
	case *EnclosingMethodAttribute:
		w.U2(a.ClassIndex)
		w.U2(a.MethodIndex)
	case *SyntheticAttribute, *DeprecatedAttribute:
	case *SignatureAttribute:
		w.U2(a.SignatureIndex)
	case *SourceFileAttribute:
		w.U2(a.SourceFileIndex)
	case *SourceDebugExtensionAttribute:
		w.Raw([]byte(a.DebugExtension))
	case *LineNumberTableAttribute:
		w.Count16("LineNumberTable", len(a.LineNumberTable))
		for _, e := range a.LineNumberTable {
			w.U2(e.StartPC)
			w.U2(e.LineNumber)
		}
	case *LocalVariableTableAttribute:
		w.Count16("LocalVariableTable", len(a.LocalVariableTable))
		for _, e := range a.LocalVariableTable {
			w.U2(e.StartPC)
			w.U2(e.Length)
			w.U2(e.NameIndex)
			w.U2(e.DescriptorIndex)
			w.U2(e.Index)
		}
	case *LocalVariableTypeTableAttribute:
		w.Count16("LocalVariableTypeTable", len(a.LocalVariableTypeTable))
		for _, e := range a.LocalVariableTypeTable {
			w.U2(e.StartPC)
			w.U2(e.Length)
			w.U2(e.NameIndex)
			w.U2(e.SignatureIndex)
			w.U2(e.Index)
		}
	case *StackMapTableAttribute:
		w.Count16("StackMapTable", len(a.Entries))
		for _, f := range a.Entries {
			writeStackMapFrame(w, f)
		}
	case *StackMapAttribute:
		w.Count16("StackMap", len(a.Entries))
		for _, f := range a.Entries {
			writeFullFrameBody(w, f)
		}
	case *BootstrapMethodsAttribute:
		w.Count16("BootstrapMethods", len(a.BootstrapMethods))
		for _, m := range a.BootstrapMethods {
			w.U2(m.BootstrapMethodRef)
			writeU2List(w, "bootstrap arguments", m.BootstrapArguments)
		}
	case *MethodParametersAttribute:
		w.Count8("MethodParameters", len(a.Parameters))
		for _, p := range a.Parameters {
			w.U2(p.NameIndex)
			w.U2(uint16(p.AccessFlags))
		}
	case *RuntimeVisibleAnnotationsAttribute:
		writeAnnotations(w, a.Annotations)
	case *RuntimeInvisibleAnnotationsAttribute:
		writeAnnotations(w, a.Annotations)
	case *RuntimeVisibleParameterAnnotationsAttribute:
		writeParameterAnnotations(w, a.ParameterAnnotations)
	case *RuntimeInvisibleParameterAnnotationsAttribute:
		writeParameterAnnotations(w, a.ParameterAnnotations)
	case *RuntimeVisibleTypeAnnotationsAttribute:
		writeTypeAnnotations(w, a.Annotations)
	case *RuntimeInvisibleTypeAnnotationsAttribute:
		writeTypeAnnotations(w, a.Annotations)
	case *AnnotationDefaultAttribute:
		writeElementValue(w, a.DefaultValue)
	case *ModuleAttribute:
		writeModule(w, a)
	case *ModulePackagesAttribute:
		writeU2List(w, "ModulePackages", a.PackageIndex)
	case *ModuleMainClassAttribute:
		w.U2(a.MainClassIndex)
	case *ModuleTargetAttribute:
		w.U2(a.TargetPlatformIndex)
	case *ModuleResolutionAttribute:
		w.U2(a.ResolutionFlags)
	case *ModuleHashesAttribute:
		w.U2(a.AlgorithmIndex)
		w.Count16("ModuleHashes", len(a.Hashes))
		for _, h := range a.Hashes {
			w.U2(h.ModuleNameIndex)
			w.Count16("module hash", len(h.Hash))
			w.Raw(h.Hash)
		}
	case *NestHostAttribute:
		w.U2(a.HostClassIndex)
	case *NestMembersAttribute:
		writeU2List(w, "NestMembers", a.Classes)
	case *RecordAttribute:
		w.Count16("Record", len(a.Components))
		for i := range a.Components {
			rc := &a.Components[i]
			w.U2(rc.NameIndex)
			w.U2(rc.DescriptorIndex)
			writeAttributes(w, rc.Attributes)
		}
	case *PermittedSubclassesAttribute:
		writeU2List(w, "PermittedSubclasses", a.Classes)
	case *LoadableDescriptorsAttribute:
		writeU2List(w, "LoadableDescriptors", a.Descriptors)
	case *CharacterRangeTableAttribute:
		w.Count16("CharacterRangeTable", len(a.Entries))
		for _, e := range a.Entries {
			w.U2(e.StartPC)
			w.U2(e.EndPC)
			w.U4(e.CharacterRangeStart)
			w.U4(e.CharacterRangeEnd)
			w.U2(e.Flags)
		}
	case *SourceIDAttribute:
		w.U2(a.SourceIDIndex)
	case *CompilationIDAttribute:
		w.U2(a.CompilationIDIndex)
	default:
		w.Fail(&EncodeError{What: "attribute", Detail: fmt.Sprintf("unsupported payload %T", attr)})
	}
}

func writeCode(w *Writer, code *CodeAttribute) {
	if code.Compact {
		if code.MaxStack > math.MaxUint8 || code.MaxLocals > math.MaxUint8 || len(code.Code) > math.MaxUint16 {
			w.Fail(&EncodeError{What: "Code", Detail: "compact layout cannot hold max_stack, max_locals or code length"})
			return
		}
		w.U1(uint8(code.MaxStack))
		w.U1(uint8(code.MaxLocals))
		w.U2(uint16(len(code.Code)))
	} else {
		w.U2(code.MaxStack)
		w.U2(code.MaxLocals)
		w.U4(uint32(len(code.Code)))
	}
	w.Raw(code.Code)
	w.Count16("exception table", len(code.ExceptionTable))
	for _, e := range code.ExceptionTable {
		w.U2(e.StartPC)
		w.U2(e.EndPC)
		w.U2(e.HandlerPC)
		w.U2(e.CatchType)
	}
	writeAttributes(w, code.Attributes)
}

func writeModule(w *Writer, m *ModuleAttribute) {
	w.U2(m.ModuleNameIndex)
	w.U2(uint16(m.ModuleFlags))
	w.U2(m.ModuleVersionIndex)
	w.Count16("requires", len(m.Requires))
	for _, r := range m.Requires {
		w.U2(r.RequiresIndex)
		w.U2(uint16(r.RequiresFlags))
		w.U2(r.RequiresVersionIndex)
	}
	w.Count16("exports", len(m.Exports))
	for _, e := range m.Exports {
		w.U2(e.ExportsIndex)
		w.U2(uint16(e.ExportsFlags))
		writeU2List(w, "exports to", e.ExportsToIndex)
	}
	w.Count16("opens", len(m.Opens))
	for _, o := range m.Opens {
		w.U2(o.OpensIndex)
		w.U2(uint16(o.OpensFlags))
		writeU2List(w, "opens to", o.OpensToIndex)
	}
	writeU2List(w, "uses", m.Uses)
	w.Count16("provides", len(m.Provides))
	for _, p := range m.Provides {
		w.U2(p.ProvidesIndex)
		writeU2List(w, "provides with", p.ProvidesWithIndex)
	}
}
