package format

import (
	"errors"
	"fmt"
	"io"

	"github.com/dhamidi/classkit/classfile"
	"github.com/fxamacker/cbor/v2"
)

// snapshotVersion is bumped when the Snapshot layout changes.
const snapshotVersion = 1

// Snapshot is a lossless structural image of a class file. The constant
// pool and every attribute payload are kept in their binary form, so a
// class rebuilt from a snapshot encodes to the original bytes.
type Snapshot struct {
	Version      byte                `cbor:"1,keyasint"`
	Magic        uint32              `cbor:"2,keyasint"`
	MinorVersion uint16              `cbor:"3,keyasint"`
	MajorVersion uint16              `cbor:"4,keyasint"`
	Pool         []byte              `cbor:"5,keyasint"`
	AccessFlags  uint16              `cbor:"6,keyasint"`
	ThisClass    uint16              `cbor:"7,keyasint"`
	SuperClass   uint16              `cbor:"8,keyasint"`
	Interfaces   []uint16            `cbor:"9,keyasint,omitempty"`
	Fields       []MemberSnapshot    `cbor:"10,keyasint,omitempty"`
	Methods      []MemberSnapshot    `cbor:"11,keyasint,omitempty"`
	Attributes   []AttributeSnapshot `cbor:"12,keyasint,omitempty"`
	Trailing     []byte              `cbor:"13,keyasint,omitempty"` // bytes after the class end
	Diagnostics  []string            `cbor:"14,keyasint,omitempty"` // informational only
}

type MemberSnapshot struct {
	AccessFlags     uint16              `cbor:"1,keyasint"`
	NameIndex       uint16              `cbor:"2,keyasint"`
	DescriptorIndex uint16              `cbor:"3,keyasint"`
	Attributes      []AttributeSnapshot `cbor:"4,keyasint,omitempty"`
}

type AttributeSnapshot struct {
	NameIndex uint16 `cbor:"1,keyasint"`
	Name      string `cbor:"2,keyasint,omitempty"`
	Payload   []byte `cbor:"3,keyasint"`
}

// ErrPartialClass is returned when snapshotting a class whose decode stopped.
var ErrPartialClass = errors.New("class file was only partially decoded")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("format: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// NewSnapshot captures cf.
func NewSnapshot(cf *classfile.ClassFile) (*Snapshot, error) {
	if cf.Fatal() {
		return nil, fmt.Errorf("snapshot %s: %w", cf.ClassName(), ErrPartialClass)
	}
	pool, err := cf.ConstantPool.Bytes()
	if err != nil {
		return nil, fmt.Errorf("snapshot constant pool: %w", err)
	}
	s := &Snapshot{
		Version:      snapshotVersion,
		Magic:        cf.Magic,
		MinorVersion: cf.MinorVersion,
		MajorVersion: cf.MajorVersion,
		Pool:         pool,
		AccessFlags:  uint16(cf.AccessFlags),
		ThisClass:    cf.ThisClass,
		SuperClass:   cf.SuperClass,
		Interfaces:   cf.Interfaces,
		Trailing:     cf.Remainder,
	}
	for i := range cf.Fields {
		f := &cf.Fields[i]
		m, err := memberSnapshot(uint16(f.AccessFlags), f.NameIndex, f.DescriptorIndex, f.Attributes, cf.ConstantPool)
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, m)
	}
	for i := range cf.Methods {
		mi := &cf.Methods[i]
		m, err := memberSnapshot(uint16(mi.AccessFlags), mi.NameIndex, mi.DescriptorIndex, mi.Attributes, cf.ConstantPool)
		if err != nil {
			return nil, err
		}
		s.Methods = append(s.Methods, m)
	}
	if s.Attributes, err = attributeSnapshots(cf.Attributes, cf.ConstantPool); err != nil {
		return nil, err
	}
	for _, d := range cf.Diagnostics {
		s.Diagnostics = append(s.Diagnostics, d.String())
	}
	return s, nil
}

func memberSnapshot(flags, name, desc uint16, attrs []classfile.AttributeInfo, cp *classfile.ConstantPool) (MemberSnapshot, error) {
	as, err := attributeSnapshots(attrs, cp)
	if err != nil {
		return MemberSnapshot{}, err
	}
	return MemberSnapshot{AccessFlags: flags, NameIndex: name, DescriptorIndex: desc, Attributes: as}, nil
}

func attributeSnapshots(attrs []classfile.AttributeInfo, cp *classfile.ConstantPool) ([]AttributeSnapshot, error) {
	var out []AttributeSnapshot
	for i := range attrs {
		a := &attrs[i]
		payload, err := classfile.EncodeAttribute(a)
		if err != nil {
			return nil, fmt.Errorf("snapshot attribute %s: %w", attributeName(a, cp), err)
		}
		out = append(out, AttributeSnapshot{NameIndex: a.NameIndex, Name: a.Name(cp), Payload: payload})
	}
	return out, nil
}

// Bytes rebuilds the class file bytes the snapshot was taken from.
func (s *Snapshot) Bytes() ([]byte, error) {
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	w := classfile.NewWriter()
	w.U4(s.Magic)
	w.U2(s.MinorVersion)
	w.U2(s.MajorVersion)
	w.Raw(s.Pool)
	w.U2(s.AccessFlags)
	w.U2(s.ThisClass)
	w.U2(s.SuperClass)
	w.Count16("interfaces", len(s.Interfaces))
	for _, i := range s.Interfaces {
		w.U2(i)
	}
	writeMembers(w, "fields", s.Fields)
	writeMembers(w, "methods", s.Methods)
	writeAttributeSnapshots(w, s.Attributes)
	w.Raw(s.Trailing)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("rebuild class file: %w", err)
	}
	return w.Bytes(), nil
}

func writeMembers(w *classfile.Writer, what string, members []MemberSnapshot) {
	w.Count16(what, len(members))
	for _, m := range members {
		w.U2(m.AccessFlags)
		w.U2(m.NameIndex)
		w.U2(m.DescriptorIndex)
		writeAttributeSnapshots(w, m.Attributes)
	}
}

func writeAttributeSnapshots(w *classfile.Writer, attrs []AttributeSnapshot) {
	w.Count16("attributes", len(attrs))
	for _, a := range attrs {
		w.U2(a.NameIndex)
		mark := w.BeginLength()
		w.Raw(a.Payload)
		w.EndLength(mark)
	}
}

// ClassFile decodes the rebuilt bytes into a fresh model.
func (s *Snapshot) ClassFile(opts ...classfile.Option) (*classfile.ClassFile, error) {
	data, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return classfile.Decode(data, opts...)
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// SnapshotEncoder writes the CBOR snapshot of a class to w.
type SnapshotEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewSnapshotEncoder(w io.Writer) *SnapshotEncoder {
	return &SnapshotEncoder{w: w}
}

func (e *SnapshotEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	data, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}

// MarshalText returns the CBOR bytes; the snapshot is binary despite the
// method name, which lets it satisfy Encoder.
func (e *SnapshotEncoder) MarshalText() ([]byte, error) {
	s, err := NewSnapshot(e.class)
	if err != nil {
		return nil, err
	}
	return MarshalSnapshot(s)
}

// ReadSnapshot reads a CBOR snapshot from r and decodes the class it holds.
func ReadSnapshot(r io.Reader, opts ...classfile.Option) (*classfile.ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	s, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, err
	}
	return s.ClassFile(opts...)
}
