package classfile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func ParseFile(path string, opts ...Option) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	return Decode(data, opts...)
}

func Parse(rd io.Reader, opts ...Option) (*ClassFile, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read class file: %w", err)
	}
	return Decode(data, opts...)
}

// Decode decodes a class file held in memory. Most malformations are
// recorded in ClassFile.Diagnostics and decoding goes on. When decoding has
// to stop, the partial model is returned together with an error wrapping
// ErrFatal, and Remainder holds the undecoded bytes.
func Decode(data []byte, opts ...Option) (*ClassFile, error) {
	d := newDecoder(data, opts)
	cf, err := d.decodeClassFile(data)
	cf.Diagnostics = d.diags
	if err != nil {
		return cf, fmt.Errorf("decode class file: %w", err)
	}
	if err := d.strictError(); err != nil {
		return cf, fmt.Errorf("decode class file: %w", err)
	}
	return cf, nil
}

// stop records a fatal diagnostic and keeps the bytes from offset on.
func (d *decoder) stop(cf *ClassFile, data []byte, offset int, what string, err error) error {
	if offset < 0 || offset > len(data) {
		offset = len(data)
	}
	d.report(offset, SeverityFatal, "%s: %v", what, err)
	cf.Remainder = append([]byte(nil), data[offset:]...)
	if errors.Is(err, ErrFatal) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%s: %w: %w", what, ErrFatal, err)
}

// failedAt returns the offset a pending cursor error points at.
func failedAt(c *Cursor) int {
	var end *EndError
	if errors.As(c.Err(), &end) {
		return end.Offset
	}
	return c.Offset()
}

func (d *decoder) decodeClassFile(data []byte) (*ClassFile, error) {
	c := d.c
	cf := &ClassFile{ConstantPool: d.cp}

	cf.Magic = c.U4()
	cf.MinorVersion = c.U2()
	cf.MajorVersion = c.U2()
	if c.Err() != nil {
		return cf, d.stop(cf, data, 0, "truncated header", c.Err())
	}
	if cf.Magic != Magic {
		d.warnf(0, "wrong magic 0x%08X, want 0x%08X", cf.Magic, uint32(Magic))
	}
	if v := cf.Version(); !d.gate.SetFileVersion(v) {
		d.log.Debugf("file version %s ignored, session stays at %s", v, d.gate.Current())
	}
	variant := d.variant()
	cf.readAs = &variant

	cp, err := readConstantPool(c)
	d.cp = cp
	cf.ConstantPool = cp
	if err != nil {
		var ute *UnknownTagError
		if errors.As(err, &ute) {
			return cf, d.stop(cf, data, ute.Offset, "constant pool", err)
		}
		return cf, d.stop(cf, data, failedAt(c), "truncated constant pool", err)
	}

	flagsOffset := c.Offset()
	cf.AccessFlags = AccessFlags(c.U2())
	cf.ThisClass = c.U2()
	cf.SuperClass = c.U2()
	cf.Interfaces = d.readU2List()
	if c.Err() != nil {
		return cf, d.stop(cf, data, failedAt(c), "truncated class header", c.Err())
	}
	d.checkFlags(flagsOffset, cf.AccessFlags, ContextClass)
	if _, err := cp.ClassName(cf.ThisClass); err != nil {
		d.warnf(flagsOffset+2, "this_class: %v", err)
	}
	if cf.SuperClass != 0 {
		if _, err := cp.ClassName(cf.SuperClass); err != nil {
			d.warnf(flagsOffset+4, "super_class: %v", err)
		}
	}

	n := int(c.U2())
	for i := 0; i < n && c.Err() == nil; i++ {
		f := FieldInfo{Offset: c.Offset()}
		f.AccessFlags = AccessFlags(c.U2())
		f.NameIndex = c.U2()
		f.DescriptorIndex = c.U2()
		if c.Err() != nil {
			break
		}
		d.checkFlags(f.Offset, f.AccessFlags, ContextField)
		d.checkFieldDescriptor(f.Offset+4, f.DescriptorIndex)
		f.Attributes = d.readAttributes()
		if c.Err() == nil {
			cf.Fields = append(cf.Fields, f)
		}
	}
	if c.Err() != nil {
		return cf, d.stop(cf, data, failedAt(c), "truncated field list", c.Err())
	}

	n = int(c.U2())
	for i := 0; i < n && c.Err() == nil; i++ {
		m := MethodInfo{Offset: c.Offset()}
		m.AccessFlags = AccessFlags(c.U2())
		m.NameIndex = c.U2()
		m.DescriptorIndex = c.U2()
		if c.Err() != nil {
			break
		}
		d.checkFlags(m.Offset, m.AccessFlags, ContextMethod)
		d.checkMethodDescriptor(m.Offset+4, m.DescriptorIndex)
		m.Attributes = d.readAttributes()
		if c.Err() == nil {
			cf.Methods = append(cf.Methods, m)
		}
	}
	if c.Err() != nil {
		return cf, d.stop(cf, data, failedAt(c), "truncated method list", c.Err())
	}

	cf.Attributes = d.readAttributes()
	if c.Err() != nil {
		return cf, d.stop(cf, data, failedAt(c), "truncated attribute list", c.Err())
	}

	if rest := c.Remaining(); rest > 0 {
		d.warnf(c.Offset(), "%d bytes after the end of the class file", rest)
		cf.Remainder = c.Rest()
	}
	return cf, nil
}
