package classfile

import (
	"errors"
	"fmt"
)

// ErrUnexpectedEnd is returned when a read runs past the end of the
// innermost bounded region or of the input.
var ErrUnexpectedEnd = errors.New("unexpected end of input")

// ErrFatal marks errors that stopped decoding of the whole container.
var ErrFatal = errors.New("fatal class file error")

// EndError reports a read that ran past its budget.
type EndError struct {
	Offset int
	Want   int
	Have   int
}

func (e *EndError) Error() string {
	return fmt.Sprintf("at offset %d: need %d bytes, have %d: %v", e.Offset, e.Want, e.Have, ErrUnexpectedEnd)
}

func (e *EndError) Unwrap() error { return ErrUnexpectedEnd }

type IndexErrorKind int

const (
	IndexOutOfRange IndexErrorKind = iota
	IndexUnusable
)

// IndexError reports a constant pool index that cannot be dereferenced.
type IndexError struct {
	Index uint16
	Count int
	Kind  IndexErrorKind
}

func (e *IndexError) Error() string {
	switch e.Kind {
	case IndexUnusable:
		return fmt.Sprintf("constant pool index #%d is the second slot of a wide entry", e.Index)
	default:
		return fmt.Sprintf("constant pool index #%d out of range (count %d)", e.Index, e.Count)
	}
}

// ConstantKindError reports a pool entry of an unexpected kind.
type ConstantKindError struct {
	Index uint16
	Want  ConstantTag
	Got   ConstantTag
}

func (e *ConstantKindError) Error() string {
	return fmt.Sprintf("wrong constant kind at #%d: want %s, got %s", e.Index, e.Want, e.Got)
}

// UnknownTagError is raised when the constant pool contains a tag the
// decoder does not know. The remainder of the container cannot be decoded.
type UnknownTagError struct {
	Tag    uint8
	Index  int
	Offset int
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown constant pool tag %d at #%d (offset %d)", e.Tag, e.Index, e.Offset)
}

func (e *UnknownTagError) Unwrap() error { return ErrFatal }

// SyntaxError is returned by the descriptor and signature parsers.
type SyntaxError struct {
	Input  string
	Offset int
	Near   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid descriptor/signature %q at offset %d near %q", e.Input, e.Offset, e.Near)
}

// EncodeError reports a model that cannot be written in the binary format.
type EncodeError struct {
	What   string
	Detail string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.What, e.Detail)
}

func (e *EncodeError) Unwrap() error { return ErrFatal }
