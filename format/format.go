package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/classkit/classfile"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(cf *classfile.ClassFile) error
}

// Names lists the formats New accepts.
var Names = []string{"line", "json", "cbor"}

// New returns the encoder for the named format.
func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "line", "":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "cbor":
		return NewSnapshotEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q", name)
}
