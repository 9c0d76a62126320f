package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates the big-endian encoding of a class file. Like Cursor
// it keeps the first error and ignores writes after it.
type Writer struct {
	buf []byte
	err error
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 1024)}
}

func (w *Writer) Err() error { return w.err }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) U1(v uint8) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, v)
}

func (w *Writer) U2(v uint16) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) U4(v uint32) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) U8(v uint64) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *Writer) F4(v float32) { w.U4(math.Float32bits(v)) }

func (w *Writer) F8(v float64) { w.U8(math.Float64bits(v)) }

func (w *Writer) Raw(b []byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, b...)
}

// Count16 writes a u2 list length, failing when n does not fit.
func (w *Writer) Count16(what string, n int) {
	if n > math.MaxUint16 {
		w.Fail(&EncodeError{What: what, Detail: fmt.Sprintf("%d entries exceed u2 range", n)})
		return
	}
	w.U2(uint16(n))
}

// Count8 writes a u1 list length, failing when n does not fit.
func (w *Writer) Count8(what string, n int) {
	if n > math.MaxUint8 {
		w.Fail(&EncodeError{What: what, Detail: fmt.Sprintf("%d entries exceed u1 range", n)})
		return
	}
	w.U1(uint8(n))
}

// BeginLength reserves a u4 length slot and returns its position.
func (w *Writer) BeginLength() int {
	mark := len(w.buf)
	w.U4(0)
	return mark
}

// EndLength patches the slot reserved at mark with the bytes written since.
func (w *Writer) EndLength(mark int) {
	if w.err != nil {
		return
	}
	n := len(w.buf) - mark - 4
	binary.BigEndian.PutUint32(w.buf[mark:], uint32(n))
}
