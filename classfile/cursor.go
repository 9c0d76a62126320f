package classfile

import (
	"encoding/binary"
	"math"
)

// Cursor reads big-endian values from an in-memory class file. Reads are
// confined to the innermost region opened with Enter. Errors are sticky:
// after a failed read every read returns zero values until the region
// that owns the failure is left.
type Cursor struct {
	data     []byte
	pos      int
	ends     []int
	err      error
	errDepth int
}

func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the absolute position in the input.
func (c *Cursor) Offset() int { return c.pos }

// Depth returns the number of open regions.
func (c *Cursor) Depth() int { return len(c.ends) }

// Err returns the pending read error, if any.
func (c *Cursor) Err() error { return c.err }

// Remaining returns the bytes left in the innermost budget.
func (c *Cursor) Remaining() int { return c.end() - c.pos }

func (c *Cursor) end() int {
	if len(c.ends) == 0 {
		return len(c.data)
	}
	return c.ends[len(c.ends)-1]
}

func (c *Cursor) fail(n int) {
	c.err = &EndError{Offset: c.pos, Want: n, Have: c.end() - c.pos}
	c.errDepth = len(c.ends)
}

func (c *Cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > c.end() {
		c.fail(n)
		return nil
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *Cursor) U1() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *Cursor) U2() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (c *Cursor) U4() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (c *Cursor) U8() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (c *Cursor) F4() float32 { return math.Float32frombits(c.U4()) }

func (c *Cursor) F8() float64 { return math.Float64frombits(c.U8()) }

// Bytes returns a copy of the next n bytes.
func (c *Cursor) Bytes(n int) []byte {
	b := c.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int) {
	c.take(n)
}

// Rest consumes whatever is left of the innermost budget.
func (c *Cursor) Rest() []byte {
	return c.Bytes(c.Remaining())
}

// Fail records err as the pending error of the innermost region, as if a
// read had failed there. The first error wins.
func (c *Cursor) Fail(err error) {
	if c.err != nil {
		return
	}
	c.err = err
	c.errDepth = len(c.ends)
}

// Enter opens a region of n bytes starting at the current position. It
// fails without touching the cursor when n exceeds the enclosing budget.
func (c *Cursor) Enter(n int) (*Region, error) {
	if c.err != nil {
		return nil, c.err
	}
	if n < 0 || c.pos+n > c.end() {
		return nil, &EndError{Offset: c.pos, Want: n, Have: c.end() - c.pos}
	}
	c.ends = append(c.ends, c.pos+n)
	return &Region{c: c, start: c.pos, end: c.pos + n, depth: len(c.ends)}, nil
}

// Region is a bounded sub-range of the input opened by Cursor.Enter.
type Region struct {
	c      *Cursor
	start  int
	end    int
	depth  int
	closed bool
}

// Start returns the absolute offset of the first byte of the region.
func (r *Region) Start() int { return r.start }

// Len returns the declared size of the region.
func (r *Region) Len() int { return r.end - r.start }

// Bytes returns a copy of the whole region payload.
func (r *Region) Bytes() []byte {
	out := make([]byte, r.end-r.start)
	copy(out, r.c.data[r.start:r.end])
	return out
}

// Leave closes the region and moves the cursor to its end. It returns the
// bytes that were never consumed and the read error raised inside the
// region, if any; that error is cleared so the enclosing decode can go on.
// Leave is idempotent, so it can also be deferred as a guard.
func (r *Region) Leave() (unread []byte, err error) {
	if r.closed {
		return nil, nil
	}
	r.closed = true
	c := r.c
	if len(c.ends) >= r.depth {
		c.ends = c.ends[:r.depth-1]
	}
	if c.err != nil && c.errDepth >= r.depth {
		err = c.err
		c.err = nil
	}
	if err == nil && c.pos < r.end {
		unread = make([]byte, r.end-c.pos)
		copy(unread, c.data[c.pos:r.end])
	}
	c.pos = r.end
	return unread, err
}
