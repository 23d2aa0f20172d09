// Package bincode implements the fixed-layout binary encoding used by scene
// payloads: little-endian fixed-width integers, u64 lengths for sequences
// and strings, u32 enum variant tags and u8 option tags.
//
// Field order is the schema. Never reorder fields of a published version.
package bincode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	// ErrTruncated reports that the payload ended mid-value.
	ErrTruncated = errors.New("bincode: unexpected end of data")
	// ErrInvalid reports a malformed value such as an unknown tag.
	ErrInvalid = errors.New("bincode: invalid data")
	// ErrTrailing reports bytes left after the top-level value.
	ErrTrailing = errors.New("bincode: trailing data")
)

// Encoder appends encoded values to an in-memory buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with room for sizeHint bytes.
func NewEncoder(sizeHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the encoded payload.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) U8(v uint8)   { e.buf = append(e.buf, v) }
func (e *Encoder) U32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *Encoder) U64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }
func (e *Encoder) I32(v int32)  { e.U32(uint32(v)) }
func (e *Encoder) F32(v float32) {
	e.U32(math.Float32bits(v))
}

// Len writes a sequence length.
func (e *Encoder) Len(n int) { e.U64(uint64(n)) }

// Variant writes an enum variant index.
func (e *Encoder) Variant(idx uint32) { e.U32(idx) }

// Option writes the presence tag of an optional value.
func (e *Encoder) Option(present bool) {
	if present {
		e.U8(1)
	} else {
		e.U8(0)
	}
}

// String writes a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) {
	e.Len(len(s))
	e.buf = append(e.buf, s...)
}

// ByteSlice writes a length-prefixed byte sequence.
func (e *Encoder) ByteSlice(b []byte) {
	e.Len(len(b))
	e.buf = append(e.buf, b...)
}

// F32Slice writes a length-prefixed float sequence.
func (e *Encoder) F32Slice(v []float32) {
	e.Len(len(v))
	for _, f := range v {
		e.F32(f)
	}
}

// F32Array writes a fixed-size float array without a length prefix.
func (e *Encoder) F32Array(v []float32) {
	for _, f := range v {
		e.F32(f)
	}
}

// Decoder reads values from a payload. The first failure is sticky: later
// reads return zero values and Err reports the original problem.
type Decoder struct {
	data []byte
	off  int
	err  error
}

// NewDecoder returns a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Err returns the first decoding error.
func (d *Decoder) Err() error { return d.err }

// Finish returns the first decoding error, or ErrTrailing if unread bytes remain.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.data) {
		return fmt.Errorf("%w: %d bytes", ErrTrailing, len(d.data)-d.off)
	}
	return nil
}

// Fail records err unless an earlier error is already recorded.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.data) {
		d.err = fmt.Errorf("%w at offset %d (need %d bytes)", ErrTruncated, d.off, n)
		d.off = len(d.data)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) U8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Decoder) U32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *Decoder) U64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *Decoder) I32() int32   { return int32(d.U32()) }
func (d *Decoder) F32() float32 { return math.Float32frombits(d.U32()) }

// Len reads a sequence length whose elements take at least elemSize bytes
// each. Lengths that cannot fit in the remaining payload fail before any
// allocation happens.
func (d *Decoder) Len(elemSize int) int {
	n := d.U64()
	if d.err != nil {
		return 0
	}
	elemSize = max(elemSize, 1)
	remaining := uint64(len(d.data) - d.off)
	if n > remaining/uint64(elemSize) {
		d.Fail(fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrTruncated, n, remaining))
		return 0
	}
	return int(n)
}

// Variant reads an enum variant index.
func (d *Decoder) Variant() uint32 { return d.U32() }

// Option reads the presence tag of an optional value.
func (d *Decoder) Option() bool {
	switch tag := d.U8(); tag {
	case 0:
		return false
	case 1:
		return true
	default:
		d.Fail(fmt.Errorf("%w: option tag %d", ErrInvalid, tag))
		return false
	}
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() string {
	b := d.take(d.Len(1))
	if d.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		d.Fail(fmt.Errorf("%w: string is not UTF-8", ErrInvalid))
		return ""
	}
	return string(b)
}

// ByteSlice reads a length-prefixed byte sequence into a fresh slice.
func (d *Decoder) ByteSlice() []byte {
	b := d.take(d.Len(1))
	if d.err != nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// F32Array fills dst from a fixed-size float array.
func (d *Decoder) F32Array(dst []float32) {
	for i := range dst {
		dst[i] = d.F32()
	}
}

// F32Slice reads a length-prefixed float sequence.
func (d *Decoder) F32Slice() []float32 {
	n := d.Len(4)
	if d.err != nil {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = d.F32()
	}
	return out
}
