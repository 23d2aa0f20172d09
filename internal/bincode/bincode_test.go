package bincode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	e := NewEncoder(0)
	e.U8(7)
	e.I32(-2)
	e.Option(true)
	e.Variant(1)
	e.String("ab")
	assert.Equal(t, []byte{
		7,
		0xfe, 0xff, 0xff, 0xff,
		1,
		1, 0, 0, 0,
		2, 0, 0, 0, 0, 0, 0, 0, 'a', 'b',
	}, e.Bytes())
}

func TestDecodeValues(t *testing.T) {
	e := NewEncoder(64)
	e.U64(math.MaxUint64)
	e.F32(1.5)
	e.ByteSlice([]byte{1, 2, 3})
	e.F32Slice([]float32{0.25, -4})
	e.Option(false)

	d := NewDecoder(e.Bytes())
	assert.Equal(t, uint64(math.MaxUint64), d.U64())
	assert.Equal(t, float32(1.5), d.F32())
	assert.Equal(t, []byte{1, 2, 3}, d.ByteSlice())
	assert.Equal(t, []float32{0.25, -4}, d.F32Slice())
	assert.False(t, d.Option())
	require.NoError(t, d.Finish())
}

func TestTruncatedIsSticky(t *testing.T) {
	d := NewDecoder([]byte{1, 2})
	assert.Equal(t, uint32(0), d.U32())
	assert.Equal(t, uint8(0), d.U8())
	assert.ErrorIs(t, d.Err(), ErrTruncated)
	assert.ErrorIs(t, d.Finish(), ErrTruncated)
}

func TestHugeLengthRejectedBeforeAllocation(t *testing.T) {
	e := NewEncoder(0)
	e.U64(1 << 60)
	d := NewDecoder(e.Bytes())
	assert.Nil(t, d.ByteSlice())
	assert.ErrorIs(t, d.Err(), ErrTruncated)

	e = NewEncoder(0)
	e.U64(3)
	e.F32(1)
	e.F32(2)
	d = NewDecoder(e.Bytes())
	assert.Nil(t, d.F32Slice())
	assert.ErrorIs(t, d.Err(), ErrTruncated)
}

func TestInvalidOptionTag(t *testing.T) {
	d := NewDecoder([]byte{2})
	d.Option()
	assert.ErrorIs(t, d.Err(), ErrInvalid)
}

func TestInvalidUTF8(t *testing.T) {
	e := NewEncoder(0)
	e.ByteSlice([]byte{0xff, 0xfe})
	d := NewDecoder(e.Bytes())
	assert.Equal(t, "", d.String())
	assert.ErrorIs(t, d.Err(), ErrInvalid)
}

func TestTrailing(t *testing.T) {
	d := NewDecoder([]byte{1, 2})
	d.U8()
	assert.ErrorIs(t, d.Finish(), ErrTrailing)
}
