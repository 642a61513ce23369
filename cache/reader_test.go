package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaderPrimitives(t *testing.T) {
	r := NewReader([]byte{0x01, 0xFF, 0x12, 0x34, 0x00, 0x00, 0x00, 0x05})
	assert.Equal(t, uint8(0x01), r.U8())
	assert.Equal(t, int8(-1), r.I8())
	assert.Equal(t, uint16(0x1234), r.U16())
	assert.Equal(t, uint32(5), r.U32())
	assert.Equal(t, 0, r.Remaining())
}

func TestReaderTryU32Eof(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00, 0x01})
	before := r.Pos()
	_, err := r.TryU32()
	assert.Error(t, err)
	re, ok := err.(*ReadError)
	assert.True(t, ok)
	assert.Equal(t, Eof, re.Kind)
	assert.Equal(t, before, r.Pos(), "cursor must not advance on a failed checked read")
}

func TestReaderUint(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	assert.Equal(t, uint64(0x010203), r.Uint(3))
}

func TestReaderArray(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	assert.Equal(t, []byte{1, 2, 3}, r.Array(3))
	assert.Equal(t, 1, r.Remaining())
}

func TestReaderUncheckedPanicsOnEof(t *testing.T) {
	r := NewReader([]byte{})
	assert.Panics(t, func() { r.U8() })
}
