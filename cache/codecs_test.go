package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsignedSmartBoundary(t *testing.T) {
	assert.Equal(t, uint16(127), NewReader([]byte{0x7F}).UnsignedSmart())
	assert.Equal(t, uint16(0), NewReader([]byte{0x80, 0x00}).UnsignedSmart())
	assert.Equal(t, uint16(0x7FFF), NewReader([]byte{0xFF, 0xFF}).UnsignedSmart())
}

func TestSmart32ShortForm(t *testing.T) {
	v := NewReader([]byte{0x01, 0x23}).Smart32()
	assert.NotNil(t, v)
	assert.Equal(t, uint32(0x0123), *v)

	absent := NewReader([]byte{0x7F, 0xFF}).Smart32()
	assert.Nil(t, absent)

	long := NewReader([]byte{0x80, 0x00, 0x00, 0x05}).Smart32()
	assert.NotNil(t, long)
	assert.Equal(t, uint32(5), *long)
}

func TestTrySmart32EofOnEmptyBuffer(t *testing.T) {
	_, err := NewReader(nil).TrySmart32()
	assert.Error(t, err)
	re, ok := err.(*ReadError)
	assert.True(t, ok)
	assert.Equal(t, Eof, re.Kind)
}

func TestDecrSmart(t *testing.T) {
	r := NewReader([]byte{0x00, 0x05})
	assert.Nil(t, r.DecrSmart())
	assert.Equal(t, uint16(4), *r.DecrSmart())
}

func TestSmarts(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xFF, 0x05})
	assert.Equal(t, uint32(0x7FFF+5), r.Smarts())
}

func TestBitFlags(t *testing.T) {
	flags := NewReader([]byte{0b00000101}).BitFlags()
	assert.True(t, flags[0])
	assert.False(t, flags[1])
	assert.True(t, flags[2])
	for i := 3; i < 8; i++ {
		assert.False(t, flags[i])
	}
}

func TestStringNulTerminated(t *testing.T) {
	r := NewReader([]byte{'h', 'i', 0x00, 'x'})
	assert.Equal(t, "hi", r.String(NulTerminator))
	assert.Equal(t, 1, r.Remaining())
}

func TestStringMissingTerminator(t *testing.T) {
	_, err := NewReader([]byte{'h', 'i'}).TryString(NulTerminator)
	assert.Error(t, err)
	re, ok := err.(*ReadError)
	assert.True(t, ok)
	assert.Equal(t, NotNulTerminated, re.Kind)
}

func TestMaskedTableShape(t *testing.T) {
	// mask 0b101: positions 0 and 2 present, position 1 absent.
	data := []byte{
		0b00000101,
		0x00, 0x01, 0x00, // smart32=1, decr_smart -> nil
		0x7F, 0xFF, 0x00, // smart32=absent, decr_smart -> nil
	}
	r := NewReader(data)
	entries := r.MaskedTable()
	assert.Len(t, entries, 3)
	assert.NotNil(t, entries[0].A)
	assert.Equal(t, uint32(1), *entries[0].A)
	assert.Nil(t, entries[1].A)
	assert.Nil(t, entries[1].B)
	assert.Nil(t, entries[2].A)
}

func TestRGB(t *testing.T) {
	r := NewReader([]byte{0x10, 0x20, 0x30})
	assert.Equal(t, [3]byte{0x10, 0x20, 0x30}, r.RGB())
}
