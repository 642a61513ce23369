package cache

import "encoding/binary"

// Reader is a cursor over an in-memory byte slice, with two parallel
// families of primitives: checked (TryX, fails with ErrEof if too few
// bytes remain) and unchecked (X, panics). The unchecked family exists so
// hot-path domain codecs that already validated a prefix byte can keep
// consuming without re-checking length on every field.
//
// A successful read advances the cursor by exactly the consumed length; a
// failing checked read leaves the cursor unchanged.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential reading starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Bytes returns the unread tail of the buffer. The caller must not mutate it.
func (r *Reader) Bytes() []byte { return r.buf[r.pos:] }

// TryU8 reads one unsigned byte.
func (r *Reader) TryU8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, ErrEof()
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// U8 reads one unsigned byte, panicking on EOF.
func (r *Reader) U8() uint8 {
	v, err := r.TryU8()
	if err != nil {
		panic(err)
	}
	return v
}

// TryI8 reads one signed byte.
func (r *Reader) TryI8() (int8, error) {
	v, err := r.TryU8()
	return int8(v), err
}

// I8 reads one signed byte, panicking on EOF.
func (r *Reader) I8() int8 { return int8(r.U8()) }

// TryU16 reads a big-endian uint16.
func (r *Reader) TryU16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, ErrEof()
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// U16 reads a big-endian uint16, panicking on EOF.
func (r *Reader) U16() uint16 {
	v, err := r.TryU16()
	if err != nil {
		panic(err)
	}
	return v
}

// TryI32 reads a big-endian int32.
func (r *Reader) TryI32() (int32, error) {
	v, err := r.TryU32()
	return int32(v), err
}

// I32 reads a big-endian int32, panicking on EOF.
func (r *Reader) I32() int32 { return int32(r.U32()) }

// TryU32 reads a big-endian uint32.
func (r *Reader) TryU32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrEof()
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// U32 reads a big-endian uint32, panicking on EOF.
func (r *Reader) U32() uint32 {
	v, err := r.TryU32()
	if err != nil {
		panic(err)
	}
	return v
}

// TryUint reads an n-byte (1<=n<=8) big-endian unsigned integer into a uint64.
func (r *Reader) TryUint(n int) (uint64, error) {
	if n < 1 || n > 8 {
		panic("cache: Uint width must be between 1 and 8 bytes")
	}
	if r.Remaining() < n {
		return 0, ErrEof()
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(r.buf[r.pos+i])
	}
	r.pos += n
	return v, nil
}

// Uint reads an n-byte big-endian unsigned integer, panicking on EOF.
func (r *Reader) Uint(n int) uint64 {
	v, err := r.TryUint(n)
	if err != nil {
		panic(err)
	}
	return v
}

// TryArray reads exactly n bytes.
func (r *Reader) TryArray(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrEof()
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// Array reads exactly n bytes, panicking on EOF.
func (r *Reader) Array(n int) []byte {
	v, err := r.TryArray(n)
	if err != nil {
		panic(err)
	}
	return v
}
