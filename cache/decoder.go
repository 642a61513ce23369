package cache

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"encoding/binary"
	"io"
)

// bzip2Header is prepended to the bzip2 envelope's trailing stream before
// handing it to the stdlib decoder, which expects the standard bzip2 magic
// that this cache format's envelope strips to save four bytes per archive.
var bzip2Header = []byte("BZh1")

// Decompress recognizes one of the envelopes in spec.md §4.2 from data's
// leading bytes and returns the decompressed payload. expectedLength, when
// known (e.g. from Metadata.Size), pre-sizes the output buffer; pass 0 if
// unknown. key is required only for the encrypted-gzip envelope.
func Decompress(data []byte, expectedLength int, key *[16]byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, decodeOther("File was empty")
	}

	if bytes.Equal(data[0:3], []byte("ZLB")) {
		return decompressZlib(data, expectedLength)
	}

	switch data[0] {
	case 0x00:
		return decompressNone(data)
	case 0x01:
		return decompressBzip2(data, expectedLength)
	case 0x02:
		if key != nil {
			return decompressGzipEncrypted(data, expectedLength, *key)
		}
		return decompressGzip(data, expectedLength)
	}

	if len(data) >= 3 && data[0] == 0x1F && data[1] == 0x8B && data[2] == 0x08 {
		return decompressLegacyGzip(data, expectedLength)
	}

	return nil, decodeOther("unrecognized compression envelope")
}

func decompressZlib(data []byte, expectedLength int) ([]byte, error) {
	if len(data) < 8 {
		return nil, decodeOther("zlib envelope truncated")
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[8:]))
	if err != nil {
		return nil, decodeIOError(err)
	}
	defer zr.Close()
	out := bytes.NewBuffer(make([]byte, 0, expectedLength))
	if _, err := io.Copy(out, zr); err != nil {
		return nil, decodeIOError(err)
	}
	return out.Bytes(), nil
}

func decompressNone(data []byte) ([]byte, error) {
	if len(data) < 5 {
		return nil, decodeOther("none envelope truncated")
	}
	length := binary.BigEndian.Uint32(data[1:5])
	end := 5 + int(length)
	if end > len(data) {
		return nil, decodeOther("none envelope payload length exceeds input")
	}
	out := make([]byte, length)
	copy(out, data[5:end])
	return out, nil
}

func decompressBzip2(data []byte, expectedLength int) ([]byte, error) {
	if len(data) < 9 {
		return nil, decodeOther("bzip2 envelope truncated")
	}
	body := make([]byte, 0, len(bzip2Header)+len(data)-9)
	body = append(body, bzip2Header...)
	body = append(body, data[9:]...)
	br := bzip2.NewReader(bytes.NewReader(body))
	out := bytes.NewBuffer(make([]byte, 0, expectedLength))
	if _, err := io.Copy(out, br); err != nil {
		return nil, decodeIOError(err)
	}
	return out.Bytes(), nil
}

func decompressGzip(data []byte, expectedLength int) ([]byte, error) {
	if len(data) < 9 {
		return nil, decodeOther("gzip envelope truncated")
	}
	gr, err := gzip.NewReader(bytes.NewReader(data[9:]))
	if err != nil {
		return nil, decodeIOError(err)
	}
	defer gr.Close()
	out := bytes.NewBuffer(make([]byte, 0, expectedLength))
	if _, err := io.Copy(out, gr); err != nil {
		return nil, decodeIOError(err)
	}
	return out.Bytes(), nil
}

func decompressGzipEncrypted(data []byte, expectedLength int, key [16]byte) ([]byte, error) {
	if len(data) < 5 {
		return nil, decodeOther("encrypted gzip envelope truncated")
	}
	declen := binary.BigEndian.Uint32(data[1:5])
	end := 5 + int(declen) + 4
	if end > len(data) {
		return nil, decodeOther("encrypted gzip envelope payload length exceeds input")
	}
	decrypted := xteaDecryptECB(data[5:end], key)
	if len(decrypted) < 4 {
		return nil, decodeXteaError()
	}
	gr, err := gzip.NewReader(bytes.NewReader(decrypted[4:]))
	if err != nil {
		return nil, decodeXteaError()
	}
	defer gr.Close()
	out := bytes.NewBuffer(make([]byte, 0, expectedLength))
	if _, err := io.Copy(out, gr); err != nil {
		return nil, decodeXteaError()
	}
	return out.Bytes(), nil
}

func decompressLegacyGzip(data []byte, expectedLength int) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, decodeIOError(err)
	}
	defer gr.Close()
	// The legacy `dat` envelope sometimes appends two trailing version
	// bytes after the gzip stream proper. Disabling multistream makes the
	// reader stop at the end of the single gzip member instead of trying
	// (and failing) to parse those bytes as a second member, so the
	// trailing bytes are dropped "if present" without needing to guess
	// whether they are there.
	gr.Multistream(false)
	out := bytes.NewBuffer(make([]byte, 0, expectedLength))
	if _, err := io.Copy(out, gr); err != nil {
		return nil, decodeIOError(err)
	}
	return out.Bytes(), nil
}
