package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIndexMetadataSingleArchive(t *testing.T) {
	data := []byte{
		0x05,       // format
		0x00,       // flags: not named, not hashed, not extended
		0x00, 0x01, // entry count (u16, format<7)
		0x00, 0x05, // archive id delta -> 5
		0x00, 0x00, 0x00, 0x01, // crc
		0x00, 0x00, 0x00, 0x02, // version
		0x00, 0x01, // child count = 1
		0x00, 0x00, // child id delta -> 0
	}

	md, err := ParseIndexMetadata(IndexModels, VariantRS3, data)
	assert.NoError(t, err)
	assert.Equal(t, 1, md.Len())

	entry, ok := md.Get(5)
	assert.True(t, ok)
	assert.Equal(t, int32(1), entry.CRC)
	assert.Equal(t, int32(2), entry.Version)
	assert.Equal(t, []uint32{0}, entry.ChildIndices)
	assert.Nil(t, entry.Name)
}

func TestParseIndexMetadataDeltaEncodedIdsArePrefixSummed(t *testing.T) {
	data := []byte{
		0x05,
		0x00,
		0x00, 0x02, // two entries
		0x00, 0x03, // first id delta -> 3
		0x00, 0x02, // second id delta -> +2 -> 5
		0x00, 0x00, 0x00, 0x00, // crc[0]
		0x00, 0x00, 0x00, 0x00, // crc[1]
		0x00, 0x00, 0x00, 0x00, // version[0]
		0x00, 0x00, 0x00, 0x00, // version[1]
		0x00, 0x00, // child count[0] = 0
		0x00, 0x00, // child count[1] = 0
	}

	md, err := ParseIndexMetadata(IndexModels, VariantRS3, data)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{3, 5}, md.Keys())
}

func TestParseIndexMetadataNamedFlag(t *testing.T) {
	data := []byte{
		0x05,
		0b00000001, // named
		0x00, 0x01,
		0x00, 0x01, // archive id -> 1
		0x00, 0x00, 0x00, 0x2A, // name = 42
		0x00, 0x00, 0x00, 0x00, // crc
		0x00, 0x00, 0x00, 0x00, // version
		0x00, 0x00, // child count = 0
	}

	md, err := ParseIndexMetadata(IndexModels, VariantRS3, data)
	assert.NoError(t, err)
	entry, ok := md.Get(1)
	assert.True(t, ok)
	assert.NotNil(t, entry.Name)
	assert.Equal(t, int32(42), *entry.Name)
}

func TestParseIndexMetadataTruncatedInput(t *testing.T) {
	_, err := ParseIndexMetadata(IndexModels, VariantRS3, []byte{0x06})
	assert.Error(t, err)
}
