package cache

import "sort"

// A 4-byte timestamp follows the catalog format byte only when the format is
// above timestampFormatThreshold. At and above smartCountFormatThreshold, the
// entry count, child counts and all delta-encoded id sequences switch from a
// plain u16 to a smart32 (spec.md §4.3).
const (
	timestampFormatThreshold = 5
	smartCountFormatThreshold = 7
)

// Metadata is one archive's catalog entry (spec.md §3). Optional fields use
// pointers (absent == nil), the way the teacher signals "unknown/absent"
// with a zero enum value plus an `ok bool` (compressionToString).
type Metadata struct {
	IndexID   uint32
	ArchiveID uint32

	Name *int32 // present iff the index is named

	CRC     int32
	Version int32

	Unknown        *int32  // present iff the index is extended
	CompressedSize *uint32 // present iff the index is extended
	Size           *uint32 // present iff the index is extended

	Digest []byte // 64 bytes, present iff the index is hashed

	ChildCount   uint32
	ChildIndices []uint32 // strictly increasing, len == ChildCount
}

// IndexMetadata is an ordered mapping archive_id -> Metadata. Order is
// ascending by key and stable across Keys()/Iterate() calls, matching the
// Rust BTreeMap the source uses (spec.md §3).
type IndexMetadata struct {
	keys    []uint32
	entries map[uint32]Metadata
}

// Keys returns the archive ids in ascending order.
func (m *IndexMetadata) Keys() []uint32 {
	out := make([]uint32, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of archives in the index.
func (m *IndexMetadata) Len() int { return len(m.keys) }

// Get returns the Metadata for archiveID, or ok==false if absent.
func (m *IndexMetadata) Get(archiveID uint32) (Metadata, bool) {
	md, ok := m.entries[archiveID]
	return md, ok
}

// Iterate calls fn for every entry in ascending archive id order.
func (m *IndexMetadata) Iterate(fn func(uint32, Metadata)) {
	for _, id := range m.keys {
		fn(id, m.entries[id])
	}
}

// ParseIndexMetadata deserializes a catalog blob into an IndexMetadata,
// following the section order in spec.md §4.3. It is grounded directly on
// original_source/rs3cache_core/src/meta.rs's IndexMetadata::deserialize.
func ParseIndexMetadata(indexID uint32, variant Variant, data []byte) (*IndexMetadata, error) {
	r := NewReader(data)

	format, err := r.TryU8()
	if err != nil {
		return nil, err
	}

	if format > timestampFormatThreshold {
		if _, err := r.TryU32(); err != nil {
			return nil, err
		}
	}

	flags, err := r.TryBitFlags()
	if err != nil {
		return nil, err
	}
	named, hashed, extended := flags[0], flags[1], flags[2]

	readCount := func() (uint32, error) {
		if format >= smartCountFormatThreshold {
			v, err := r.TrySmart32()
			if err != nil {
				return 0, err
			}
			if v == nil {
				return 0, ErrEof().WithLabel("entry count")
			}
			return *v, nil
		}
		v, err := r.TryU16()
		return uint32(v), err
	}

	entryCount, err := readCount()
	if err != nil {
		return nil, err
	}

	archiveIDs, err := readDeltaIDs(r, format, int(entryCount))
	if err != nil {
		return nil, err
	}

	names := make([]*int32, entryCount)
	if named {
		for i := range names {
			v, err := r.TryI32()
			if err != nil {
				return nil, err
			}
			names[i] = &v
		}
	}

	crcs := make([]int32, entryCount)
	for i := range crcs {
		v, err := r.TryI32()
		if err != nil {
			return nil, err
		}
		crcs[i] = v
	}

	unknowns := make([]*int32, entryCount)
	if extended {
		for i := range unknowns {
			v, err := r.TryI32()
			if err != nil {
				return nil, err
			}
			unknowns[i] = &v
		}
	}

	digests := make([][]byte, entryCount)
	if hashed {
		for i := range digests {
			d, err := r.TryArray(64)
			if err != nil {
				return nil, err
			}
			digests[i] = d
		}
	}

	compressedSizes := make([]*uint32, entryCount)
	sizes := make([]*uint32, entryCount)
	if extended {
		for i := range compressedSizes {
			cs, err := r.TryU32()
			if err != nil {
				return nil, err
			}
			s, err := r.TryU32()
			if err != nil {
				return nil, err
			}
			compressedSizes[i] = &cs
			sizes[i] = &s
		}
	}

	versions := make([]int32, entryCount)
	for i := range versions {
		v, err := r.TryI32()
		if err != nil {
			return nil, err
		}
		versions[i] = v
	}

	childCounts := make([]uint32, entryCount)
	for i := range childCounts {
		c, err := readCount()
		if err != nil {
			return nil, err
		}
		childCounts[i] = c
	}

	childIndices := make([][]uint32, entryCount)
	for i := range childIndices {
		ids, err := readDeltaIDs(r, format, int(childCounts[i]))
		if err != nil {
			return nil, err
		}
		childIndices[i] = ids
	}

	entries := make(map[uint32]Metadata, entryCount)
	keys := make([]uint32, entryCount)
	for i := 0; i < int(entryCount); i++ {
		id := archiveIDs[i]
		keys[i] = id
		entries[id] = Metadata{
			IndexID:        indexID,
			ArchiveID:      id,
			Name:           names[i],
			CRC:            crcs[i],
			Version:        versions[i],
			Unknown:        unknowns[i],
			CompressedSize: compressedSizes[i],
			Size:           sizes[i],
			Digest:         digests[i],
			ChildCount:     childCounts[i],
			ChildIndices:   childIndices[i],
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return &IndexMetadata{keys: keys, entries: entries}, nil
}

// readDeltaIDs reads count delta-encoded ids (smart32 if format>=7, else
// u16) and prefix-sums them into absolute, strictly increasing ids.
func readDeltaIDs(r *Reader, format uint8, count int) ([]uint32, error) {
	ids := make([]uint32, count)
	var acc uint32
	for i := 0; i < count; i++ {
		var delta uint32
		if format >= smartCountFormatThreshold {
			v, err := r.TrySmart32()
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, ErrEof().WithLabel("delta id")
			}
			delta = *v
		} else {
			v, err := r.TryU16()
			if err != nil {
				return nil, err
			}
			delta = uint32(v)
		}
		acc += delta
		ids[i] = acc
	}
	return ids, nil
}
