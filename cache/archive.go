package cache

import "encoding/binary"

// Archive is a decoded record group identified by (IndexID, ArchiveID).
// Files maps each child's file id to its payload. Archive is immutable
// after construction and owned exclusively by whatever produced it
// (spec.md §3).
type Archive struct {
	IndexID   uint32
	ArchiveID uint32
	Files     map[uint32][]byte
}

// FlatFileID folds Files into a single map keyed by (ArchiveID<<shift)|fileID,
// the composition downstream record decoders use instead of each
// reimplementing the shift-and-merge themselves. Grounded on
// original_source/rs3cache/src/definitions/structs.rs's archive_id<<5|file_id
// flattening; this core does not interpret the resulting payloads.
func (a *Archive) FlatFileID(shift uint) map[uint32][]byte {
	out := make(map[uint32][]byte, len(a.Files))
	for fileID, data := range a.Files {
		out[a.ArchiveID<<shift|fileID] = data
	}
	return out
}

// archiveFromMetadataAndBytes splits decompressed payload p into its child
// files per md.ChildIndices, following the trailing stripe-table scheme of
// spec.md §4.5.
func archiveFromMetadataAndBytes(md Metadata, p []byte) (*Archive, error) {
	n := len(md.ChildIndices)
	if n == 0 {
		return nil, decodeOther("archive has no child indices")
	}

	if n == 1 {
		files := map[uint32][]byte{md.ChildIndices[0]: p}
		return &Archive{IndexID: md.IndexID, ArchiveID: md.ArchiveID, Files: files}, nil
	}

	if len(p) < 1 {
		return nil, decodeOther("archive payload too short for stripe count")
	}
	s := int(p[len(p)-1])
	tableLen := 4 * s * n
	if tableLen+1 > len(p) {
		return nil, decodeOther("archive stripe table exceeds payload length")
	}

	tableStart := len(p) - 1 - tableLen
	table := p[tableStart : len(p)-1]

	// Each row's entries are cumulative size deltas, not absolute sizes:
	// a stripe's running chunk size resets to 0 at the start of the row and
	// accumulates signed deltas across its children (original_source
	// arc.rs's split_file: chunk_size += delta; chunk_sizes[stripe][child] =
	// chunk_size).
	sizes := make([][]int, s)
	for stripe := 0; stripe < s; stripe++ {
		sizes[stripe] = make([]int, n)
		prev := int32(0)
		for child := 0; child < n; child++ {
			off := 4 * (stripe*n + child)
			delta := int32(binary.BigEndian.Uint32(table[off : off+4]))
			prev += delta
			sizes[stripe][child] = int(prev)
		}
	}

	buffers := make([][]byte, n)
	cursor := 0
	for stripe := 0; stripe < s; stripe++ {
		for child := 0; child < n; child++ {
			size := sizes[stripe][child]
			if cursor+size > tableStart {
				return nil, decodeOther("archive stripe data overruns stripe table")
			}
			buffers[child] = append(buffers[child], p[cursor:cursor+size]...)
			cursor += size
		}
	}

	if cursor != tableStart {
		return nil, decodeOther("archive stripe data does not exactly fill payload prefix")
	}

	files := make(map[uint32][]byte, n)
	for i, id := range md.ChildIndices {
		files[id] = buffers[i]
	}

	return &Archive{IndexID: md.IndexID, ArchiveID: md.ArchiveID, Files: files}, nil
}
