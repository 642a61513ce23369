package cache

import (
	"fmt"
	"os"
	"path/filepath"

	mmap "github.com/edsrzf/mmap-go"
)

const (
	legacySectorSize       = 520
	legacySectorHeaderSize = 8 // see headerSize below; 520-8 == 512 payload bytes
	legacyIndexEntrySize   = 6
	legacyIdxCatalogIndex  = 255
)

// sectorPointer is one archive's (length, first-sector) pair as recorded in
// an idx stripe file (spec.md §6).
type sectorPointer struct {
	length      uint32
	firstSector uint32
}

// legacyStore backs the osrs/legacy (dat) variants: main_file_cache.dat2 is
// memory-mapped read-only (grounded on saferwall-pe/file.go's
// mmap.Map(f, mmap.RDONLY, 0) usage), and the matching main_file_cache.idx<n>
// stripe is slurped into a map of sectorPointer keyed by archive id once at
// open time.
type legacyStore struct {
	data        mmap.MMap
	dataFile    *os.File
	indexID     uint32
	pointers    map[uint32]sectorPointer
	catalogPtrs map[uint32]sectorPointer
}

func openLegacyStore(cacheDir string, indexID uint32) (*legacyStore, error) {
	dataPath := filepath.Join(cacheDir, "main_file_cache.dat2")
	f, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dataPath, err)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping %s: %w", dataPath, err)
	}

	pointers, err := loadSectorPointers(cacheDir, indexID)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}

	catalogPtrs, err := loadSectorPointers(cacheDir, legacyIdxCatalogIndex)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}

	return &legacyStore{
		data:        data,
		dataFile:    f,
		indexID:     indexID,
		pointers:    pointers,
		catalogPtrs: catalogPtrs,
	}, nil
}

func loadSectorPointers(cacheDir string, indexID uint32) (map[uint32]sectorPointer, error) {
	idxPath := filepath.Join(cacheDir, fmt.Sprintf("main_file_cache.idx%d", indexID))
	raw, err := os.ReadFile(idxPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", idxPath, err)
	}

	count := len(raw) / legacyIndexEntrySize
	pointers := make(map[uint32]sectorPointer, count)
	for i := 0; i < count; i++ {
		off := i * legacyIndexEntrySize
		entry := raw[off : off+legacyIndexEntrySize]
		length := uint32(entry[0])<<16 | uint32(entry[1])<<8 | uint32(entry[2])
		sector := uint32(entry[3])<<16 | uint32(entry[4])<<8 | uint32(entry[5])
		pointers[uint32(i)] = sectorPointer{length: length, firstSector: sector}
	}
	return pointers, nil
}

// Catalog reads this index's reference table out of the main_file_cache.idx255
// stripe (the index-of-indexes), at entry s.indexID, not out of the
// main_file_cache.idx<indexID> stripe s.pointers was loaded from (spec.md §6).
func (s *legacyStore) Catalog() ([]byte, error) {
	ptr, ok := s.catalogPtrs[s.indexID]
	if !ok {
		return nil, fmt.Errorf("no sector pointer for catalog entry %d", s.indexID)
	}
	return s.readSectors(ptr, s.indexID)
}

func (s *legacyStore) Archive(id uint32) ([]byte, error) {
	ptr, ok := s.pointers[id]
	if !ok {
		return nil, fmt.Errorf("no sector pointer for archive %d", id)
	}
	return s.readSectors(ptr, id)
}

// readSectors walks the singly-linked chain of 520-byte sectors starting at
// ptr.firstSector, collecting ptr.length bytes of payload. Each sector has a
// 10-byte header (archive_id u32, sequence u16, next_sector u24, index_id u8)
// when archive_id >= 2^16, else an 8-byte header (archive_id u16, sequence
// u16, next_sector u24, index_id u8), leaving 510 or 512 payload bytes
// (spec.md §4.4.1).
func (s *legacyStore) readSectors(ptr sectorPointer, archiveID uint32) ([]byte, error) {
	headerSize := legacySectorHeaderSize
	if archiveID >= 1<<16 {
		headerSize = 10
	}
	payloadSize := legacySectorSize - headerSize

	out := make([]byte, 0, ptr.length)
	sector := ptr.firstSector
	remaining := int(ptr.length)
	sequence := uint16(0)

	for remaining > 0 {
		if sector == 0 {
			return nil, fmt.Errorf("archive %d: sector chain ended early", archiveID)
		}
		base := int(sector) * legacySectorSize
		if base+legacySectorSize > len(s.data) {
			return nil, fmt.Errorf("archive %d: sector %d out of bounds", archiveID, sector)
		}
		block := s.data[base : base+legacySectorSize]

		var nextSector uint32
		if headerSize == 10 {
			nextSector = uint32(block[6])<<16 | uint32(block[7])<<8 | uint32(block[8])
		} else {
			nextSector = uint32(block[4])<<16 | uint32(block[5])<<8 | uint32(block[6])
		}

		take := payloadSize
		if take > remaining {
			take = remaining
		}
		out = append(out, block[headerSize:headerSize+take]...)
		remaining -= take
		sector = nextSector
		sequence++
	}

	return out, nil
}

func (s *legacyStore) Close() error {
	if err := s.data.Unmap(); err != nil {
		s.dataFile.Close()
		return err
	}
	return s.dataFile.Close()
}
