package cache

// Variant selects one of the three mutually exclusive on-disk layouts this
// core knows how to open. Spec.md §6 describes these as compile-time
// variants; Go favors a runtime enum here, the same way the teacher models
// Compression/TileType as a runtime enum on HeaderV3 rather than branching
// on build tags (SPEC_FULL.md §6).
type Variant int

const (
	// VariantRS3 is the modern, SQL-backed variant: encrypted gzip is
	// supported, strings are nul-terminated.
	VariantRS3 Variant = iota
	// VariantOSRS is the legacy sector-file variant: XTEA keys are
	// optional, strings are nul-terminated.
	VariantOSRS
	// VariantLegacy is the oldest sector-file variant ("dat"): strings are
	// newline-terminated, bare gzip is used instead of a 9-byte envelope,
	// and the catalog carries no named/hashed/extended flags beyond the
	// basic layout.
	VariantLegacy
)

// StringTerminator returns the terminator byte String/PaddedString should
// use for this variant.
func (v Variant) StringTerminator() byte {
	if v == VariantLegacy {
		return NewlineTerminator
	}
	return NulTerminator
}

// Index ids recognized by the game's content pipeline (spec.md §6). Only
// the subset named in the spec is reproduced; the full table is part of the
// format contract and downstream consumers may define additional ids.
const (
	IndexFrames      uint32 = 0
	IndexFramemaps   uint32 = 1
	IndexConfig      uint32 = 2
	IndexMapsV2      uint32 = 5
	IndexMusics      uint32 = 6
	IndexModels      uint32 = 7
	IndexSprites     uint32 = 8
	IndexTextures    uint32 = 9
	IndexHuffman     uint32 = 10
)

// Sub-archives of IndexConfig. These are archive ids within the CONFIG
// index, not index ids of their own.
const (
	ConfigArchiveLocConfig    uint32 = 16
	ConfigArchiveStructConfig uint32 = 34
)
