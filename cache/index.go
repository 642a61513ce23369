package cache

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// Keyring supplies XTEA decryption keys per archive id. Loading it from a
// JSON file is the caller's job; the core only ever consumes an
// already-built Keyring.
type Keyring map[uint32][16]byte

// indexCore holds everything shared between CacheIndex (state Initial) and
// TruncatedCacheIndex (state Truncated), the way original_source's
// `CacheIndex<S>` shares its fields across `states::{Initial,Truncated}` in
// meta.rs/index.rs. Go has no phantom type parameter, so the split is two
// concrete structs embedding this core, per SPEC_FULL.md §3.
type indexCore struct {
	indexID  uint32
	variant  Variant
	metadata *IndexMetadata
	store    Store
	keyring  Keyring
	metrics  *metrics
	logger   *log.Logger
}

// CacheIndex is a freshly opened handle in state Initial: iteration visits
// every archive in its catalog, ascending by id.
type CacheIndex struct {
	indexCore
}

// TruncatedCacheIndex is a handle in state Truncated: iteration visits only
// the explicit feed given to Retain, in that order.
type TruncatedCacheIndex struct {
	indexCore
	feed []uint32
}

// Open loads and parses the catalog for indexID from cacheDir under the
// given variant, returning a handle in state Initial. logger may be nil, in
// which case a discarding logger is used (the teacher always requires a
// caller-supplied *log.Logger; this core tolerates nil for convenience).
func Open(cacheDir string, indexID uint32, variant Variant, keyring Keyring, logger *log.Logger) (*CacheIndex, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	store, err := openStore(cacheDir, indexID, variant)
	if err != nil {
		return nil, fmt.Errorf("opening store for index %d: %w", indexID, err)
	}

	raw, err := store.Catalog()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("reading catalog for index %d: %w", indexID, err)
	}

	decompressed, err := Decompress(raw, 0, nil)
	if err != nil {
		store.Close()
		return nil, attachDecodeTrail(decodeAsCacheError(indexID, 0, err), raw)
	}

	metadata, err := ParseIndexMetadata(indexID, variant, decompressed)
	if err != nil {
		store.Close()
		return nil, attachDecodeTrail(decodeAsCacheError(indexID, 0, err), decompressed)
	}

	m := createMetrics(fmt.Sprintf("%d", indexID), logger)
	m.catalogHits.Inc()

	return &CacheIndex{indexCore: indexCore{
		indexID:  indexID,
		variant:  variant,
		metadata: metadata,
		store:    store,
		keyring:  keyring,
		metrics:  m,
		logger:   logger,
	}}, nil
}

func openStore(cacheDir string, indexID uint32, variant Variant) (Store, error) {
	if variant == VariantRS3 {
		return openSQLiteStore(cacheDir, indexID)
	}
	return openLegacyStore(cacheDir, indexID)
}

// decodeAsCacheError folds a ReadError/DecodeError into a CacheError naming
// the index/archive involved, so callers always see the same error family
// regardless of which layer failed (spec.md §7).
func decodeAsCacheError(indexID, archiveID uint32, cause error) error {
	return wrapCacheError(indexID, archiveID, cause)
}

// attachDecodeTrail is the single outermost decode boundary that records a
// DecodeTrail on a CacheError, per spec.md §7's "attached once, never
// threaded through every intermediate call" rule.
func attachDecodeTrail(err error, remaining []byte) error {
	ce, ok := err.(*CacheError)
	if !ok {
		return err
	}
	var re *ReadError
	if inner, ok := ce.Cause.(*ReadError); ok {
		re = inner
	} else {
		return ce
	}
	trailBytes := remaining
	if len(trailBytes) > 32 {
		trailBytes = trailBytes[:32]
	}
	ce.Cause = re.WithDecodeTrail(DecodeTrail{RemainingBytes: trailBytes})
	return ce
}

// archiveFor fetches, decompresses, and disassembles one archive, shared by
// both CacheIndex and TruncatedCacheIndex.
func (c *indexCore) archiveFor(id uint32) (*Archive, error) {
	start := time.Now()
	md, ok := c.metadata.Get(id)
	if !ok {
		c.metrics.archiveReads.WithLabelValues("not_found").Inc()
		return nil, ErrArchiveNotFound(c.indexID, id)
	}

	raw, err := c.store.Archive(id)
	c.metrics.storeRoundTrips.WithLabelValues("archive").Inc()
	if err != nil {
		c.metrics.archiveReads.WithLabelValues("error").Inc()
		return nil, wrapCacheError(c.indexID, id, err)
	}

	var key *[16]byte
	if c.keyring != nil {
		if k, ok := c.keyring[id]; ok {
			key = &k
		}
	}

	expected := 0
	if md.Size != nil {
		expected = int(*md.Size)
	}

	decompressed, err := Decompress(raw, expected, key)
	if err != nil {
		c.metrics.archiveReads.WithLabelValues("error").Inc()
		return nil, attachDecodeTrail(wrapCacheError(c.indexID, id, err), raw)
	}

	archive, err := archiveFromMetadataAndBytes(md, decompressed)
	if err != nil {
		c.metrics.archiveReads.WithLabelValues("error").Inc()
		return nil, wrapCacheError(c.indexID, id, err)
	}

	c.metrics.archiveReads.WithLabelValues("ok").Inc()
	c.metrics.archiveDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return archive, nil
}

// Archive looks up and decompresses one archive by id.
func (c *CacheIndex) Archive(id uint32) (*Archive, error) { return c.archiveFor(id) }

// Archive looks up and decompresses one archive by id.
func (t *TruncatedCacheIndex) Archive(id uint32) (*Archive, error) { return t.archiveFor(id) }

// Len returns the number of archives recorded in the catalog.
func (c *CacheIndex) Len() int { return c.metadata.Len() }

// Close releases the underlying store.
func (c *CacheIndex) Close() error { return c.store.Close() }

// Close releases the underlying store.
func (t *TruncatedCacheIndex) Close() error { return t.store.Close() }

// Retain transitions to state Truncated, restricting iteration to ids in
// the given order. Panics if any id is not present in the catalog,
// matching the source's contract (spec.md §4.4.2). Membership is checked
// via a roaring64.Bitmap built from the catalog's known ids, grounded on
// convert.go's `tileset := roaring64.New()` use of the same package for an
// "is this id known" set.
func (c *CacheIndex) Retain(ids []uint32) *TruncatedCacheIndex {
	known := roaring64.New()
	for _, id := range c.metadata.Keys() {
		known.Add(uint64(id))
	}
	for _, id := range ids {
		if !known.Contains(uint64(id)) {
			panic(fmt.Sprintf("cache: retain: archive %d not present in index %d", id, c.indexID))
		}
	}
	feed := make([]uint32, len(ids))
	copy(feed, ids)
	return &TruncatedCacheIndex{indexCore: c.indexCore, feed: feed}
}

// ArchiveIter yields archives from a CacheIndex or TruncatedCacheIndex in
// its state's defined order. Not safe for concurrent or re-entrant use.
type ArchiveIter struct {
	core *indexCore
	ids  []uint32
	pos  int
}

// Iter returns an iterator over every archive in ascending id order.
func (c *CacheIndex) Iter() *ArchiveIter {
	return &ArchiveIter{core: &c.indexCore, ids: c.metadata.Keys()}
}

// Iter returns an iterator over the retained feed, in its stored order.
func (t *TruncatedCacheIndex) Iter() *ArchiveIter {
	return &ArchiveIter{core: &t.indexCore, ids: t.feed}
}

// Next returns the next id and its archive, or (0, nil, false) when
// exhausted. If fetching an archive fails, Next returns that id with a nil
// archive and true; the error itself is not returned.
func (it *ArchiveIter) Next() (uint32, *Archive, bool) {
	if it.pos >= len(it.ids) {
		return 0, nil, false
	}
	id := it.ids[it.pos]
	it.pos++
	archive, err := it.core.archiveFor(id)
	if err != nil {
		return id, nil, true
	}
	return id, archive, true
}

// GroupedIter yields GroupMapSquare items over an ArchiveIter's core ids.
type GroupedIter struct {
	inner  *ArchiveIter
	di, dj OffsetRange
}

// GroupedIter wraps this iterator to additionally fetch each core id's
// neighborhood per the given offset ranges.
func (it *ArchiveIter) GroupedIter(di, dj OffsetRange) *GroupedIter {
	return &GroupedIter{inner: it, di: di, dj: dj}
}

// Next returns the next GroupMapSquare, or (nil, false) when exhausted.
func (g *GroupedIter) Next() (*GroupMapSquare, bool) {
	for {
		if g.inner.pos >= len(g.inner.ids) {
			return nil, false
		}
		coreID := g.inner.ids[g.inner.pos]
		g.inner.pos++

		i, j := SplitSquareID(coreID)
		members := make(map[[2]uint8]Archive)
		for _, coord := range neighbors(i, j, g.di, g.dj) {
			id := SquareID(coord[0], coord[1])
			if _, ok := g.inner.core.metadata.Get(id); !ok {
				continue
			}
			archive, err := g.inner.core.archiveFor(id)
			if err != nil {
				continue
			}
			members[coord] = *archive
		}
		return &GroupMapSquare{CoreID: coreID, Members: members}, true
	}
}
