package scan

import (
	"sync"
	"sync/atomic"

	"github.com/vantauri/h5table/storage"
)

// defaultCacheBytes is "~1 MiB worth of elements" per spec.md §9's open
// question; the alternative reading of an old comment suggesting 4 MiB
// is not taken, since 1 MiB keeps two chunks per cacheable column inside
// a few MiB of resident memory even with dozens of columns open at once.
const defaultCacheBytes = 1 << 20

// minChunkElements is the floor on chunk size regardless of element
// width, so that even wide types still batch enough rows per fetch to
// make prefetching worthwhile.
const minChunkElements = 2048

// chunkSizeFor picks a cache chunk's element count: the dataset's native
// chunk dimension when known, otherwise the default byte budget divided
// by element width, clamped to the floor.
func chunkSizeFor(ds storage.Dataset, elemSize int) int64 {
	if hinter, ok := ds.(storage.ChunkHinter); ok {
		if rows, ok := hinter.ChunkRowHint(); ok && rows > 0 {
			if int64(rows) < minChunkElements {
				return minChunkElements
			}
			return int64(rows)
		}
	}
	n := int64(defaultCacheBytes) / int64(elemSize)
	if n < minChunkElements {
		n = minChunkElements
	}
	return n
}

// cacheChunk is one of a column's two prefetch buffers. endRow is
// published with release semantics after the buffer it describes is
// fully written, and read with acquire semantics by anyone checking
// coverage — the only synchronization the cache's data path needs
// (spec.md §4.6). end_row == 0 means the chunk is empty.
type cacheChunk struct {
	endRow atomic.Int64
	buf    typedBuffer
}

func (c *cacheChunk) coveredRange(chunkSize int64) (start, end int64) {
	end = c.endRow.Load()
	if end == 0 {
		return 0, 0
	}
	start = end - chunkSize
	if start < 0 {
		start = 0
	}
	return start, end
}

// PrefetchCache overlaps I/O with compute for one cacheable regular
// column, shared read-only across every worker scanning that column.
// Writers are serialized by the someLoading CAS gate; readers check
// coverage with atomic loads on endRow under notifyMu (the mutex the
// loader broadcasts under) and copy out of the buffers without holding it.
type PrefetchCache struct {
	dataset   storage.Dataset
	lock      *storage.Lock
	kind      storage.ElementKind
	chunkSize int64
	numRows   int64

	validRanges []Range // the same planned ranges the driver hands slices out of

	chunks [2]*cacheChunk

	someLoading atomic.Bool
	notifyMu    sync.Mutex
	notifyCond  *sync.Cond
}

// NewPrefetchCache allocates the two chunk buffers for one cacheable
// column. validRanges lets the loader skip over rows pruned by
// predicate pushdown instead of fetching and immediately discarding
// them.
func NewPrefetchCache(ds storage.Dataset, lock *storage.Lock, numRows int64, validRanges []Range) *PrefetchCache {
	dtype := ds.Datatype()
	chunkSize := chunkSizeFor(ds, dtype.Kind.ElementSize())
	c := &PrefetchCache{
		dataset:     ds,
		lock:        lock,
		kind:        dtype.Kind,
		chunkSize:   chunkSize,
		numRows:     numRows,
		validRanges: validRanges,
	}
	c.notifyCond = sync.NewCond(&c.notifyMu)
	for i := range c.chunks {
		c.chunks[i] = &cacheChunk{buf: newTypedBuffer(dtype.Kind, int(chunkSize))}
	}
	return c
}

// nextValidStart returns the first row >= from that some valid range
// still contains, or -1 if there is none.
func (c *PrefetchCache) nextValidStart(from int64) int64 {
	for _, r := range c.validRanges {
		if r.End > from {
			if from < r.Start {
				return r.Start
			}
			return from
		}
	}
	return -1
}

// load runs the single-loader protocol once: for each chunk that's
// fully consumed (its end_row at or below positionDone), read the next
// batch of up to chunkSize rows starting at the first valid row at or
// above the current high-water mark across both chunks. A batch that
// would run past numRows is moved back to end at numRows, so a chunk
// always holds exactly the rows coveredRange reports. Callers must
// already hold guard and must already have won the someLoading CAS.
func (c *PrefetchCache) load(guard *storage.Guard, positionDone int64) error {
	var high int64
	for _, ch := range c.chunks {
		if e := ch.endRow.Load(); e > high {
			high = e
		}
	}

	for _, ch := range c.chunks {
		if ch.endRow.Load() > positionDone {
			continue // still in use, not eligible for refill
		}
		start := c.nextValidStart(high)
		if start < 0 {
			continue // nothing left worth fetching
		}
		if start+c.chunkSize > c.numRows {
			start = max64(c.numRows-c.chunkSize, 0)
		}
		count := c.chunkSize
		if remain := c.numRows - start; remain < count {
			count = remain
		}
		if count <= 0 {
			continue
		}

		sel := c.dataset.Dataspace()
		rank := sel.Rank()
		selStart := make([]uint64, rank)
		selCount := make([]uint64, rank)
		selStart[0] = uint64(start)
		selCount[0] = uint64(count)
		for i := 1; i < rank; i++ {
			selCount[i] = sel.Dims()[i]
		}
		if err := sel.SelectHyperslab(selStart, selCount); err != nil {
			return err
		}
		if err := c.dataset.ReadInto(sel, ch.buf.readTarget()); err != nil {
			return err
		}

		newEnd := start + count
		ch.endRow.Store(newEnd) // release: buffer contents are visible before this publishes
		if newEnd > high {
			high = newEnd
		}
	}
	return nil
}

// coveredByUnion reports whether [start,end) is entirely contained in the
// union of chunk a's and chunk b's covered intervals.
func coveredByUnion(aStart, aEnd, bStart, bEnd, start, end int64) bool {
	if aStart <= start && aEnd >= end {
		return true
	}
	type gap struct{ lo, hi int64 }
	var gaps []gap
	if aEnd <= start || aStart >= end {
		gaps = append(gaps, gap{start, end})
	} else {
		if start < aStart {
			gaps = append(gaps, gap{start, aStart})
		}
		if end > aEnd {
			gaps = append(gaps, gap{aEnd, end})
		}
	}
	for _, g := range gaps {
		if !(bStart <= g.lo && bEnd >= g.hi) {
			return false
		}
	}
	return true
}

// Read fills dst (a plain []T slice of length `length`, T matching
// c.kind) with rows [start, start+length). It blocks until those rows
// are covered by the cache, becoming the loader itself if nobody else is
// already fetching, or otherwise waiting on the cache's notifyCond until
// the current loader broadcasts that it has finished.
func (c *PrefetchCache) Read(acquireGuard func() *storage.Guard, positionDone func() int64, start, length int64, dst any) error {
	end := start + length

	c.notifyMu.Lock()
	for {
		a0, a1 := c.chunks[0].coveredRange(c.chunkSize)
		b0, b1 := c.chunks[1].coveredRange(c.chunkSize)
		if coveredByUnion(a0, a1, b0, b1, start, end) {
			c.notifyMu.Unlock()
			c.copyOut(a0, a1, b0, b1, start, end, dst)
			return nil
		}

		if c.someLoading.CompareAndSwap(false, true) {
			c.notifyMu.Unlock()
			guard := acquireGuard()
			err := c.load(guard, positionDone())
			guard.Release()
			c.someLoading.Store(false)
			c.notifyMu.Lock()
			c.notifyCond.Broadcast()
			if err != nil {
				c.notifyMu.Unlock()
				return err
			}
			continue
		}

		// Someone else is loading; wait under the same lock the
		// loader broadcasts under, so a completion between our
		// coverage check and this Wait can't be missed.
		c.notifyCond.Wait()
	}
}

func (c *PrefetchCache) copyOut(a0, a1, b0, b1, start, end int64, dst any) {
	// Copy whichever rows chunk A covers, then whatever's left from B.
	// Since both chunk intervals are contiguous and together cover
	// [start,end), this is at most two copy calls total regardless of
	// overlap.
	covered := func(lo, hi int64) (int64, int64, bool) {
		lo2, hi2 := max64(lo, a0), min64(hi, a1)
		if lo2 < hi2 {
			return lo2, hi2, true
		}
		return 0, 0, false
	}
	if lo, hi, ok := covered(start, end); ok {
		c.chunks[0].buf.copyRangeInto(dst, lo-start, lo-a0, hi-lo)
	}
	coveredB := func(lo, hi int64) (int64, int64, bool) {
		lo2, hi2 := max64(lo, b0), min64(hi, b1)
		if lo2 < hi2 {
			return lo2, hi2, true
		}
		return 0, 0, false
	}
	if lo, hi, ok := coveredB(start, end); ok {
		c.chunks[1].buf.copyRangeInto(dst, lo-start, lo-b0, hi-lo)
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
