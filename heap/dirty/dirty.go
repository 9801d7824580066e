package dirty

import (
	"context"
	"os"
	"sort"
)

// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
const defaultRangeCapacity = 64

// Syncer is the part of heap.Heap a Tracker needs.
type Syncer interface {
	Size() int
	Sync(off, n int) error
}

// Range represents a dirty byte range (absolute heap offsets).
type Range struct {
	Off int64
	Len int64
}

// End returns the first offset past the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	h        Syncer
	ranges   []Range
	pageSize int64
}

// NewTracker creates a dirty tracker for the given heap.
func NewTracker(h Syncer) *Tracker {
	return &Tracker{
		h:        h,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(os.Getpagesize()),
	}
}

// Add records a dirty range. Empty ranges are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Len returns the number of raw, uncoalesced ranges recorded.
func (t *Tracker) Len() int { return len(t.ranges) }

// Ranges returns the page-aligned, sorted, merged dirty ranges.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Flush syncs every dirty range to the backing store and clears the tracker.
// Ranges are clipped to the current heap size.
//
// The context is checked between ranges; if cancelled, ranges already
// flushed stay flushed and the tracker keeps everything recorded.
func (t *Tracker) Flush(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	size := int64(t.h.Size())
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Off >= size {
			continue
		}
		end := min(r.End(), size)
		if err := t.h.Sync(int(r.Off), int(end-r.Off)); err != nil {
			return err
		}
	}
	t.ranges = t.ranges[:0]
	return nil
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.End()
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
		} else {
			merged = append(merged, current)
			current = next
		}
	}
	return append(merged, current)
}
