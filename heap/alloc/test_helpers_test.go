package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// newTestAllocator returns an allocator over a fresh in-memory heap of limit
// bytes (heap.DefaultLimit when limit <= 0).
func newTestAllocator(t testing.TB, limit int, opts ...Option) (*Allocator, *heap.Heap) {
	t.Helper()

	h := heap.New(limit)
	a, err := New(h, opts...)
	require.NoError(t, err, "failed to initialise allocator")
	return a, h
}

// mustMalloc allocates size bytes or fails the test.
func mustMalloc(t testing.TB, a *Allocator, size int64) Ptr {
	t.Helper()

	p, err := a.Malloc(size)
	require.NoError(t, err, "malloc(%d)", size)
	require.NotEqual(t, Null, p)
	return p
}

// ============================================================================
// Payload Patterns
// ============================================================================

// fill writes a seed-derived pattern over the first n payload bytes of p.
func fill(t testing.TB, a *Allocator, p Ptr, seed byte, n int) {
	t.Helper()

	b := a.Bytes(p)
	require.GreaterOrEqual(t, len(b), n, "payload at %d too small", p)
	for i := range n {
		b[i] = seed + byte(i)
	}
}

// requirePattern asserts the first n payload bytes of p still hold the
// pattern written by fill.
func requirePattern(t testing.TB, a *Allocator, p Ptr, seed byte, n int) {
	t.Helper()

	b := a.Bytes(p)
	require.GreaterOrEqual(t, len(b), n, "payload at %d too small", p)
	for i := range n {
		if b[i] != seed+byte(i) {
			require.Failf(t, "payload corrupted", "ptr %d byte %d: got %#x want %#x", p, i, b[i], seed+byte(i))
		}
	}
}

// ============================================================================
// Heap Inspection
// ============================================================================

// rawBlock is a block decoded straight from heap bytes, independent of the
// allocator's own walk.
type rawBlock struct {
	off       int
	size      int
	allocated bool
}

// rawBlocks walks the heap between the sentinels using only the format
// helpers, failing the test on any mismatch.
func rawBlocks(t testing.TB, a *Allocator) []rawBlock {
	t.Helper()

	data := a.p.Bytes()
	var out []rawBlock
	off := format.SentinelSize
	end := len(data) - format.SentinelSize
	for off < end {
		size, allocated := format.ReadTag(data, off)
		require.GreaterOrEqual(t, size, format.MinBlockSize, "block %d too small", off)
		require.LessOrEqual(t, off+size, end, "block %d overruns epilogue", off)
		fsize, fallocated := format.ReadTag(data, off+size-format.TagSize)
		require.Equal(t, size, fsize, "block %d footer size", off)
		require.Equal(t, allocated, fallocated, "block %d footer bit", off)
		out = append(out, rawBlock{off: off, size: size, allocated: allocated})
		off += size
	}
	require.Equal(t, end, off, "blocks do not tile the heap")
	return out
}

// freeList collects the free list in link order.
func freeList(a *Allocator) []block {
	var out []block
	for b := range a.freeBlocks() {
		out = append(out, b)
	}
	return out
}

// assertHeap checks the heap with both Check and an independent raw walk.
func assertHeap(t testing.TB, a *Allocator) {
	t.Helper()

	require.NoError(t, a.Check())

	blocks := rawBlocks(t, a)
	freeSet := make(map[block]bool)
	for i, b := range blocks {
		if b.allocated {
			continue
		}
		freeSet[block(b.off)] = true
		if i > 0 {
			require.True(t, blocks[i-1].allocated, "free blocks %d and %d are adjacent", blocks[i-1].off, b.off)
		}
	}

	list := freeList(a)
	require.Len(t, list, len(freeSet), "free list length")
	for _, b := range list {
		require.True(t, freeSet[b], "free list member %d is not a free block", b)
	}
}

// ============================================================================
// Mock Dirty Tracker
// ============================================================================

// MockDirtyTracker records every range reported by the allocator.
type MockDirtyTracker struct {
	ranges [][2]int
}

func (m *MockDirtyTracker) Add(off, length int) {
	m.ranges = append(m.ranges, [2]int{off, length})
}

// WasCalledAt reports whether any recorded range covers off.
func (m *MockDirtyTracker) WasCalledAt(off int) bool {
	for _, r := range m.ranges {
		if off >= r[0] && off < r[0]+r[1] {
			return true
		}
	}
	return false
}

func (m *MockDirtyTracker) CallCount() int {
	return len(m.ranges)
}

func (m *MockDirtyTracker) Reset() {
	m.ranges = nil
}
