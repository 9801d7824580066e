package alloc

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
)

// rawImage builds a heap image from block sizes; negative sizes are free.
func rawImage(t *testing.T, sizes ...int) *heap.Heap {
	t.Helper()

	total := 2 * format.SentinelSize
	for _, s := range sizes {
		total += max(s, -s)
	}
	h := heap.New(0)
	_, err := h.Sbrk(total)
	require.NoError(t, err)

	data := h.Bytes()
	put := func(off, size int, allocated bool) {
		format.PutTag(data, off, size, allocated)
		format.PutTag(data, off+size-format.TagSize, size, allocated)
	}
	put(0, format.SentinelSize, true)
	off := format.SentinelSize
	for _, s := range sizes {
		put(off, max(s, -s), s > 0)
		off += max(s, -s)
	}
	put(off, format.SentinelSize, true)
	return h
}

func TestLoad_RebuildsFreeList(t *testing.T) {
	h := rawImage(t, 40, -64, 48, -32, 40)

	a, err := Load(h)
	require.NoError(t, err)
	require.Equal(t, []block{56, 168}, freeList(a))
	assertHeap(t, a)

	// The 64-byte hole is found first.
	p := mustMalloc(t, a, 40)
	require.Equal(t, Ptr(64), p)
	assertHeap(t, a)
}

func TestLoad_Empty(t *testing.T) {
	a, err := Load(rawImage(t))
	require.NoError(t, err)
	require.Empty(t, freeList(a))
	require.Equal(t, Ptr(24), mustMalloc(t, a, 24))
	assertHeap(t, a)
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *heap.Heap
	}{
		{"truncated", func(t *testing.T) *heap.Heap {
			h := heap.New(0)
			_, err := h.Sbrk(24)
			require.NoError(t, err)
			return h
		}},
		{"unaligned", func(t *testing.T) *heap.Heap {
			h := heap.New(0)
			_, err := h.Sbrk(37)
			require.NoError(t, err)
			return h
		}},
		{"bad prologue", func(t *testing.T) *heap.Heap {
			h := rawImage(t, 40)
			format.PutTag(h.Bytes(), 0, 24, true)
			return h
		}},
		{"bad epilogue", func(t *testing.T) *heap.Heap {
			h := rawImage(t, 40)
			format.PutTag(h.Bytes(), h.Size()-format.TagSize, format.SentinelSize, false)
			return h
		}},
		{"footer mismatch", func(t *testing.T) *heap.Heap {
			h := rawImage(t, 40, 40)
			format.PutTag(h.Bytes(), 16+40-format.TagSize, 40, false)
			return h
		}},
		{"overrun", func(t *testing.T) *heap.Heap {
			h := rawImage(t, 40)
			format.PutTag(h.Bytes(), 16, 64, true)
			return h
		}},
		{"stray flag bits", func(t *testing.T) *heap.Heap {
			h := rawImage(t, 40)
			format.PutU64(h.Bytes(), 16, 40|0x4)
			return h
		}},
		{"adjacent free", func(t *testing.T) *heap.Heap {
			return rawImage(t, -40, -40)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.build(t))
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestLoad_NilProvider(t *testing.T) {
	_, err := Load(nil)
	require.ErrorIs(t, err, ErrInit)
}

func TestLoad_ReportsEveryViolation(t *testing.T) {
	h := rawImage(t, -40, -40, 40)
	format.PutTag(h.Bytes(), 96+40-format.TagSize, 40, false)

	_, err := Load(h)
	require.ErrorIs(t, err, ErrCorrupt)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Equal(t, 2, merr.Len(), err.Error())
	assert.Contains(t, merr.Errors[0].Error(), "block 56: free and follows a free block")
	assert.Contains(t, merr.Errors[1].Error(), "block 96: header (40,true) and footer (40,false) differ")
}

func TestInspect_Healthy(t *testing.T) {
	a, h := newTestAllocator(t, 0)
	var ptrs []Ptr
	for i := range 8 {
		ptrs = append(ptrs, mustMalloc(t, a, int64(16+8*i)))
	}
	for _, i := range []int{1, 4, 6} {
		require.NoError(t, a.Free(ptrs[i]))
	}
	require.Len(t, freeList(a), 3)

	require.NoError(t, Inspect(h))
}

func TestInspect_StoredLinks(t *testing.T) {
	a, h := newTestAllocator(t, 0)
	p := mustMalloc(t, a, 24)
	mustMalloc(t, a, 24)
	q := mustMalloc(t, a, 24)
	mustMalloc(t, a, 24)
	require.NoError(t, a.Free(p))
	require.NoError(t, a.Free(q))

	a.setBlink(payloadToBlock(q), noBlock)
	err := Inspect(h)
	require.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "16 links to 96 but 96 links back to 0")

	// Load does not trust stored links and relinks the list.
	_, err = Load(h)
	require.NoError(t, err)
	require.NoError(t, Inspect(h))
}

func TestInspect_ReportsEveryViolation(t *testing.T) {
	a, h := newTestAllocator(t, 0)
	var ptrs []Ptr
	for range 4 {
		ptrs = append(ptrs, mustMalloc(t, a, 24))
	}
	require.NoError(t, a.Free(ptrs[1]))

	// Flip the second block to allocated in its header only, and break the
	// footer of the last one.
	b := payloadToBlock(ptrs[1])
	format.PutTag(a.data, int(b), a.size(b), true)
	last := payloadToBlock(ptrs[3])
	format.PutTag(a.data, int(last)+a.size(last)-format.TagSize, 8, true)

	err := Inspect(h)
	require.ErrorIs(t, err, ErrCorrupt)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Equal(t, 2, merr.Len(), err.Error())
	assert.Contains(t, merr.Errors[0].Error(), "block 56: header (40,true) and footer (40,false) differ")
	assert.Contains(t, merr.Errors[1].Error(), "block 136: header (40,true) and footer (8,true) differ")
}

func TestInspect_BadImage(t *testing.T) {
	require.ErrorIs(t, Inspect(nil), ErrInit)

	h := heap.New(0)
	_, err := h.Sbrk(24)
	require.NoError(t, err)
	require.ErrorIs(t, Inspect(h), ErrCorrupt)
}
