package alloc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
)

func TestNew_LaysDownSentinels(t *testing.T) {
	a, h := newTestAllocator(t, 0)

	require.Equal(t, 2*format.SentinelSize, h.Size())
	require.Equal(t, 2*format.SentinelSize, a.HeapSize())
	require.Empty(t, freeList(a))

	data := h.Bytes()
	for _, off := range []int{0, 8, 16, 24} {
		size, allocated := format.ReadTag(data, off)
		assert.Equal(t, format.SentinelSize, size, "tag at %d", off)
		assert.True(t, allocated, "tag at %d", off)
	}
	assertHeap(t, a)
}

func TestNew_NilProvider(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrInit)
}

func TestNew_ProviderFailure(t *testing.T) {
	_, err := New(heap.New(8))
	require.ErrorIs(t, err, ErrInit)
	require.ErrorIs(t, err, heap.ErrExhausted)
}

// skewedProvider hands out a base past the real break once armed.
type skewedProvider struct {
	*heap.Heap
	armed bool
}

func (p *skewedProvider) Sbrk(incr int) (int, error) {
	base, err := p.Heap.Sbrk(incr)
	if err == nil && p.armed {
		base += format.Alignment
	}
	return base, err
}

func TestMalloc_NonContiguousGrowth(t *testing.T) {
	p := &skewedProvider{Heap: heap.New(0)}
	a, err := New(p)
	require.NoError(t, err)
	before := a.HeapSize()

	p.armed = true
	_, err = a.Malloc(24)
	require.ErrorIs(t, err, ErrCorrupt)

	// The allocator's view is unchanged; the provider's break has moved.
	assert.Equal(t, before, a.HeapSize())
	assert.Equal(t, before+40, p.Size())
	require.NoError(t, a.Check())
}

func TestInit_AfterReset(t *testing.T) {
	a, h := newTestAllocator(t, 0)
	mustMalloc(t, a, 100)

	require.NoError(t, h.Reset())
	require.NoError(t, a.Init())

	require.Equal(t, 2*format.SentinelSize, a.HeapSize())
	require.Empty(t, freeList(a))
	p := mustMalloc(t, a, 24)
	require.Equal(t, Ptr(24), p)
	assertHeap(t, a)
}

// Two consecutive allocations are distinct and increasing.
func TestMalloc_ConsecutiveIncreasing(t *testing.T) {
	a, _ := newTestAllocator(t, 0)

	p1 := mustMalloc(t, a, 24)
	p2 := mustMalloc(t, a, 24)

	require.NotEqual(t, p1, p2)
	require.Greater(t, p2, p1)
	require.GreaterOrEqual(t, int(p2-p1), a.UsableSize(p1)+format.TagsSize)
	assertHeap(t, a)
}

// Freeing and re-requesting the same size reuses the exact block.
func TestMalloc_ReusesFreedBlock(t *testing.T) {
	a, h := newTestAllocator(t, 0)

	p1 := mustMalloc(t, a, 100)
	size := h.Size()
	require.NoError(t, a.Free(p1))
	p2 := mustMalloc(t, a, 100)

	require.Equal(t, p1, p2)
	require.Equal(t, size, h.Size(), "heap must not grow")
	assertHeap(t, a)
}

func TestMalloc_BadSize(t *testing.T) {
	a, h := newTestAllocator(t, 0)

	for _, n := range []int64{0, -1, math.MinInt64} {
		p, err := a.Malloc(n)
		require.ErrorIs(t, err, ErrBadSize, "size %d", n)
		require.Equal(t, Null, p)
	}
	require.Equal(t, 2*format.SentinelSize, h.Size())
}

func TestMalloc_Normalize(t *testing.T) {
	tests := []struct {
		req  int64
		want int
	}{
		{1, format.MinBlockSize},
		{8, format.MinBlockSize},
		{15, format.MinBlockSize},
		{16, 32},
		{17, 40},
		{24, 40},
		{25, 48},
		{100, 120},
		{4096, 4112},
	}
	for _, tt := range tests {
		got, err := normalize(tt.req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "normalize(%d)", tt.req)
	}

	_, err := normalize(math.MaxInt64)
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestMalloc_SizeAndAlignment(t *testing.T) {
	a, _ := newTestAllocator(t, 0)

	for n := int64(1); n <= 300; n += 7 {
		p := mustMalloc(t, a, n)
		assert.Zero(t, int(p)%format.Alignment, "malloc(%d) = %d misaligned", n, p)
		assert.GreaterOrEqual(t, a.UsableSize(p), int(n))
		assert.Len(t, a.Bytes(p), a.UsableSize(p))
	}
	assertHeap(t, a)
}

func TestMalloc_Exhaustion(t *testing.T) {
	a, h := newTestAllocator(t, 128)

	p := mustMalloc(t, a, 24)
	size := h.Size()

	got, err := a.Malloc(200)
	require.ErrorIs(t, err, ErrNoSpace)
	require.ErrorIs(t, err, heap.ErrExhausted)
	require.Equal(t, Null, got)

	// Nothing changed.
	require.Equal(t, size, h.Size())
	require.Equal(t, 24, a.UsableSize(p))
	require.Empty(t, freeList(a))
	assertHeap(t, a)

	// Requests that fit still succeed.
	mustMalloc(t, a, 24)
	assertHeap(t, a)
}

func TestMalloc_HugeRequest(t *testing.T) {
	a, _ := newTestAllocator(t, 0)

	_, err := a.Malloc(math.MaxInt64)
	require.ErrorIs(t, err, ErrNoSpace)
	assertHeap(t, a)
}

func TestMalloc_SplitsLargeFreeBlock(t *testing.T) {
	a, _ := newTestAllocator(t, 0)

	big := mustMalloc(t, a, 200) // 216-byte block at 16
	mustMalloc(t, a, 24)         // guard
	require.NoError(t, a.Free(big))

	p := mustMalloc(t, a, 24)
	require.Equal(t, big, p)
	require.Equal(t, 24, a.UsableSize(p))

	list := freeList(a)
	require.Len(t, list, 1)
	require.Equal(t, block(16+40), list[0])
	require.Equal(t, 216-40, a.size(list[0]))
	assertHeap(t, a)
}

func TestMalloc_NoSplitBelowMinBlock(t *testing.T) {
	a, _ := newTestAllocator(t, 0)

	p := mustMalloc(t, a, 40) // 56-byte block
	mustMalloc(t, a, 24)
	require.NoError(t, a.Free(p))

	// 40-byte need leaves a 16-byte remainder, too small to split.
	q := mustMalloc(t, a, 24)
	require.Equal(t, p, q)
	require.Equal(t, 40, a.UsableSize(q))
	require.Empty(t, freeList(a))
	assertHeap(t, a)
}

func TestMalloc_FirstFitInListOrder(t *testing.T) {
	a, _ := newTestAllocator(t, 0)

	small := mustMalloc(t, a, 24)
	mustMalloc(t, a, 24)
	large := mustMalloc(t, a, 200)
	mustMalloc(t, a, 24)

	require.NoError(t, a.Free(large))
	require.NoError(t, a.Free(small))

	// large was freed first and anchors the list, so it is tried first even
	// though small would also fit.
	p := mustMalloc(t, a, 16)
	require.Equal(t, large, p)
	assertHeap(t, a)
}

func TestMalloc_GrowsWhenNothingFits(t *testing.T) {
	a, h := newTestAllocator(t, 0)

	p := mustMalloc(t, a, 24)
	mustMalloc(t, a, 24)
	require.NoError(t, a.Free(p))

	before := h.Size()
	q := mustMalloc(t, a, 100)
	require.Equal(t, before+120, h.Size())
	require.Greater(t, q, p)
	require.Len(t, freeList(a), 1, "the small free block stays listed")
	assertHeap(t, a)
}

func TestBytes_InvalidPointer(t *testing.T) {
	a, _ := newTestAllocator(t, 0)
	p := mustMalloc(t, a, 24)

	assert.Nil(t, a.Bytes(Null))
	assert.Nil(t, a.Bytes(p+1))
	assert.Nil(t, a.Bytes(Ptr(1<<40)))
	assert.Zero(t, a.UsableSize(p+8))

	b := a.Bytes(p)
	require.Len(t, b, 24)
	require.Equal(t, 24, cap(b), "payload slice must not reach the footer")
}

func TestAllocator_GrowthKeepsPayloads(t *testing.T) {
	a, _ := newTestAllocator(t, 1<<20)

	var ptrs []Ptr
	for i := range 200 {
		p := mustMalloc(t, a, int64(16+i%64))
		fill(t, a, p, byte(i), 16)
		ptrs = append(ptrs, p)
	}
	for i, p := range ptrs {
		requirePattern(t, a, p, byte(i), 16)
	}
	assertHeap(t, a)
}

func TestAllocator_ErrorsAreDistinct(t *testing.T) {
	all := []error{ErrBadSize, ErrNoSpace, ErrBadPointer, ErrInit, ErrCorrupt}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v is %v", a, b)
			}
		}
	}
}
