package alloc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/heapkit/internal/format"
)

// Ptr is the heap offset of a payload. It stays valid across heap growth.
type Ptr uint64

// Null is the pointer returned on failure; it never addresses a payload.
const Null Ptr = 0

// maxRequest keeps normalize from overflowing int.
const maxRequest = math.MaxInt - format.TagsSize - format.AlignmentMask

// Allocator is a first-fit allocator with an explicit, circular free list
// over a Provider's byte region.
type Allocator struct {
	p    Provider
	data []byte // p.Bytes(), re-read after every Sbrk

	first    block // free-list anchor, noBlock when empty
	prologue block
	epilogue block

	dt    DirtyTracker
	log   logrus.FieldLogger
	check bool
}

func newAllocator(p Provider, opts ...Option) *Allocator {
	a := &Allocator{
		p:   p,
		log: Log(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// New creates an allocator and initialises an empty heap on p.
func New(p Provider, opts ...Option) (*Allocator, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrInit)
	}
	a := newAllocator(p, opts...)
	if err := a.Init(); err != nil {
		return nil, err
	}
	return a, nil
}

// Init lays down the prologue and the epilogue and empties the free list.
// It requests exactly two sentinels' worth of bytes from the provider, so it
// must run once per fresh (or reset) heap.
func (a *Allocator) Init() error {
	a.first = noBlock
	base, err := a.p.Sbrk(2 * format.SentinelSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInit, err)
	}
	if !format.IsAligned(base) {
		return fmt.Errorf("%w: provider base %d is not %d-aligned", ErrInit, base, format.Alignment)
	}
	a.refresh()
	a.prologue = block(base)
	a.setSizeAndAllocated(a.prologue, format.SentinelSize, true)
	a.epilogue = a.prologue + format.SentinelSize
	a.setSizeAndAllocated(a.epilogue, format.SentinelSize, true)
	return nil
}

func (a *Allocator) refresh() {
	a.data = a.p.Bytes()
}

// normalize converts a payload request into a block size.
func normalize(size int64) (int, error) {
	if size < format.SmallRequest {
		return format.MinBlockSize, nil
	}
	if size > maxRequest {
		return 0, ErrNoSpace
	}
	return int(format.Align64(size + format.TagsSize)), nil
}

// Malloc returns a payload of at least size bytes, aligned to the word size.
// The content is uninitialised.
func (a *Allocator) Malloc(size int64) (Ptr, error) {
	if size <= 0 {
		return Null, fmt.Errorf("malloc %d bytes: %w", size, ErrBadSize)
	}
	p, err := a.malloc(size)
	a.verify("malloc")
	return p, err
}

func (a *Allocator) malloc(size int64) (Ptr, error) {
	need, err := normalize(size)
	if err != nil {
		return Null, fmt.Errorf("malloc %d bytes: %w", size, err)
	}

	b := a.findFit(need)
	if b == noBlock {
		if b, err = a.extend(need); err != nil {
			return Null, fmt.Errorf("malloc %d bytes: %w", size, err)
		}
	}

	a.removeFree(b)
	a.place(b, need)
	return blockToPayload(b), nil
}

// findFit returns the first free block of at least need bytes in list order.
func (a *Allocator) findFit(need int) block {
	for b := range a.freeBlocks() {
		if a.size(b) >= need {
			return b
		}
	}
	return noBlock
}

// extend grows the heap by need bytes. The old epilogue becomes a free block
// of that size, a new epilogue follows it, and the block joins the free list.
// If Sbrk fails the heap is untouched. If Sbrk succeeds but does not extend
// the heap contiguously, the heap is also left as it was and ErrCorrupt is
// returned, but the provider's break has already moved past the request.
func (a *Allocator) extend(need int) (block, error) {
	if need < format.MinBlockSize {
		return noBlock, fmt.Errorf("grow by %d bytes: %w", need, ErrNoSpace)
	}
	base, err := a.p.Sbrk(need)
	if err != nil {
		return noBlock, fmt.Errorf("grow by %d bytes: %w: %w", need, ErrNoSpace, err)
	}
	if want := int(a.epilogue) + format.SentinelSize; base != want {
		return noBlock, fmt.Errorf("%w: provider extended at %d, heap ends at %d", ErrCorrupt, base, want)
	}
	a.refresh()

	b := a.epilogue
	a.setSizeAndAllocated(b, need, false)
	a.epilogue = a.next(b)
	a.setSizeAndAllocated(a.epilogue, format.SentinelSize, true)
	a.insertFree(b)

	if logAlloc {
		a.log.WithFields(logrus.Fields{
			"block": int(b),
			"size":  need,
			"heap":  len(a.data),
		}).Debug("grow")
	}
	return b, nil
}

// place marks b allocated, splitting off the tail as a new free block when
// it is large enough to stand on its own.
func (a *Allocator) place(b block, need int) {
	rest := a.size(b) - need
	if rest < format.MinBlockSize {
		a.setAllocated(b, true)
		return
	}
	a.setSizeAndAllocated(b, need, true)
	tail := a.next(b)
	a.setSizeAndAllocated(tail, rest, false)
	a.insertFree(tail)

	if logAlloc {
		a.log.WithFields(logrus.Fields{
			"block": int(b),
			"size":  need,
			"tail":  rest,
		}).Debug("split")
	}
}

// Bytes returns the payload of p, UsableSize(p) bytes long, or nil if p is
// not a live allocation. The slice aliases heap memory and is only valid
// until the next allocator call.
func (a *Allocator) Bytes(p Ptr) []byte {
	b, err := a.blockOf(p)
	if err != nil {
		return nil
	}
	end := int(p) + a.size(b) - format.TagsSize
	return a.data[p:end:end]
}

// UsableSize returns the number of payload bytes behind p, or 0 if p is not
// a live allocation.
func (a *Allocator) UsableSize(p Ptr) int {
	b, err := a.blockOf(p)
	if err != nil {
		return 0
	}
	return a.size(b) - format.TagsSize
}

// HeapSize returns the number of bytes the allocator has taken from its
// provider, sentinels included.
func (a *Allocator) HeapSize() int {
	return int(a.epilogue) + format.SentinelSize - int(a.prologue)
}

// blockOf maps a payload pointer to its block after a bounds, alignment and
// header sanity check. Anything that passes is trusted.
func (a *Allocator) blockOf(p Ptr) (block, error) {
	if p%format.Alignment != 0 || p <= Ptr(a.prologue)+format.SentinelSize || p >= Ptr(a.epilogue) {
		return noBlock, ErrBadPointer
	}
	b := payloadToBlock(p)
	size, allocated := format.ReadTag(a.data, int(b))
	if !allocated || size < format.MinBlockSize || int(b)+size > int(a.epilogue) {
		return noBlock, ErrBadPointer
	}
	return b, nil
}

func (a *Allocator) verify(op string) {
	if !a.check {
		return
	}
	if err := a.Check(); err != nil {
		a.log.WithError(err).Errorf("heap check failed after %s", op)
	}
}
