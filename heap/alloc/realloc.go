package alloc

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/heapkit/internal/format"
)

// Realloc resizes the allocation behind p to at least size bytes and returns
// its (possibly new) address. Bytes up to the smaller of the old usable size
// and size are preserved.
//
//   - p == Null behaves as Malloc(size).
//   - size == 0 frees p and returns p, which must not be used again.
//   - size < 0 fails with ErrBadSize and leaves p untouched.
//
// A block that already fits is returned as is. Otherwise free neighbours are
// absorbed in place (next, then previous, then both) and only when none
// suffices is the payload copied to a fresh block. If that allocation fails,
// p stays valid and unchanged.
func (a *Allocator) Realloc(p Ptr, size int64) (Ptr, error) {
	if p == Null {
		return a.Malloc(size)
	}
	if size == 0 {
		if err := a.Free(p); err != nil {
			return Null, err
		}
		return p, nil
	}
	if size < 0 {
		return Null, fmt.Errorf("realloc %d to %d bytes: %w", p, size, ErrBadSize)
	}

	b, err := a.blockOf(p)
	if err != nil {
		return Null, fmt.Errorf("realloc %d: %w", p, err)
	}
	need, err := normalize(size)
	if err != nil {
		return Null, fmt.Errorf("realloc %d to %d bytes: %w", p, size, err)
	}
	if a.size(b) >= need {
		return p, nil
	}

	if nb, ok := a.growInPlace(b, need); ok {
		a.verify("realloc")
		return blockToPayload(nb), nil
	}

	np, err := a.relocate(b, size)
	a.verify("realloc")
	return np, err
}

// growInPlace absorbs free neighbours of the allocated block b until it holds
// need bytes. Availability is read fresh and tried in the order next-only,
// prev-only, prev+next. It returns the (possibly lower) block and whether it
// succeeded; on failure nothing is modified.
func (a *Allocator) growInPlace(b block, need int) (block, bool) {
	cur := a.size(b)

	next := a.next(b)
	nextFree := 0
	if !a.allocated(next) {
		nextFree = a.size(next)
	}
	prev := a.prev(b)
	prevFree := 0
	if !a.allocated(prev) {
		prevFree = a.size(prev)
	}

	switch {
	case nextFree > 0 && cur+nextFree >= need:
		a.removeFree(next)
		a.setSizeAndAllocated(b, cur+nextFree, true)
	case prevFree > 0 && prevFree+cur >= need:
		a.removeFree(prev)
		a.movePayload(b, prev, cur)
		b = prev
		a.setSizeAndAllocated(b, prevFree+cur, true)
	case nextFree > 0 && prevFree > 0 && prevFree+cur+nextFree >= need:
		a.removeFree(next)
		a.removeFree(prev)
		a.movePayload(b, prev, cur)
		b = prev
		a.setSizeAndAllocated(b, prevFree+cur+nextFree, true)
	default:
		return b, false
	}

	a.trim(b, need)
	return b, true
}

// movePayload copies the payload of a size-byte block from src down to dst.
// The regions may overlap.
func (a *Allocator) movePayload(src, dst block, size int) {
	n := size - format.TagsSize
	from := int(blockToPayload(src))
	to := int(blockToPayload(dst))
	copy(a.data[to:to+n], a.data[from:from+n])
	a.markDirty(to, n)
}

// trim splits the slack beyond need off the allocated block b and returns it
// to the free list, merging it with a free successor.
func (a *Allocator) trim(b block, need int) {
	rest := a.size(b) - need
	if rest < format.MinBlockSize {
		return
	}
	a.setSizeAndAllocated(b, need, true)
	tail := a.next(b)
	a.setSizeAndAllocated(tail, rest, false)
	a.insertFree(tail)
	a.coalesce(tail)
}

// relocate moves the allocation in b to a fresh block of size bytes and
// frees b. If the fresh allocation fails, b is left untouched.
func (a *Allocator) relocate(b block, size int64) (Ptr, error) {
	np, err := a.malloc(size)
	if err != nil {
		return Null, err
	}
	// malloc may have grown the heap; offsets survive, a.data was refreshed.
	oldSize := a.size(b)
	n := min(oldSize, a.size(payloadToBlock(np))) - format.TagsSize
	from := int(blockToPayload(b))
	copy(a.data[int(np):int(np)+n], a.data[from:from+n])
	a.markDirty(int(np), n)
	a.release(b)

	if logAlloc {
		a.log.WithFields(logrus.Fields{
			"from": from,
			"to":   int(np),
			"size": oldSize,
		}).Debug("relocate")
	}
	return np, nil
}
