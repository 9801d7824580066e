package alloc

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Free returns the block behind p to the heap and merges it with any free
// neighbours. Freeing Null is a no-op. A pointer that does not address a live
// block fails with ErrBadPointer.
func (a *Allocator) Free(p Ptr) error {
	if p == Null {
		return nil
	}
	b, err := a.blockOf(p)
	if err != nil {
		return fmt.Errorf("free %d: %w", p, err)
	}
	a.release(b)
	a.verify("free")
	return nil
}

func (a *Allocator) release(b block) {
	a.setAllocated(b, false)
	a.insertFree(b)
	a.coalesce(b)
}

// coalesce merges the free block b with a free next and then a free previous
// neighbour. It returns the surviving block, which is prev(b) when the
// previous neighbour absorbed it, and false if b is allocated.
func (a *Allocator) coalesce(b block) (block, bool) {
	if a.allocated(b) {
		return b, false
	}
	size := a.size(b)
	merged := false

	if n := a.next(b); !a.allocated(n) {
		a.removeFree(n)
		size += a.size(n)
		a.setSizeAndAllocated(b, size, false)
		merged = true
	}
	if p := a.prev(b); !a.allocated(p) {
		a.removeFree(b)
		size += a.size(p)
		b = p
		a.setSizeAndAllocated(b, size, false)
		merged = true
	}

	if logAlloc && merged {
		a.log.WithFields(logrus.Fields{
			"block": int(b),
			"size":  size,
		}).Debug("coalesce")
	}
	return b, true
}
