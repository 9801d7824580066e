package alloc

import "iter"

// insertFree links b in front of the anchor, i.e. between the last and the
// first member. An empty list makes b the anchor and its own neighbour.
func (a *Allocator) insertFree(b block) {
	if a.first == noBlock {
		a.setFlink(b, b)
		a.setBlink(b, b)
		a.first = b
		return
	}
	last := a.blink(a.first)
	a.setFlink(b, a.first)
	a.setBlink(b, last)
	a.setFlink(last, b)
	a.setBlink(a.first, b)
}

// removeFree unlinks b. If b was the anchor, the anchor moves to its
// successor, or to noBlock when b was the only member.
func (a *Allocator) removeFree(b block) {
	next, prev := a.flink(b), a.blink(b)
	if next == b {
		a.first = noBlock
		return
	}
	a.setFlink(prev, next)
	a.setBlink(next, prev)
	if a.first == b {
		a.first = next
	}
}

// freeBlocks yields the free list in link order, starting at the anchor.
// The list must not be modified while iterating.
func (a *Allocator) freeBlocks() iter.Seq[block] {
	return func(yield func(block) bool) {
		if a.first == noBlock {
			return
		}
		b := a.first
		for {
			if !yield(b) {
				return
			}
			b = a.flink(b)
			if b == a.first {
				return
			}
		}
	}
}
