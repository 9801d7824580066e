package alloc

import "github.com/joshuapare/heapkit/heap/dirty"

// Provider is the heap-growth primitive the allocator consumes.
//
// Sbrk extends the region by incr bytes, contiguous with everything handed
// out before, and returns the offset of the first new byte. Bytes returns the
// whole region; it is re-read after every Sbrk because growth may move it.
//
// *heap.Heap implements Provider.
type Provider interface {
	Sbrk(incr int) (int, error)
	Bytes() []byte
}

// DirtyTracker is a type alias for the canonical interface defined in heap/dirty.
type DirtyTracker = dirty.DirtyTracker
