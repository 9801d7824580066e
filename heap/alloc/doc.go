// Package alloc implements a first-fit, boundary-tagged heap allocator over a
// growable byte region.
//
// # Overview
//
// The heap is a sequence of self-describing blocks bounded by two permanent
// sentinels:
//
//	[prologue hdr|ftr][hdr  payload ...  ftr][hdr  payload ...  ftr]...[epilogue hdr|ftr]
//
// Every block carries the same tag (total size | allocated bit) in its first
// and last word. The header lets a walk step forward by adding the size; the
// footer of the preceding block lets it step backward in O(1). The sentinels
// are always allocated, so coalescing never needs a boundary special case.
//
// Free blocks reuse their first two payload words as forward/backward links of
// a circular, doubly-linked free list. No memory outside the heap is used for
// bookkeeping.
//
// # Operations
//
//   - Malloc(n): first-fit scan of the free list, growing the heap through the
//     Provider when nothing fits, then splitting off any remainder of at least
//     MinBlockSize.
//   - Free(p): marks the block free, links it, and merges it with free
//     neighbours so no two free blocks are ever adjacent.
//   - Realloc(p, n): keeps the block if it already fits, otherwise absorbs a
//     free next and/or previous neighbour in place, and only then relocates.
//
// # Addresses
//
// Pointers (Ptr) are byte offsets of a payload inside the heap, not Go
// pointers. The Provider may move the backing memory when it grows (a
// file-backed heap is remapped), so callers read payloads through Bytes(p)
// and must not keep the returned slice across another allocator call.
//
// # Usage Example
//
//	h := heap.New(1 << 20)
//	a, err := alloc.New(h)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Malloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(a.Bytes(p), payload)
//
//	p, err = a.Realloc(p, 400)
//	// ...
//	err = a.Free(p)
//
// # Thread Safety
//
// Allocator instances are not thread-safe. One goroutine owns an allocator
// and its heap.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap: memory- and file-backed providers
//   - github.com/joshuapare/heapkit/heap/dirty: tracks modified pages for flushing
//   - github.com/joshuapare/heapkit/internal/format: tag layout constants
package alloc
