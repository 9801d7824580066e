package alloc

import "github.com/joshuapare/heapkit/internal/format"

// block is the heap offset of a block header.
type block int

// noBlock is the nil link. Offset 0 holds the prologue, which is never free,
// so no free-list member can live there.
const noBlock block = 0

func (a *Allocator) size(b block) int {
	size, _ := format.ReadTag(a.data, int(b))
	return size
}

func (a *Allocator) allocated(b block) bool {
	_, allocated := format.ReadTag(a.data, int(b))
	return allocated
}

// setSizeAndAllocated writes the header and the footer of b.
func (a *Allocator) setSizeAndAllocated(b block, size int, allocated bool) {
	off := int(b)
	ftr := off + size - format.TagSize
	format.PutTag(a.data, off, size, allocated)
	format.PutTag(a.data, ftr, size, allocated)
	a.markDirty(off, format.TagSize)
	a.markDirty(ftr, format.TagSize)
}

// setAllocated flips the allocation bit of b, keeping its size.
func (a *Allocator) setAllocated(b block, allocated bool) {
	a.setSizeAndAllocated(b, a.size(b), allocated)
}

func (a *Allocator) next(b block) block {
	return b + block(a.size(b))
}

// prev reads the footer just below b.
func (a *Allocator) prev(b block) block {
	size, _ := format.ReadTag(a.data, int(b)-format.TagSize)
	return b - block(size)
}

func payloadToBlock(p Ptr) block {
	return block(p) - format.TagSize
}

func blockToPayload(b block) Ptr {
	return Ptr(b + format.TagSize)
}

// Free-list links live in the first two payload words of a free block.

func (a *Allocator) flink(b block) block {
	return block(format.ReadU64(a.data, int(b)+format.TagSize))
}

func (a *Allocator) blink(b block) block {
	return block(format.ReadU64(a.data, int(b)+format.TagSize+format.LinkSize))
}

func (a *Allocator) setFlink(b, to block) {
	off := int(b) + format.TagSize
	format.PutU64(a.data, off, uint64(to))
	a.markDirty(off, format.LinkSize)
}

func (a *Allocator) setBlink(b, to block) {
	off := int(b) + format.TagSize + format.LinkSize
	format.PutU64(a.data, off, uint64(to))
	a.markDirty(off, format.LinkSize)
}

func (a *Allocator) markDirty(off, n int) {
	if a.dt != nil {
		a.dt.Add(off, n)
	}
}
