package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Block describes one heap block as seen by Walk.
type Block struct {
	Offset    int  // header offset
	Size      int  // total size, tags included
	Allocated bool // allocation bit; always true for sentinels
	Sentinel  bool // prologue or epilogue
}

// Payload returns the payload pointer of a non-sentinel block.
func (b Block) Payload() Ptr {
	if b.Sentinel {
		return Null
	}
	return blockToPayload(block(b.Offset))
}

// Usable returns the payload capacity of the block.
func (b Block) Usable() int {
	if b.Sentinel {
		return 0
	}
	return b.Size - format.TagsSize
}

// Walk calls fn for every block from the prologue to the epilogue, in
// address order, until fn returns false. It fails with ErrCorrupt if the
// tags do not tile the heap.
func (a *Allocator) Walk(fn func(Block) bool) error {
	if !fn(Block{Offset: int(a.prologue), Size: format.SentinelSize, Allocated: true, Sentinel: true}) {
		return nil
	}
	stopped := false
	err := a.scan(func(b block, size int, allocated bool) bool {
		if !fn(Block{Offset: int(b), Size: size, Allocated: allocated}) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if stopped {
		return nil
	}
	fn(Block{Offset: int(a.epilogue), Size: format.SentinelSize, Allocated: true, Sentinel: true})
	return nil
}

// scan visits the blocks strictly between the sentinels. It stops at the
// first block whose tags are malformed, disagree, or overrun the epilogue.
func (a *Allocator) scan(fn func(b block, size int, allocated bool) bool) error {
	var first error
	a.scanAll(fn, func(err error) bool {
		first = err
		return false
	})
	return first
}

// scanAll is scan that hands bad blocks to bad instead of stopping. A block
// whose header still gives a size that fits is passed on to fn with its
// header values and the walk steps over it; any other bad block ends the
// walk, as does bad returning false.
func (a *Allocator) scanAll(fn func(b block, size int, allocated bool) bool, bad func(error) bool) {
	end := int(a.epilogue)
	for b := a.prologue + format.SentinelSize; int(b) < end; {
		size, allocated, err := a.readBlock(b, end)
		if err != nil && (!bad(err) || size == 0) {
			return
		}
		if !fn(b, size, allocated) {
			return
		}
		b += block(size)
	}
}

// readBlock decodes and cross-checks the tags of b, which must end by end.
// When only the footer is wrong it still returns the header's size and bit.
func (a *Allocator) readBlock(b block, end int) (int, bool, error) {
	size, allocated, err := format.ParseTag(a.data, int(b))
	if err != nil {
		return 0, false, fmt.Errorf("block %d header: %w", b, err)
	}
	if size < format.MinBlockSize {
		return 0, false, fmt.Errorf("block %d: size %d below minimum %d", b, size, format.MinBlockSize)
	}
	if !format.Span(end, int(b), size) {
		return 0, false, fmt.Errorf("block %d: size %d overruns heap end %d", b, size, end)
	}
	fsize, fallocated, err := format.ParseTag(a.data, int(b)+size-format.TagSize)
	if err != nil {
		return size, allocated, fmt.Errorf("block %d footer: %w", b, err)
	}
	if fsize != size || fallocated != allocated {
		return size, allocated, fmt.Errorf("block %d: header (%d,%t) and footer (%d,%t) differ",
			b, size, allocated, fsize, fallocated)
	}
	return size, allocated, nil
}

// checkSentinel verifies that b is an allocated, TagsSize-byte block.
func (a *Allocator) checkSentinel(name string, b block) error {
	for _, off := range []int{int(b), int(b) + format.TagSize} {
		size, allocated, err := format.ParseTag(a.data, off)
		if err != nil {
			return fmt.Errorf("%s at %d: %w", name, b, err)
		}
		if size != format.SentinelSize || !allocated {
			return fmt.Errorf("%s at %d: tag (%d,%t), want (%d,true)", name, b, size, allocated, format.SentinelSize)
		}
	}
	return nil
}
