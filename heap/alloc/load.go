package alloc

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/joshuapare/heapkit/internal/format"
)

// Load attaches an allocator to a heap image that an earlier allocator left
// in p, for example a file-backed heap reopened with heap.Open. The image
// must start with the prologue at offset 0 and end with the epilogue.
//
// Every block is validated and the free list is rebuilt in address order;
// links stored in the image are not trusted. Structural problems fail with
// ErrCorrupt wrapping each block-level violation found.
func Load(p Provider, opts ...Option) (*Allocator, error) {
	a, err := attach(p, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.checkSentinel("prologue", a.prologue); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := a.checkSentinel("epilogue", a.epilogue); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var free []block
	var result *multierror.Error
	prevFree := false
	a.scanAll(func(b block, _ int, allocated bool) bool {
		if !allocated {
			if prevFree {
				result = multierror.Append(result, fmt.Errorf("block %d: free and follows a free block", b))
			}
			free = append(free, b)
		}
		prevFree = !allocated
		return true
	}, func(err error) bool {
		result = multierror.Append(result, err)
		return true
	})
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	a.first = noBlock
	for _, b := range free {
		a.insertFree(b)
	}
	a.log.WithField("blocks", len(free)).Debug("loaded heap image")
	return a, nil
}

// Inspect checks the heap image in p the way Check checks a live heap,
// without attaching an allocator to it. Unlike Load it does not stop at the
// first bad block, and it walks the free-list links stored in the image,
// starting from the lowest free block. It returns nil or ErrCorrupt wrapping
// every violation.
func Inspect(p Provider, opts ...Option) error {
	a, err := attach(p, opts...)
	if err != nil {
		return err
	}
	a.scanAll(func(b block, _ int, allocated bool) bool {
		if !allocated {
			a.first = b
		}
		return allocated
	}, func(error) bool { return true })
	return a.Check()
}

// attach binds an allocator to the image in p with the sentinels at both
// ends, without validating anything past the image size.
func attach(p Provider, opts ...Option) (*Allocator, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrInit)
	}
	a := newAllocator(p, opts...)
	a.refresh()

	n := len(a.data)
	if n < 2*format.SentinelSize || !format.IsAligned(n) {
		return nil, fmt.Errorf("%w: heap image of %d bytes", ErrCorrupt, n)
	}
	a.prologue = 0
	a.epilogue = block(n - format.SentinelSize)
	a.first = noBlock
	return a, nil
}
