package alloc

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/joshuapare/heapkit/internal/format"
)

// Check verifies the structural invariants of the heap and the free list and
// returns every violation it finds, wrapped in ErrCorrupt:
//
//   - sentinels are allocated TagsSize-byte blocks
//   - every block's header equals its footer
//   - blocks are at least MinBlockSize and tile the heap exactly
//   - payloads are aligned
//   - no two neighbouring blocks are free
//   - the free list is a symmetric cycle holding exactly the free blocks
//
// A block whose footer disagrees with its header is reported and then
// stepped over by its header size, so later blocks are still checked.
func (a *Allocator) Check() error {
	var result *multierror.Error

	if end := int(a.epilogue) + format.SentinelSize; len(a.data) < end {
		result = multierror.Append(result, fmt.Errorf("heap is %d bytes, epilogue ends at %d", len(a.data), end))
		return fmt.Errorf("%w: %w", ErrCorrupt, result)
	}
	if err := a.checkSentinel("prologue", a.prologue); err != nil {
		result = multierror.Append(result, err)
	}
	if err := a.checkSentinel("epilogue", a.epilogue); err != nil {
		result = multierror.Append(result, err)
	}

	var heapFree []block
	isFree := make(map[block]bool)
	prevFree := false
	a.scanAll(func(b block, size int, allocated bool) bool {
		if !format.IsAligned(int(blockToPayload(b))) {
			result = multierror.Append(result, fmt.Errorf("block %d: payload not %d-aligned", b, format.Alignment))
		}
		if !allocated {
			if prevFree {
				result = multierror.Append(result, fmt.Errorf("block %d: free and follows a free block", b))
			}
			heapFree = append(heapFree, b)
			isFree[b] = true
		}
		prevFree = !allocated
		return true
	}, func(err error) bool {
		result = multierror.Append(result, err)
		return true
	})

	seen := make(map[block]bool, len(heapFree))
	if a.first != noBlock {
		b := a.first
		for {
			if !isFree[b] {
				result = multierror.Append(result, fmt.Errorf("free list: %d is not a free block", b))
				break
			}
			if seen[b] {
				result = multierror.Append(result, fmt.Errorf("free list: revisits %d without returning to anchor %d", b, a.first))
				break
			}
			seen[b] = true
			next := a.flink(b)
			if !isFree[next] {
				result = multierror.Append(result, fmt.Errorf("free list: %d links to %d, not a free block", b, next))
				break
			}
			if back := a.blink(next); back != b {
				result = multierror.Append(result, fmt.Errorf("free list: %d links to %d but %d links back to %d", b, next, next, back))
			}
			b = next
			if b == a.first {
				break
			}
		}
	}
	for _, b := range heapFree {
		if !seen[b] {
			result = multierror.Append(result, fmt.Errorf("free block %d missing from free list", b))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return nil
}
