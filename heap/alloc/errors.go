package alloc

import "errors"

var (
	// ErrBadSize indicates a non-positive allocation size or a negative resize.
	ErrBadSize = errors.New("alloc: bad request size")

	// ErrNoSpace indicates no free block was large enough and the heap could not grow.
	ErrNoSpace = errors.New("alloc: out of memory")

	// ErrBadPointer indicates a pointer that does not address a live block of this heap.
	ErrBadPointer = errors.New("alloc: bad pointer")

	// ErrInit indicates the heap could not be initialised.
	ErrInit = errors.New("alloc: init failed")

	// ErrCorrupt indicates a heap whose tags or free list break the block invariants.
	ErrCorrupt = errors.New("alloc: heap corrupt")
)
