package heap

import "errors"

var (
	// ErrExhausted indicates the heap cannot grow past its limit.
	ErrExhausted = errors.New("heap: out of memory")

	// ErrBadIncrement indicates a negative Sbrk increment.
	ErrBadIncrement = errors.New("heap: negative increment")

	// ErrClosed indicates an operation on a closed heap.
	ErrClosed = errors.New("heap: closed")
)
