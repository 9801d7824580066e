package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadTag indicates a tag word carried bits other than the size and the allocated bit.
	ErrBadTag = errors.New("format: malformed tag")
)
