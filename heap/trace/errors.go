package trace

import "errors"

var (
	// ErrSyntax indicates a malformed trace line or header.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrBadID indicates an op naming an id outside the declared range.
	ErrBadID = errors.New("trace: id out of range")

	// ErrOpCount indicates the number of ops differs from the header.
	ErrOpCount = errors.New("trace: op count mismatch")

	// ErrPayload indicates a payload lost bytes written before the op.
	ErrPayload = errors.New("trace: payload corrupted")

	// ErrOverlap indicates two live payloads share bytes.
	ErrOverlap = errors.New("trace: payloads overlap")

	// ErrMisaligned indicates a payload pointer off the word boundary.
	ErrMisaligned = errors.New("trace: payload misaligned")

	// ErrTooSmall indicates a payload smaller than the requested size.
	ErrTooSmall = errors.New("trace: payload too small")
)
