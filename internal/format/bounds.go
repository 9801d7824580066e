package format

// Span reports whether [off, off+n) fits in a buffer of length size.
// It never overflows, so it is safe on sizes decoded from untrusted tags.
func Span(size, off, n int) bool {
	return off >= 0 && n >= 0 && off <= size && n <= size-off
}
