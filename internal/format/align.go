package format

// Align returns n rounded up to the next Alignment boundary.
//
// Example:
//
//	Align(1)  = 8
//	Align(8)  = 8
//	Align(9)  = 16
func Align(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// Align64 is the int64 version of Align, used on caller-supplied request sizes.
func Align64(n int64) int64 {
	return (n + AlignmentMask) & ^int64(AlignmentMask)
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}
