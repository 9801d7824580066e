package format

// EncodeTag packs a block size and its allocation bit into one tag word.
// size must be a multiple of Alignment.
func EncodeTag(size int, allocated bool) uint64 {
	tag := uint64(size) & sizeMask
	if allocated {
		tag |= allocatedBit
	}
	return tag
}

// DecodeTag unpacks a tag word.
func DecodeTag(tag uint64) (size int, allocated bool) {
	return int(tag & sizeMask), tag&allocatedBit != 0
}

// PutTag writes a tag at off.
func PutTag(b []byte, off int, size int, allocated bool) {
	PutU64(b, off, EncodeTag(size, allocated))
}

// ReadTag reads the tag at off.
func ReadTag(b []byte, off int) (size int, allocated bool) {
	return DecodeTag(ReadU64(b, off))
}

// TagFlags returns the bits of a raw tag that are not part of the size.
// A well-formed tag only ever carries the allocated bit.
func TagFlags(tag uint64) uint64 {
	return tag &^ sizeMask
}

// ParseTag reads the tag at off, checking bounds and rejecting stray flag
// bits. Used when decoding heap images that were not written by this process.
func ParseTag(b []byte, off int) (int, bool, error) {
	if !Span(len(b), off, TagSize) {
		return 0, false, ErrTruncated
	}
	tag := ReadU64(b, off)
	if TagFlags(tag)&^allocatedBit != 0 {
		return 0, false, ErrBadTag
	}
	size, allocated := DecodeTag(tag)
	return size, allocated, nil
}
