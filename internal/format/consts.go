// Package format holds the low-level byte layout of a heap image: word and
// tag sizes, the tag encoding shared by block headers and footers, and the
// little-endian helpers used to read and write them. Higher-level packages
// never touch heap bytes except through these helpers.
package format

const (
	// WordSize is the platform word. Every block size and every payload
	// offset is a multiple of it.
	WordSize = 8

	// Alignment is the payload alignment guaranteed to callers.
	Alignment = WordSize

	// AlignmentMask is Alignment-1, used by the Align helpers.
	AlignmentMask = Alignment - 1

	// TagSize is the size of a single header or footer tag.
	TagSize = WordSize

	// TagsSize is the per-block tag overhead (header + footer).
	// Prologue and epilogue sentinels are exactly this big.
	TagsSize = 2 * TagSize

	// LinkSize is the size of one free-list link stored in a free payload.
	LinkSize = WordSize

	// MinBlockSize is the smallest block that can hold a header, the two
	// free-list links and a footer.
	MinBlockSize = TagsSize + 2*LinkSize

	// SmallRequest is the payload size below which requests are rounded up
	// straight to MinBlockSize.
	SmallRequest = 2 * LinkSize

	// SentinelSize is the total size of the prologue and of the epilogue.
	SentinelSize = TagsSize

	// allocatedBit marks a tag as allocated. Sizes are word multiples, so the
	// low bit is always free to carry it.
	allocatedBit = 0x1

	// sizeMask clears the flag bits from a raw tag.
	sizeMask = ^uint64(AlignmentMask)
)
