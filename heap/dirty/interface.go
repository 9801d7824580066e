package dirty

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
// Components that only write heap bytes (the allocator) depend on this and
// leave flushing to whoever owns the Tracker.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the heap, length is the number of bytes.
	Add(off, length int)
}
