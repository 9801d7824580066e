// Package dirty tracks which byte ranges of a heap were modified so a
// file-backed heap can be flushed page by page instead of as a whole.
//
// # Usage
//
//	tracker := dirty.NewTracker(h)
//	a, _ := alloc.New(h, alloc.WithTracker(tracker))
//	// ... Malloc / Free / Realloc ...
//	err := tracker.Flush(ctx)
//
// Ranges are page-aligned, sorted and merged when retrieved:
//
//	Dirty pages: [0, 1, 2, 5, 6] → Ranges: [0x0-0x3000, 0x5000-0x7000]
//
// # Thread Safety
//
// Tracker instances are not thread-safe.
package dirty
