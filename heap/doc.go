// Package heap provides the growable byte regions an allocator lives in.
//
// # Overview
//
// A Heap is a contiguous run of bytes with a movable break, in the style of
// sbrk(2): Sbrk(n) extends the region by n bytes and returns the offset of the
// first new byte. Memory is never handed back except by Reset, which rewinds
// the break to zero for startup/reset plumbing.
//
// # Backings
//
//   - New(limit): an in-process arena. The full limit is reserved up front so
//     growth never moves the bytes.
//   - Create(path, limit) / Open(path, limit): a file-backed heap. On Linux and
//     macOS the file is mmap'ed read/write and growth is ftruncate + remap, so
//     the slice returned by Bytes changes after every Sbrk. Other platforms
//     keep the bytes in memory and write dirty ranges back on Sync.
//
// Callers must re-read Bytes after every Sbrk and address heap memory by
// offset, never by holding on to a sub-slice across growth.
//
// # Thread Safety
//
// Heap instances are not thread-safe.
package heap
