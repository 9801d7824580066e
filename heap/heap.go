package heap

import (
	"fmt"
	"os"
)

// DefaultLimit is the heap limit used when a caller passes limit <= 0.
const DefaultLimit = 20 << 20

// Heap is a growable byte region, backed by memory or by a file.
type Heap struct {
	f      *os.File
	data   []byte
	brk    int
	limit  int
	closed bool
}

// New returns an empty in-memory heap that can grow to limit bytes.
func New(limit int) *Heap {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Heap{
		data:  make([]byte, 0, limit),
		limit: limit,
	}
}

// Bytes returns the current heap contents, [0, Size()).
// The slice is invalidated by the next Sbrk, Reset or Close.
func (h *Heap) Bytes() []byte {
	if h.data == nil {
		return nil
	}
	return h.data[:h.brk]
}

// Size returns the current break.
func (h *Heap) Size() int { return h.brk }

// Limit returns the maximum size the heap may grow to.
func (h *Heap) Limit() int { return h.limit }

// FileBacked reports whether the heap lives in a file.
func (h *Heap) FileBacked() bool { return h.f != nil }

// FD returns the backing file descriptor, or -1 for memory heaps.
func (h *Heap) FD() int {
	if h == nil || h.f == nil {
		return -1
	}
	return int(h.f.Fd())
}

// Sbrk extends the heap by incr bytes and returns the old break, which is
// the offset of the first new byte. New bytes are zeroed. On failure the
// heap is unchanged.
func (h *Heap) Sbrk(incr int) (int, error) {
	if h == nil || h.closed {
		return 0, ErrClosed
	}
	if incr < 0 {
		return 0, ErrBadIncrement
	}
	old := h.brk
	if incr == 0 {
		return old, nil
	}
	if incr > h.limit-old {
		return 0, fmt.Errorf("sbrk %d bytes at break %d (limit %d): %w", incr, old, h.limit, ErrExhausted)
	}
	if h.f != nil {
		if err := h.growFile(old + incr); err != nil {
			return 0, err
		}
	} else {
		h.data = h.data[:old+incr]
		clear(h.data[old:])
	}
	h.brk = old + incr
	return old, nil
}

// Reset rewinds the break to zero. File-backed heaps are truncated.
func (h *Heap) Reset() error {
	if h == nil || h.closed {
		return ErrClosed
	}
	if h.f != nil {
		if err := h.shrinkFile(0); err != nil {
			return err
		}
	} else {
		h.data = h.data[:0]
	}
	h.brk = 0
	return nil
}

// Sync writes [off, off+n) back to the backing file. It is a no-op for
// memory heaps.
func (h *Heap) Sync(off, n int) error {
	if h == nil || h.closed {
		return ErrClosed
	}
	if h.f == nil || n <= 0 {
		return nil
	}
	if off < 0 || off+n > h.brk {
		return fmt.Errorf("heap: sync range [%d,%d) outside heap of %d bytes", off, off+n, h.brk)
	}
	return h.syncRange(off, n)
}

func checkOpenSize(path string, size int64, limit int) error {
	if size > int64(limit) {
		return fmt.Errorf("heap file %s is %d bytes, larger than limit %d", path, size, limit)
	}
	return nil
}
