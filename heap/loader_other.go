//go:build !linux && !darwin

package heap

import (
	"fmt"
	"io"
	"os"
)

// Create creates (or truncates) the file at path and returns an empty
// file-backed heap that can grow to limit bytes.
func Create(path string, limit int) (*Heap, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Heap{f: f, limit: limit, data: make([]byte, 0, limit)}, nil
}

// Open loads an existing heap file into memory. Dirty ranges are written
// back by Sync.
func Open(path string, limit int) (*Heap, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	sz := st.Size()
	if err := checkOpenSize(path, sz, limit); err != nil {
		f.Close()
		return nil, err
	}
	buf := make([]byte, sz, limit)
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, err
	}
	return &Heap{f: f, data: buf, brk: int(sz), limit: limit}, nil
}

// Close closes the backing file.
func (h *Heap) Close() error {
	if h == nil || h.closed {
		return nil
	}
	h.closed = true
	var err error
	if h.f != nil {
		err = h.f.Close()
		h.f = nil
	}
	h.data = nil
	return err
}

// growFile extends the file with zeros and the in-memory copy with it.
func (h *Heap) growFile(newSize int) error {
	if err := h.f.Truncate(int64(newSize)); err != nil {
		return fmt.Errorf("heap: failed to extend file: %w", err)
	}
	h.data = h.data[:newSize]
	clear(h.data[h.brk:])
	return nil
}

func (h *Heap) shrinkFile(newSize int) error {
	if err := h.f.Truncate(int64(newSize)); err != nil {
		return fmt.Errorf("heap: failed to truncate file: %w", err)
	}
	h.data = h.data[:newSize]
	return nil
}

func (h *Heap) syncRange(off, n int) error {
	_, err := h.f.WriteAt(h.data[off:off+n], int64(off))
	return err
}
