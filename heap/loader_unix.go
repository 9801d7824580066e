//go:build linux || darwin

package heap

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const mmapProt = unix.PROT_READ | unix.PROT_WRITE

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
	return &Heap{f: f, limit: limit}, nil
}

// Open maps an existing heap file read/write. The file length becomes the
// break.
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
		_ = f.Close()
		return nil, err
	}
	sz := st.Size()
	if err := checkOpenSize(path, sz, limit); err != nil {
		_ = f.Close()
		return nil, err
	}
	h := &Heap{f: f, limit: limit}
	if sz == 0 {
		return h, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(sz), mmapProt, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	h.data = data
	h.brk = int(sz)
	return h, nil
}

// Close unmaps the heap and closes the backing file.
func (h *Heap) Close() error {
	if h == nil || h.closed {
		return nil
	}
	h.closed = true
	var err error
	if h.f != nil {
		err = h.unmap()
		if cerr := h.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		h.f = nil
	}
	h.data = nil
	return err
}

func (h *Heap) unmap() error {
	if h.data == nil {
		return nil
	}
	err := unix.Munmap(h.data)
	h.data = nil
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// remap maps the first size bytes of the file. size 0 leaves data nil.
func (h *Heap) remap(size int) error {
	if size == 0 {
		h.data = nil
		return nil
	}
	data, err := unix.Mmap(int(h.f.Fd()), 0, size, mmapProt, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	h.data = data
	return nil
}

// growFile extends the file to newSize and remaps it. The file is extended
// with zeros by the OS.
func (h *Heap) growFile(newSize int) error {
	if err := h.unmap(); err != nil {
		return fmt.Errorf("heap: failed to unmap before grow: %w", err)
	}
	if err := unix.Ftruncate(int(h.f.Fd()), int64(newSize)); err != nil {
		// Try to remap old size to recover
		_ = h.remap(h.brk)
		return fmt.Errorf("heap: failed to extend file: %w", err)
	}
	if err := h.remap(newSize); err != nil {
		_ = unix.Ftruncate(int(h.f.Fd()), int64(h.brk))
		_ = h.remap(h.brk)
		return fmt.Errorf("heap: failed to remap after grow: %w", err)
	}
	return nil
}

func (h *Heap) shrinkFile(newSize int) error {
	if err := h.unmap(); err != nil {
		return fmt.Errorf("heap: failed to unmap before truncate: %w", err)
	}
	if err := unix.Ftruncate(int(h.f.Fd()), int64(newSize)); err != nil {
		_ = h.remap(h.brk)
		return fmt.Errorf("heap: failed to truncate file: %w", err)
	}
	return h.remap(newSize)
}

// syncRange msyncs the pages covering [off, off+n).
func (h *Heap) syncRange(off, n int) error {
	pageSize := os.Getpagesize()
	start := off &^ (pageSize - 1)
	return unix.Msync(h.data[start:off+n], unix.MS_SYNC)
}
