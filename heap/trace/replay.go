package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

// Allocator is the allocator surface Replay drives.
// *alloc.Allocator implements it.
type Allocator interface {
	Malloc(size int64) (alloc.Ptr, error)
	Free(p alloc.Ptr) error
	Realloc(p alloc.Ptr, size int64) (alloc.Ptr, error)
	Bytes(p alloc.Ptr) []byte
	HeapSize() int
	Check() error
}

// ReplayOptions controls Replay.
type ReplayOptions struct {
	// Check runs the allocator's heap checker after every op.
	Check bool

	// Logger receives per-trace progress. Defaults to the alloc package logger.
	Logger logrus.FieldLogger
}

// Result summarises one replay.
type Result struct {
	Name     string        `json:"name"`
	Ops      int           `json:"ops"`
	PeakLive int64         `json:"peak_live_bytes"` // peak sum of requested sizes
	HeapSize int           `json:"heap_size"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Utilization is the peak live payload over the final heap size.
func (r Result) Utilization() float64 {
	if r.HeapSize == 0 {
		return 0
	}
	return float64(r.PeakLive) / float64(r.HeapSize)
}

// slot is the allocation currently bound to a trace id.
type slot struct {
	p    alloc.Ptr
	size int64
}

type replayer struct {
	a     Allocator
	slots []slot
	live  int64
}

// Replay runs every op of tr against a. Each payload is filled with a
// pattern derived from its id and checked before it is freed, and on both
// sides of every resize, so an allocator that clobbers live data or drops it
// while moving a block fails the replay. Replay also checks
// alignment, size and overlap of every returned payload.
//
// A free or resize of an id with nothing bound behaves like free(NULL) or
// realloc(NULL, n); an alloc of 0 bytes binds nothing, like malloc(0)
// returning NULL. ctx is checked between ops.
func Replay(ctx context.Context, a Allocator, tr *Trace, opts ReplayOptions) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = alloc.Log()
	}

	r := &replayer{a: a, slots: make([]slot, tr.NumIDs)}
	res := &Result{Name: tr.Name}
	start := time.Now()

	for _, op := range tr.Ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.apply(op); err != nil {
			return nil, fmt.Errorf("%s line %d (%s %d): %w", tr.Name, op.Line, op.Kind, op.ID, err)
		}
		if opts.Check {
			if err := a.Check(); err != nil {
				return nil, fmt.Errorf("%s line %d (%s %d): %w", tr.Name, op.Line, op.Kind, op.ID, err)
			}
		}
		res.Ops++
		res.PeakLive = max(res.PeakLive, r.live)
	}

	res.HeapSize = a.HeapSize()
	res.Elapsed = time.Since(start)
	log.WithFields(logrus.Fields{
		"trace":       tr.Name,
		"ops":         res.Ops,
		"heap":        res.HeapSize,
		"utilization": fmt.Sprintf("%.1f%%", 100*res.Utilization()),
	}).Info("replayed trace")
	return res, nil
}

func (r *replayer) apply(op Op) error {
	s := &r.slots[op.ID]
	switch op.Kind {
	case Alloc:
		if s.p != alloc.Null {
			return fmt.Errorf("id already bound to %d: %w", s.p, ErrSyntax)
		}
		// malloc(0) yields NULL; the id stays unbound.
		if op.Size == 0 {
			return nil
		}
		p, err := r.a.Malloc(op.Size)
		if err != nil {
			return err
		}
		if err := r.bind(op.ID, p, op.Size); err != nil {
			return err
		}

	case Realloc:
		if s.p == alloc.Null && op.Size == 0 {
			return nil
		}
		keep := min(s.size, op.Size)
		if s.p != alloc.Null {
			if err := r.verify(op.ID, s.p, keep); err != nil {
				return err
			}
		}
		p, err := r.a.Realloc(s.p, op.Size)
		if err != nil {
			return err
		}
		r.unbind(op.ID)
		if op.Size == 0 {
			return nil
		}
		if err := r.verify(op.ID, p, keep); err != nil {
			return fmt.Errorf("after realloc: %w", err)
		}
		if err := r.bind(op.ID, p, op.Size); err != nil {
			return err
		}

	case Free:
		if s.p == alloc.Null {
			return r.a.Free(alloc.Null)
		}
		if err := r.verify(op.ID, s.p, s.size); err != nil {
			return err
		}
		if err := r.a.Free(s.p); err != nil {
			return err
		}
		r.unbind(op.ID)
	}
	return nil
}

// bind validates a fresh payload, fills it and binds it to id.
func (r *replayer) bind(id int, p alloc.Ptr, size int64) error {
	if int(p)%format.Alignment != 0 {
		return fmt.Errorf("payload %d: %w", p, ErrMisaligned)
	}
	b := r.a.Bytes(p)
	if int64(len(b)) < size {
		return fmt.Errorf("payload %d holds %d of %d bytes: %w", p, len(b), size, ErrTooSmall)
	}
	end := p + alloc.Ptr(size)
	for other, s := range r.slots {
		if other == id || s.p == alloc.Null {
			continue
		}
		if p < s.p+alloc.Ptr(s.size) && s.p < end {
			return fmt.Errorf("payload [%d,%d) and id %d at [%d,%d): %w",
				p, end, other, s.p, s.p+alloc.Ptr(s.size), ErrOverlap)
		}
	}
	for i := range size {
		b[i] = pattern(id, i)
	}
	r.slots[id] = slot{p: p, size: size}
	r.live += size
	return nil
}

func (r *replayer) unbind(id int) {
	r.live -= r.slots[id].size
	r.slots[id] = slot{}
}

// verify checks that the first n bytes at p carry id's pattern.
func (r *replayer) verify(id int, p alloc.Ptr, n int64) error {
	b := r.a.Bytes(p)
	if int64(len(b)) < n {
		return fmt.Errorf("payload %d holds %d of %d bytes: %w", p, len(b), n, ErrPayload)
	}
	for i := range n {
		if b[i] != pattern(id, i) {
			return fmt.Errorf("payload %d byte %d: got %#x want %#x: %w", p, i, b[i], pattern(id, i), ErrPayload)
		}
	}
	return nil
}

func pattern(id int, i int64) byte {
	return byte(int64(id)*131 + i)
}
