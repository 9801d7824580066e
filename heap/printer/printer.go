// Package printer renders allocator heaps as text tables or JSON documents.
package printer

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap/alloc"
)

const (
	DefaultMaxPayloadBytes = 16
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs a human-readable block table.
	FormatText Format = "text"

	// FormatJSON outputs a JSON document.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// ShowBlocks lists every block. When false only the summary is printed.
	// Default: true
	ShowBlocks bool

	// ShowSentinels includes the prologue and the epilogue in the block list.
	// Default: false
	ShowSentinels bool

	// MaxPayloadBytes is how many leading payload bytes of allocated blocks
	// to show in hex. 0 hides payloads.
	// Default: 16
	MaxPayloadBytes int

	// Language controls digit grouping of numbers in text output.
	// Default: language.English
	Language language.Tag
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:          FormatText,
		ShowBlocks:      true,
		ShowSentinels:   false,
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		Language:        language.English,
	}
}

// Heap is the read-only view of an allocator the printer needs.
// *alloc.Allocator implements it.
type Heap interface {
	Walk(fn func(alloc.Block) bool) error
	Bytes(p alloc.Ptr) []byte
	HeapSize() int
}

// Printer handles formatted output of a heap.
type Printer struct {
	opts   Options
	writer io.Writer
	heap   Heap
	msg    *message.Printer
}

// New creates a new Printer.
//
// Example:
//
//	p := printer.New(a, os.Stdout, printer.DefaultOptions())
//	p.PrintHeap()
func New(h Heap, w io.Writer, opts Options) *Printer {
	return &Printer{
		heap:   h,
		writer: w,
		opts:   opts,
		msg:    message.NewPrinter(opts.Language),
	}
}

// Dump prints h to w with opts.
func Dump(w io.Writer, h Heap, opts Options) error {
	return New(h, w, opts).PrintHeap()
}

// PrintHeap prints the block list (if enabled) followed by the summary.
func (p *Printer) PrintHeap() error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printHeapJSON()
	case FormatText:
		return p.printHeapText()
	default:
		return p.printHeapText()
	}
}

// PrintSummary prints only the summary.
func (p *Printer) PrintSummary() error {
	s, err := Summarize(p.heap)
	if err != nil {
		return err
	}
	switch p.opts.Format {
	case FormatJSON:
		return p.writeJSON(s)
	default:
		return p.printSummaryText(s)
	}
}

// collect walks the heap once, returning the blocks to list.
func (p *Printer) collect() ([]alloc.Block, error) {
	var blocks []alloc.Block
	err := p.heap.Walk(func(b alloc.Block) bool {
		if !b.Sentinel || p.opts.ShowSentinels {
			blocks = append(blocks, b)
		}
		return true
	})
	return blocks, err
}

// preview returns the leading payload bytes shown for b.
func (p *Printer) preview(b alloc.Block) []byte {
	if p.opts.MaxPayloadBytes <= 0 || !b.Allocated || b.Sentinel {
		return nil
	}
	data := p.heap.Bytes(b.Payload())
	return data[:min(len(data), p.opts.MaxPayloadBytes)]
}
