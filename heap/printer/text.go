package printer

import (
	"encoding/hex"
	"text/tabwriter"

	"github.com/joshuapare/heapkit/heap/alloc"
)

func state(b alloc.Block) string {
	switch {
	case b.Sentinel:
		return "sentinel"
	case b.Allocated:
		return "allocated"
	default:
		return "free"
	}
}

func (p *Printer) printHeapText() error {
	if p.opts.ShowBlocks {
		blocks, err := p.collect()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(p.writer, 0, 4, 2, ' ', tabwriter.AlignRight)
		if _, err := p.msg.Fprintf(tw, "offset\tsize\tstate\tpayload\t\n"); err != nil {
			return err
		}
		for _, b := range blocks {
			payload := ""
			if !b.Sentinel {
				payload = p.msg.Sprintf("%d", b.Payload())
			}
			if _, err := p.msg.Fprintf(tw, "%d\t%d\t%s\t%s\t", b.Offset, b.Size, state(b), payload); err != nil {
				return err
			}
			if data := p.preview(b); len(data) > 0 {
				if _, err := p.msg.Fprintf(tw, "  %s", hex.EncodeToString(data)); err != nil {
					return err
				}
			}
			if _, err := p.msg.Fprintf(tw, "\n"); err != nil {
				return err
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	s, err := Summarize(p.heap)
	if err != nil {
		return err
	}
	return p.printSummaryText(s)
}

func (p *Printer) printSummaryText(s Summary) error {
	_, err := p.msg.Fprintf(p.writer,
		"heap %d bytes: %d blocks, %d allocated (%d bytes), %d free (%d bytes, largest %d)\n",
		s.HeapSize, s.Blocks, s.AllocatedCount, s.AllocatedBytes, s.FreeCount, s.FreeBytes, s.LargestFree)
	return err
}
