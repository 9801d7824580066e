package printer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// jsonBlock represents one heap block in JSON format.
type jsonBlock struct {
	Offset  int    `json:"offset"`
	Size    int    `json:"size"`
	State   string `json:"state"`
	Payload uint64 `json:"payload,omitempty"`
	Data    string `json:"data,omitempty"`
}

// jsonHeap represents a whole heap in JSON format.
type jsonHeap struct {
	Blocks  []jsonBlock `json:"blocks,omitempty"`
	Summary Summary     `json:"summary"`
}

func (p *Printer) printHeapJSON() error {
	var doc jsonHeap
	if p.opts.ShowBlocks {
		blocks, err := p.collect()
		if err != nil {
			return err
		}
		doc.Blocks = make([]jsonBlock, 0, len(blocks))
		for _, b := range blocks {
			doc.Blocks = append(doc.Blocks, toJSONBlock(b, p.preview(b)))
		}
	}
	s, err := Summarize(p.heap)
	if err != nil {
		return err
	}
	doc.Summary = s
	return p.writeJSON(doc)
}

func toJSONBlock(b alloc.Block, data []byte) jsonBlock {
	jb := jsonBlock{
		Offset:  b.Offset,
		Size:    b.Size,
		State:   state(b),
		Payload: uint64(b.Payload()),
	}
	if len(data) > 0 {
		jb.Data = hex.EncodeToString(data)
	}
	return jb
}

func (p *Printer) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.writer, "%s\n", data)
	return err
}
