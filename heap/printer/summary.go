package printer

import "github.com/joshuapare/heapkit/heap/alloc"

// Summary describes the shape of a heap at one point in time.
type Summary struct {
	HeapSize       int `json:"heap_size"`
	Blocks         int `json:"blocks"`
	AllocatedCount int `json:"allocated_blocks"`
	FreeCount      int `json:"free_blocks"`
	AllocatedBytes int `json:"allocated_bytes"` // usable payload bytes
	FreeBytes      int `json:"free_bytes"`      // total size of free blocks
	LargestFree    int `json:"largest_free"`
}

// Summarize walks h and tallies its blocks. Sentinels are not counted.
func Summarize(h Heap) (Summary, error) {
	s := Summary{HeapSize: h.HeapSize()}
	err := h.Walk(func(b alloc.Block) bool {
		if b.Sentinel {
			return true
		}
		s.Blocks++
		if b.Allocated {
			s.AllocatedCount++
			s.AllocatedBytes += b.Usable()
		} else {
			s.FreeCount++
			s.FreeBytes += b.Size
			s.LargestFree = max(s.LargestFree, b.Size)
		}
		return true
	})
	return s, err
}
