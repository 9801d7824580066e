package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/printer"
)

var (
	dumpSummary      bool
	dumpSentinels    bool
	dumpPayloadBytes int
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().BoolVar(&dumpSummary, "summary", false, "Print only the summary")
	cmd.Flags().BoolVar(&dumpSentinels, "sentinels", false, "Include prologue and epilogue")
	cmd.Flags().IntVar(&dumpPayloadBytes, "payload-bytes", printer.DefaultMaxPayloadBytes,
		"Leading payload bytes to show in hex (0 = none)")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <heap>",
		Short: "List the blocks of a heap image",
		Long: `The dump command loads a file-backed heap image and prints every block
with its offset, size and state, followed by a summary.

Example:
  heapctl dump heap.img
  heapctl dump heap.img --summary
  heapctl dump heap.img --json --payload-bytes 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

// openImage maps the heap file at path and attaches an allocator to it.
func openImage(path string) (*heap.Heap, *alloc.Allocator, error) {
	printVerbose("Opening heap: %s\n", path)

	h, err := heap.Open(path, cfg.MaxHeap)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open heap: %w", err)
	}
	a, err := alloc.Load(h, alloc.WithLogger(logger))
	if err != nil {
		h.Close()
		return nil, nil, fmt.Errorf("failed to load heap: %w", err)
	}
	return h, a, nil
}

func runDump(args []string) error {
	h, a, err := openImage(args[0])
	if err != nil {
		return err
	}
	defer h.Close()

	opts := printer.DefaultOptions()
	opts.ShowBlocks = !dumpSummary
	opts.ShowSentinels = dumpSentinels
	opts.MaxPayloadBytes = dumpPayloadBytes
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	if quiet {
		return nil
	}
	return printer.Dump(os.Stdout, a, opts)
}
