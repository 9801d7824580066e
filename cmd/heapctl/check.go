package main

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <heap>",
		Short: "Verify the structure of a heap image",
		Long: `The check command verifies the block tags, tiling, coalescing and stored
free-list links of a heap image, reporting every violation found rather
than stopping at the first.

Example:
  heapctl check heap.img
  heapctl check heap.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args)
		},
	}
	return cmd
}

// checkReport is the JSON form of a check.
type checkReport struct {
	Heap   string   `json:"heap"`
	OK     bool     `json:"ok"`
	Size   int      `json:"size"`
	Errors []string `json:"errors,omitempty"`
}

func runCheck(args []string) error {
	path := args[0]
	printVerbose("Opening heap: %s\n", path)

	h, err := heap.Open(path, cfg.MaxHeap)
	if err != nil {
		return fmt.Errorf("failed to open heap: %w", err)
	}
	defer h.Close()

	report := checkReport{Heap: path, Size: h.Size()}
	checkErr := alloc.Inspect(h, alloc.WithLogger(logger))
	report.OK = checkErr == nil

	var merr *multierror.Error
	switch {
	case checkErr == nil:
	case errors.As(checkErr, &merr):
		for _, e := range merr.Errors {
			report.Errors = append(report.Errors, e.Error())
		}
	default:
		report.Errors = []string{checkErr.Error()}
	}

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
		return checkErr
	}

	if checkErr != nil {
		printInfo("%s: corrupt\n", path)
		for _, e := range report.Errors {
			printInfo("  %s\n", e)
		}
		return checkErr
	}
	printInfo("%s: ok (%d bytes)\n", path, report.Size)
	return nil
}
