package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	replayFile  string
	replayCheck bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().StringVar(&replayFile, "file", "", "Replay into a file-backed heap at this path")
	cmd.Flags().BoolVar(&replayCheck, "check", false, "Check the heap after every op (overrides HEAPKIT_CHECK)")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay allocation traces and report utilization",
		Long: `The replay command runs each trace against a fresh heap, verifying that
every payload keeps its contents, and reports peak utilization.

With --file the heap lives in a file that is reset before each trace; the
image of the last trace is left behind for dump and check.

Example:
  heapctl replay traces/*.rep
  heapctl replay short1.rep --check
  heapctl replay short1.rep --file heap.img --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
	return cmd
}

// replaySession owns the heap and allocator reused across traces.
type replaySession struct {
	h       *heap.Heap
	a       *alloc.Allocator
	tracker *dirty.Tracker
}

func newReplaySession(check bool) (*replaySession, error) {
	s := &replaySession{}
	if replayFile != "" {
		h, err := heap.Create(replayFile, cfg.MaxHeap)
		if err != nil {
			return nil, fmt.Errorf("failed to create heap file: %w", err)
		}
		s.h = h
	} else {
		s.h = heap.New(cfg.MaxHeap)
	}
	s.tracker = dirty.NewTracker(s.h)

	a, err := alloc.New(s.h,
		alloc.WithLogger(logger),
		alloc.WithTracker(s.tracker),
		alloc.WithCheck(check))
	if err != nil {
		s.h.Close()
		return nil, err
	}
	s.a = a
	return s, nil
}

// reset rewinds the heap for the next trace.
func (s *replaySession) reset() error {
	if err := s.h.Reset(); err != nil {
		return err
	}
	s.tracker.Reset()
	return s.a.Init()
}

// close flushes dirty ranges and closes the heap, reporting both failures.
func (s *replaySession) close(ctx context.Context) error {
	var result *multierror.Error
	if err := s.tracker.Flush(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to sync heap file: %w", err))
	}
	if err := s.h.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close heap: %w", err))
	}
	return result.ErrorOrNil()
}

// abort closes the session after err ended the run. The flush still runs
// when ctx was cancelled, and close failures are kept alongside err.
func (s *replaySession) abort(ctx context.Context, err error) error {
	cerr := s.close(context.WithoutCancel(ctx))
	if cerr == nil {
		return err
	}
	return multierror.Append(err, cerr)
}

func runReplay(ctx context.Context, paths []string) error {
	check := replayCheck || cfg.Check

	traces := make([]*trace.Trace, 0, len(paths))
	for _, path := range paths {
		tr, err := trace.ParseFile(path)
		if err != nil {
			return err
		}
		traces = append(traces, tr)
	}

	s, err := newReplaySession(check)
	if err != nil {
		return err
	}

	results := make([]*trace.Result, 0, len(traces))
	for i, tr := range traces {
		if i > 0 {
			if err := s.reset(); err != nil {
				return s.abort(ctx, fmt.Errorf("failed to reset heap: %w", err))
			}
		}
		printVerbose("Replaying %s (%d ops)\n", tr.Name, len(tr.Ops))
		res, err := trace.Replay(ctx, s.a, tr, trace.ReplayOptions{Check: check, Logger: logger})
		if err != nil {
			return s.abort(ctx, err)
		}
		results = append(results, res)
	}
	if err := s.close(ctx); err != nil {
		return err
	}

	if jsonOut {
		type jsonResult struct {
			*trace.Result
			Utilization float64 `json:"utilization"`
		}
		out := make([]jsonResult, 0, len(results))
		for _, r := range results {
			out = append(out, jsonResult{Result: r, Utilization: r.Utilization()})
		}
		return printJSON(map[string]any{
			"traces":      out,
			"utilization": averageUtilization(traces, results),
		})
	}

	if quiet {
		return nil
	}
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	p.Fprintf(tw, "trace\tops\theap\tpeak live\tutil\ttime\n")
	for _, r := range results {
		p.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f%%\t%v\n",
			r.Name, r.Ops, r.HeapSize, r.PeakLive, 100*r.Utilization(), r.Elapsed)
	}
	tw.Flush()
	p.Fprintf(os.Stdout, "average utilization: %.1f%%\n", 100*averageUtilization(traces, results))
	return nil
}

// averageUtilization weights each trace's utilization by its header weight.
// Traces declaring weight 0 count once.
func averageUtilization(traces []*trace.Trace, results []*trace.Result) float64 {
	var sum, total float64
	for i, r := range results {
		w := float64(max(traces[i].Weight, 1))
		sum += w * r.Utilization()
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}
