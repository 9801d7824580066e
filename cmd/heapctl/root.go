package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	maxHeap int

	// Set up by PersistentPreRunE
	cfg    Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Replay allocation traces and inspect heap images",
	Long: `heapctl drives the heapkit allocator. It replays malloc/free/realloc
traces with payload and heap-consistency checking, and dumps or checks
file-backed heap images left behind by a replay.

Environment:
  HEAPKIT_MAX_HEAP     heap growth limit in bytes (default 20 MiB)
  HEAPKIT_LOG_LEVEL    logrus level (default warn)
  HEAPKIT_LOG_FORMAT   text or json
  HEAPKIT_CHECK        run the heap checker after every replayed op`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		IntVar(&maxHeap, "max-heap", 0, "Heap growth limit in bytes (overrides HEAPKIT_MAX_HEAP)")
}

// setup loads the environment configuration and applies flag overrides.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	if maxHeap > 0 {
		c.MaxHeap = maxHeap
	}
	l, err := newLogger(c, os.Stderr, verbose, quiet)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
