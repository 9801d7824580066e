package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/format"
)

// Set with -ldflags "-X main.version=...". Builds without them fall back to
// the VCS stamp the Go toolchain embeds.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and heap layout information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	})
}

// versionInfo describes the binary and the heap image layout it reads and
// writes, so images can be matched to a build.
type versionInfo struct {
	Version      string `json:"version"`
	Commit       string `json:"commit"`
	Built        string `json:"built"`
	Modified     bool   `json:"modified,omitempty"`
	GoVersion    string `json:"go_version"`
	Alignment    int    `json:"alignment"`
	MinBlockSize int    `json:"min_block_size"`
}

func buildVersionInfo() versionInfo {
	info := versionInfo{
		Version:      version,
		Commit:       commit,
		Built:        date,
		Alignment:    format.Alignment,
		MinBlockSize: format.MinBlockSize,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Built == "" {
					info.Built = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Built == "" {
		info.Built = "unknown"
	}
	return info
}

func runVersion() error {
	info := buildVersionInfo()
	if jsonOut {
		return printJSON(info)
	}
	commit := info.Commit
	if info.Modified {
		commit += " (modified)"
	}
	printInfo("heapctl %s\n", info.Version)
	printInfo("  commit: %s\n", commit)
	printInfo("  built: %s\n", info.Built)
	printInfo("  go: %s\n", info.GoVersion)
	printInfo("  heap layout: %d-byte alignment, %d-byte minimum block\n", info.Alignment, info.MinBlockSize)
	return nil
}
