package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/heapkit/heap"
)

// envPrefix namespaces every environment variable heapctl reads.
const envPrefix = "HEAPKIT"

// Config is the environment configuration. Command-line flags override it.
type Config struct {
	// MaxHeap caps how far a heap may grow, in bytes.
	MaxHeap int `envconfig:"MAX_HEAP" default:"20971520"`

	// LogLevel is a logrus level name.
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`

	// LogFormat is "text" or "json".
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Check runs the heap checker after every replayed op.
	Check bool `envconfig:"CHECK"`
}

func loadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("failed to read %s_* environment: %w", envPrefix, err)
	}
	if c.MaxHeap <= 0 {
		c.MaxHeap = heap.DefaultLimit
	}
	return c, nil
}

// newLogger builds the command logger. verbose forces debug and quiet
// forces error, in that order of precedence.
func newLogger(c Config, out io.Writer, verbose, quiet bool) (*logrus.Logger, error) {
	l := logrus.New()
	l.Out = out

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	switch {
	case verbose:
		level = logrus.DebugLevel
	case quiet:
		level = logrus.ErrorLevel
	}
	l.Level = level

	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	case "json":
		l.Formatter = &logrus.JSONFormatter{}
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	return l, nil
}
