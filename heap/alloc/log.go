package alloc

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Runtime debug flag for allocation logging - controlled by HEAPKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Level = logrus.WarnLevel
	if logAlloc {
		l.Level = logrus.DebugLevel
	}
	return l
}

// Log returns the package logger used by allocators created without WithLogger.
func Log() *logrus.Logger {
	return log
}
