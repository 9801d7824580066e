package alloc

import "github.com/sirupsen/logrus"

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger routes allocator logging to l instead of the package logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithTracker reports every heap byte the allocator writes to dt.
func WithTracker(dt DirtyTracker) Option {
	return func(a *Allocator) {
		a.dt = dt
	}
}

// WithCheck runs Check after every Malloc, Free and Realloc and logs any
// violation at error level. Every call becomes O(heap); use it for tests and
// trace replay.
func WithCheck(enabled bool) Option {
	return func(a *Allocator) {
		a.check = enabled
	}
}
