// Package monitoring holds the swappable diagnostic logger shared by the
// world-model packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger, log.Printf by default.
// Embedding callers replace it via SetLogger to route output into their
// own logging stack, or mute it entirely.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
