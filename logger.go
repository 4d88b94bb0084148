// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"log/slog"
	"sync/atomic"
)

var (
	silent    = slog.New(slog.DiscardHandler)
	loggerPtr atomic.Pointer[slog.Logger]
)

func init() {
	loggerPtr.Store(silent)
}

// SetLogger configures the logger for compute and its sub-packages, including
// the registered accelerator. Pass nil to turn logging off again, which is
// also the default.
//
// Levels:
//   - [slog.LevelDebug]: buffer sizes, dispatch and workgroup counts, declined ops
//   - [slog.LevelInfo]: GPU adapter selection, files written by the demos
//   - [slog.LevelWarn]: GPU failures that forced a CPU fallback
//
// The computedemo CLI installs a text handler on stderr:
//
//	compute.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	loggerPtr.Store(l)

	if a := RegisteredAccelerator(); a != nil {
		propagateLogger(a, l)
	}
}

// Logger returns the current logger. It is never nil.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by accelerators that log on their own.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(a Accelerator, l *slog.Logger) {
	if ls, ok := a.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
