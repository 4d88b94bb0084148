//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/compute"
)

// loggerPtr holds the logger installed through Accelerator.SetLogger.
// Until then the package logs through compute.Logger.
var loggerPtr atomic.Pointer[slog.Logger]

func slogger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return compute.Logger()
}

// setLogger installs l with a component attribute. nil reverts to
// compute.Logger.
func setLogger(l *slog.Logger) {
	if l == nil {
		loggerPtr.Store(nil)
		return
	}
	loggerPtr.Store(l.With("component", "gpu"))
}
