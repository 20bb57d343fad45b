// Package debug routes the debug hooks of the htag packages to a structured
// logger.
package debug

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/recera/htag/pkg/dom"
	"github.com/recera/htag/pkg/htag"
	"github.com/recera/htag/pkg/list"
	"github.com/recera/htag/pkg/scheduler"
)

var logger atomic.Pointer[slog.Logger]

// EnableLogging installs debug hooks for the htag, list, dom and scheduler
// packages. Passing nil uses slog.Default().
func EnableLogging(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger.Store(l)

	htag.SetDebugLog(hook(l, "htag"))
	list.SetDebugLog(hook(l, "list"))
	dom.SetDebugLog(hook(l, "dom"))
	scheduler.SetDebugLog(hook(l, "scheduler"))
}

// DisableLogging removes the hooks installed by EnableLogging
func DisableLogging() {
	logger.Store(nil)
	htag.SetDebugLog(nil)
	list.SetDebugLog(nil)
	dom.SetDebugLog(nil)
	scheduler.SetDebugLog(nil)
}

// Logger returns the logger passed to EnableLogging, or slog.Default()
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Log logs a message at debug level
func Log(args ...interface{}) {
	Logger().Debug(message(args))
}

// Logf logs a formatted message at debug level
func Logf(format string, args ...interface{}) {
	Logger().Debug(fmt.Sprintf(format, args...))
}

func hook(l *slog.Logger, component string) func(args ...interface{}) {
	l = l.With("component", component)
	return func(args ...interface{}) {
		if !l.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		l.Debug(message(args))
	}
}

// message joins hook arguments with spaces and drops the "[Tag]" prefix
// packages put in front of their lines
func message(args []interface{}) string {
	msg := strings.TrimSpace(fmt.Sprintln(args...))
	if strings.HasPrefix(msg, "[") {
		if i := strings.Index(msg, "] "); i > 0 {
			msg = msg[i+2:]
		}
	}
	return msg
}
