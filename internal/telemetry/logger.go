// Package telemetry provides the leveled logging facade used across
// the skimmer and commit protocol. It wraps logr.Logger the way
// iso-kit's pkg/logging wraps it: a tiny Debug/Info/Trace/Error surface
// that discards everything by default so the library stays silent
// unless a caller opts in.
package telemetry

import "github.com/go-logr/logr"

const (
	levelInfo  = 0
	levelDebug = 1
	levelTrace = 2
)

// Logger wraps a logr.Logger with the verbosity levels TEVD's engines
// care about: lifecycle events (open, index build, commit phases) at
// Debug/Trace, and corruption or commit failures at Error.
type Logger struct {
	sink logr.Logger
}

// New wraps an existing logr.Logger. A zero-value logr.Logger is
// treated as "no sink configured" and discards output.
func New(sink logr.Logger) *Logger {
	if sink.GetSink() == nil {
		sink = logr.Discard()
	}
	return &Logger{sink: sink}
}

// Discard returns a Logger that drops everything, the default when no
// logger option is supplied.
func Discard() *Logger {
	return &Logger{sink: logr.Discard()}
}

// Info logs a normal lifecycle event.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sink.Info(msg, keysAndValues...)
}

// Debug logs a lower-priority lifecycle event (index build, commit
// phase transitions).
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sink.V(levelDebug).Info(msg, keysAndValues...)
}

// Trace logs per-entry detail at verbosity 2, one level above Debug.
func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.sink.V(levelTrace).Info(msg, keysAndValues...)
}

// Error logs a failure: corruption, a failed commit, an I/O error.
func (l *Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sink.Error(err, msg, keysAndValues...)
}
