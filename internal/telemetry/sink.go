package telemetry

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
)

var (
	infoColor  = color.New(color.FgGreen).SprintFunc()
	debugColor = color.New(color.FgCyan).SprintFunc()
	traceColor = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
)

// textSink is a minimal human-readable logr.LogSink, colored when
// writing to a terminal. It exists for local debugging of the skimmer
// and commit protocol; production callers normally supply their own
// logr backend via WithLogger.
type textSink struct {
	mu     sync.Mutex
	writer io.Writer
	name   string
	values []interface{}
}

// NewTextLogger returns a logr.Logger backed by a colored text sink
// writing to w. If w is nil, it defaults to os.Stderr.
func NewTextLogger(w io.Writer) logr.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logr.New(&textSink{writer: w})
}

func (s *textSink) Init(logr.RuntimeInfo) {}

func (s *textSink) Enabled(level int) bool {
	return level <= levelTrace
}

func (s *textSink) Info(level int, msg string, keysAndValues ...interface{}) {
	var label string
	switch level {
	case levelInfo:
		label = infoColor("[INFO]")
	case levelDebug:
		label = debugColor("[DEBUG]")
	default:
		label = traceColor("[TRACE]")
	}
	s.write(label, msg, keysAndValues...)
}

func (s *textSink) Error(err error, msg string, keysAndValues ...interface{}) {
	s.write(errorColor("[ERROR]"), msg, append(keysAndValues, "error", err)...)
}

func (s *textSink) write(label, msg string, keysAndValues ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := label + " "
	if s.name != "" {
		line += "[" + s.name + "] "
	}
	line += msg
	fmt.Fprintln(s.writer, line)

	all := append(append([]interface{}{}, s.values...), keysAndValues...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(s.writer, "  %v: %v\n", all[i], all[i+1])
	}
}

func (s *textSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return &textSink{writer: s.writer, name: s.name, values: append(append([]interface{}{}, s.values...), keysAndValues...)}
}

func (s *textSink) WithName(name string) logr.LogSink {
	newName := name
	if s.name != "" {
		newName = s.name + "." + name
	}
	return &textSink{writer: s.writer, name: newName, values: s.values}
}
