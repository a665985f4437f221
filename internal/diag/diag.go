// Package diag carries severity-tagged reports from the interpreter core to the host.
package diag

import (
	"fmt"
	"sync"

	"github.com/retroenv/retrogolib/log"
)

// Severity of a report.
type Severity int

const (
	Warning Severity = iota
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Sink receives reports. Fatal reports are followed by the machine halting;
// the sink itself does not stop anything.
type Sink interface {
	Report(sev Severity, msg string)
}

// NewLogger creates the process logger: debug output when debug is set,
// errors only when quiet is set.
func NewLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// LogSink forwards reports to a structured logger.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Report(sev Severity, msg string) {
	switch sev {
	case Warning:
		s.logger.Warn(msg)
	case Error:
		s.logger.Error(msg)
	default:
		// logger.Fatal exits the process; a halted machine is the caller's to handle.
		s.logger.Error(msg, log.String("severity", sev.String()))
	}
}

// Entry is one recorded report.
type Entry struct {
	Severity Severity
	Message  string
}

// Recorder keeps every report in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Report(sev Severity, msg string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Severity: sev, Message: msg})
	r.mu.Unlock()
}

// Entries returns a copy of the reports seen so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many reports of the given severity were recorded.
func (r *Recorder) Count(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

// Last returns the most recent report.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

// Multi fans a report out to several sinks in order.
type Multi []Sink

func (m Multi) Report(sev Severity, msg string) {
	for _, s := range m {
		if s != nil {
			s.Report(sev, msg)
		}
	}
}

// Discard drops every report.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(Severity, string) {}
