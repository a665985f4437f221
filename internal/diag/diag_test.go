package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	r.Report(Warning, "index out of range")
	r.Report(Error, "rom too large")
	r.Report(Error, "unreadable")

	assert.Len(t, r.Entries(), 3)
	assert.Equal(t, 1, r.Count(Warning))
	assert.Equal(t, 2, r.Count(Error))
	assert.Equal(t, 0, r.Count(Fatal))

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, Entry{Severity: Error, Message: "unreadable"}, last)
}

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, nil, &b, Discard}
	m.Report(Fatal, "unknown opcode")
	assert.Equal(t, 1, a.Count(Fatal))
	assert.Equal(t, 1, b.Count(Fatal))
}

func TestLogSinkAllSeverities(t *testing.T) {
	var out bytes.Buffer
	cfg := log.DefaultConfig()
	cfg.Output = &out
	cfg.TimeFormat = "-"
	s := NewLogSink(log.NewWithConfig(cfg))

	s.Report(Warning, "warning report")
	s.Report(Error, "error report")
	s.Report(Fatal, "fatal report")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "WARN"), lines[0])
	assert.Contains(t, lines[0], "warning report")
	assert.True(t, strings.HasPrefix(lines[1], "ERROR"), lines[1])
	assert.Contains(t, lines[1], "error report")
	assert.NotContains(t, lines[1], "severity")
	assert.True(t, strings.HasPrefix(lines[2], "ERROR"), lines[2])
	assert.Contains(t, lines[2], "fatal report")
	assert.Contains(t, lines[2], `"severity":"fatal"`)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "fatal", Fatal.String())
	assert.Equal(t, "Severity(9)", Severity(9).String())
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger(false, false))
	assert.NotNil(t, NewLogger(true, false))
	assert.NotNil(t, NewLogger(false, true))
}
