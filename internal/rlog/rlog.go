// Package rlog is the engine's small structured logger: level-tagged
// lines to an io.Writer, color-gated by whether that writer is a
// terminal. Grounded on github.com/funvibe/funxy/internal/evaluator's
// termIsTTY use of github.com/mattn/go-isatty for output-mode
// detection, generalized from interpreter-builtin terminal control into
// an ambient logging facility (SPEC_FULL.md §A).
package rlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Level orders log severities low to high.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

var levelColor = map[Level]string{
	Debug: "\033[90m",
	Info:  "\033[36m",
	Warn:  "\033[33m",
	Error: "\033[31m",
}

const colorReset = "\033[0m"

// Logger writes leveled, component-tagged lines to Out. It is safe for
// concurrent use; an engine instance and its host front end typically
// share one Logger.
type Logger struct {
	mu       sync.Mutex
	Out      io.Writer
	Min      Level
	color    bool
	Fields   map[string]string // static fields attached to every line (e.g. engine id)
}

// New builds a Logger over out, auto-detecting color support the way
// the teacher's termIsTTY builtin does: a real terminal, including the
// Windows/Cygwin pty case.
func New(out io.Writer) *Logger {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Logger{Out: out, Min: Info, color: color, Fields: map[string]string{}}
}

// With returns a copy of l that prefixes every line with an extra
// "key=value" field, e.g. the engine's UUID.
func (l *Logger) With(key, value string) *Logger {
	fields := make(map[string]string, len(l.Fields)+1)
	for k, v := range l.Fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{Out: l.Out, Min: l.Min, color: l.color, Fields: fields}
}

func (l *Logger) log(lvl Level, format string, args ...any) {
	if lvl < l.Min {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().UTC().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] %s", ts, lvl, msg)
	for k, v := range l.Fields {
		line += fmt.Sprintf(" %s=%s", k, v)
	}
	if l.color {
		fmt.Fprintln(l.Out, levelColor[lvl]+line+colorReset)
		return
	}
	fmt.Fprintln(l.Out, line)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(Info, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(Warn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(Error, format, args...) }

// Default is a process-wide Logger over stderr, used by code that has
// no engine-scoped Logger threaded through it (e.g. package init).
var Default = New(os.Stderr)
