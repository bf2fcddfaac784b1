// Package diag provides the diagnostic logging contract used by the
// interpreter (set with interp.WithLogger and handed on to the interpreters
// it runs for resolved callees). The CFG builder and the bytecode simplifier
// take no Logger and emit no diagnostics. None of these diagnostics alter
// results; they exist so a host tool can show what the core did
// ("could not resolve invokestatic target ...", "callee resolution failed").
package diag

import (
	"fmt"
	"io"
)

// Logger receives non-error diagnostics. Implementations must be safe to
// call from a single interpretation session (the core never logs
// concurrently from more than one goroutine per session).
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Nop discards every diagnostic. Used as the default when a caller does not
// wire a Logger.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}

// Writer writes prefixed lines to an io.Writer. Mirrors the teacher's
// dependency-injected VM output writer, generalized to three severities.
type Writer struct {
	W io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{W: w} }

func (l *Writer) Debugf(format string, args ...any) { l.line("debug", format, args...) }
func (l *Writer) Infof(format string, args ...any)  { l.line("info", format, args...) }
func (l *Writer) Warnf(format string, args ...any)  { l.line("warn", format, args...) }

func (l *Writer) line(level, format string, args ...any) {
	if l == nil || l.W == nil {
		return
	}
	fmt.Fprintf(l.W, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}
