// Package loxerr defines the single error type reported by the compiler
// and the virtual machine.
package loxerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an interpretation failure.
type Kind int

const (
	// KindCompile means at least one diagnostic was reported while
	// compiling; nothing was executed.
	KindCompile Kind = iota + 1
	// KindRuntime means execution halted on a fault.
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindCompile:
		return "compile"
	case KindRuntime:
		return "runtime"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fault identifies the runtime condition behind a KindRuntime error.
type Fault int

const (
	FaultNone Fault = iota
	FaultStackUnderflow
	FaultTypeMismatch
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultStackUnderflow:
		return "stack underflow"
	case FaultTypeMismatch:
		return "type mismatch"
	default:
		return fmt.Sprintf("Fault(%d)", int(f))
	}
}

// Diagnostic is one compile-time report.
type Diagnostic struct {
	Line    int
	Lexeme  string // offending token text; empty at end of input or for scanner errors
	AtEnd   bool
	Message string
}

// String renders the diagnostic as "[line N] Error at 'x': message".
func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[line %d] Error", d.Line))
	switch {
	case d.AtEnd:
		sb.WriteString(" at end")
	case d.Lexeme != "":
		sb.WriteString(fmt.Sprintf(" at '%s'", d.Lexeme))
	}
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}

// Error is the consolidated failure of an interpret call.
type Error struct {
	Kind    Kind
	Fault   Fault
	Line    int    // source line, 0 if unknown
	Message string // runtime message; compile errors summarize Diagnostics

	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCompile:
		if len(e.Diagnostics) == 0 {
			return "compile error"
		}
		lines := make([]string, len(e.Diagnostics))
		for i, d := range e.Diagnostics {
			lines[i] = d.String()
		}
		return strings.Join(lines, "\n")
	default:
		if e.Line > 0 {
			return fmt.Sprintf("%s\n[line %d] in script", e.Message, e.Line)
		}
		return e.Message
	}
}

// NewCompile builds a KindCompile error from the collected diagnostics.
func NewCompile(diags []Diagnostic) *Error {
	e := &Error{Kind: KindCompile, Diagnostics: diags}
	if len(diags) > 0 {
		e.Line = diags[0].Line
		e.Message = diags[0].Message
	}
	return e
}

// NewRuntime builds a KindRuntime error.
func NewRuntime(fault Fault, line int, format string, args ...any) *Error {
	return &Error{
		Kind:    KindRuntime,
		Fault:   fault,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the Kind of err, or 0 if err is not (and does not wrap)
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsCompile reports whether err is a compile failure.
func IsCompile(err error) bool { return KindOf(err) == KindCompile }

// IsRuntime reports whether err is a runtime failure.
func IsRuntime(err error) bool { return KindOf(err) == KindRuntime }

// FaultOf returns the runtime Fault of err, or FaultNone.
func FaultOf(err error) Fault {
	var e *Error
	if errors.As(err, &e) {
		return e.Fault
	}
	return FaultNone
}
