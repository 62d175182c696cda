package errors

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// EngineError is the interface implemented by all host-facing escore errors.
type EngineError interface {
	error
	Pos() Position
	Kind() string // "Syntax" or "Runtime"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error
}

// SyntaxError reports a parse failure or an early error.
type SyntaxError struct {
	Position
	Msg   string
	Cause error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return e.Cause }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// RuntimeError reports an exception that escaped a top-level evaluation.
// Name is the thrown error's name (TypeError, ReferenceError, ...), empty
// when a non-error value was thrown.
type RuntimeError struct {
	Position
	Name  string
	Msg   string
	Cause error
}

func (e *RuntimeError) Error() string {
	if e.Name == "" {
		return "Uncaught " + e.Msg
	}
	if e.Msg == "" {
		return "Uncaught " + e.Name
	}
	return fmt.Sprintf("Uncaught %s: %s", e.Name, e.Msg)
}
func (e *RuntimeError) Pos() Position { return e.Position }
func (e *RuntimeError) Kind() string  { return "Runtime" }
func (e *RuntimeError) Message() string {
	if e.Name == "" {
		return e.Msg
	}
	return e.Name + ": " + e.Msg
}
func (e *RuntimeError) Unwrap() error { return e.Cause }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// ErrorList collects the diagnostics of one parse.
type ErrorList []EngineError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// First returns the first diagnostic, or nil.
func (l ErrorList) First() EngineError {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// DisplayErrors prints errors to stderr with the offending source line and
// a position marker.
func DisplayErrors(source string, errs []EngineError) {
	FprintErrors(os.Stderr, source, errs)
}

// FprintErrors is DisplayErrors writing to w.
func FprintErrors(w io.Writer, source string, errs []EngineError) {
	if len(errs) == 0 {
		return
	}
	lines := strings.Split(source, "\n")
	for _, err := range errs {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()

		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(w, "%s Error: %s\n", kind, msg)
			continue
		}

		trimmedLine := strings.TrimRight(lines[lineIdx], "\r\n\t ")
		fmt.Fprintf(w, "%s Error at %d:%d: %s\n", kind, pos.Line, pos.Column, msg)
		fmt.Fprintf(w, "  %s\n", trimmedLine)
		col := pos.Column - 1
		if col < 0 {
			col = 0
		}
		fmt.Fprintf(w, "  %s^\n", strings.Repeat(" ", col))
		fmt.Fprintln(w)
	}
}
