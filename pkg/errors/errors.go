package errors

import (
	"fmt"
	"io"

	"corvid/pkg/source"
)

// CorvidError is the interface implemented by all Corvid errors.
type CorvidError interface {
	error // Embed the standard error interface
	Pos() Position
	Kind() string // e.g. "Syntax", "Runtime"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error
}

// --- Concrete Error Types ---

// SyntaxError represents an error raised during lexing or parsing.
type SyntaxError struct {
	Position
	Msg   string
	Cause error
}

func (e *SyntaxError) Error() string {
	return e.Position.Prefix() + e.Msg
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return e.Cause }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// RuntimeError wraps a script exception that escaped to the host. The
// thrown value itself lives on the interpreter side; Msg carries its
// ToString rendering and Traceback the rendered call trace, if any.
type RuntimeError struct {
	Position
	Msg       string
	Traceback []string
	Cause     error
}

func (e *RuntimeError) Error() string {
	return e.Position.Prefix() + e.Msg
}
func (e *RuntimeError) Pos() Position   { return e.Position }
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }

// DisplayErrors prints errors to w in a user-friendly format, including
// the offending source line when sf is available.
func DisplayErrors(w io.Writer, sf *source.SourceFile, errs []CorvidError) {
	for _, err := range errs {
		fmt.Fprintf(w, "%s error: %s\n", err.Kind(), err.Error())

		if sf != nil {
			if line, ok := sf.Line(err.Pos().Line); ok {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		if re, ok := err.(*RuntimeError); ok {
			for _, frame := range re.Traceback {
				fmt.Fprintf(w, "  %s\n", frame)
			}
		}
	}
}
