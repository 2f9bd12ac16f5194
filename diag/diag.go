// Package diag implements the compiler's diagnostic sink.
//
// Every compilation phase appends Diagnostics to a fresh Sink rather
// than returning or panicking on the first problem, so that later
// phases (and the editor integration that is out of scope for this
// module) still get a best-effort result. Each phase of a Compile call
// (lexer, parser, semantic pass) creates its own Sink; there is no
// package-level mutable state shared between compiles.
package diag

import "fmt"

// Severity classifies a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "information"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

// Diagnostic is a single compiler-reported problem with a half-open
// source range.
type Diagnostic struct {
	Severity   Severity
	Message    string
	Start, End Pos
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (%d:%d-%d:%d)", d.Severity, d.Message, d.Start.Line, d.Start.Col, d.End.Line, d.End.Col)
}

// Sink collects diagnostics for a single compilation. It is append-only
// from the caller's perspective; Clear resets it for a new compile.
type Sink struct {
	items []Diagnostic
}

// NewSink returns a fresh, empty Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Clear discards every recorded diagnostic. The engine façade calls
// this (or simply constructs a new Sink) before the first lexer token
// of a new compilation.
func (s *Sink) Clear() {
	s.items = s.items[:0]
}

// Add appends a diagnostic with an explicit start/end range.
func (s *Sink) Add(severity Severity, message string, start, end Pos) {
	s.items = append(s.items, Diagnostic{Severity: severity, Message: message, Start: start, End: end})
}

// AddAt appends a diagnostic whose start and end are the same point,
// the common case for lexer/parser errors anchored to one token.
func (s *Sink) AddAt(severity Severity, message string, pos Pos) {
	s.Add(severity, message, pos, pos)
}

// Errorf appends an Error-severity diagnostic using fmt formatting.
func (s *Sink) Errorf(start, end Pos, format string, args ...any) {
	s.Add(Error, fmt.Sprintf(format, args...), start, end)
}

// Warnf appends a Warning-severity diagnostic using fmt formatting.
func (s *Sink) Warnf(start, end Pos, format string, args ...any) {
	s.Add(Warning, fmt.Sprintf(format, args...), start, end)
}

// All returns every diagnostic recorded so far, in recording order.
func (s *Sink) All() []Diagnostic {
	return s.items
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
// Bytecode generation and execution only proceed when this is false.
func (s *Sink) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Count returns the total number of recorded diagnostics.
func (s *Sink) Count() int {
	return len(s.items)
}
