// Package diagnostics defines the error taxonomy of the compiler.
//
// Every compiler failure is a *DiagnosticError carrying a stable code. The
// first letter of the code names the phase that raised it: P for the parser,
// S for the syntax legality checks run by the rewrite passes, I for type
// inference and B for the backend receiving the result. Errors are never recovered from inside a compilation; they are
// returned to the caller unmodified.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

type Phase string

const (
	PhaseParse     Phase = "parse"
	PhaseSyntax    Phase = "syntax"
	PhaseInference Phase = "inference"
	PhaseBackend   Phase = "backend"
)

const (
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // inconsistent indentation
	ErrP003 ErrorCode = "P003" // unsupported construct

	ErrS001 ErrorCode = "S001" // arity limit exceeded
	ErrS002 ErrorCode = "S002" // missing return
	ErrS003 ErrorCode = "S003" // reserved name redefined
	ErrS004 ErrorCode = "S004" // statements after nested conditional
	ErrS005 ErrorCode = "S005" // malformed call

	ErrI001 ErrorCode = "I001" // type mismatch
	ErrI002 ErrorCode = "I002" // occurs check
	ErrI003 ErrorCode = "I003" // undefined variables
	ErrI004 ErrorCode = "I004" // not a function
	ErrI005 ErrorCode = "I005" // entry point arity

	ErrB001 ErrorCode = "B001" // backend failure
)

// DiagnosticError is the single error type produced by the compiler.
type DiagnosticError struct {
	Code    ErrorCode
	Message string
	// Line is the 1-based source line, or 0 when the node was synthesized.
	Line int
	// Names lists the offending identifiers, e.g. for undefined variables.
	Names []string
}

func (e *DiagnosticError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d: %s", e.Code, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Phase reports which compiler phase raised the error.
func (e *DiagnosticError) Phase() Phase {
	switch {
	case strings.HasPrefix(string(e.Code), "P"):
		return PhaseParse
	case strings.HasPrefix(string(e.Code), "S"):
		return PhaseSyntax
	case strings.HasPrefix(string(e.Code), "B"):
		return PhaseBackend
	default:
		return PhaseInference
	}
}

func NewError(code ErrorCode, line int, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Undefined builds the I003 error listing every unexplained identifier.
func Undefined(names []string) *DiagnosticError {
	return &DiagnosticError{
		Code:    ErrI003,
		Message: "undefined variables: " + strings.Join(names, ", "),
		Names:   names,
	}
}

// As extracts the DiagnosticError from err, if any.
func As(err error) (*DiagnosticError, bool) {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func IsParse(err error) bool     { return isPhase(err, PhaseParse) }
func IsSyntax(err error) bool    { return isPhase(err, PhaseSyntax) }
func IsInference(err error) bool { return isPhase(err, PhaseInference) }
func IsBackend(err error) bool   { return isPhase(err, PhaseBackend) }

func isPhase(err error, p Phase) bool {
	de, ok := As(err)
	return ok && de.Phase() == p
}

// HasCode reports whether err is a DiagnosticError with the given code.
func HasCode(err error, code ErrorCode) bool {
	de, ok := As(err)
	return ok && de.Code == code
}
