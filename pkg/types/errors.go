package types

import (
	"errors"
	"fmt"
)

// RefactorError represents errors in analysis and rewrite operations
type RefactorError struct {
	Type    ErrorType
	Message string
	File    string
	Line    int
	Column  int
	Cause   error
}

// Error falls back to the type name when there is no message, as for the
// sentinels.
func (e *RefactorError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Type.String()
	}
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, msg)
	}
	return msg
}

func (e *RefactorError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a RefactorError of the same type, so that
// errors.Is(err, ErrNoMatch) matches any NoMatch error.
func (e *RefactorError) Is(target error) bool {
	t, ok := target.(*RefactorError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

type ErrorType int

const (
	// NoMatch means a pattern does not apply. It is never shown to users.
	NoMatch ErrorType = iota
	// UnsafeRewrite means a safety precondition failed and the match is suppressed.
	UnsafeRewrite
	// StaleTrackedNode means a tracked node no longer exists in the current tree.
	StaleTrackedNode
	// Cancelled wraps the context error of an abandoned walk or rewrite.
	Cancelled
	ParseError
	InvalidOperation
	FileSystemError
	ConfigError
)

func (t ErrorType) String() string {
	switch t {
	case NoMatch:
		return "NoMatch"
	case UnsafeRewrite:
		return "UnsafeRewrite"
	case StaleTrackedNode:
		return "StaleTrackedNode"
	case Cancelled:
		return "Cancelled"
	case ParseError:
		return "ParseError"
	case InvalidOperation:
		return "InvalidOperation"
	case FileSystemError:
		return "FileSystemError"
	case ConfigError:
		return "ConfigError"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is checks.
var (
	ErrNoMatch          = &RefactorError{Type: NoMatch}
	ErrUnsafeRewrite    = &RefactorError{Type: UnsafeRewrite}
	ErrStaleTrackedNode = &RefactorError{Type: StaleTrackedNode}
	ErrCancelled        = &RefactorError{Type: Cancelled}
)

// NewError builds a RefactorError without location information.
func NewError(t ErrorType, format string, args ...any) *RefactorError {
	return &RefactorError{Type: t, Message: fmt.Sprintf(format, args...)}
}

// CancelledError wraps a context error.
func CancelledError(cause error) error {
	return &RefactorError{Type: Cancelled, Message: "operation cancelled", Cause: cause}
}

// IsType reports whether err, or anything it wraps, is a RefactorError of type t.
func IsType(err error, t ErrorType) bool {
	var re *RefactorError
	if errors.As(err, &re) {
		return re.Type == t
	}
	return false
}

// ValidationError represents validation failures
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "validation failed: " + e.Issues[0].Description
	}
	return fmt.Sprintf("validation failed with %d issues", len(e.Issues))
}
