package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig    = "CONFIG"
	ErrInventory = "INVENTORY"
	ErrSelection = "SELECTION"
	ErrSSH       = "SSH"
	ErrParse     = "PARSE"
	ErrInternal  = "INTERNAL"
)

// Process exit codes. Inventory and config problems share exit code 2;
// a limit expression that matches nothing exits 3.
const (
	ExitOK          = 0
	ExitConfig      = 2
	ExitNoHosts     = 3
	ExitInterrupted = 130
)

// Error represents a structured error with code, message, suggestion, and
// optional cause:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrInternal code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrInternal,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface with formatted output.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var amErr *Error
	if errors.As(err, &amErr) {
		return amErr.Code == code
	}
	return false
}

// ExitCode maps an error to the process exit code: 3 for selection errors,
// 2 for every other error, 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var amErr *Error
	if errors.As(err, &amErr) {
		switch amErr.Code {
		case ErrSelection:
			return ExitNoHosts
		case ErrConfig, ErrInventory:
			return ExitConfig
		}
	}
	return ExitConfig
}
