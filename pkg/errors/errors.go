// Package errors provides structured error types for structview.
//
// Every failure of a render pass is reported as an [*Error] carrying a
// machine-readable [Code] and, where one exists, the id of the offending
// source record or diagram element. This lets the CLI, the HTTP API and
// library callers tell a bad input frame apart from a misbehaving layout
// algorithm without parsing messages.
//
// # Error Codes
//
//   - INVALID_RECORD: a frame failed model construction (ValidationError)
//   - LAYOUT_FAILED: a layout algorithm failed or produced non-finite
//     positions (LayoutAlgorithmError)
//   - INVALID_INPUT, INVALID_CONFIG, INVALID_PATH: caller input problems
//   - NOT_FOUND: unknown session, group or element
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.Validation("list(7)", "link %q targets missing record %q", "next", "9")
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // reject the frame, keep showing the previous one
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeValidation   Code = "INVALID_RECORD"
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidConf  Code = "INVALID_CONFIG"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Layout errors
	ErrCodeLayout Code = "LAYOUT_FAILED"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	ID      string // Offending record or element id (optional)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ID != "" {
		msg = fmt.Sprintf("%s: %s [%s]", e.Code, e.Message, e.ID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Validation returns an INVALID_RECORD error naming the offending id.
// The model constructor reports every frame it cannot build this way.
func Validation(id string, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
		ID:      id,
	}
}

// Layout returns a LAYOUT_FAILED error naming the offending element (or
// group, when the algorithm itself failed) and wrapping cause.
func Layout(id string, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeLayout,
		Message: fmt.Sprintf(format, args...),
		ID:      id,
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetID extracts the offending record or element id, if available.
func GetID(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.ID
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.ID != "" {
			return fmt.Sprintf("%s (%s)", e.Message, e.ID)
		}
		return e.Message
	}
	return err.Error()
}
