// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planerr provides coded errors shared by the planning stages.
//
// Every precondition failure of a planning operation is reported with
// CodeConfiguration before any computation starts, so callers can tell a
// parameter problem from a legitimately empty footprint or envelope (which
// is not an error at all). Callers branch with Is:
//
//	if planerr.Is(err, planerr.CodeConfiguration) {
//	    // change parameters, do not retry
//	}
package planerr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// CodeConfiguration marks a missing binding or an invalid parameter.
	CodeConfiguration Code = "CONFIGURATION"

	// CodeInvalidInput marks a malformed block table.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeNotFound marks a missing archived run or file.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInternal marks an unexpected failure.
	CodeInternal Code = "INTERNAL"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Configuration is shorthand for New(CodeConfiguration, ...).
func Configuration(format string, args ...any) *Error {
	return New(CodeConfiguration, format, args...)
}

// Is reports whether any error in err's chain carries code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
