// Package errors provides the coded errors pkgmirror reports at its
// boundaries: requirement parsing, configuration, paths and indexes.
//
// Library packages keep their own sentinel errors (archive.ErrClosed,
// integrations.ErrNotFound, ...) for conditions callers branch on. An
// [Error] is used where the failure goes back to a user, so the CLI can
// print a clean message and tests can match on a stable [Code].
//
//	err := errors.New(errors.ErrCodeInvalidRequirement, "invalid requirement %q", line)
//	if errors.Is(err, errors.ErrCodeInvalidRequirement) {
//	    // ...
//	}
//
//	err = errors.Wrap(errors.ErrCodeFileNotFound, cause, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// Bad input from the command line, a requirements file or a config file.
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidPackage     Code = "INVALID_PACKAGE"
	ErrCodeInvalidRequirement Code = "INVALID_REQUIREMENT"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"

	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
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

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any Error in err's chain carries code. A config error
// caused by an invalid URL therefore matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage renders err for people: codes are dropped and causes are
// joined with ": ".
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + UserMessage(e.Cause)
}
