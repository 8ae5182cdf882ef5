package errors

import (
	"errors"
	"fmt"
)

// Re-exported standard library helpers so callers need a single errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// ErrorCode identifies a class of failure. Packages declare their own code
// constants alongside the operations that produce them.
type ErrorCode string

// Error is a coded error with optional wrapped cause and context data.
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type appError struct {
	code    ErrorCode
	message string
	err     error
	data    any
}

func (e *appError) Error() string {
	msg := e.message
	if msg == "" {
		msg = string(e.code)
	}
	if e.data != nil {
		return fmt.Sprintf("%s: %v", msg, e.data)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", msg, e.err)
	}

	return msg
}

func (e *appError) Code() ErrorCode {
	return e.code
}

func (e *appError) Unwrap() error {
	return e.err
}

// New creates an error from a code.
func New(code ErrorCode) Error {
	return &appError{code: code}
}

// Wrap attaches a code to an underlying error.
func Wrap(code ErrorCode, err error) Error {
	return &appError{code: code, err: err}
}

// WithMessage creates a coded error with a human-readable message.
func WithMessage(code ErrorCode, msg string) Error {
	return &appError{code: code, message: msg}
}

// WithData creates a coded error carrying contextual data.
func WithData(code ErrorCode, data any) Error {
	return &appError{code: code, data: data}
}

// CodeOf returns the code of err, or empty when err carries none.
func CodeOf(err error) ErrorCode {
	var coded Error
	if errors.As(err, &coded) {
		return coded.Code()
	}

	return ""
}
