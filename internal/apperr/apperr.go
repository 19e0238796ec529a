// Package apperr carries the two-level outcome of every storefront operation:
// a machine code from the response envelope plus a message safe to show the caller.
package apperr

import (
	"errors"
	"fmt"
)

// Code is the status field of the response envelope.
type Code int

const (
	CodeSuccess         Code = 0
	CodeFailure         Code = 1
	CodeIllegalArgument Code = 2
	CodeNeedLogin       Code = 10
)

func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "SUCCESS"
	case CodeFailure:
		return "ERROR"
	case CodeIllegalArgument:
		return "ILLEGAL_ARGUMENT"
	case CodeNeedLogin:
		return "NEED_LOGIN"
	default:
		return fmt.Sprintf("CODE_%d", int(c))
	}
}

// InternalMessage is returned to callers when an unexpected error escapes a service.
const InternalMessage = "internal server error"

// Error is a failure with an envelope code and a caller-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Fail is an ordinary business failure.
func Fail(msg string) *Error { return New(CodeFailure, msg) }

func IllegalArgument() *Error {
	return New(CodeIllegalArgument, CodeIllegalArgument.String())
}

func NeedLogin(msg string) *Error {
	if msg == "" {
		msg = CodeNeedLogin.String()
	}
	return New(CodeNeedLogin, msg)
}

// Wrap attaches a caller-facing message to an unexpected error.
func Wrap(err error, msg string) *Error {
	return &Error{Code: CodeFailure, Message: msg, Err: err}
}

// From converts any error into an *Error; unknown errors become internal failures.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Wrap(err, InternalMessage)
}

// Internal reports whether the error hides an underlying cause that should be logged.
func (e *Error) Internal() bool { return e.Err != nil }
