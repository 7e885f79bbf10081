package errors

import (
	"errors"
	"fmt"
)

// Re-exported so callers need a single errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

type codedError struct {
	code    ErrorCode
	message string
	cause   error
	data    any
}

// Error renders "message[: data][: cause]". The message falls back to the
// registered text of the code.
func (e *codedError) Error() string {
	msg := e.message
	if msg == "" {
		msg = GetErrorMessage(e.code)
	}
	if e.data != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.data)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}

	return msg
}

func (e *codedError) Code() ErrorCode {
	return e.code
}

func (e *codedError) clone() *codedError {
	c := *e
	return &c
}

func (e *codedError) WithMessage(msg string) Error {
	c := e.clone()
	c.message = msg
	return c
}

func (e *codedError) WithData(data any) Error {
	c := e.clone()
	c.data = data
	return c
}

func (e *codedError) GetData() any {
	return e.data
}

func (e *codedError) Unwrap() error {
	return e.cause
}

type factory struct{}

// New returns the Factory used throughout the daemon.
func New() Factory {
	return factory{}
}

func (factory) New(code ErrorCode) Error {
	return &codedError{code: code}
}

func (factory) Wrap(code ErrorCode, err error) Error {
	return &codedError{code: code, cause: err}
}

func (factory) WithMessage(code ErrorCode, msg string) Error {
	return &codedError{code: code, message: msg}
}

func (factory) WithData(code ErrorCode, data any) Error {
	return &codedError{code: code, data: data}
}

// CodeOf returns the code of the first coded error in err's chain, or an
// empty code when there is none.
func CodeOf(err error) ErrorCode {
	var coded Error
	if As(err, &coded) {
		return coded.Code()
	}

	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if coded, ok := err.(Error); ok && coded.Code() == code {
			return true
		}
		err = Unwrap(err)
	}

	return false
}
