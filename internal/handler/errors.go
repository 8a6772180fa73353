// Package handler wires inbound commands and media events to the session
// store, the media resolver and the external converters, and owns the error
// taxonomy shown to users.
package handler

import (
	"errors"
	"fmt"
)

// Error codes surfaced in handler summary logs.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeTooLarge        = "RESOURCE_TOO_LARGE"
	CodeExternalFailure = "EXTERNAL_FAILURE"
	CodeMissingState    = "EXPIRED_OR_MISSING_STATE"
)

// Error classifies a failure into one of four stable classes. The raw cause
// never reaches the user; UserMessage returns one fixed message per class.
type Error struct {
	code  string
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

// Code feeds the err_code field of handler summary logs.
func (e *Error) Code() string { return e.code }

func (e *Error) Unwrap() error { return e.cause }

// UserMessage is the stable reply for this error class. msg customizes the
// two recoverable classes; external failures stay generic on purpose.
func (e *Error) UserMessage() string {
	switch e.code {
	case CodeInvalidInput, CodeMissingState:
		if e.msg != "" {
			return e.msg
		}
		return "I can't work with that. Check /help for what each command expects."
	case CodeTooLarge:
		return "That file is too large for me to process."
	default:
		return "Something went wrong on my side, please try again later."
	}
}

func invalidInput(msg string) *Error {
	return &Error{code: CodeInvalidInput, msg: msg}
}

func tooLarge(sizeBytes, limitBytes int64) *Error {
	return &Error{
		code: CodeTooLarge,
		msg:  fmt.Sprintf("file is %d bytes, limit is %d", sizeBytes, limitBytes),
	}
}

func externalFailure(op string, cause error) *Error {
	return &Error{code: CodeExternalFailure, msg: op, cause: cause}
}

func missingState(msg string) *Error {
	return &Error{code: CodeMissingState, msg: msg}
}

// UserMessage extracts the user-facing text for any error, falling back to
// the generic failure line for unclassified errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return "Something went wrong on my side, please try again later."
}
