// Package txError provides the typed error taxonomy shared by every component
// of the execution pipeline. All failures funnel into an Error carrying a
// stable code so callers can inspect outcomes without string matching.
package txError

import (
	stdErrors "errors"
	"fmt"
)

// Code is a stable, machine-inspectable classification of a failure.
type Code string

const (
	// CodeUnknown classifies failures that fit no other code.
	CodeUnknown Code = "UNKNOWN"
	// CodeInvalidInput classifies bad amounts, addresses, market ids, or
	// schema mismatches. Detected before any network call where possible.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeInvalidNetwork classifies a wallet network unsupported by the
	// target provider or protocol.
	CodeInvalidNetwork Code = "INVALID_NETWORK"
	// CodeContractError classifies reverted on-chain reads and writes,
	// including failed approvals.
	CodeContractError Code = "CONTRACT_ERROR"
	// CodeAPICallFailed classifies failures of external read services
	// (quote APIs, subgraphs, remote signers).
	CodeAPICallFailed Code = "API_CALL_FAILED"
	// CodeTokenMetadata classifies failures reading token metadata such as
	// the on-chain decimals value.
	CodeTokenMetadata Code = "TOKEN_METADATA_ERROR"
)

// Error is the typed error returned by every public operation. It is created
// at the point of failure and always propagated to the caller, never logged
// and swallowed.
type Error struct {
	code    Code
	message string
	cause   error
}

// New creates a typed error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf creates a typed error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and context to an underlying error. If the cause is
// already a typed Error it is returned unchanged so the original code is
// preserved across layers.
func Wrap(code Code, context string, cause error) *Error {
	if cause == nil {
		return New(code, context)
	}
	var typed *Error
	if stdErrors.As(cause, &typed) {
		return typed
	}
	return &Error{
		code:    code,
		message: fmt.Sprintf("%s: %s", context, cause.Error()),
		cause:   cause,
	}
}

// Normalize converts an arbitrary recovered value into a typed Error. Typed
// errors pass through unchanged; plain errors are wrapped under CodeUnknown;
// anything else is stringified into the message rather than dropped.
func Normalize(context string, v any) *Error {
	switch val := v.(type) {
	case nil:
		return New(CodeUnknown, context)
	case error:
		return Wrap(CodeUnknown, context, val)
	default:
		return Newf(CodeUnknown, "%s: %v", context, val)
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches typed errors by code.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// Code returns the error's classification.
func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

// Message returns the human-readable message without the code prefix.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// From extracts a typed Error from an error chain.
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code of an error, or CodeUnknown for untyped errors.
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.Code()
	}
	return CodeUnknown
}
