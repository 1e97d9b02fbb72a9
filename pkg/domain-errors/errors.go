// Package domainerrors provides coded errors for the funnel domain.
//
// Services return these so transports and workers can branch on the code
// without string matching. Infrastructure layers return pkg/platform/sentinel
// errors instead; services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of a domain error. The string value is the wire
// representation used in HTTP error bodies.
type Code string

const (
	// CodeValidation marks malformed job criteria or events. Rejected
	// synchronously, no state change.
	CodeValidation Code = "validation_error"
	// CodeStaleEvent marks an event inapplicable to the record's current
	// stage. The caller must resync and re-deliver or discard.
	CodeStaleEvent Code = "stale_event"
	// CodeConflict marks an optimistic-concurrency version mismatch.
	CodeConflict Code = "conflict"
	CodeNotFound Code = "not_found"
	// CodeTransient marks a collaborator failure worth retrying with backoff.
	CodeTransient Code = "transient_collaborator_error"
	// CodePermanent marks a collaborator failure that retrying cannot fix.
	CodePermanent    Code = "permanent_collaborator_error"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the error's classification code.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable description without the code prefix.
func (e *Error) Message() string { return e.msg }

// New builds a coded error with a static message.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause remains
// reachable through errors.Is/errors.As.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for e := err; e != nil; e = errors.Unwrap(e) {
		if errors.As(e, &de) && de.code == code {
			return true
		}
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
