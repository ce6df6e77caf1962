package wallet

import (
	"errors"
	"fmt"
)

// Kind classifies why a workflow failed. Every kind is reported to the caller
// with the same status code; the distinction exists for logs and tests.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindAuthenticationMismatch Kind = "authentication_mismatch"
	KindNotFound               Kind = "not_found"
	KindConflict               Kind = "conflict"
	KindInsufficientFunds      Kind = "insufficient_funds"
	KindAuthenticationFailed   Kind = "authentication_failed"
	KindDuplicate              Kind = "duplicate"
	KindInternal               Kind = "internal"
)

// Error is a classified workflow failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the failure kind, defaulting to KindInternal.
func KindOf(err error) Kind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return KindInternal
}
