// Package failure defines the error kinds returned by the ledger and order
// services and the result envelope handed to callers.
package failure

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind classifies a failure so callers can render it without inspecting
// messages.
type Kind string

const (
	// KindNotFound means a referenced product, entry, order or user is absent.
	KindNotFound Kind = "NotFound"
	// KindInvalid means the input is malformed (zero amount, zero page size).
	KindInvalid Kind = "Invalid"
	// KindConflict means the operation would drive stock below zero.
	KindConflict Kind = "Conflict"
	// KindInvalidTransition means an illegal status or payment move.
	KindInvalidTransition Kind = "InvalidTransition"
	// KindForbidden means the actor may not perform the operation.
	KindForbidden Kind = "Forbidden"
	// KindInternal covers every unexpected storage or transaction fault.
	KindInternal Kind = "Internal"
)

// Error is an expected business failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound failure.
func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

// Invalid returns a KindInvalid failure.
func Invalid(format string, args ...any) error {
	return newError(KindInvalid, format, args...)
}

// Conflict returns a KindConflict failure.
func Conflict(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

// InvalidTransition returns a KindInvalidTransition failure.
func InvalidTransition(format string, args ...any) error {
	return newError(KindInvalidTransition, format, args...)
}

// Forbidden returns a KindForbidden failure.
func Forbidden(format string, args ...any) error {
	return newError(KindForbidden, format, args...)
}

// KindOf reports the kind of err. Errors that carry no *Error in their chain
// are unexpected faults and classify as KindInternal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Is reports whether err is a failure of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Result is the envelope returned across the service boundary.
type Result struct {
	OK    bool
	Error string
	Kind  Kind
}

// ResultOf converts err into a Result. A nil error yields an OK result.
// Business failures report their own message without wrapping context;
// internal failures are reported with a fixed message.
func ResultOf(err error) Result {
	if err == nil {
		return Result{OK: true}
	}
	var fe *Error
	if errors.As(err, &fe) {
		return Result{Error: fe.Message, Kind: fe.Kind}
	}
	return Result{Error: "internal error", Kind: KindInternal}
}
