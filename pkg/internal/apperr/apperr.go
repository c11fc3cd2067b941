// Package apperr is the error taxonomy shared by the storage, service and
// HTTP layers. Lower layers return *Error values; the HTTP boundary maps the
// Kind onto a status code and never renders the wrapped cause for internal
// kinds.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the outer layers.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindPersistence
	KindIO
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindIO:
		return "io"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is matching.
var (
	ErrValidation   = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrNotFound     = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrPersistence  = &Error{Kind: KindPersistence, Msg: "persistence failure"}
	ErrIO           = &Error{Kind: KindIO, Msg: "storage failure"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
	ErrConflict     = &Error{Kind: KindConflict, Msg: "conflict"}
)

// Error is a classified error. Msg is safe to show to a client for the
// validation, not-found, unauthorized and conflict kinds.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}

	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// Persistence wraps a database failure.
func Persistence(msg string, err error) error {
	return &Error{Kind: KindPersistence, Msg: msg, Err: err}
}

// IO wraps a blob storage failure.
func IO(msg string, err error) error {
	return &Error{Kind: KindIO, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// Message returns the client-facing message of err, if it carries one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}

	return ""
}
