// Package apperr defines the stable error taxonomy surfaced by the core
// services. Handlers translate kinds to HTTP status codes; the kinds
// themselves are transport-neutral.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Internal covers storage and other infrastructure faults. Details are
	// logged, never returned to the caller.
	Internal Kind = iota
	// InvalidCredentials covers both unknown username and wrong password,
	// indistinguishably.
	InvalidCredentials
	// Forbidden is a tenant-scope or role violation.
	Forbidden
	NotFound
	// Conflict is a duplicate username.
	Conflict
	// InvalidArgument is a bad coordinate or radius.
	InvalidArgument
	// NoLocationAssigned means a check-in had nothing to evaluate against.
	NoLocationAssigned
)

func (k Kind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid_credentials"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case InvalidArgument:
		return "invalid_argument"
	case NoLocationAssigned:
		return "no_location_assigned"
	default:
		return "internal"
	}
}

// Error carries a kind and a human-readable message, optionally wrapping an
// underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a caller-facing message.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(err error, kind Kind, message string) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, defaulting to Internal for anything
// outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the caller-facing message of err, or a generic one for
// errors outside the taxonomy.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Is reports whether err has the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
