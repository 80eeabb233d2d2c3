// Package pkgerrors defines the tagged error-kind sum type used to classify
// every failure the management-plane client and reconciliation engine can
// produce, so the controller's recoverable/fatal partition is explicit and
// exhaustive rather than based on ad-hoc type switches over stdlib errors.
package pkgerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind tags the class of failure. Only BadArgument, NotFound, ShapeError,
// TransportError, and MissingKey are ever constructed by this package;
// anything else propagating through the controller is treated as fatal.
type Kind int

const (
	// BadArgument marks a required argument to a client call that was
	// null/empty. Never retried; represents a programming error.
	BadArgument Kind = iota
	// NotFound marks a referenced cluster (or other named resource) that
	// does not exist on the management plane.
	NotFound
	// ShapeError marks a management-plane response that didn't match the
	// expected envelope, a principal missing required fields, or a
	// permission-denied response encountered mid compound-operation.
	ShapeError
	// TransportError marks a network failure or non-2xx HTTP status.
	TransportError
	// MissingKey marks a dictionary-shaped response that omitted an
	// expected field.
	MissingKey
)

func (k Kind) String() string {
	switch k {
	case BadArgument:
		return "BadArgument"
	case NotFound:
		return "NotFound"
	case ShapeError:
		return "ShapeError"
	case TransportError:
		return "TransportError"
	case MissingKey:
		return "MissingKey"
	default:
		return "Unknown"
	}
}

// Error is the concrete type carried by every error this module raises
// deliberately. URL and Body are populated for diagnostics when the failure
// originated from an HTTP response, per the client's "all failures carry the
// offending URL and raw response body" contract.
type Error struct {
	Kind Kind
	Op   string
	URL  string
	Body string
	err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.URL != "" {
		msg = fmt.Sprintf("%s (url=%s)", msg, e.URL)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.err }

// New constructs a plain error of the given kind for the named operation.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, err: errors.New(msg)}
}

// Wrap constructs an error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, err: cause}
}

// WithResponse attaches diagnostic URL/body context to a ShapeError or
// TransportError, matching the client's "carries the offending URL and raw
// response body" contract.
func WithResponse(kind Kind, op, url, body string) *Error {
	return &Error{Kind: kind, Op: op, URL: url, Body: body, err: errors.Errorf("unexpected response from %s", url)}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsRecoverable reports whether err is one of the five kinds the controller's
// watch loop logs and continues past. Any other error (including one that is
// not a *Error at all) is fatal.
func IsRecoverable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case BadArgument, NotFound, ShapeError, TransportError, MissingKey:
		return true
	default:
		return false
	}
}
