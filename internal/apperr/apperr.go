// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindNotFound
	KindSecurity
	KindConflict
	KindUpstreamTimeout
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindSecurity:
		return "security_check_failed"
	case KindConflict:
		return "conflict"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstream:
		return "upstream_error"
	default:
		return "internal"
	}
}

// Error is a classified failure with a message that is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) *Error      { return New(KindValidation, msg) }
func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }
func Security(msg string) *Error        { return New(KindSecurity, msg) }
func Conflict(msg string) *Error        { return New(KindConflict, msg) }

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// sqlStateTimeout is query_canceled, raised when statement_timeout fires
const sqlStateTimeout = "57014"

// KindOf returns the kind of the first *Error in err's chain. Deadlines and
// database statement timeouts are UpstreamTimeout; anything else is Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if isTimeout(err) {
		return KindUpstreamTimeout
	}
	return KindInternal
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var coded interface{ SQLState() string }
	return errors.As(err, &coded) && coded.SQLState() == sqlStateTimeout
}

// HTTPStatus maps a kind to its response status. Conflicts are reported as 400.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindSecurity:
		return http.StatusForbidden
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message for err. Errors outside
// the taxonomy never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if isTimeout(err) {
		return "Request timed out"
	}
	return "Internal server error"
}
