package serr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Kind classifies a service error independently of the transport.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindNotAllowed
	KindConflict
	KindReconciliation
	KindRefresh
)

// Status returns the HTTP status code a kind is reported with.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindNotAllowed:
		return http.StatusMethodNotAllowed
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindNotAllowed:
		return "not_allowed"
	case KindConflict:
		return "conflict"
	case KindReconciliation:
		return "reconciliation"
	case KindRefresh:
		return "refresh"
	default:
		return "internal"
	}
}

type ServiceError struct {
	Err        error
	Kind       Kind
	Msg        string
	StackTrace string
	StatusCode int
	Env        map[string]string
}

// New creates a ServiceError of the given kind. Msg is formatted with args.
func New(kind Kind, err error, msg string, args ...any) *ServiceError {
	return &ServiceError{
		Err:        err,
		Kind:       kind,
		Msg:        fmt.Sprintf(msg, args...),
		StatusCode: kind.Status(),
		StackTrace: string(debug.Stack()),
		Env:        make(map[string]string),
	}
}

func NotFound(err error, msg string, args ...any) *ServiceError {
	return New(KindNotFound, err, msg, args...)
}

func BadRequest(err error, msg string, args ...any) *ServiceError {
	return New(KindBadRequest, err, msg, args...)
}

func Unauthorized(err error, msg string, args ...any) *ServiceError {
	return New(KindUnauthorized, err, msg, args...)
}

func Forbidden(err error, msg string, args ...any) *ServiceError {
	return New(KindForbidden, err, msg, args...)
}

func Conflict(err error, msg string, args ...any) *ServiceError {
	return New(KindConflict, err, msg, args...)
}

func NotAllowed(err error, msg string, args ...any) *ServiceError {
	return New(KindNotAllowed, err, msg, args...)
}

func Reconciliation(err error, msg string, args ...any) *ServiceError {
	return New(KindReconciliation, err, msg, args...)
}

func Refresh(err error, msg string, args ...any) *ServiceError {
	return New(KindRefresh, err, msg, args...)
}

// With attaches a diagnostic key/value pair and returns the error.
func (e *ServiceError) With(key, val string) *ServiceError {
	e.Env[key] = val
	return e
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is reports whether err carries a ServiceError of the given kind.
func Is(err error, kind Kind) bool {
	var se *ServiceError
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}

// KindOf returns the kind of the outermost ServiceError in err's chain.
func KindOf(err error) Kind {
	var se *ServiceError
	if !errors.As(err, &se) {
		return KindInternal
	}
	return se.Kind
}

// Message returns the client-facing message of the outermost ServiceError in
// err's chain, or an empty string.
func Message(err error) string {
	var se *ServiceError
	if !errors.As(err, &se) {
		return ""
	}
	return se.Msg
}
