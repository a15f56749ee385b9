// Package apperr carries the closed set of error kinds that every layer of the
// service returns. Handlers translate a kind to an HTTP status exactly once.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindUpstream:
		return "upstream_failure"
	default:
		return "internal"
	}
}

// Status is the HTTP status a kind maps to.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code is the default envelope error code for a kind.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_FAILED"
	case KindUnauthenticated:
		return "AUTH_FAILED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "RESOURCE_NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindTooManyRequests:
		return "RATE_LIMITED"
	case KindUpstream:
		return "UPSTREAM_FAILURE"
	default:
		return "SERVER_ERROR"
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	// UpstreamStatus and UpstreamBody are set for KindUpstream.
	UpstreamStatus int
	UpstreamBody   string
	Err            error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode returns the override code if set, otherwise the kind's default.
func (e *Error) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.Code()
}

// Details renders the client-facing details string. Internal errors never
// expose the wrapped error.
func (e *Error) Details() string {
	switch {
	case e.Kind == KindInternal:
		return "an unexpected error occurred"
	case len(e.Fields) > 0:
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Message)
		}
		return strings.Join(parts, "; ")
	case e.Kind == KindUpstream && e.UpstreamStatus != 0:
		body := strings.TrimSpace(e.UpstreamBody)
		if body == "" {
			return fmt.Sprintf("upstream responded with status %d", e.UpstreamStatus)
		}
		return fmt.Sprintf("upstream responded with status %d: %s", e.UpstreamStatus, body)
	default:
		return e.Message
	}
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

func Conflict(msg string) *Error { return New(KindConflict, msg) }

func TooManyRequests(msg string) *Error { return New(KindTooManyRequests, msg) }

func Internal(msg string, err error) *Error { return Wrap(KindInternal, msg, err) }

func Upstream(msg string, status int, body string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, UpstreamStatus: status, UpstreamBody: body, Err: err}
}

// WithCode returns a copy of e with an explicit envelope code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// As extracts an *Error from err, wrapping unknown errors as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", err)
}

func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return As(err).Kind
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
