// Package apperr is the error taxonomy shared by the AI services, the session
// store and the HTTP layer. Every error carries a stable caller-facing message
// and an internal detail that is only exposed outside production.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindInvalidID
	KindNotFound
	KindConfiguration
	KindQuotaExceeded
	KindMalformedResponse
	KindPartialCreation
	KindUpstream
)

var kindNames = map[Kind]string{
	KindInternal:          "INTERNAL_ERROR",
	KindValidation:        "VALIDATION_ERROR",
	KindUnauthenticated:   "UNAUTHENTICATED",
	KindForbidden:         "FORBIDDEN",
	KindInvalidID:         "INVALID_ID",
	KindNotFound:          "NOT_FOUND",
	KindConfiguration:     "CONFIGURATION_ERROR",
	KindQuotaExceeded:     "QUOTA_EXCEEDED",
	KindMalformedResponse: "MALFORMED_RESPONSE",
	KindPartialCreation:   "PARTIAL_CREATION",
	KindUpstream:          "UPSTREAM_ERROR",
}

// String returns the stable code used in API error bodies.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindInternal]
}

// HTTPStatus maps a kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidID:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Message, e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, apperr.NotFound) works against
// the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is matching by kind.
var (
	Validation        = &Error{Kind: KindValidation}
	Unauthenticated   = &Error{Kind: KindUnauthenticated}
	Forbidden         = &Error{Kind: KindForbidden}
	InvalidID         = &Error{Kind: KindInvalidID}
	NotFound          = &Error{Kind: KindNotFound}
	Configuration     = &Error{Kind: KindConfiguration}
	QuotaExceeded     = &Error{Kind: KindQuotaExceeded}
	MalformedResponse = &Error{Kind: KindMalformedResponse}
	PartialCreation   = &Error{Kind: KindPartialCreation}
	Upstream          = &Error{Kind: KindUpstream}
	Internal          = &Error{Kind: KindInternal}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of e carrying an internal diagnostic.
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// From returns err as an *Error, wrapping unclassified errors as internal.
func From(err error, fallback string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindInternal, fallback, err)
}
