package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeInsufficientFields  Code = "INSUFFICIENT_FIELDS"
	CodeInsufficientStock   Code = "INSUFFICIENT_STOCK"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodePersistence         Code = "PERSISTENCE_ERROR"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeIdempotency         Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit           Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal            Code = "INTERNAL_ERROR"
	CodeDependency          Code = "DEPENDENCY_ERROR"
	CodeMaintenance         Code = "MAINTENANCE"
)

// Metadata describes how a code is surfaced to HTTP clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

// opaque codes never leak details to the client.
func opaque(status int, message string) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: message}
}

func detailed(status int, message string) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: message, DetailsAllowed: true}
}

func transient(m Metadata) Metadata {
	m.Retryable = true
	return m
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:          detailed(http.StatusBadRequest, "validation failed"),
	CodeInsufficientFields:  detailed(http.StatusBadRequest, "payout details incomplete"),
	CodeInsufficientStock:   detailed(http.StatusConflict, "insufficient stock"),
	CodeInsufficientBalance: detailed(http.StatusUnprocessableEntity, "insufficient balance"),
	CodeInvalidTransition:   detailed(http.StatusUnprocessableEntity, "state transition disallowed"),
	CodeIdempotency:         detailed(http.StatusConflict, "idempotency key reused"),
	CodeUnauthorized:        opaque(http.StatusUnauthorized, "authentication required"),
	CodeForbidden:           opaque(http.StatusForbidden, "access denied"),
	CodeNotFound:            opaque(http.StatusNotFound, "resource not found"),
	CodeConflict:            opaque(http.StatusConflict, "conflict detected"),
	CodeRateLimit:           opaque(http.StatusTooManyRequests, "rate limit exceeded"),
	CodePersistence:         transient(opaque(http.StatusServiceUnavailable, "an error occurred")),
	CodeInternal:            transient(opaque(http.StatusInternalServerError, "internal server error")),
	CodeDependency:          transient(detailed(http.StatusServiceUnavailable, "dependency unavailable")),
	CodeMaintenance:         transient(opaque(http.StatusServiceUnavailable, "marketplace is under maintenance")),
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches any *Error carrying the same code, so sentinel values built
// with New can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.code == t.code
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// Persistence wraps a storage failure so callers only see a generic message.
func Persistence(err error, message string) *Error {
	if typed := As(err); typed != nil {
		return typed
	}
	return Wrap(CodePersistence, err, message)
}
