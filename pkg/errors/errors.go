package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"

	CodeInvalidQuantity      Code = "INVALID_QUANTITY"
	CodeStockExceeded        Code = "STOCK_EXCEEDED"
	CodeLineNotFound         Code = "LINE_NOT_FOUND"
	CodeCartEmpty            Code = "CART_EMPTY"
	CodeSubmissionInProgress Code = "SUBMISSION_IN_PROGRESS"
	CodeSubmissionFailed     Code = "SUBMISSION_FAILED"
	CodeSubmissionTimedOut   Code = "SUBMISSION_TIMED_OUT"
)

// Metadata describes how a code is presented to HTTP clients.
// ExposeMessage lets the error's own message replace PublicMessage; it is
// set only for codes whose messages are written for the cashier.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	ExposeMessage  bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {http.StatusBadRequest, false, "validation failed", true, true},
	CodeUnauthorized: {http.StatusUnauthorized, false, "authentication required", false, true},
	CodeForbidden:    {http.StatusForbidden, false, "access denied", false, true},
	CodeNotFound:     {http.StatusNotFound, false, "resource not found", false, true},
	CodeConflict:     {http.StatusConflict, false, "conflict detected", false, true},
	CodeIdempotency:  {http.StatusConflict, false, "idempotency key reused", true, true},
	CodeRateLimit:    {http.StatusTooManyRequests, true, "rate limit exceeded", true, true},
	CodeInternal:     {http.StatusInternalServerError, true, "internal server error", false, false},
	CodeDependency:   {http.StatusServiceUnavailable, true, "dependency unavailable", true, false},

	CodeInvalidQuantity:      {http.StatusBadRequest, false, "quantity must be a positive whole number", true, true},
	CodeStockExceeded:        {http.StatusConflict, false, "requested quantity exceeds available stock", true, true},
	CodeLineNotFound:         {http.StatusNotFound, false, "item is not in the cart", true, true},
	CodeCartEmpty:            {http.StatusUnprocessableEntity, false, "cart is empty", false, true},
	CodeSubmissionInProgress: {http.StatusConflict, true, "an invoice submission is already in progress", false, true},
	CodeSubmissionFailed:     {http.StatusBadGateway, true, "invoice submission failed", true, true},
	CodeSubmissionTimedOut:   {http.StatusGatewayTimeout, true, "invoice submission timed out", false, false},
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

// HasCode reports whether err carries the given typed code anywhere in its chain.
func HasCode(err error, code Code) bool {
	te := As(err)
	return te != nil && te.code == code
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
