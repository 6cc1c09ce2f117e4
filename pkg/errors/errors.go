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
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"

	CodeNoAddresses          Code = "NO_ADDRESSES"
	CodeAddressNotSelected   Code = "ADDRESS_NOT_SELECTED"
	CodeOrderCreateFailed    Code = "ORDER_CREATE_FAILED"
	CodePaymentSessionFailed Code = "PAYMENT_SESSION_FAILED"
	CodePaymentUnverified    Code = "PAYMENT_UNVERIFIED"
)

type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "validation failed",
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:    http.StatusServiceUnavailable,
		Retryable:     true,
		PublicMessage: "dependency unavailable",
	},
	CodeNoAddresses: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "no saved addresses",
	},
	CodeAddressNotSelected: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "no address selected",
	},
	CodeOrderCreateFailed: {
		HTTPStatus:    http.StatusBadGateway,
		PublicMessage: "order could not be created",
	},
	CodePaymentSessionFailed: {
		HTTPStatus:    http.StatusBadGateway,
		PublicMessage: "payment session could not be created",
	},
	CodePaymentUnverified: {
		HTTPStatus:    http.StatusPaymentRequired,
		Retryable:     true,
		PublicMessage: "payment not verified",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// CodeForStatus maps a backend HTTP status onto an error code.
func CodeForStatus(status int) Code {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CodeValidation
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status >= 500:
		return CodeDependency
	case status >= 400:
		return CodeValidation
	}
	return CodeInternal
}

type Error struct {
	code    Code
	message string
	status  int
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

// FromStatus builds an error for a non-2xx backend response.
func FromStatus(status int, message string) *Error {
	return &Error{code: CodeForStatus(status), message: message, status: status}
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

// Status returns the HTTP status the backend answered with, or 0 when the
// error did not come from a backend response.
func (e *Error) Status() int {
	if e == nil {
		return 0
	}
	return e.status
}

func (e *Error) WithStatus(status int) *Error {
	if e == nil {
		return nil
	}
	e.status = status
	return e
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
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
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

// StatusOf returns the first backend status found in the error chain.
func StatusOf(err error) int {
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		if typed, ok := e.(*Error); ok && typed.status != 0 {
			return typed.status
		}
	}
	return 0
}

// IsCode reports whether any coded error in the chain carries code.
func IsCode(err error, code Code) bool {
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		if typed, ok := e.(*Error); ok && typed.code == code {
			return true
		}
	}
	return false
}
