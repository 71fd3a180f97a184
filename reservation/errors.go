package reservation

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a rejected request.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindBusinessRule
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a recoverable rejection that ends only the current request.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// HTTPStatus maps the error kind onto a response code.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Rule(format string, args ...any) *Error {
	return &Error{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// StatusCode returns the HTTP status for err. Anything that is not a
// *Error is an unexpected failure from the store and maps to 500.
func StatusCode(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// KindOf returns the Kind of err, or 0 when err is not a *Error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
