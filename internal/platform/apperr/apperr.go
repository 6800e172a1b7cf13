// Package apperr classifies domain failures into the small set of kinds the
// HTTP layer knows how to report.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInternal            Kind = "internal_error"
	KindValidation          Kind = "validation_error"
	KindPolicyViolation     Kind = "policy_violation"
	KindConcurrencyExceeded Kind = "concurrency_exceeded"
	KindFormat              Kind = "format_error"
	KindUnmatchedEmployee   Kind = "unmatched_employee"
	KindForbidden           Kind = "forbidden"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
)

type Error struct {
	Kind    Kind
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, err error, details map[string]any) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Err: err, Details: details}
}

func Validation(err error) error { return New(KindValidation, err, nil) }

func Validationf(format string, args ...any) error {
	return New(KindValidation, fmt.Errorf(format, args...), nil)
}

func Policy(err error, details map[string]any) error { return New(KindPolicyViolation, err, details) }

func Concurrency(err error, details map[string]any) error {
	return New(KindConcurrencyExceeded, err, details)
}

func Format(err error) error { return New(KindFormat, err, nil) }

func Forbidden(err error) error { return New(KindForbidden, err, nil) }

func NotFound(err error) error { return New(KindNotFound, err, nil) }

func Conflict(err error) error { return New(KindConflict, err, nil) }

// KindOf reports the outermost classified kind in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func DetailsOf(err error) map[string]any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindPolicyViolation, KindConcurrencyExceeded, KindFormat, KindUnmatchedEmployee:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
