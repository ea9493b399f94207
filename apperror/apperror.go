// Package apperror defines the error taxonomy shared by services and HTTP handlers.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindConflict          Kind = "CONFLICT"
	KindDuplicatePurchase Kind = "DUPLICATE_PURCHASE"
	KindAuthentication    Kind = "AUTHENTICATION"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindUpload            Kind = "UPLOAD"
	KindPayment           Kind = "PAYMENT"
	KindInternal          Kind = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to clients;
// Err carries the underlying cause for operators only.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrDuplicatePurchase = &Error{Kind: KindDuplicatePurchase}
	ErrAuthentication    = &Error{Kind: KindAuthentication}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUpload            = &Error{Kind: KindUpload}
	ErrPayment           = &Error{Kind: KindPayment}
	ErrInternal          = &Error{Kind: KindInternal}
)

// Validation reports malformed input. details maps a field (or file name) to what is wrong with it.
func Validation(message string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func DuplicatePurchase(message string) *Error {
	return &Error{Kind: KindDuplicatePurchase, Message: message}
}

func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Upload(message string, err error) *Error {
	return &Error{Kind: KindUpload, Message: message, Err: err}
}

func Payment(message string, err error) *Error {
	return &Error{Kind: KindPayment, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
