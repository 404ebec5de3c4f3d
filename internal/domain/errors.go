package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies every failure the import and reconciliation paths can report
type ErrorKind string

const (
	KindInvalidQuantity       ErrorKind = "InvalidQuantity"
	KindInvalidSide           ErrorKind = "InvalidSide"
	KindInvalidPrice          ErrorKind = "InvalidPrice"
	KindAccountCreationFailed ErrorKind = "AccountCreationFailed"
	KindPersistenceFailure    ErrorKind = "PersistenceFailure"
	KindTimeout               ErrorKind = "Timeout"
	KindMalformedBatchInput   ErrorKind = "MalformedBatchInput"
)

// Sentinel errors for errors.Is checks; matching is by kind only
var (
	ErrInvalidQuantity       = &Error{Kind: KindInvalidQuantity}
	ErrInvalidSide           = &Error{Kind: KindInvalidSide}
	ErrInvalidPrice          = &Error{Kind: KindInvalidPrice}
	ErrAccountCreationFailed = &Error{Kind: KindAccountCreationFailed}
	ErrPersistenceFailure    = &Error{Kind: KindPersistenceFailure}
	ErrTimeout               = &Error{Kind: KindTimeout}
	ErrMalformedBatchInput   = &Error{Kind: KindMalformedBatchInput}
)

// Error is a classified failure carrying the operation that produced it
type Error struct {
	Kind ErrorKind
	Op   string // e.g. "commission", "accounts.resolve"
	Msg  string
	Err  error
}

// NewError creates a classified error
func NewError(kind ErrorKind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// WrapError classifies an underlying error
func WrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	detail := e.Msg
	if e.Err != nil {
		if detail != "" {
			detail = fmt.Sprintf("%s: %v", detail, e.Err)
		} else {
			detail = e.Err.Error()
		}
	}

	switch {
	case e.Op != "" && detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, detail)
	case detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, detail)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first classified error in the chain.
// Unclassified errors report PersistenceFailure, deadline errors report Timeout.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindPersistenceFailure
}

// StoreError classifies an error returned by a persistence call.
// Already classified errors pass through unchanged.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(KindTimeout, op, err)
	}
	return WrapError(KindPersistenceFailure, op, err)
}

// HTTPStatus maps an error onto the status code the API reports for its kind
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindMalformedBatchInput:
		return http.StatusBadRequest
	case KindInvalidQuantity, KindInvalidSide, KindInvalidPrice:
		return http.StatusUnprocessableEntity
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
