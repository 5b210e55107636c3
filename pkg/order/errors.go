package order

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can map it to a transport status
// without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindInvalidState
	KindUnavailable
)

// Stable machine codes carried alongside the kind.
const (
	CodeUserNotFound      = "user_not_found"
	CodeProductNotFound   = "product_not_found"
	CodeProductInactive   = "product_inactive"
	CodeInsufficientStock = "insufficient_stock"
	CodeBadPagination     = "bad_pagination"
	CodeBadRequest        = "bad_request"
	CodeOrderNotFound     = "order_not_found"
	CodeNotOwner          = "not_owner"
	CodeInvalidState      = "invalid_state"
	CodeStorage           = "storage_unavailable"
)

type Error struct {
	Kind   Kind
	Code   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf extracts the machine code from any error in the chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func invalidf(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Reason: fmt.Sprintf(format, args...)}
}

func notFoundf(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Reason: fmt.Sprintf(format, args...)}
}

func forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeNotOwner, Reason: reason}
}

func invalidState(reason string) *Error {
	return &Error{Kind: KindInvalidState, Code: CodeInvalidState, Reason: reason}
}

func unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Code: CodeStorage, Reason: op + " failed", Err: err}
}
