package orders

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures. The HTTP layer maps kinds to status
// codes; nothing below the HTTP layer knows about status codes.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the Kind from err, or KindUnexpected when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindUnexpected
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func AuthErr(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFoundProduct(productID int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Producto %d no existe", productID),
		Details: map[string]any{"productId": productID},
	}
}

func InsufficientStock(productID int64, requested, available int, name string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("Stock insuficiente para %s", name),
		Details: map[string]any{
			"productId": productID,
			"requested": requested,
			"available": available,
		},
	}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unexpected(message string, cause error) *Error {
	return &Error{Kind: KindUnexpected, Message: message, cause: cause}
}
