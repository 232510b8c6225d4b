// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Machine-readable error codes. The transport layer maps these to HTTP
// statuses; everything else is reported as EINTERNAL.
const (
	EINVALID       = "invalid"
	EUNPROCESSABLE = "unprocessable"
	EUNAUTHORIZED  = "unauthorized"
	EFORBIDDEN     = "forbidden"
	ENOTFOUND      = "not_found"
	ECONFLICT      = "conflict"
	EINTERNAL      = "internal"
)

// Error is a domain error with a code and a message safe to return to clients.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds a domain error with a formatted message.
func Errorf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the code from err, unwrapping as needed.
// Non-domain errors report EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	}
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage extracts the client-safe message from err. Non-domain errors
// get a generic message so driver and stack details never leak.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	}
	if errors.As(err, &e) {
		return e.Message
	}
	return "An internal error has occurred."
}

// Shared sentinels used across services.
var (
	ErrEmptyCart     = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrLimitExceeded = &Error{Code: EINVALID, Message: "Maximum 10 of same item allowed in cart"}
	ErrUnavailable   = &Error{Code: EUNPROCESSABLE, Message: "Item is not available"}
	ErrAlreadyOwned  = &Error{Code: ECONFLICT, Message: "You already own this item"}
	ErrAccessDenied  = &Error{Code: EFORBIDDEN, Message: "Access denied: purchase required"}
	ErrFileMissing   = &Error{Code: EINTERNAL, Message: "Item file is missing from server"}
	ErrUnauthorized  = &Error{Code: EUNAUTHORIZED, Message: "Unauthorized"}
)
