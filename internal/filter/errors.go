package filter

import (
	"errors"
	"fmt"
)

// ErrorCode classifies filter errors.
type ErrorCode string

const (
	// ErrCodeInvalid marks a malformed tree or an operand of the wrong shape.
	ErrCodeInvalid ErrorCode = "INVALID_FILTER"
	// ErrCodeUnsupported marks an operator or method the compiler does not
	// translate.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_FILTER"
)

// Error is a filter error. Both codes are caused by the request, not by the
// catalog.
type Error struct {
	Code    ErrorCode
	Message string
	Expr    string
}

func (e *Error) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s in %s", e.Code, e.Message, e.Expr)
}

func invalid(e Expression, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf(format, args...), Expr: exprText(e)}
}

func unsupported(e Expression, format string, args ...any) *Error {
	return &Error{Code: ErrCodeUnsupported, Message: fmt.Sprintf(format, args...), Expr: exprText(e)}
}

func exprText(e Expression) string {
	if e == nil {
		return ""
	}
	return e.String()
}

// IsFilterError reports whether err is or wraps a filter *Error.
func IsFilterError(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// IsInvalid reports whether err is an INVALID_FILTER error.
func IsInvalid(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Code == ErrCodeInvalid
}

// IsUnsupported reports whether err is an UNSUPPORTED_FILTER error.
func IsUnsupported(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Code == ErrCodeUnsupported
}
