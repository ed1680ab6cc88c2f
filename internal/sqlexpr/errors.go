package sqlexpr

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes compilation errors.
type ErrorCode string

const (
	// ErrCodeMapping indicates a requested property has no column binding.
	ErrCodeMapping ErrorCode = "MAPPING_ERROR"

	// ErrCodeInternal indicates an ordering on a non-mapped property or a
	// clause kind the expression cannot render.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

	// ErrCodeAlreadyBound indicates a join's key predicates were set twice.
	ErrCodeAlreadyBound ErrorCode = "ALREADY_BOUND"

	// ErrCodeInvalidKey indicates a missing or null key component.
	ErrCodeInvalidKey ErrorCode = "INVALID_KEY"

	// ErrCodeDeepInsertUnsupported indicates a navigation value without an
	// inline key for the related entity.
	ErrCodeDeepInsertUnsupported ErrorCode = "DEEP_INSERT_UNSUPPORTED"

	// ErrCodeTypeMismatch indicates a temporal parameter bound to a value
	// that is not date-like.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Error is returned for every compilation failure. A failed compilation
// never yields a partial statement.
type Error struct {
	Code    ErrorCode
	Message string

	// Type is the FQN of the structural type involved, if any.
	Type string

	// Property is the property involved, if any.
	Property string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Type != "" && e.Property != "":
		return fmt.Sprintf("%s: %s (%s.%s)", e.Code, e.Message, e.Type, e.Property)
	case e.Type != "":
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Type)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func newError(code ErrorCode, typ, property, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Type:     typ,
		Property: property,
	}
}

// Code returns the ErrorCode of err, or "" if err is not an *Error.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsMappingError reports whether err is a MappingError.
func IsMappingError(err error) bool { return Code(err) == ErrCodeMapping }

// IsInternalError reports whether err is an InternalError.
func IsInternalError(err error) bool { return Code(err) == ErrCodeInternal }

// IsAlreadyBound reports whether err is an AlreadyBound error.
func IsAlreadyBound(err error) bool { return Code(err) == ErrCodeAlreadyBound }

// IsInvalidKey reports whether err is an InvalidKey error.
func IsInvalidKey(err error) bool { return Code(err) == ErrCodeInvalidKey }

// IsDeepInsertUnsupported reports whether err is a DeepInsertUnsupported error.
func IsDeepInsertUnsupported(err error) bool { return Code(err) == ErrCodeDeepInsertUnsupported }

// IsTypeMismatch reports whether err is a TypeMismatch error.
func IsTypeMismatch(err error) bool { return Code(err) == ErrCodeTypeMismatch }

// IsClientError reports whether err was caused by the request rather than
// by the catalog or the compiler. Callers map these to "bad request".
func IsClientError(err error) bool {
	switch Code(err) {
	case ErrCodeInvalidKey, ErrCodeDeepInsertUnsupported, ErrCodeTypeMismatch:
		return true
	}
	return false
}
