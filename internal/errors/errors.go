// Package errors defines typed application errors carrying a stable code.
package errors

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	CodeUnknown      = "UNKNOWN"
	CodeDatabase     = "DATABASE"
	CodeValidation   = "VALIDATION"
	CodeAPI          = "API"
	CodeConfig       = "CONFIG"
	CodeUnauthorized = "UNAUTHORIZED"
)

// ApplicationError is implemented by every error in this package.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

type baseError struct {
	code    string
	message string
	err     error
}

func (e *baseError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *baseError) Code() string  { return e.code }
func (e *baseError) Unwrap() error { return e.err }

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeUnknown
}

// DatabaseError is a storage fault. The failed unit of work was rolled back.
type DatabaseError struct{ *baseError }

func NewDatabaseError(message string, cause error) error {
	return &DatabaseError{&baseError{code: CodeDatabase, message: message, err: cause}}
}

// ValidationError rejects malformed input before it reaches storage.
type ValidationError struct{ *baseError }

func NewValidationError(message string, cause error) error {
	return &ValidationError{&baseError{code: CodeValidation, message: message, err: cause}}
}

// APIError is a failure talking to an external service.
type APIError struct {
	*baseError
	StatusCode int
}

func NewAPIError(message string, cause error) error {
	return &APIError{baseError: &baseError{code: CodeAPI, message: message, err: cause}}
}

// NewAPIStatusError records the HTTP status returned by the remote side.
func NewAPIStatusError(message string, status int) error {
	return &APIError{
		baseError:  &baseError{code: CodeAPI, message: fmt.Sprintf("%s: status %d", message, status)},
		StatusCode: status,
	}
}

type ConfigError struct{ *baseError }

func NewConfigError(message string, cause error) error {
	return &ConfigError{&baseError{code: CodeConfig, message: message, err: cause}}
}

type UnauthorizedError struct{ *baseError }

func NewUnauthorizedError(message string) error {
	return &UnauthorizedError{&baseError{code: CodeUnauthorized, message: message}}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
