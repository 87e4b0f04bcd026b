package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies pipeline failures
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeTransport    ErrorCode = "TRANSPORT_ERROR"
	ErrCodeDecode       ErrorCode = "DECODE_ERROR"
	ErrCodeSink         ErrorCode = "SINK_ERROR"
	ErrCodeConfig       ErrorCode = "CONFIG_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and context
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message)
}

func NewDecodeError(err error, field string) *AppError {
	msg := "malformed digest"
	if field != "" {
		msg = fmt.Sprintf("malformed digest at %s", field)
	}
	return WrapError(err, ErrCodeDecode, msg).WithContext("field", field)
}

func NewTransportError(err error, message string) *AppError {
	return WrapError(err, ErrCodeTransport, message)
}

func NewSinkError(err error, message string) *AppError {
	return WrapError(err, ErrCodeSink, message)
}

func NewConfigError(err error, message string) *AppError {
	return WrapError(err, ErrCodeConfig, message)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message)
}

// IsAppError checks if error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}
