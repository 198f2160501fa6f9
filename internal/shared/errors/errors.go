package errors

import (
	"errors"
	"fmt"
)

// Kind classifies application errors
type Kind string

const (
	KindConfiguration   Kind = "CONFIGURATION_ERROR"
	KindConnectivity    Kind = "CONNECTIVITY_ERROR"
	KindTimeout         Kind = "EXECUTION_TIMEOUT"
	KindDeserialization Kind = "DESERIALIZATION_ERROR"
	KindPerUnit         Kind = "PER_UNIT_ERROR"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// Connectivity sub-kinds, used to select a remediation hint
const (
	ConnDNS      = "DNS_FAILURE"
	ConnRefused  = "CONNECTION_REFUSED"
	ConnAuth     = "AUTHENTICATION_FAILURE"
	ConnProtocol = "PROTOCOL_MISMATCH"
	ConnTimeout  = "SERVER_SELECTION_TIMEOUT"
)

// AppError represents an application error with classification and context
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Hint    string
	Cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds a sub-kind code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithHint adds remediation text shown to the operator
func (e *AppError) WithHint(hint string) *AppError {
	e.Hint = hint
	return e
}

// NewConfigurationError creates a fatal configuration error
func NewConfigurationError(message string) *AppError {
	return &AppError{Kind: KindConfiguration, Message: message}
}

// NewConnectivityError creates a connectivity error
func NewConnectivityError(message string) *AppError {
	return &AppError{Kind: KindConnectivity, Message: message}
}

// NewTimeoutError creates an execution timeout error
func NewTimeoutError(message string) *AppError {
	return &AppError{Kind: KindTimeout, Message: message}
}

// NewDeserializationError creates a deserialization error
func NewDeserializationError(message string) *AppError {
	return &AppError{Kind: KindDeserialization, Message: message}
}

// NewPerUnitError creates an isolated per-unit error
func NewPerUnitError(message string) *AppError {
	return &AppError{Kind: KindPerUnit, Message: message}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{Kind: KindInternal, Message: message}
}

func isKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return isKind(err, KindConfiguration)
}

// IsConnectivity checks if an error is a connectivity error
func IsConnectivity(err error) bool {
	return isKind(err, KindConnectivity)
}

// IsTimeout checks if an error is an execution timeout
func IsTimeout(err error) bool {
	return isKind(err, KindTimeout)
}

// IsDeserialization checks if an error is a deserialization error
func IsDeserialization(err error) bool {
	return isKind(err, KindDeserialization)
}

// IsPerUnit checks if an error is a per-unit error
func IsPerUnit(err error) bool {
	return isKind(err, KindPerUnit)
}

// Hint extracts the remediation hint from an error, if any
func Hint(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Hint
	}
	return ""
}
