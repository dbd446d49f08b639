package utils

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures raised while building or searching a chain.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConfiguration covers invalid parameters: bad window/hits, a horizon that
	// is not a multiple of the phase count, probabilities out of range.
	ErrorTypeConfiguration
	// ErrorTypeNumeric covers objective values that make no sense, e.g. NaN or a
	// non-positive utilization for a positive-support distribution.
	ErrorTypeNumeric
	// ErrorTypeInternal means an invariant of the state space was broken.
	ErrorTypeInternal
)

type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) TypeString() string {
	switch e.Type {
	case ErrorTypeConfiguration:
		return "ConfigurationError"
	case ErrorTypeNumeric:
		return "NumericError"
	case ErrorTypeInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

func NewError(errType ErrorType, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// ConfigErrorf builds a configuration error with a formatted message.
func ConfigErrorf(format string, args ...any) *Error {
	return NewError(ErrorTypeConfiguration, fmt.Sprintf(format, args...), nil)
}

// NumericErrorf builds a numeric error with a formatted message.
func NumericErrorf(format string, args ...any) *Error {
	return NewError(ErrorTypeNumeric, fmt.Sprintf(format, args...), nil)
}

func InternalErrorf(format string, args ...any) *Error {
	return NewError(ErrorTypeInternal, fmt.Sprintf(format, args...), nil)
}

func errorType(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

func IsConfigurationError(err error) bool {
	return errorType(err) == ErrorTypeConfiguration
}

func IsNumericError(err error) bool {
	return errorType(err) == ErrorTypeNumeric
}

func IsInternalError(err error) bool {
	return errorType(err) == ErrorTypeInternal
}
