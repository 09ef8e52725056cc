package progress

import (
	"errors"
	"fmt"
)

// ErrorCode classifies progress errors
type ErrorCode string

const (
	// CodeConfiguration indicates the checkpoint location is unusable
	CodeConfiguration ErrorCode = "CONFIGURATION"
	// CodeSerialization indicates a snapshot could not be written as a reloadable checkpoint
	CodeSerialization ErrorCode = "SERIALIZATION"
	// CodeDeserialization indicates a checkpoint could not be turned back into a snapshot
	CodeDeserialization ErrorCode = "DESERIALIZATION"
)

// Error represents domain-specific errors for workflow progress
type Error struct {
	Code    ErrorCode
	Key     string // offending field, if any
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Key != "" {
		msg = fmt.Sprintf("[%s] field %q: %s", e.Code, e.Key, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, err error) *Error {
	return &Error{Code: CodeConfiguration, Message: message, Err: err}
}

// NewSerializationError creates a serialization error for the given field
func NewSerializationError(key, message string, err error) *Error {
	return &Error{Code: CodeSerialization, Key: key, Message: message, Err: err}
}

// NewDeserializationError creates a deserialization error for the given field
func NewDeserializationError(key, message string, err error) *Error {
	return &Error{Code: CodeDeserialization, Key: key, Message: message, Err: err}
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	return hasCode(err, CodeConfiguration)
}

// IsSerialization checks if the error is a serialization error
func IsSerialization(err error) bool {
	return hasCode(err, CodeSerialization)
}

// IsDeserialization checks if the error is a deserialization error
func IsDeserialization(err error) bool {
	return hasCode(err, CodeDeserialization)
}

func hasCode(err error, code ErrorCode) bool {
	var pErr *Error
	return errors.As(err, &pErr) && pErr.Code == code
}
