package registry

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an engine error for recovery decisions.
type ErrorClass string

const (
	// ErrorClassPermanent indicates a non-recoverable error such as an
	// invalid dependency graph or a duplicate registration.
	ErrorClassPermanent ErrorClass = "permanent"

	// ErrorClassTransient indicates a failure that may succeed on retry.
	ErrorClassTransient ErrorClass = "transient"
)

// InstallError is a classified engine error with plugin and operation
// context. Plugin-expected failures travel in plugin.Result; InstallError is
// reserved for engine faults and topology errors.
type InstallError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Plugin is the plugin name that caused the error, if applicable.
	Plugin string `json:"plugin,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *InstallError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Plugin != "" {
		msg = fmt.Sprintf("%s (plugin=%s)", msg, e.Plugin)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *InstallError) Is(target error) bool {
	t, ok := target.(*InstallError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, err error) *InstallError {
	return &InstallError{
		Class:   ErrorClassPermanent,
		Message: message,
		Err:     err,
	}
}

// NewTransientError creates a new transient error.
func NewTransientError(message string, err error) *InstallError {
	return &InstallError{
		Class:   ErrorClassTransient,
		Message: message,
		Err:     err,
	}
}

// WithCode adds an error code to an error.
func (e *InstallError) WithCode(code string) *InstallError {
	e.Code = code
	return e
}

// WithPlugin adds plugin context to an error.
func (e *InstallError) WithPlugin(name string) *InstallError {
	e.Plugin = name
	return e
}

// WithOperation adds operation context to an error.
func (e *InstallError) WithOperation(operation string) *InstallError {
	e.Operation = operation
	return e
}

// IsPermanent returns true if the error is classified as permanent.
func IsPermanent(err error) bool {
	var e *InstallError
	if errors.As(err, &e) {
		return e.Class == ErrorClassPermanent
	}
	return false
}

// HasCode returns true if the error carries the given code.
func HasCode(err error, code string) bool {
	var e *InstallError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Common error codes.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeMissingDependency  = "MISSING_DEPENDENCY"
	ErrCodeCircularDependency = "CIRCULAR_DEPENDENCY"
	ErrCodePluginFailed       = "PLUGIN_FAILED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)
