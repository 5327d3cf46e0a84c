package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatConfiguration ErrorCategory = "configuration" // Malformed or unreadable config source
	ErrCatExecution     ErrorCategory = "execution"     // External tool failed to run or exited non-zero
	ErrCatFile          ErrorCategory = "file"          // Referenced path missing or unreadable
	ErrCatValidation    ErrorCategory = "validation"    // Option value failed a choice or range check
	ErrCatNotFound      ErrorCategory = "not_found"     // Lookup miss
	ErrCatState         ErrorCategory = "state"         // Illegal lifecycle transition or ledger conflict
	ErrCatInternal      ErrorCategory = "internal"      // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
	Details  map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrConfiguration creates a configuration error.
func ErrConfiguration(code, message string) *DomainError {
	return &DomainError{Category: ErrCatConfiguration, Code: code, Message: message}
}

// ErrExecution creates an execution error. The message should carry the
// diagnostic text captured from the external tool.
func ErrExecution(code, message string) *DomainError {
	return &DomainError{Category: ErrCatExecution, Code: code, Message: message}
}

// ErrFile creates a file error.
func ErrFile(code, message string) *DomainError {
	return &DomainError{Category: ErrCatFile, Code: code, Message: message}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: code, Message: message}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{Category: ErrCatState, Code: code, Message: message}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// MessageOf returns the human message of err. Domain errors yield their
// Message field; anything else falls back to Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Message
	}
	return err.Error()
}

// Predefined error codes
const (
	CodeTaskNotFound      = "TASK_NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDuplicateTask     = "DUPLICATE_TASK"
	CodeInvalidCheckpoint = "INVALID_CHECKPOINT"
	CodeImportFailed      = "IMPORT_FAILED"

	// Validation error codes
	CodeInvalidChoice    = "INVALID_CHOICE"
	CodeOutOfRange       = "OUT_OF_RANGE"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeUnsupportedModel = "UNSUPPORTED_MODEL"

	// Execution error codes
	CodeCommandNotFound  = "COMMAND_NOT_FOUND"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeCommandFailed    = "COMMAND_FAILED"
	CodeTimeout          = "TIMEOUT"
	CodeCancelled        = "CANCELLED"

	// File and configuration error codes
	CodeFileNotFound      = "FILE_NOT_FOUND"
	CodeFileAccess        = "FILE_ACCESS"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeParseFailed       = "PARSE_FAILED"
)
