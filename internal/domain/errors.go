// Package domain defines core types, interfaces, and errors for the log
// search engine.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// UpstreamError carries a backend failure: the numeric error code reported
// by the search backend plus its raw error string.
type UpstreamError struct {
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// Friendly returns the user-facing message for the error: the static
// code-to-message table entry when the code is known, the raw backend
// message otherwise.
func (e *UpstreamError) Friendly() string {
	if msg, ok := errorMessages[e.Code]; ok {
		return msg
	}
	return e.Message
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// errorMessages maps backend error codes to user-facing messages. Codes
// without an entry fall through to the raw backend error string.
var errorMessages = map[int]string{
	10001: "Server encountered an internal error",
	20001: "SQL is not valid",
	20002: "Stream not found",
	20003: "Full-text search field not found",
	20004: "Search field not found",
	20005: "Query function is not defined",
	20006: "Parquet file not found",
	20007: "Search field has no compatible data type",
	20008: "SQL execution error",
}
