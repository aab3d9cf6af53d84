package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an obspack error code.
type ErrorCode string

const (
	ErrVaultNotFound   ErrorCode = "VAULT_NOT_FOUND"  // 404
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrInvalidEncoding ErrorCode = "INVALID_ENCODING" // 422
	ErrIO              ErrorCode = "IO"               // 500
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// ObspackError represents a structured error with code, status, and details.
type ObspackError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ObspackError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewVaultNotFound creates a 404 error for a vault reference that resolves
// to no existing directory, neither as a path nor under the default root.
func NewVaultNotFound(ref string) *ObspackError {
	return &ObspackError{
		Code:    ErrVaultNotFound,
		Status:  404,
		Message: fmt.Sprintf("Can't find an Obsidian vault named '%s'", ref),
		Details: map[string]any{"vault": ref},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ObspackError {
	return &ObspackError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a note that cannot be found.
func NewNotFound(path string) *ObspackError {
	return &ObspackError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("note not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewInvalidEncoding creates a 422 error for file content that failed to
// decode as UTF-8 text.
func NewInvalidEncoding(path string) *ObspackError {
	return &ObspackError{
		Code:    ErrInvalidEncoding,
		Status:  422,
		Message: fmt.Sprintf("not valid UTF-8 text: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewIO creates a 500 error wrapping a filesystem read/write failure.
func NewIO(op string, err error) *ObspackError {
	return &ObspackError{
		Code:    ErrIO,
		Status:  500,
		Message: fmt.Sprintf("%s: %v", op, err),
		Details: map[string]any{"op": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ObspackError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ObspackError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an ObspackError with the given code.
// Wrapped errors are unwrapped first.
func Is(err error, code ErrorCode) bool {
	var oErr *ObspackError
	if stderrors.As(err, &oErr) {
		return oErr.Code == code
	}
	return false
}
