package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrUploadRejected means the backend refused the submission outright
	// (bad format, too large, malformed request).
	ErrUploadRejected = errors.New("upload rejected")

	// ErrProcessingFailed means OCR ran and failed, or a status check errored.
	ErrProcessingFailed = errors.New("processing failed")

	// ErrProcessingTimedOut means the poll budget ran out before a terminal status.
	ErrProcessingTimedOut = errors.New("processing timed out")

	// ErrDuplicateDetected means the backend matched an already-known receipt.
	ErrDuplicateDetected = errors.New("duplicate receipt detected")

	// ErrMutationFailed means a destructive call (delete, approve) did not land.
	ErrMutationFailed = errors.New("mutation failed")

	// ErrFetchFailed means a read call (list, document, statistics) did not land.
	ErrFetchFailed = errors.New("fetch failed")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf maps err to its taxonomy code, or "UNKNOWN".
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUploadRejected):
		return "UPLOAD_REJECTED"
	case errors.Is(err, ErrProcessingFailed):
		return "PROCESSING_FAILED"
	case errors.Is(err, ErrProcessingTimedOut):
		return "PROCESSING_TIMED_OUT"
	case errors.Is(err, ErrDuplicateDetected):
		return "DUPLICATE_DETECTED"
	case errors.Is(err, ErrMutationFailed):
		return "MUTATION_FAILED"
	case errors.Is(err, ErrFetchFailed):
		return "FETCH_FAILED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	default:
		return "UNKNOWN"
	}
}

// IsRetryable reports whether a failed submission may be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProcessingFailed) || errors.Is(err, ErrProcessingTimedOut)
}
