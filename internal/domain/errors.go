package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same code and message, so wrapped
// sentinels keep working with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeTimeout       = "TIMEOUT"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeUnexpected    = "UNEXPECTED_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// Validation errors
var (
	ErrEmptyMessage         = NewDomainError(ErrCodeValidation, "message cannot be empty")
	ErrInvalidChatMode      = NewDomainError(ErrCodeValidation, "invalid chat mode")
	ErrInvalidLanguage      = NewDomainError(ErrCodeValidation, "invalid language")
	ErrEmptyUpload          = NewDomainError(ErrCodeValidation, "empty file")
	ErrUnsupportedMimeType  = NewDomainError(ErrCodeValidation, "unsupported file type")
	ErrNoExtractableText    = NewDomainError(ErrCodeValidation, "no text found in document")
	ErrDocumentTooSmall     = NewDomainError(ErrCodeValidation, "document is too small to index")
	ErrInvalidExportFormat  = NewDomainError(ErrCodeValidation, "invalid export format")
)

// Not found errors
var (
	ErrProjectNotFound  = NewDomainError(ErrCodeNotFound, "project not found")
	ErrSessionNotFound  = NewDomainError(ErrCodeNotFound, "session not found")
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)

// Model provider errors
var (
	ErrModelTimeout     = NewDomainError(ErrCodeTimeout, "the model took too long to respond")
	ErrModelUpstream    = NewDomainError(ErrCodeUpstream, "the model is unavailable right now")
	ErrModelUnexpected  = NewDomainError(ErrCodeUnexpected, "unexpected error while contacting the model")
	ErrInvalidEmbedding = NewDomainError(ErrCodeUpstream, "embedding provider returned an invalid vector")
)

// Storage errors
var (
	ErrStorageNotConfigured = NewDomainError(ErrCodeValidation, "document storage not configured")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
	// ErrDocumentNotProcessing means the document already reached a terminal
	// status, usually because the stale sweeper failed it.
	ErrDocumentNotProcessing = NewDomainError(ErrCodeInternalError, "document is no longer processing")
)
