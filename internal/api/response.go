package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/unipilot/unipilot/internal/domain"
)

// Messages returned for model failures
const (
	MessageModelTimeout    = "LLM_TIMEOUT: The model took too long to respond. Try again."
	MessageModelUpstream   = "LLM_UPSTREAM: The model is unavailable right now. Please retry shortly."
	MessageModelUnexpected = "LLM_ERROR: Unexpected error while contacting the model."
	messageInternal        = "internal server error"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DomainErrorToHTTP maps domain errors to HTTP status codes
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case domain.ErrCodeUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the caller-facing text of err. Causes are never
// exposed.
func errorMessage(err error) (string, string) {
	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return messageInternal, ""
	}

	switch domainErr.Code {
	case domain.ErrCodeTimeout:
		return MessageModelTimeout, domainErr.Code
	case domain.ErrCodeUpstream:
		return MessageModelUpstream, domainErr.Code
	case domain.ErrCodeUnexpected:
		return MessageModelUnexpected, domainErr.Code
	case domain.ErrCodeInternalError:
		return messageInternal, domainErr.Code
	default:
		return domainErr.Message, domainErr.Code
	}
}

// NewErrorResponse returns the status and body describing err
func NewErrorResponse(err error) (int, ErrorResponse) {
	message, code := errorMessage(err)
	return DomainErrorToHTTP(err), ErrorResponse{Error: message, Code: code}
}

// HandleError writes an appropriate error response based on the error type
func HandleError(w http.ResponseWriter, err error) {
	status, body := NewErrorResponse(err)
	JSON(w, status, body)
}
