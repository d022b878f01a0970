package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorBody is the structured error payload: a stable machine-readable
// type, whether retrying the same request can succeed, and a human
// message.
type ErrorBody struct {
	Type      string `json:"type"`
	Retryable bool   `json:"retryable"`
	Message   string `json:"message"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
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
func Error(w http.ResponseWriter, status int, errType, message string) {
	JSON(w, status, ErrorResponse{Error: ErrorBody{
		Type:      errType,
		Retryable: domain.Retryable(errType),
		Message:   message,
	}})
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
	case domain.ErrCodeAlreadyExists:
		return http.StatusConflict
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeInvalidOperation:
		return http.StatusConflict
	case domain.ErrCodeTransient:
		return http.StatusServiceUnavailable
	case domain.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes an appropriate error response based on the error type
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)

	errType := domain.ErrCodeInternalError
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		errType = domainErr.Code
	}

	Error(w, status, errType, err.Error())
}
