package domain

import "fmt"

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
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTransient        = "TRANSIENT_ERROR"
	ErrCodeStageFailure     = "STAGE_FAILURE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Retryable reports whether an error with the given code may succeed on retry.
func Retryable(code string) bool {
	return code == ErrCodeTransient
}

// Validation errors
var (
	ErrInvalidRunState       = NewDomainError(ErrCodeValidation, "invalid pipeline run state")
	ErrInvalidStage          = NewDomainError(ErrCodeValidation, "invalid pipeline stage")
	ErrInvalidAttemptStatus  = NewDomainError(ErrCodeValidation, "invalid stage attempt status")
	ErrInvalidSentiment      = NewDomainError(ErrCodeValidation, "invalid sentiment label")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyQuery            = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrInvalidEmbeddingJob   = NewDomainError(ErrCodeValidation, "invalid embedding job")
)

// Not found errors
var (
	ErrCampaignNotFound = NewDomainError(ErrCodeNotFound, "campaign not found")
	ErrRunNotFound      = NewDomainError(ErrCodeNotFound, "pipeline run not found")
	ErrContentNotFound  = NewDomainError(ErrCodeNotFound, "content item not found")
	ErrInsightNotFound  = NewDomainError(ErrCodeNotFound, "insight not found")
)

// Already exists errors
var (
	ErrCampaignAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "campaign already exists")
)

// Operation errors
var (
	ErrRunTerminal          = NewDomainError(ErrCodeInvalidOperation, "pipeline run is in a terminal state")
	ErrRunAlreadyActive     = NewDomainError(ErrCodeInvalidOperation, "campaign already has an active pipeline run")
	ErrContentImmutable     = NewDomainError(ErrCodeInvalidOperation, "content item is immutable after cleaning")
	ErrEmbeddingImmutable   = NewDomainError(ErrCodeInvalidOperation, "embedding is immutable once written, append a new version")
	ErrAttemptHistoryFrozen = NewDomainError(ErrCodeInvalidOperation, "stage attempt history cannot be mutated")
)
