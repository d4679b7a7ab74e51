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
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternalError = "INTERNAL_ERROR"
	// ErrCodeConfig marks configuration errors: embedding model or version
	// mismatches, missing tenant scope. Never retried automatically.
	ErrCodeConfig = "CONFIG_ERROR"
	// ErrCodeUpstream marks embedding/model/index call failures and timeouts.
	// Retried at the call site with backoff; distinct from content refusal.
	ErrCodeUpstream = "UPSTREAM_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query text is required")
	ErrEmptyTopicContent    = NewDomainError(ErrCodeValidation, "extracted text is empty")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Configuration errors
var (
	ErrMissingInstitution      = NewDomainError(ErrCodeConfig, "retrieval filter requires an institution id")
	ErrEmbeddingModelMismatch  = NewDomainError(ErrCodeConfig, "index embedding model does not match query embedding model")
	ErrEmbeddingDimensionWrong = NewDomainError(ErrCodeConfig, "embedding has unexpected dimensions")
	ErrGenerationNotConfigured = NewDomainError(ErrCodeConfig, "generation model not configured")
)

// Not found errors
var (
	ErrTopicNotFound        = NewDomainError(ErrCodeNotFound, "topic not found")
	ErrTopicContentNotFound = NewDomainError(ErrCodeNotFound, "topic has no extracted content")
	ErrAPIKeyNotFound       = NewDomainError(ErrCodeNotFound, "api key not found")
	ErrInstitutionNotFound  = NewDomainError(ErrCodeNotFound, "institution not found")
)

// Authorization errors
var (
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
)

// Upstream service errors
var (
	ErrEmbeddingUnavailable  = NewDomainError(ErrCodeUpstream, "embedding service not configured or unavailable")
	ErrGenerationUnavailable = NewDomainError(ErrCodeUpstream, "generation service not configured or unavailable")
)
