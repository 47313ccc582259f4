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
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Error codes that are part of the contract toward the CRUD/API layer
const (
	ErrCodeInvalidMetadata         = "invalid_metadata"
	ErrCodeDocumentAlreadyFinished = "document_already_finished"
	ErrCodeDatasetNotInitialized   = "dataset_not_initialized"
)

// Validation errors
var (
	ErrInvalidElementType   = NewDomainError(ErrCodeValidation, "invalid element type")
	ErrInvalidChunkStrategy = NewDomainError(ErrCodeValidation, "invalid chunking strategy")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Metadata errors
var (
	ErrInvalidMetadataName  = NewDomainError(ErrCodeInvalidMetadata, "metadata field name must contain only lowercase letters, digits, and underscores")
	ErrInvalidMetadataValue = NewDomainError(ErrCodeInvalidMetadata, "metadata value does not match the field's declared type")
)

// Not found errors
var (
	ErrDocumentNotFound      = NewDomainError(ErrCodeNotFound, "document not found")
	ErrChunkNotFound         = NewDomainError(ErrCodeNotFound, "chunk not found")
	ErrMetadataFieldNotFound = NewDomainError(ErrCodeNotFound, "metadata field not found")
	ErrRechunkJobNotFound    = NewDomainError(ErrCodeNotFound, "rechunk job not found")
)

// Already exists errors
var (
	ErrDocumentAlreadyExists      = NewDomainError(ErrCodeAlreadyExists, "document already exists")
	ErrMetadataFieldAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "metadata field already exists")
)

// Operation errors
var (
	ErrDocumentAlreadyFinished = NewDomainError(ErrCodeDocumentAlreadyFinished, "document generation has already advanced past the requested run")
	ErrDatasetNotInitialized   = NewDomainError(ErrCodeDatasetNotInitialized, "document has no parsed element stream to chunk")
	ErrDocumentDeleted         = NewDomainError(ErrCodeInvalidOperation, "document has been deleted")
	ErrCannotEditBuiltInField  = NewDomainError(ErrCodeInvalidOperation, "built-in metadata fields are read-only")
)
