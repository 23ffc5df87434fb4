package domain

import (
	"errors"
	"fmt"
)

// Error codes. The HTTP boundary maps validation to 400 and everything else
// to 500.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// DomainError is a request-scoped failure with a stable code and a message
// that is safe to show for client errors.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same code and message, so a
// sentinel matches copies that carry a cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code && t.Message == e.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first DomainError in err's chain.
func CodeOf(err error) (string, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

var ErrQueryMissing = NewDomainError(ErrCodeValidation, "Query parameter is missing")

var (
	ErrRetrievalFailed  = NewDomainError(ErrCodeInternalError, "retrieval failed")
	ErrGenerationFailed = NewDomainError(ErrCodeInternalError, "generation failed")
)

var (
	ErrDimensionMismatch = NewDomainError(ErrCodeValidation, "embedding dimension mismatch")
	ErrEmptyIndex        = NewDomainError(ErrCodeValidation, "index entries cannot be empty")
)
