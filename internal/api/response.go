package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cloo-solutions/ragserve/internal/domain"
)

const (
	// InternalErrorMessage is the only detail a caller sees for a server-side failure.
	InternalErrorMessage = "Internal server error"
	// BodyTooLargeMessage accompanies 413 responses.
	BodyTooLargeMessage = "Request body too large"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes data with the given status. Answers are model text, so HTML
// characters are left unescaped.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		log.Printf("failed to write response body: %v", err)
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

// DomainErrorToHTTP maps domain errors to HTTP status codes. Anything that
// is not a validation DomainError is a server error.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if code, ok := domain.CodeOf(err); ok && code == domain.ErrCodeValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// HandleError writes the status for err. Client errors carry the domain
// message; every server error gets the generic message.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		Error(w, status, InternalErrorMessage)
		return
	}

	var domainErr *domain.DomainError
	errors.As(err, &domainErr)
	Error(w, status, domainErr.Message)
}
