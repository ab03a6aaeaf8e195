package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeNotLoggedIn        = "NOT_LOGGED_IN"
	ErrCodeDeckNotFound       = "DECK_NOT_FOUND"
	ErrCodeCardNotFound       = "CARD_NOT_FOUND"
	ErrCodeSchema             = "SCHEMA_ERROR"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeServiceUnavailable = "EXTERNAL_SERVICE_UNAVAILABLE"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// AppError is an application error carrying a stable code and the HTTP status
// it maps to at the API boundary.
type AppError struct {
	Code    string // Error code (e.g., "DECK_NOT_FOUND", "INVALID_RATING")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotLoggedInError is returned when an operation needs an authenticated user.
func NewNotLoggedInError() *AppError {
	return &AppError{
		Code:    ErrCodeNotLoggedIn,
		Message: "you must be logged in",
		Status:  http.StatusUnauthorized,
	}
}

// NewDeckNotFoundError creates a new DECK_NOT_FOUND error
func NewDeckNotFoundError(deck string) *AppError {
	return &AppError{
		Code:    ErrCodeDeckNotFound,
		Message: fmt.Sprintf("deck not found: %s", deck),
		Status:  http.StatusNotFound,
	}
}

// NewCardNotFoundError creates a new CARD_NOT_FOUND error
func NewCardNotFoundError(deck, cardID string) *AppError {
	return &AppError{
		Code:    ErrCodeCardNotFound,
		Message: fmt.Sprintf("card %s not found in deck %s", cardID, deck),
		Status:  http.StatusNotFound,
	}
}

// NewSchemaError reports a deck whose header row lacks mandatory columns.
func NewSchemaError(deck string, missing []string) *AppError {
	return &AppError{
		Code:    ErrCodeSchema,
		Message: fmt.Sprintf("deck %s is missing required columns: %v", deck, missing),
		Status:  http.StatusUnprocessableEntity,
	}
}

// NewInvalidRatingError creates a new INVALID_RATING error
func NewInvalidRatingError(rating int) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidRating,
		Message: fmt.Sprintf("rating must be between 0 and 3, got %d", rating),
		Status:  http.StatusBadRequest,
	}
}

// NewServiceUnavailableError wraps a failed or unconfigured external provider.
func NewServiceUnavailableError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeServiceUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewForbiddenError is returned when the user lacks the rights for an operation.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// NewNotFoundError is used for unknown routes.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the AppError code of err, or ErrCodeInternal for anything else.
func CodeOf(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
