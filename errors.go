package toolcast

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Error represents a toolcast error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for toolcast operations.
const (
	// ErrCodeNoData indicates a repository query returned no rows.
	ErrCodeNoData = "NO_DATA"

	// ErrCodeNotFound indicates a referenced record is absent. Surfaced to callers.
	ErrCodeNotFound = "NOT_FOUND"

	// ErrCodeValidation indicates a field constraint was violated.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates database operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeDelivery indicates a single recipient's delivery failed.
	// Recorded by the dispatcher, never surfaced to the end caller.
	ErrCodeDelivery = "DELIVERY_ERROR"

	// ErrCodeRender indicates the notification message could not be built.
	// Aborts only the dispatch cycle.
	ErrCodeRender = "RENDER_ERROR"

	// ErrCodeRecipientLoad indicates the audience could not be read.
	// Aborts only the dispatch cycle.
	ErrCodeRecipientLoad = "RECIPIENT_LOAD_ERROR"
)

// Common errors.
var (
	// ErrNoData is returned by repositories when a query returns no results.
	// This is not necessarily an error condition in all cases.
	ErrNoData = &Error{
		Code:    ErrCodeNoData,
		Message: "no data found",
	}

	// ErrInvalidConfiguration is returned when dispatcher configuration is invalid.
	ErrInvalidConfiguration = &Error{
		Code:    ErrCodeConfiguration,
		Message: "invalid dispatcher configuration",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// NewNotFoundError reports that the record of kind with id does not exist.
func NewNotFoundError(kind string, id any) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", kind, id),
	}
}

// NewValidationError wraps field-level validation failures.
// When cause is a validation.Errors map the field names are preserved.
func NewValidationError(message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: message,
		Err:     cause,
	}
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	var tcErr *Error
	if errors.As(err, &tcErr) && tcErr.Code == ErrCodeNoData {
		return true
	}
	return errors.Is(err, ErrNoData)
}

// HasCode reports whether err is a toolcast *Error with the given code.
func HasCode(err error, code string) bool {
	var tcErr *Error
	if errors.As(err, &tcErr) {
		return tcErr.Code == code
	}
	return false
}

// IsNotFound checks if an error reports a missing record.
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

// IsValidation checks if an error reports a field constraint violation.
func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidation)
}

// FieldErrors extracts per-field messages from a validation error.
// Returns nil when err carries no field detail.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			fields[field] = ferr.Error()
		}
	}
	return fields
}

// notFoundOr maps ErrNoData to a NotFound error for kind/id and wraps any
// other failure as a database error.
func notFoundOr(err error, kind string, id any, action string) error {
	if IsNoData(err) {
		return NewNotFoundError(kind, id)
	}
	return NewErrorWithCause(ErrCodeDatabase, action, err)
}
