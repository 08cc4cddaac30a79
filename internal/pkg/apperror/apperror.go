package apperror

import "net/http"

// Kind names one of the core's error taxonomy members. Conflict is
// deliberately absent: it is never raised as an error, only returned as
// a value from the booking writer.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindResourceNotFound  Kind = "resource_not_found"
	KindInvalidRecurrence Kind = "invalid_recurrence"
	KindStorage           Kind = "storage"
	KindCancelled         Kind = "cancelled"
)

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Kind    Kind
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)

	// Fields carries per-field validation failures (path -> message).
	Fields map[string]string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidation builds a ValidationError (400), optionally carrying
// per-field paths.
func NewValidation(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Code: http.StatusBadRequest, Message: message, Fields: fields}
}

// NewResourceNotFound builds a ResourceNotFound error (404).
func NewResourceNotFound(message string) *AppError {
	return &AppError{Kind: KindResourceNotFound, Code: http.StatusNotFound, Message: message}
}

// NewInvalidRecurrence builds an InvalidRecurrence error (400) wrapping
// the underlying RRULE parse failure.
func NewInvalidRecurrence(err error) *AppError {
	return &AppError{Kind: KindInvalidRecurrence, Code: http.StatusBadRequest, Message: "invalid recurrence rule", Err: err}
}

// NewStorage builds a Storage error (500) wrapping the underlying
// driver/transaction failure.
func NewStorage(err error) *AppError {
	return &AppError{Kind: KindStorage, Code: http.StatusInternalServerError, Message: "storage unavailable", Err: err}
}

// NewCancelled builds a Cancelled error surfaced when the caller's
// context is done mid-request.
func NewCancelled(err error) *AppError {
	return &AppError{Kind: KindCancelled, Code: 499, Message: "request cancelled", Err: err}
}
