package scorecard

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. These allow errors.Is checks through ValidationError.
var (
	ErrNoSession       = errors.New("no session in progress")
	ErrSessionActive   = errors.New("a session is already in progress")
	ErrEndFull         = errors.New("end is full")
	ErrEndIncomplete   = errors.New("end is incomplete")
	ErrNotConfirmed    = errors.New("confirmation required")
	ErrInvalidDocument = errors.New("invalid import document")
	ErrInvalidView     = errors.New("invalid view")
	ErrMissing         = errors.New("required selection missing")
	ErrUnknown         = errors.New("unknown selection")
	ErrNotConfigurable = errors.New("round is not configurable")

	// ErrHistoryUnreadable blocks writes that would replace stored history that failed to load.
	ErrHistoryUnreadable = errors.New("stored history could not be read")
)

// Validation error codes.
const (
	CodeRequired        = "required"
	CodeNotFound        = "not_found"
	CodeOutOfRange      = "out_of_range"
	CodeInvalidScore    = "invalid_score"
	CodeEndFull         = "end_full"
	CodeEndIncomplete   = "end_incomplete"
	CodeNoSession       = "no_session"
	CodeSessionActive   = "session_active"
	CodeInvalidView     = "invalid_view"
	CodeNotConfirmed    = "not_confirmed"
	CodeInvalidDocument = "invalid_document"
	CodeNotConfigurable = "not_configurable"
)

// ValidationError reports a rejected user action. No state was changed.
type ValidationError struct {
	Field   string
	Message string
	Code    string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, code string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Err:     err,
	}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
