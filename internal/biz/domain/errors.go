package domain

import "errors"

// ErrNotFound is returned when a referenced entity does not exist
var ErrNotFound = errors.New("not found")

// ValidationError represents rejected user input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is, or wraps, a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
