package query

import "fmt"

// ValidationError rejects a request referencing unknown or disallowed
// fields, or malformed pagination/sort parameters. Never corrected silently.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
