package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for due dates, deadlines and
// habit completions.
const DateLayout = "2006-01-02"

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FormatDate renders t as a calendar date in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func validateDate(field, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return ValidationError{Field: field, Reason: fmt.Sprintf("expected YYYY-MM-DD, got %q", value)}
	}
	return nil
}

// nullableDate maps an empty date to NULL for the backend.
func nullableDate(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableDatePtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
