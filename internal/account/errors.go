package account

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUsernameTaken reports a registration against an existing username.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrInvalidCredentials is the single answer for any failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound covers missing accounts and items, including malformed ids.
	ErrNotFound = errors.New("not found")
	// ErrForbidden rejects a write aimed at another user's account.
	ErrForbidden = errors.New("forbidden")
	// ErrInterestFull is returned by a Backend when an item already holds
	// MaxInterest submissions at the moment of the write.
	ErrInterestFull = errors.New("interest list is full")
)

// ValidationError rejects a single field of a write.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors collects every failing field of one write.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationErrors) add(field, reason string) {
	*e = append(*e, ValidationError{Field: field, Reason: reason})
}

// err returns nil when nothing failed so callers can return it directly.
func (e ValidationErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Invalid builds a single-field validation failure.
func Invalid(field, reason string) error {
	return ValidationErrors{{Field: field, Reason: reason}}
}

// AsValidation reports whether err carries field errors and returns them.
func AsValidation(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
