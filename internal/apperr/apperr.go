// Package apperr defines the error taxonomy shared by the repositories and
// the marketplace service. Callers distinguish failures with errors.Is and
// errors.As; nothing here is fatal to the process.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an id has no matching record.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break a uniqueness rule,
	// such as a duplicate email on registration.
	ErrConflict = errors.New("already exists")

	// ErrAccessDenied is returned when the current session lacks the role
	// or ownership an operation requires.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotLoggedIn is returned by role-gated operations without a session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// NotFound wraps ErrNotFound with the record kind and id.
func NotFound(kind string, id int64) error {
	return fmt.Errorf("%s %d %w", kind, id, ErrNotFound)
}

// Violations maps a field name to a human-readable message.
type Violations map[string]string

// Add records a message for field, keeping the first one reported.
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Empty reports whether no violations were recorded.
func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns nil when v is empty and a *ValidationError otherwise.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Fields: v}
}

// ValidationError reports malformed or incomplete input, field by field.
type ValidationError struct {
	Fields Violations
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldErrors returns the field messages of err if it is a validation
// error, or nil otherwise.
func FieldErrors(err error) Violations {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Expected reports whether err is one of the caller-facing failures defined
// here rather than a storage or system fault.
func Expected(err error) bool {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrNotLoggedIn):
		return true
	}
	return false
}
