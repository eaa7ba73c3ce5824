package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no claim has the requested id.
	ErrNotFound = errors.New("claim not found")

	// ErrConflict is returned when a claim id already exists.
	ErrConflict = errors.New("claim id already exists")
)

// ValidationError reports a field that violates its bounds.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s %s (got %q)", e.Field, e.Message, e.Value)
}

// ParseError reports a malformed CSV row. Line is 1-based and counts the header.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csv line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failure of the underlying store. Batch is the 1-based
// batch index for bulk writes and 0 otherwise.
type StoreError struct {
	Op    string
	Batch int
	Err   error
}

func (e *StoreError) Error() string {
	if e.Batch > 0 {
		return fmt.Sprintf("store %s (batch %d): %v", e.Op, e.Batch, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
