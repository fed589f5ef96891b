package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a validation or persistence failure.
type ErrorCode string

const (
	CodeInvalidCategory    ErrorCode = "InvalidCategory"
	CodeUnknownField       ErrorCode = "UnknownField"
	CodeTypeMismatch       ErrorCode = "TypeMismatch"
	CodeNotAnInteger       ErrorCode = "NotAnInteger"
	CodeOutOfRange         ErrorCode = "OutOfRange"
	CodeNotABoolean        ErrorCode = "NotABoolean"
	CodeTooLong            ErrorCode = "TooLong"
	CodePatternMismatch    ErrorCode = "PatternMismatch"
	CodeNotAllowed         ErrorCode = "NotAllowed"
	CodeInvalidJSON        ErrorCode = "InvalidJSON"
	CodeRequiredFieldEmpty ErrorCode = "RequiredFieldEmpty"

	CodeIntegrityError ErrorCode = "IntegrityError"
	CodeStorageError   ErrorCode = "StorageError"
)

// FieldError represents a single failure on a named field.
type FieldError struct {
	Category Category
	Field    string
	Code     ErrorCode
	Message  string
}

// Error returns the bare message.
func (e *FieldError) Error() string {
	return e.Message
}

// Qualified formats the error as "{category}.{field}: {message}". Errors that
// are not tied to a field (an unknown category) return the message alone.
func (e *FieldError) Qualified() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s.%s: %s", e.Category, e.Field, e.Message)
}

// ValidationError holds every field-level failure found in a batch.
type ValidationError struct {
	Errors []FieldError
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Messages returns the qualified message of every field error, in order.
func (e *ValidationError) Messages() []string {
	return qualified(e.Errors)
}

// PersistError holds the per-field storage failures of a batch write.
// RolledBack is set when none of the batch was kept.
type PersistError struct {
	Errors     []FieldError
	RolledBack bool
}

func (e *PersistError) Error() string {
	msg := "persist failed: " + strings.Join(e.Messages(), "; ")
	if e.RolledBack {
		msg += " (rolled back)"
	}
	return msg
}

// Messages returns the qualified message of every field error, in order.
func (e *PersistError) Messages() []string {
	return qualified(e.Errors)
}

func qualified(errs []FieldError) []string {
	out := make([]string, len(errs))
	for i := range errs {
		out[i] = errs[i].Qualified()
	}
	return out
}

// StoreError reports a persistence failure with its classification.
type StoreError struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the error code carried by err, or "" when err is nil or
// carries none.
func CodeOf(err error) ErrorCode {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Code
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
