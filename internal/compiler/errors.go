package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/sift/internal/filter"
)

// CompileError represents an input the compilers cannot lower.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field is the offending field or key, if any.
	Field string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeMissingSubquery indicates a field with no registered subquery
	// under strict resolution.
	ErrCodeMissingSubquery ErrorCode = "MISSING_SUBQUERY"

	// ErrCodeMalformedFilter indicates a filter node the compiler cannot lower.
	ErrCodeMalformedFilter ErrorCode = "MALFORMED_FILTER"

	// ErrCodeInvalidSort indicates a sort with an unusable direction.
	ErrCodeInvalidSort ErrorCode = "INVALID_SORT"
)

func (e *CompileError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsMissingSubquery returns true if err is a missing-subquery error.
func IsMissingSubquery(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeMissingSubquery
	}
	return false
}

// IsMalformedFilter returns true if err is a malformed-filter error raised
// either while parsing or while compiling.
func IsMalformedFilter(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeMalformedFilter
	}
	return filter.IsParseError(err)
}

// IsInvalidSort returns true if err is an invalid-sort error.
func IsInvalidSort(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInvalidSort
	}
	return false
}

func missingSubquery(field string) *CompileError {
	return &CompileError{
		Code:    ErrCodeMissingSubquery,
		Field:   field,
		Message: "no subquery registered for field",
	}
}
