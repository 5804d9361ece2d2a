package filter

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes parse errors.
type ErrorCode string

const (
	// ErrCodeMalformedFilter indicates input whose shape is not a filter.
	ErrCodeMalformedFilter ErrorCode = "MALFORMED_FILTER"
)

// ParseError reports malformed filter input at a path such as
// "AND[1].year.in[0]".
type ParseError struct {
	Code    ErrorCode
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
}

// IsParseError reports whether err wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func malformed(path, format string, args ...any) *ParseError {
	return &ParseError{
		Code:    ErrCodeMalformedFilter,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}
