package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Command succeeded
	ExitFailure      = 1 // Request rejected by validation or compilation
	ExitCommandError = 2 // Bad invocation: missing files, unreadable config, database errors
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric     = "E001" // Unclassified error
	ErrCodeNotFound    = "E002" // Input file not found
	ErrCodeConfig      = "E003" // Project config unreadable or invalid
	ErrCodeRequest     = "E004" // Request document could not be decoded
	ErrCodeValidation  = "E005" // Request rejected by schema validation
	ErrCodeDatabase    = "E006" // Database open or query failed
	ErrCodeWriteFailed = "E007" // Output file could not be written

	ErrCodeMissingSubquery = "E101" // Field has no registered subquery (strict mode)
	ErrCodeMalformedFilter = "E102" // Filter node cannot be compiled
	ErrCodeInvalidSort     = "E103" // Sort direction is not ASC or DESC
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the envelope written in JSON mode.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failure in a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a JSON envelope.
// Diagnostics go to ErrWriter so JSON on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// JSON reports whether the formatter emits JSON envelopes.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data. Text mode prints it with fmt.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a failure. Details are printed in text mode only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail writes a failure and returns the ExitError the command should
// return.
func (f *OutputFormatter) Fail(exitCode int, code, message string, details any) error {
	if err := f.Error(code, message, details); err != nil {
		return WrapExitError(ExitCommandError, "writing output", err)
	}
	return NewExitError(exitCode, message)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// errWriter returns ErrWriter, falling back to Writer.
func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
