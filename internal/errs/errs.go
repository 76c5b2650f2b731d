// Package errs defines the error shape shared across CaretForge: a short
// machine-readable code, a human message, and an optional cause, so the
// CLI's --json error output and its plain-text error line can be derived
// from the same value.
package errs

import "fmt"

// Code enumerates the error kinds from spec.md §7.
type Code string

const (
	CodeProvider    Code = "provider_error"
	CodeConfig      Code = "config_error"
	CodeTool        Code = "tool_error"
	CodeSafety      Code = "safety_block"
	CodeIterLimit   Code = "iteration_limit"
	CodeUnsupported Code = "unsupported"
)

// CaretError is the concrete error type returned across package
// boundaries whenever a caller needs the Code to decide how to react
// (terminate the turn, exit fatally, or feed the text back to the model).
type CaretError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *CaretError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CaretError) Unwrap() error { return e.Cause }

// New constructs a CaretError with no cause.
func New(code Code, message string) *CaretError {
	return &CaretError{Code: code, Message: message}
}

// Wrap constructs a CaretError around an existing error.
func Wrap(code Code, message string, cause error) *CaretError {
	return &CaretError{Code: code, Message: message, Cause: cause}
}
