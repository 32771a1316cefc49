package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a typed error code.
type ErrorCode string

const (
	// ErrorCodeValidation represents bad input rejected before any processing starts.
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrorCodeUnsupportedRoute represents an (input, output) format pair outside the compatibility matrix.
	ErrorCodeUnsupportedRoute ErrorCode = "UNSUPPORTED_ROUTE"
	// ErrorCodeBusy represents a conversion already in flight on the dispatcher instance.
	ErrorCodeBusy ErrorCode = "CONVERSION_IN_PROGRESS"
	// ErrorCodePipeline represents a failure inside a conversion stage.
	ErrorCodePipeline ErrorCode = "PIPELINE_ERROR"
)

// ConversionError represents a converter error with code, message, and the
// pipeline stage it originated from. Every failure is terminal for the call;
// the converter never retries.
type ConversionError struct {
	Code    ErrorCode
	Message string
	Stage   string // pipeline stage identifier, empty for pre-pipeline errors
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Stage != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %s (%v)", e.Code, e.Stage, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *ConversionError) WithDetails(details map[string]interface{}) *ConversionError {
	e.Details = details
	return e
}

// NewValidationError creates a validation error. The message identifies the
// constraint that failed and is surfaced to the caller verbatim.
func NewValidationError(message string) *ConversionError {
	return &ConversionError{
		Code:    ErrorCodeValidation,
		Message: message,
	}
}

// NewUnsupportedRouteError creates an error for a format pair the
// compatibility matrix does not permit.
func NewUnsupportedRouteError(inputFormat, outputFormat string) *ConversionError {
	return &ConversionError{
		Code:    ErrorCodeUnsupportedRoute,
		Message: fmt.Sprintf("conversion from %q to %q is not supported", inputFormat, outputFormat),
		Details: map[string]interface{}{
			"input_format":  inputFormat,
			"output_format": outputFormat,
		},
	}
}

// NewBusyError creates an error signaling that a conversion is already in
// progress on this dispatcher instance.
func NewBusyError() *ConversionError {
	return &ConversionError{
		Code:    ErrorCodeBusy,
		Message: "conversion already in progress",
	}
}

// NewPipelineError creates a stage-identified pipeline error wrapping the
// underlying failure.
func NewPipelineError(stage, message string, err error) *ConversionError {
	return &ConversionError{
		Code:    ErrorCodePipeline,
		Message: message,
		Stage:   stage,
		Err:     err,
	}
}

// FromError converts a standard error to a ConversionError.
// If the error is already a ConversionError, it returns it as-is.
// Otherwise, it wraps it as a pipeline error with no stage.
func FromError(err error) *ConversionError {
	if err == nil {
		return nil
	}

	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr
	}

	return &ConversionError{
		Code:    ErrorCodePipeline,
		Message: "conversion failed",
		Err:     err,
	}
}

// code extracts the error code, or empty string for non-converter errors.
func code(err error) ErrorCode {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return code(err) == ErrorCodeValidation
}

// IsUnsupportedRoute reports whether err is an unsupported-route error.
func IsUnsupportedRoute(err error) bool {
	return code(err) == ErrorCodeUnsupportedRoute
}

// IsBusy reports whether err signals an in-flight conversion.
func IsBusy(err error) bool {
	return code(err) == ErrorCodeBusy
}

// IsPipeline reports whether err originated inside a conversion stage.
func IsPipeline(err error) bool {
	return code(err) == ErrorCodePipeline
}
