package domain

import (
	"errors"
	"fmt"
)

// Stage identifies where in the pipeline an error originated.
type Stage string

const (
	StageLocate    Stage = "locating"
	StageFetch     Stage = "fetching"
	StageExtract   Stage = "extracting"
	StageAggregate Stage = "aggregating"
)

// Code is a stable, caller-visible error classification.
type Code string

const (
	CodeUnsupportedContent  Code = "UNSUPPORTED_CONTENT"
	CodeUnsupportedURLShape Code = "UNSUPPORTED_URL_SHAPE"
	CodeFetchFailed         Code = "FETCH_FAILED"
	CodeFetchTimeout        Code = "FETCH_TIMEOUT"
	CodePayloadTooLarge     Code = "PAYLOAD_TOO_LARGE"
	CodeDecodeFailed        Code = "DECODE_FAILED"
	CodeExtractionFailed    Code = "EXTRACTION_FAILED"
	CodeInferenceFailed     Code = "INFERENCE_FAILED"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// Error is the typed pipeline failure surfaced to callers. It carries a
// stable code and the originating stage; the wrapped cause stays internal.
type Error struct {
	Code    Code
	Stage   Stage
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s at %s: %s: %v", e.Code, e.Stage, e.Message, e.cause)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a pipeline error without an underlying cause.
func NewError(code Code, stage Stage, message string) *Error {
	return &Error{Code: code, Stage: stage, Message: message}
}

// WrapError builds a pipeline error around an underlying cause.
func WrapError(code Code, stage Stage, message string, cause error) *Error {
	return &Error{Code: code, Stage: stage, Message: message, cause: cause}
}

// AsPipelineError extracts a typed pipeline error from err, if present.
func AsPipelineError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// CodeOf returns the stable code of err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if perr, ok := AsPipelineError(err); ok {
		return perr.Code
	}
	return CodeInternal
}

// Internalize wraps unexpected errors so callers never see untyped failures.
func Internalize(stage Stage, err error) *Error {
	if perr, ok := AsPipelineError(err); ok {
		return perr
	}
	return WrapError(CodeInternal, stage, "unexpected failure", err)
}
