package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category surfaced to API callers.
type Code string

const (
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeNotFound            Code = "NOT_FOUND"
	CodeInsufficientCredits Code = "INSUFFICIENT_CREDITS"
	CodeEmptyInstruction    Code = "EMPTY_INSTRUCTION"
	CodeInvalidAction       Code = "INVALID_ACTION"
	CodeValidation          Code = "VALIDATION_FAILED"
	CodeGenerationFailed    Code = "GENERATION_FAILED"
	CodeNoArtifact          Code = "NO_ARTIFACT"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeConflict            Code = "CONFLICT"
	CodeInternal            Code = "INTERNAL"
)

// AppError is the typed error every layer returns for caller-visible failures.
// Data carries an optional payload (e.g. the previous artifact after a failed modification).
type AppError struct {
	Code    Code
	Status  int
	Message string
	Data    any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so errors.Is(err, ErrNotFound) works for any NotFound.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithData returns a copy carrying data.
func (e *AppError) WithData(data any) *AppError {
	cp := *e
	cp.Data = data
	return &cp
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthorized        = &AppError{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrNotFound            = &AppError{Code: CodeNotFound, Status: http.StatusNotFound, Message: "Not found"}
	ErrInsufficientCredits = &AppError{Code: CodeInsufficientCredits, Status: http.StatusPaymentRequired, Message: "Insufficient credits"}
	ErrEmptyInstruction    = &AppError{Code: CodeEmptyInstruction, Status: http.StatusBadRequest, Message: "Modification instruction cannot be empty"}
	ErrInvalidAction       = &AppError{Code: CodeInvalidAction, Status: http.StatusBadRequest, Message: "Invalid action"}
	ErrValidation          = &AppError{Code: CodeValidation, Status: http.StatusBadRequest, Message: "Validation failed"}
	ErrGenerationFailed    = &AppError{Code: CodeGenerationFailed, Status: http.StatusUnprocessableEntity, Message: "Failed to generate visualization"}
	ErrNoArtifact          = &AppError{Code: CodeNoArtifact, Status: http.StatusUnprocessableEntity, Message: "Sorry, no visualizations could be generated. You can try modifying the request."}
	ErrUpstreamUnavailable = &AppError{Code: CodeUpstreamUnavailable, Status: http.StatusServiceUnavailable, Message: "Generation service unavailable"}
	ErrConflict            = &AppError{Code: CodeConflict, Status: http.StatusConflict, Message: "Concurrent update conflict"}
)

func NotFound(what string) *AppError {
	return &AppError{Code: CodeNotFound, Status: http.StatusNotFound, Message: what + " not found"}
}

func UserNotFound() *AppError {
	return NotFound("User")
}

func SessionNotFound() *AppError {
	return NotFound("Session")
}

func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Status: http.StatusBadRequest, Message: message}
}

func GenerationFailed(message string, err error) *AppError {
	if message == "" {
		message = ErrGenerationFailed.Message
	}
	return &AppError{Code: CodeGenerationFailed, Status: http.StatusUnprocessableEntity, Message: message, Err: err}
}

func NoArtifact() *AppError {
	cp := *ErrNoArtifact
	return &cp
}

func UpstreamUnavailable(err error) *AppError {
	return &AppError{Code: CodeUpstreamUnavailable, Status: http.StatusServiceUnavailable, Message: ErrUpstreamUnavailable.Message, Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// IsGenerationError reports whether err is a gateway failure that must leave state untouched.
func IsGenerationError(err error) bool {
	return errors.Is(err, ErrGenerationFailed) || errors.Is(err, ErrNoArtifact) || errors.Is(err, ErrUpstreamUnavailable)
}

// As extracts an *AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
