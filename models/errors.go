package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeMissingKey   = "CONFIG_MISSING_KEY"
	ErrCodeFetch        = "FETCH_FAILED"
	ErrCodeExtraction   = "EXTRACTION_FAILED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Provider-related error codes.
	ErrCodeProviderMalformed   = "PROVIDER_MALFORMED"
	ErrCodeProviderEmpty       = "PROVIDER_EMPTY"
	ErrCodeProviderAuthFailure = "PROVIDER_AUTH_FAILURE"
	ErrCodeProviderRateLimited = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderFailure     = "PROVIDER_FAILURE"

	// Pipeline stage failures carry the stage name in the message.
	ErrCodePipelineStage = "PIPELINE_STAGE_FAILED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GenError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type GenError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *GenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GenError) Unwrap() error {
	return e.Err
}

// NewGenError creates a new GenError.
func NewGenError(code, message string, err error) *GenError {
	return &GenError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *GenError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
