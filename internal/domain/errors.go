package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so copies produced by
// WithError still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// CaptureError turns a capture-quality rejection into an actionable error for
// paths that report rejections as errors rather than guidance results
func CaptureError(outcome CaptureOutcome) *AppError {
	return &AppError{
		Code:       string(outcome),
		Message:    outcome.GuidanceMessage(),
		StatusCode: 422,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API key",
		StatusCode: 401,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrSessionNotFound = &AppError{
		Code:       "SESSION_NOT_FOUND",
		Message:    "Enrollment session not found or expired",
		StatusCode: 404,
	}

	ErrSessionFinished = &AppError{
		Code:       "SESSION_FINISHED",
		Message:    "Enrollment session already finished",
		StatusCode: 409,
	}

	ErrTemplateNotFound = &AppError{
		Code:       "TEMPLATE_NOT_FOUND",
		Message:    "No biometric template registered for this subject",
		StatusCode: 404,
	}

	// Sequence-integrity and contract errors deliberately share a generic
	// user-facing message so a failed spoofing attempt learns nothing about
	// which internal check tripped.
	ErrVerificationFailed = &AppError{
		Code:       "VERIFICATION_FAILED",
		Message:    "Verification failed, please retry",
		StatusCode: 422,
	}

	ErrInvalidTemplate = &AppError{
		Code:       "INVALID_TEMPLATE",
		Message:    "Verification failed, please retry",
		StatusCode: 422,
	}

	ErrNoProbe = &AppError{
		Code:       "NO_PROBE",
		Message:    "Verification failed, please retry",
		StatusCode: 422,
	}

	ErrProviderUnavailable = &AppError{
		Code:       "PROVIDER_UNAVAILABLE",
		Message:    "Verification failed, please retry",
		StatusCode: 503,
	}
)
