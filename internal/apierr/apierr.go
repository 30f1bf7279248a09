package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Intake taxonomy. All of these surface synchronously with 4xx semantics.

func InvalidURL(err error) *Error {
	return New(http.StatusBadRequest, "invalid_url", err)
}

func UnsupportedVideoType(kind string) *Error {
	return New(http.StatusBadRequest, "unsupported_video_type", fmt.Errorf("unsupported video type: %s", kind))
}

func UnsupportedLanguage() *Error {
	return New(http.StatusBadRequest, "unsupported_language", errors.New("video has no English caption track and is not marked as English"))
}

func DurationExceeded(duration, max float64) *Error {
	return New(http.StatusBadRequest, "duration_exceeded", fmt.Errorf("video duration %.0fs exceeds maximum allowed %.0fs", duration, max))
}

func MetadataUnavailable(err error) *Error {
	return New(http.StatusBadRequest, "metadata_unavailable", fmt.Errorf("could not fetch video metadata: %w", err))
}

// InsufficientCredits carries the (required, available) pair so handlers can
// return it in the 402 body.
type CreditsError struct {
	APIError  *Error
	Required  int
	Available int
}

func (e *CreditsError) Error() string { return e.APIError.Error() }

func (e *CreditsError) Unwrap() error { return e.APIError }

func InsufficientCredits(required, available int) *CreditsError {
	return &CreditsError{
		APIError: New(http.StatusPaymentRequired, "insufficient_credits",
			fmt.Errorf("insufficient credits: required %d, available %d", required, available)),
		Required:  required,
		Available: available,
	}
}

func NotFound(entity string) *Error {
	return New(http.StatusNotFound, "not_found", fmt.Errorf("%s not found", entity))
}

func TranscriptionFailed(err error) *Error {
	return New(http.StatusInternalServerError, "transcription_failed", err)
}

func LLMSynthesisFailed(err error) *Error {
	return New(http.StatusInternalServerError, "llm_synthesis_failed", err)
}

func DependencyFailure(err error) *Error {
	return New(http.StatusInternalServerError, "dependency_failure", err)
}

// StatusOf maps any error to an HTTP status, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// CodeOf maps any error to a wire code, defaulting to internal_error.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return "internal_error"
}
