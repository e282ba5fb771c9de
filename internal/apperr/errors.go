package apperr

import (
	"errors"
	"fmt"
)

// ValidationError represents a rejected upload or bad request input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// MissingCredentialError means the selected provider has no usable API key.
type MissingCredentialError struct {
	Provider string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential for provider %s", e.Provider)
}

// UpstreamError represents a failed provider call or subprocess tool run.
// Body carries a redacted excerpt of the upstream payload for diagnosis.
type UpstreamError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s: HTTP %d: %s", e.Source, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upstream %s: %s", e.Source, e.Body)
}

// QuotaExceededError is returned when the daily limit is reached. It always
// carries the remaining count (0) and a share link to raise the quota.
type QuotaExceededError struct {
	Remaining int
	ShareLink string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily quota exceeded (remaining %d)", e.Remaining)
}

// ToolUnavailableError means a required external interpreter or tool was not
// found, possibly after an attempted install.
type ToolUnavailableError struct {
	Tool   string
	Detail string
}

func (e *ToolUnavailableError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("tool %s unavailable: %s", e.Tool, e.Detail)
	}
	return fmt.Sprintf("tool %s unavailable", e.Tool)
}

func IsValidation(err error) bool {
	var t *ValidationError
	return errors.As(err, &t)
}

func IsMissingCredential(err error) bool {
	var t *MissingCredentialError
	return errors.As(err, &t)
}

func IsUpstream(err error) bool {
	var t *UpstreamError
	return errors.As(err, &t)
}

func IsQuotaExceeded(err error) bool {
	var t *QuotaExceededError
	return errors.As(err, &t)
}

func IsToolUnavailable(err error) bool {
	var t *ToolUnavailableError
	return errors.As(err, &t)
}
