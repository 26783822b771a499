package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ProviderError is returned by every provider implementation.
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeAPIKey        = "invalid_api_key"
	ErrCodeRateLimit     = "rate_limit_exceeded"
	ErrCodeServiceDown   = "service_unavailable"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeTimeout       = "timeout"
	ErrCodeEmptyResponse = "empty_response"
)

// codeForStatus maps an HTTP status from a provider to an error code.
func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeAPIKey
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status >= 500:
		return ErrCodeServiceDown
	default:
		return ErrCodeInvalidInput
	}
}

// Retryable reports whether err is worth another attempt. Context
// cancellation and client-side errors never are.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Code {
		case ErrCodeRateLimit, ErrCodeServiceDown, ErrCodeTimeout, ErrCodeEmptyResponse:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"timeout", "connection", "network", "temporary", "429", "500", "502", "503", "504"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
