package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// QuotaExhaustedCode is the provider's error code for a spent request quota
const QuotaExhaustedCode = "OUT_OF_USAGE_CREDITS"

// APIError is a non-success response from the odds provider, or a transport
// failure when StatusCode is zero.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"error_code,omitempty"`
	Message    string `json:"message"`
	Endpoint   string `json:"endpoint"`
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("odds api %s: %s", e.Endpoint, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("odds api %s: status=%d code=%s: %s", e.Endpoint, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("odds api %s: status=%d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Temporary reports whether the failure may succeed on retry
func (e *APIError) Temporary() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// QuotaExhausted reports whether the provider rejected the call for lack of credits
func (e *APIError) QuotaExhausted() bool {
	return e.StatusCode == http.StatusUnauthorized && e.Code == QuotaExhaustedCode
}

// IsTemporary reports whether err wraps a retryable provider failure
func IsTemporary(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}

// IsQuotaExhausted reports whether err wraps a quota exhaustion response
func IsQuotaExhausted(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.QuotaExhausted()
}
