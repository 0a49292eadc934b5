package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError represents a structured error response from the triplewalk API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("triplewalk: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("triplewalk: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound returns true if the error is a 404 not found.
func IsNotFound(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == 404
	}
	return false
}

// IsValidation returns true if the server rejected the request as invalid.
func IsValidation(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == 400
	}
	return false
}

// IsUnavailable returns true if the server could not reach its graph store.
func IsUnavailable(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == 503
	}
	return false
}

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == 429
	}
	return false
}

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
