package discord

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
)

// APIError is a non-2xx response from the Discord API.
// Code is Discord's JSON error code, which is zero for responses without a body.
type APIError struct {
	Status  int
	Code    int
	Message string
	Errors  field.Data
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord api error: status %d, code %d: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("discord api error: status %d: %s", e.Status, e.Message)
}

// Is maps well-known statuses onto the shared error kinds.
func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == shared.ErrNotFound
	case http.StatusUnauthorized:
		return target == shared.ErrUnauthorized
	case http.StatusForbidden:
		return target == shared.ErrForbidden
	}
	if e.Status >= 500 {
		return target == shared.ErrServiceUnavailable
	}
	return false
}

// ServerError reports whether the response was a 5xx.
func (e *APIError) ServerError() bool {
	return e.Status >= 500
}

// parseAPIError builds an APIError from a response body. Bodies that are not
// Discord's error object keep the HTTP status text as the message.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	if len(body) == 0 {
		return apiErr
	}

	data, err := field.Decode(body)
	if err != nil {
		return apiErr
	}
	if code, ok := field.Int64(data["code"]); ok {
		apiErr.Code = int(code)
	}
	if msg, ok := data["message"].(string); ok && msg != "" {
		apiErr.Message = msg
	}
	if nested, ok := field.Object(data["errors"]); ok {
		apiErr.Errors = nested
	}
	return apiErr
}

// RateLimitError is returned for a 429 response.
type RateLimitError struct {
	RetryAfter time.Duration
	Global     bool
	Bucket     string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	scope := "route"
	if e.Global {
		scope = "global"
	}
	return fmt.Sprintf("discord %s rate limit hit, retry after %s", scope, e.RetryAfter)
}

// Unwrap returns shared.ErrDiscordRateLimited so callers can use errors.Is.
func (e *RateLimitError) Unwrap() error {
	return shared.ErrDiscordRateLimited
}

// RetryDelay tells the retrier to wait at least as long as Discord asked.
func (e *RateLimitError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// isClientError reports whether err is a 4xx other than 429. Those never
// succeed on retry and say nothing about API health.
func isClientError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 400 && apiErr.Status < 500
	}
	return false
}
