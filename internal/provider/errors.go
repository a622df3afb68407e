package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrMissingAPIKey is returned before any network I/O when the
	// credential is empty.
	ErrMissingAPIKey = errors.New("missing api key")
	// ErrEmptyPrompt is returned before any network I/O when there is
	// nothing to send.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// APIError is a non-transport failure reported by a provider endpoint.
// Status drives retry classification: only 429 is retryable.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// decodeAPIError builds an APIError from a non-2xx response, preferring
// the provider's own error payload ("error.message" or "message") over
// the generic status line.
func decodeAPIError(status int, statusText string, body []byte) *APIError {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error.Message != "" {
			return &APIError{Status: status, Message: parsed.Error.Message}
		}
		if parsed.Message != "" {
			return &APIError{Status: status, Message: parsed.Message}
		}
	}
	return &APIError{
		Status:  status,
		Message: fmt.Sprintf("Provider API error: %d %s", status, statusText),
	}
}

// Retryable reports whether an adapter error is worth retrying:
// rate-limit responses and transport-level failures (connection, DNS,
// timeout). Cancellation is never retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// redactSecret scrubs the credential from an error before it can reach
// logs or run state. Needed because transport errors embed the full
// request URL, which carries the key for query-param auth.
func redactSecret(err error, secret string) error {
	if err == nil || secret == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, secret) {
		return err
	}
	clean := strings.ReplaceAll(msg, secret, "[redacted]")
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &APIError{Status: apiErr.Status, Message: strings.ReplaceAll(apiErr.Message, secret, "[redacted]")}
	}
	return &redactedError{inner: err, msg: clean}
}

// redactedError rewrites the message while keeping the original error
// reachable through Unwrap, so errors.Is (cancellation) and retry
// classification still see the underlying cause.
type redactedError struct {
	inner error
	msg   string
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.inner }
