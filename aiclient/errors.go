package aiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx answer from the model service.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("ai model service: %d %s", e.StatusCode, msg)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// parseHTTPError extracts FastAPI's "detail" field when present.
func parseHTTPError(status int, raw []byte) *HTTPError {
	body := strings.TrimSpace(string(raw))
	herr := &HTTPError{StatusCode: status, Body: body, Message: body}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			herr.Message = s
		} else {
			herr.Message = string(payload.Detail)
		}
	}
	if len(herr.Body) > 2048 {
		herr.Body = herr.Body[:2048]
	}
	return herr
}
