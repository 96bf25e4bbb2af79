package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// APIError represents a non-2xx response from the analysis service.
type APIError struct {
	StatusCode int            `json:"-"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
	RequestID  string         `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		if e.RequestID != "" {
			return fmt.Sprintf("api error: status=%d request_id=%s message=%s", e.StatusCode, e.RequestID, e.Message)
		}
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("api error: status=%d request_id=%s", e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// BadRequestError indicates a 4xx problem with what was sent (empty query, no dataset yet, ...).
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// ServerError indicates 5xx errors from the analysis service.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("service error: %s", e.APIError.Error()) }

// UnreachableError indicates the analysis service could not be contacted.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("analysis service unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("analysis service unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// SchemaError reports a 2xx payload that does not match the declared response shape.
type SchemaError struct {
	Endpoint string
	Field    string
	Err      error
}

func (e *SchemaError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("malformed %s response: field %q: %v", e.Endpoint, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("malformed %s response: missing field %q", e.Endpoint, e.Field)
	default:
		return fmt.Sprintf("malformed %s response: %v", e.Endpoint, e.Err)
	}
}

func (e *SchemaError) Unwrap() error { return e.Err }

// readAPIError drains a non-2xx response into a classified error.
func readAPIError(resp *http.Response, requestID string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: requestID}
	apiErr.Message = extractMessage(raw)
	if apiErr.Message == "" {
		apiErr.Message = truncate(strings.TrimSpace(string(body)), maxErrorMessageRunes)
	}
	return classifyAPIError(apiErr)
}

const maxErrorMessageRunes = 200

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// extractMessage looks for the usual error shapes: {"message"}, {"error": "..."},
// {"error": {"message"}} and {"detail": "..."}.
func extractMessage(raw map[string]any) string {
	if raw == nil {
		return ""
	}
	if msg, ok := raw["message"].(string); ok && msg != "" {
		return msg
	}
	switch v := raw["error"].(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	if d, ok := raw["detail"].(string); ok {
		return d
	}
	return ""
}

func classifyAPIError(apiErr *APIError) error {
	sc := apiErr.StatusCode
	switch {
	case sc >= 400 && sc <= 499:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

// extractRequestID prefers the id echoed by the server over the one we sent.
func extractRequestID(resp *http.Response, sent string) string {
	if resp != nil {
		for _, k := range []string{"X-Request-Id", "X-Correlation-Id"} {
			if v := resp.Header.Get(k); v != "" {
				return v
			}
		}
	}
	return sent
}
