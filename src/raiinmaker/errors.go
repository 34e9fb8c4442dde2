package raiinmaker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is returned for every failure that involved the remote service:
// non-2xx responses, undecodable bodies and envelopes missing required fields.
type APIError struct {
	Status   int
	Endpoint string
	Details  any
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("raiinmaker: ")
	b.WriteString(e.Endpoint)
	b.WriteString(" failed")
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if detail := describeDetails(e.Details); detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
	}
	return b.String()
}

// Unwrap exposes a wrapped cause when Details holds an error.
func (e *APIError) Unwrap() error {
	if err, ok := e.Details.(error); ok {
		return err
	}
	return nil
}

// ValidationError is raised before any network attempt when a required
// input is missing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "raiinmaker: " + e.Message
	}
	return fmt.Sprintf("raiinmaker: %s: %s", e.Field, e.Message)
}

// IsAPIError reports whether err came from the remote service.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsValidationError reports whether err is a local validation failure.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func newAPIError(endpoint string, status int, body []byte) *APIError {
	return &APIError{Status: status, Endpoint: endpoint, Details: parseDetails(body)}
}

// parseDetails keeps the decoded error body when it is JSON and the raw text
// otherwise.
func parseDetails(body []byte) any {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return decoded
	}
	return trimmed
}

func describeDetails(details any) string {
	switch d := details.(type) {
	case nil:
		return ""
	case error:
		return d.Error()
	case string:
		return truncate(d, 200)
	case map[string]any:
		for _, key := range []string{"message", "error", "msg"} {
			if v, ok := d[key].(string); ok && v != "" {
				return truncate(v, 200)
			}
		}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprintf("%v", details)
	}
	return truncate(string(b), 200)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
