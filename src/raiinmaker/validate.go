package raiinmaker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const endpointValidate = "getDataVerification"

// Display layouts for the locally generated timestamp of a data verification.
const (
	DisplayDateLayout = "January 2, 2006"
	DisplayTimeLayout = "3:04:05 PM"
)

type validateRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// GetDataVerification asks the classifier endpoint about content accuracy.
// Network failures and non-2xx responses are retried with exponential
// backoff; the last error is returned once the attempts run out.
func (c *Client) GetDataVerification(ctx context.Context, content string) (*DataVerification, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Message: "content is required"}
	}

	payload, err := json.Marshal(validateRequest{Content: content, Type: "text"})
	if err != nil {
		return nil, &APIError{Endpoint: endpointValidate, Details: fmt.Errorf("marshal body: %w", err)}
	}

	attempt := 0
	status, body, err := c.retry.Do(ctx, func() (int, []byte, error) {
		attempt++
		status, body, err := c.roundTrip(ctx, request{
			method:      http.MethodPost,
			path:        "/validate",
			body:        bytes.NewReader(payload),
			contentType: "application/json",
		})
		if err != nil || !successful(status) {
			c.logger.Warn("data verification attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("status", status),
				zap.Error(err))
		}
		return status, body, err
	})
	if err != nil {
		return nil, &APIError{Status: status, Endpoint: endpointValidate, Details: err}
	}
	if !successful(status) {
		return nil, newAPIError(endpointValidate, status, body)
	}

	var result struct {
		Classification string `json:"classification"`
		Message        string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &APIError{Status: status, Endpoint: endpointValidate, Details: fmt.Errorf("decode response: %w", err)}
	}

	now := c.now()
	return &DataVerification{
		Classification: result.Classification,
		Message:        result.Message,
		Date:           now.Format(DisplayDateLayout),
		Time:           now.Format(DisplayTimeLayout),
	}, nil
}
