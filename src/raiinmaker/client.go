package raiinmaker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stake-plus/raiinmaker-verify/src/webclient"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the staging endpoint of the external API.
	DefaultBaseURL = "https://server-staging.api.raiinmaker.com/external"

	defaultTimeout = 30 * time.Second

	validateAttempts     = 5
	validateInitialDelay = time.Second
)

// Config binds credentials and transport settings to a Client.
type Config struct {
	BaseURL    string
	AppID      string
	AppSecret  string
	HTTPClient *http.Client
	Logger     *zap.Logger
	// Sleep replaces the backoff timer of the retrying calls.
	Sleep webclient.SleepFunc
	// Now replaces the clock used for locally generated timestamps.
	Now func() time.Time
}

// Client talks to the Raiinmaker external API.
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client
	logger     *zap.Logger
	retry      webclient.Retry
	now        func() time.Time
}

// NewClient validates the credentials and returns a ready client. No network
// call is made.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AppID) == "" {
		return nil, &ValidationError{Field: "appId", Message: "application id is required"}
	}
	if strings.TrimSpace(cfg.AppSecret) == "" {
		return nil, &ValidationError{Field: "appSecret", Message: "application secret is required"}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = webclient.NewDefault(defaultTimeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		baseURL:    baseURL,
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		httpClient: httpClient,
		logger:     logger.Named("raiinmaker"),
		retry: webclient.Retry{
			Attempts:     validateAttempts,
			InitialDelay: validateInitialDelay,
			Sleep:        cfg.Sleep,
			ShouldRetry:  webclient.RetryUnsuccessful,
		},
		now: now,
	}, nil
}

// BaseURL returns the endpoint the client is bound to.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(method, path string, payload any) (request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("marshal body: %w", err)
	}
	return request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

// roundTrip performs one request. A transport failure is returned as err with
// a zero status; HTTP failures are reported through the status only.
func (c *Client) roundTrip(ctx context.Context, r request) (int, []byte, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("appId", c.appID)
	req.Header.Set("appSecret", c.appSecret)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("request complete",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode))
	return resp.StatusCode, body, nil
}

// send performs a single-shot call and maps every failure to an APIError.
func (c *Client) send(ctx context.Context, endpoint string, r request) (int, []byte, error) {
	status, body, err := c.roundTrip(ctx, r)
	if err != nil {
		return status, nil, &APIError{Status: status, Endpoint: endpoint, Details: err}
	}
	if !successful(status) {
		return status, nil, newAPIError(endpoint, status, body)
	}
	return status, body, nil
}

func successful(status int) bool {
	return status >= 200 && status <= 299
}

// envelope is the common {success, data} wrapper of the external API.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

func decodeEnvelope(endpoint string, status int, body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &APIError{Status: status, Endpoint: endpoint, Details: fmt.Errorf("decode response: %w", err)}
	}
	return &env, nil
}

// dataObject reports whether raw holds a JSON object.
func dataObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
