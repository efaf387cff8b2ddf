package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.RemoteJobClient = (*Client)(nil)

const (
	// DefaultTimeout applies when a call passes no timeout.
	DefaultTimeout = 30 * time.Second

	// FallbackMessage is surfaced when a failed envelope carries no message.
	FallbackMessage = "request failed"

	// maxBodySize bounds response bodies read into memory.
	maxBodySize = 16 << 20
)

// ActionClass groups actions that share an authentication token.
type ActionClass string

const (
	ClassSync  ActionClass = "sync"
	ClassFiles ActionClass = "files"
)

// Config holds configuration for the remote client.
type Config struct {
	// Endpoint is the URL every action is posted to.
	Endpoint string

	// BearerToken, when set, is sent as an OAuth2 bearer token.
	BearerToken string

	// SyncToken is the nonce for sync actions.
	SyncToken string

	// FilesToken is the nonce for file actions.
	FilesToken string

	// RateLimit caps requests per second (0 = unlimited).
	RateLimit float64

	// HTTPClient overrides the base HTTP client.
	HTTPClient *http.Client
}

// ConfigFrom converts remote settings into a client config.
func ConfigFrom(s domain.RemoteSettings) Config {
	return Config{
		Endpoint:    s.Endpoint,
		BearerToken: s.BearerToken,
		SyncToken:   s.SyncToken,
		FilesToken:  s.FilesToken,
		RateLimit:   s.RateLimit,
	}
}

// Client posts actions to the remote endpoint.
type Client struct {
	endpoint string
	tokens   map[ActionClass]string
	http     *http.Client
	limiter  *RateLimiter
}

// NewClient creates a new remote client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: remote endpoint is not configured", domain.ErrInvalidInput)
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid remote endpoint %q", domain.ErrInvalidInput, cfg.Endpoint)
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	httpClient := base
	if cfg.BearerToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		ts := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.BearerToken,
			TokenType:   "Bearer",
		})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	return &Client{
		endpoint: cfg.Endpoint,
		tokens: map[ActionClass]string{
			ClassSync:  cfg.SyncToken,
			ClassFiles: cfg.FilesToken,
		},
		http:    httpClient,
		limiter: NewRateLimiter(cfg.RateLimit),
	}, nil
}

// Call performs one round trip for action.
func (c *Client) Call(
	ctx context.Context,
	action string,
	payload map[string]string,
	timeout time.Duration,
) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classify(ctx, action, timeout, err)
	}

	form := url.Values{}
	for k, v := range payload {
		form.Set(k, v)
	}
	form.Set("action", action)
	form.Set("nonce", c.tokens[ClassOf(action)])

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, action, timeout, err)
	}
	defer resp.Body.Close()

	c.limiter.Observe(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, classify(ctx, action, timeout, err)
	}
	logger.Debug("%s: HTTP %d in %s", action, resp.StatusCode, time.Since(started).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.HTTPError{Action: action, StatusCode: resp.StatusCode}
	}
	return decodeEnvelope(action, body)
}

// classify maps a failed round trip to the timeout or transport error.
func classify(ctx context.Context, action string, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.TimeoutError{Action: action, Timeout: timeout}
	}
	return &domain.TransportError{Action: action, Err: err}
}

// envelope is the response wrapper used by every action.
type envelope struct {
	Success *flexBool       `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// decodeEnvelope returns data for a successful envelope and an
// ApplicationError otherwise.
func decodeEnvelope(action string, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Debug("%s: undecodable response: %v", action, err)
		return nil, &domain.ApplicationError{Action: action, Message: FallbackMessage}
	}
	if env.Success == nil || !bool(*env.Success) {
		msg := messageFrom(env.Error)
		if msg == "" {
			msg = messageFrom(env.Data)
		}
		if msg == "" {
			msg = FallbackMessage
		}
		return nil, &domain.ApplicationError{Action: action, Message: msg}
	}
	return env.Data, nil
}

// messageFrom extracts a message from a string or {message} value.
func messageFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
