package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ninjabase8085/pushapp/internal/async"
)

const (
	defaultAPIPath = "/pushapp/api"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// ErrDecode marks a 2xx response whose body could not be decoded.
var ErrDecode = errors.New("decode response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("POST %s: %d %s", e.Path, e.Code, e.Body)
}

// Client makes the SDK's REST calls against one tenant server.
type Client struct {
	baseURL string
	apiPath string
	client  *http.Client
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client = &http.Client{Timeout: d}
		}
	}
}

// WithAPIPath overrides the "/pushapp/api" prefix.
func WithAPIPath(p string) Option {
	return func(c *Client) { c.apiPath = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client targeting baseURL (e.g. "https://acme.mehery.com").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiPath: defaultAPIPath,
		client:  &http.Client{Timeout: defaultTimeout},
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "delivery")
	return c
}

// URL returns the absolute URL for an endpoint path.
func (c *Client) URL(path string) string {
	return c.baseURL + c.apiPath + path
}

// RegisterDevice sends POST /register.
func (c *Client) RegisterDevice(ctx context.Context, req RegisterDeviceRequest) *async.Future[RegisterDeviceResponse] {
	return async.Go(ctx, func(ctx context.Context) (RegisterDeviceResponse, error) {
		var out RegisterDeviceResponse
		err := c.post(ctx, PathRegister, req, &out)
		return out, err
	})
}

// RegisterUser sends POST /register/user. Only the status is checked.
func (c *Client) RegisterUser(ctx context.Context, req RegisterUserRequest) *async.Future[struct{}] {
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.post(ctx, PathRegisterUser, req, nil)
	})
}

// PostEvent sends POST /events. Only the status is checked.
func (c *Client) PostEvent(ctx context.Context, req EventRequest) *async.Future[struct{}] {
	if req.EventData == nil {
		req.EventData = map[string]any{}
	}
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.post(ctx, PathEvents, req, nil)
	})
}

// PollInApp sends POST /poll/in-app.
func (c *Client) PollInApp(ctx context.Context, req PollRequest) *async.Future[PollResponse] {
	return async.Go(ctx, func(ctx context.Context) (PollResponse, error) {
		var out PollResponse
		err := c.post(ctx, PathPollInApp, req, &out)
		return out, err
	})
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request done", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("POST %s: %w: %v", path, ErrDecode, err)
	}
	return nil
}
