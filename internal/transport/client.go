package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "usersctl/1.0"
	maxErrorBody     = 64 << 10
)

// Client talks to the users REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the API rooted at baseURL,
// e.g. "http://127.0.0.1:8080/api".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client resolves paths against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// List fetches one page of users. The query is sanitized before it is sent.
func (c *Client) List(ctx context.Context, query model.Query) ([]model.User, error) {
	rel := &url.URL{Path: "users", RawQuery: query.Values().Encode()}

	var users []model.User
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		return []model.User{}, nil
	}
	return users, nil
}

// Create registers a new user.
func (c *Client) Create(ctx context.Context, req model.CreateUserRequest) error {
	return c.do(ctx, http.MethodPost, "users", req)
}

// Update changes the full name and/or password of an existing user.
func (c *Client) Update(ctx context.Context, req model.UpdateUserRequest) error {
	return c.do(ctx, http.MethodPut, "users", req)
}

// Remove deletes the user with the given ID.
func (c *Client) Remove(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "users/"+strconv.FormatInt(id, 10), nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) error {
	return c.doURL(ctx, method, &url.URL{Path: path}, body, nil)
}

// doURL performs the request, unwraps the response envelope and decodes its
// data into dest when dest is non-nil. Every failure is returned as an *Error.
func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body any, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	op := strings.ToLower(method) + " " + reqURL.Path

	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return requestError(op, fmt.Errorf("encode request: %w", err))
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return requestError(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("url", reqURL.String()),
			zap.Error(err),
		)
		return requestError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("url", reqURL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}

	var payload model.APIResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return &Error{Status: resp.StatusCode, Err: fmt.Errorf("%s: decode response: %w", op, err)}
	}
	if !payload.Success {
		return &Error{Status: resp.StatusCode, Message: payload.Message}
	}
	if dest == nil || len(payload.Data) == 0 || string(payload.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload.Data, dest); err != nil {
		return &Error{Status: resp.StatusCode, Err: fmt.Errorf("%s: decode data: %w", op, err)}
	}
	return nil
}

// parseError builds an *Error from a non-2xx response, taking the message
// from the response envelope when there is one.
func parseError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		apiErr.Err = fmt.Errorf("read error response: %w", err)
		return apiErr
	}

	var payload model.APIResponse[json.RawMessage]
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		return apiErr
	}

	apiErr.Err = errors.New("request failed with status code " + strconv.Itoa(resp.StatusCode))
	return apiErr
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("base URL is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", raw)
	}
	// Relative paths resolve beneath the base only with a trailing slash.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
