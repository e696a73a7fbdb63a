// Package api is the HTTP client for the job board REST API.
// Every call takes a context, blocks on the calling goroutine, and reports
// failures as *Error.
package api

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 60 * time.Second

// DefaultUserAgent is the user agent string for API requests.
const DefaultUserAgent = "jobboard-cli/1.0"

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies the current auth token. An empty token sends no
// Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed token.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token() string { return string(t) }

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token calls f.
func (f TokenFunc) Token() string { return f() }

// Options configures the client.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DefaultOptions returns sensible defaults for the client.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client talks to one backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  TokenSource
	agent   string
	headers map[string]string
	logger  *zap.Logger
}

// New creates a client for the REST root baseURL, e.g. http://127.0.0.1:8000/api.
// tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	agent := opts.UserAgent
	if agent == "" {
		agent = DefaultUserAgent
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if tokens == nil {
		tokens = StaticToken("")
	}

	return &Client{
		base:    parsed,
		http:    httpClient,
		tokens:  tokens,
		agent:   agent,
		headers: opts.Headers,
		logger:  logger,
	}, nil
}

// BaseURL returns the REST root the client talks to.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

// request is one prepared call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	token       string
}

// response is the raw successful result.
type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, r request) (*response, error) {
	target := c.base.ResolveReference(&url.URL{Path: r.path})
	if len(r.query) > 0 {
		target.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target.String(), r.body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: r.method, Path: r.path, Message: "failed to create request", Cause: err}
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.agent)
	req.Header.Set(RequestIDHeader, requestID)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	token := r.token
	if token == "" {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api call failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, &Error{Kind: KindTransport, Method: r.method, Path: r.path, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: r.method, Path: r.path, Status: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	c.logger.Debug("api call",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(r.method, r.path, resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// call sends in as JSON (when non-nil) and decodes the reply into out (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	r := request{method: method, path: path, query: query}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindValidation, Method: method, Path: path, Message: "failed to encode request", Cause: err}
		}
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return decode(method, path, resp, out)
}

func decode(method, path string, resp *response, out any) error {
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &Error{
			Kind:    KindServer,
			Method:  method,
			Path:    path,
			Status:  resp.status,
			Message: fmt.Sprintf("server error (%d)", resp.status),
			Detail:  "unreadable response body",
			Cause:   err,
		}
	}
	return nil
}
