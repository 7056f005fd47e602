package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/ig-installer/internal/fhir"
	"github.com/oshokin/ig-installer/internal/logger"
	"github.com/oshokin/ig-installer/internal/version"
)

// RequestIDHeader correlates a request with server-side logs.
const RequestIDHeader = "X-Request-ID"

var (
	// ErrRequestFailed wraps network level failures: DNS, refused connections, timeouts, broken bodies.
	ErrRequestFailed = errors.New("request failed")
	// errBaseURLRequired is returned when a required base URL is missing.
	errBaseURLRequired = errors.New("base URL must be provided")
	// errTrackingIDRequired is returned when GetStatus is called without an id.
	errTrackingIDRequired = errors.New("tracking id must be provided")
)

// Response is a raw HTTP response.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body is the complete response body.
	Body []byte
	// RequestID is the X-Request-ID sent with the request.
	RequestID string
}

// Client talks to a single FHIR server.
type Client struct {
	// baseURL is the FHIR base without a trailing slash.
	baseURL string
	// httpClient performs the requests.
	httpClient *http.Client
	// callTimeout bounds each call; zero means no deadline.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a timeout for each call. Zero or negative disables it.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New creates a client for the FHIR server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Submit posts the encoded $install Parameters document.
func (c *Client) Submit(ctx context.Context, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, fhir.InstallOperationPath, body)
}

// GetStatus fetches the Task with the given id.
func (c *Client) GetStatus(ctx context.Context, trackingID string) (*Response, error) {
	if trackingID == "" {
		return nil, errTrackingIDRequired
	}

	return c.do(ctx, http.MethodGet, fhir.TaskPathPrefix+url.PathEscape(trackingID), nil)
}

// do sends one request and reads the whole body before the call context ends.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	var (
		target      = c.baseURL + path
		requestID   = uuid.NewString()
		start       = time.Now()
		requestBody io.Reader
	)

	if body != nil {
		requestBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(callCtx, method, target, requestBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", fhir.MediaType)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(RequestIDHeader, requestID)

	if body != nil {
		req.Header.Set("Content-Type", fhir.MediaType)
	}

	logger.DebugKV(ctx, "Sending request", "method", method, "url", target, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, target, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", ErrRequestFailed, target, err)
	}

	logger.DebugKV(
		ctx,
		"Request completed",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
		"request_id", requestID,
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       contents,
		RequestID:  requestID,
	}, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
