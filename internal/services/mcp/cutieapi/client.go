package cutieapi

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

	"github.com/cuti-e/cutie-mcp/internal/platform/id"
	"github.com/cuti-e/cutie-mcp/internal/platform/timeouts"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the production API host.
	DefaultBaseURL = "https://api.cuti-e.com"

	// RequestIDHeader carries the per-call correlation id.
	RequestIDHeader = "X-Request-Id"

	// errorBodyLimit caps how much of an unstructured error body is surfaced.
	errorBodyLimit = 200

	tracerName = "github.com/cuti-e/cutie-mcp/internal/services/mcp/cutieapi"
)

// Request describes one API call.
type Request struct {
	Method string
	// Path is appended to the base URL and must start with "/".
	Path string
	// Query holds parameters already filtered to non-empty values.
	Query url.Values
	// Body is JSON-encoded for POST, PATCH, and PUT. Nil sends no body.
	Body map[string]any
}

// Response is the outcome of a completed round trip.
type Response struct {
	StatusCode int
	RequestID  string
	// Body is the JSON response, or {"raw": "<text>"} when the body is not JSON.
	Body json.RawMessage
}

// Observer receives one observation per finished round trip. StatusCode is
// zero when no response was received.
type Observer interface {
	ObserveRequest(method string, statusCode int, elapsed time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// WithObserver registers an observer for request metrics.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(next func() (string, error)) Option {
	return func(c *Client) {
		if next != nil {
			c.newRequestID = next
		}
	}
}

// Client talks to the Cuti-E admin API. It is safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	userAgent    string
	httpClient   *http.Client
	observer     Observer
	newRequestID func() (string, error)
}

// New returns a client for baseURL authenticated with apiKey. An empty
// baseURL selects DefaultBaseURL; a trailing slash is stripped.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: timeouts.APIRequest},
		newRequestID: id.NewID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req and returns the decoded response. Non-2xx statuses yield an
// *APIError; the returned Response still carries the request id and body.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	requestID, err := c.newRequestID()
	if err != nil {
		return Response{}, fmt.Errorf("generate request id: %w", err)
	}
	resp := Response{RequestID: requestID}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "cutieapi "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", req.Path),
			attribute.String("cutie.request_id", requestID),
		),
	)
	defer span.End()

	httpReq, err := c.newHTTPRequest(ctx, method, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return resp, err
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	started := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(method, 0, time.Since(started))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return resp, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	defer httpResp.Body.Close()

	text, err := io.ReadAll(httpResp.Body)
	c.observe(method, httpResp.StatusCode, time.Since(started))
	resp.StatusCode = httpResp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return resp, fmt.Errorf("read response body: %w", err)
	}

	resp.Body = decodeBody(text)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: httpResp.StatusCode,
			Message:    errorMessage(httpResp.StatusCode, text),
		}
		span.SetStatus(codes.Error, apiErr.Message)
		return resp, apiErr
	}
	return resp, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if encoded := req.Query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var body io.Reader
	if req.Body != nil && methodAllowsBody(method) {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	return httpReq, nil
}

func (c *Client) observe(method string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, status, elapsed)
	}
}

func methodAllowsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
		return true
	default:
		return false
	}
}

// decodeBody keeps valid JSON as-is and wraps anything else as {"raw": text}.
func decodeBody(text []byte) json.RawMessage {
	if len(bytes.TrimSpace(text)) > 0 && json.Valid(text) {
		return json.RawMessage(text)
	}
	wrapped, err := json.Marshal(map[string]string{"raw": string(text)})
	if err != nil {
		return json.RawMessage(`{"raw":""}`)
	}
	return wrapped
}

// errorMessage prefers the body's "error" field and falls back to a
// truncated view of the raw body.
func errorMessage(status int, text []byte) string {
	if gjson.ValidBytes(text) {
		field := gjson.GetBytes(text, "error")
		switch field.Type {
		case gjson.String:
			if field.Str != "" {
				return field.Str
			}
		case gjson.JSON:
			if message := field.Get("message"); message.Type == gjson.String && message.Str != "" {
				return message.Str
			}
			return field.Raw
		case gjson.Number, gjson.True:
			return field.Raw
		}
	}
	return fmt.Sprintf("HTTP %d: %s", status, truncate(string(text), errorBodyLimit))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
