// Package client is a typed wrapper over the CRM REST API.
//
// Every call attaches the current bearer token when one is available, parses
// the JSON body regardless of status, and turns non-2xx responses into
// *HTTPError. There are no retries, no backoff and no request deduplication;
// the caller's context is the only way a request is cancelled.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/go-querystring/query"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"leadboard/domain"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000/api"

const tracerName = "leadboard/client"

var (
	ErrMissingID    = errors.New("missing id")
	ErrInvalidIndex = errors.New("invalid index")
)

// TokenSource supplies the bearer token for each request. An empty token
// means the request goes out unauthenticated; rejecting it is the server's
// job.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Client talks to the CRM backend.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	log     *log.Logger
	tp      trace.TracerProvider
}

type Option func(*Client)

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTracerProvider pins a tracer provider. Without it the global provider
// is looked up on every call.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tp = tp }
}

// New creates a Client for baseURL, e.g. "http://localhost:8000/api".
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string { return e.Message }

// StatusCode extracts the HTTP status from err, or 0 when err is not an
// *HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

type rawEnvelope struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message"`
	Data       sonic.NoCopyRawMessage `json:"data"`
	Pagination *domain.Pagination     `json:"pagination"`
}

// request describes one API call. route is the templated path used for
// spans and logs; path is the concrete one.
type request struct {
	method string
	route  string
	path   string
	query  any
	body   any
	// raw bodies bypass JSON encoding (multipart uploads)
	rawBody     io.Reader
	contentType string
}

// call performs req and decodes the envelope's data into out (when non-nil).
func (c *Client) call(ctx context.Context, req request, out any) (*domain.Pagination, error) {
	payload, status, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var env rawEnvelope
	parseErr := sonic.Unmarshal(payload, &env)
	if status < 200 || status >= 300 {
		return nil, newHTTPError(status, env.Message, parseErr == nil, payload)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	if parseErr != nil {
		return nil, fmt.Errorf("%s %s: decode response: %w", req.method, req.route, parseErr)
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := sonic.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("%s %s: decode data: %w", req.method, req.route, err)
		}
	}
	return env.Pagination, nil
}

// callRaw performs req and returns the body untouched on success. Error
// bodies are still parsed for their message.
func (c *Client) callRaw(ctx context.Context, req request) ([]byte, error) {
	payload, status, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		var env rawEnvelope
		parseErr := sonic.Unmarshal(payload, &env)
		return nil, newHTTPError(status, env.Message, parseErr == nil, payload)
	}
	return payload, nil
}

func newHTTPError(status int, message string, parsed bool, body []byte) *HTTPError {
	if !parsed || message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return &HTTPError{Status: status, Message: message, Body: body}
}

func (c *Client) send(ctx context.Context, req request) (payload []byte, status int, err error) {
	tp := c.tp
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	ctx, span := tp.Tracer(tracerName).Start(ctx, req.method+" "+req.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("http.route", req.route),
		))
	start := time.Now()
	defer func() {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if err == nil && status >= 400 {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		fields := log.Fields{
			"method":      req.method,
			"route":       req.route,
			"status":      status,
			"duration_ms": float64(time.Since(start)) / float64(time.Millisecond),
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		c.log.WithFields(fields).Debug("api.request")
	}()

	target := c.baseURL + req.path
	if req.query != nil {
		values, qerr := query.Values(req.query)
		if qerr != nil {
			return nil, 0, fmt.Errorf("%s %s: encode query: %w", req.method, req.route, qerr)
		}
		if enc := values.Encode(); enc != "" {
			target += "?" + enc
		}
	}

	var body io.Reader
	contentType := req.contentType
	switch {
	case req.rawBody != nil:
		body = req.rawBody
	case req.body != nil:
		data, merr := sonic.Marshal(req.body)
		if merr != nil {
			return nil, 0, fmt.Errorf("%s %s: encode body: %w", req.method, req.route, merr)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", req.method, req.route, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", req.method, req.route, err)
	}
	defer resp.Body.Close()

	payload, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: read body: %w", req.method, req.route, err)
	}
	return payload, resp.StatusCode, nil
}
