// Package apiclient talks to the document backend's REST API. Every call
// carries the bearer token of the bound session; a 401 answer tears that
// session down and surfaces as an UNAUTHORIZED error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"ctdportal/infrastructure/session"
	apperrors "ctdportal/pkg/errors"
	"ctdportal/pkg/observability"
)

const maxResponseBytes = 16 << 20

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Breaker    BreakerConfig
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *observability.Collector
}

// Client is the backend API client. The zero session is anonymous; use
// WithSession to bind one. Copies share the HTTP client and circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *observability.Collector
	session *session.Session
}

// New creates a client for the backend rooted at opts.BaseURL (for example
// "http://localhost:8080/api").
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	breakerCfg := opts.Breaker
	if breakerCfg.FailureThreshold == 0 {
		breakerCfg = DefaultBreakerConfig(breakerCfg.Name)
	}
	if breakerCfg.Name == "" {
		breakerCfg.Name = "document-backend"
	}

	return &Client{
		baseURL: strings.TrimSuffix(u.String(), "/"),
		http:    httpClient,
		breaker: newBreaker(breakerCfg, logger, opts.Metrics),
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// WithSession returns a copy of the client that authenticates as s.
func (c *Client) WithSession(s *session.Session) *Client {
	bound := *c
	bound.session = s
	return &bound
}

// Session returns the bound session, possibly nil.
func (c *Client) Session() *session.Session {
	return c.session
}

// call describes one backend request. endpoint is the route template used as
// the metrics label.
type call struct {
	method   string
	path     string
	endpoint string
	body     interface{}
	out      interface{}
}

type rawResponse struct {
	status int
	body   []byte
}

// serverError marks a 5xx answer so the breaker counts it as a failure.
type serverError struct {
	resp *rawResponse
}

func (e *serverError) Error() string {
	return fmt.Sprintf("backend returned %d", e.resp.status)
}

func (c *Client) do(ctx context.Context, cl call) error {
	start := time.Now()
	requestID := middleware.GetReqID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, span := observability.Tracer().Start(ctx, cl.method+" "+cl.endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("url.template", cl.endpoint),
			attribute.String("http.request_id", requestID),
		),
	)
	defer span.End()

	var payload []byte
	if cl.body != nil {
		var err error
		if payload, err = json.Marshal(cl.body); err != nil {
			return apperrors.NewInternalError("failed to encode request").WithCause(err)
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.session != nil {
			if token := c.session.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}

		raw := &rawResponse{status: resp.StatusCode, body: data}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &serverError{resp: raw}
		}
		return raw, nil
	})

	var raw *rawResponse
	var srvErr *serverError
	switch {
	case err == nil:
		raw = result.(*rawResponse)
	case errors.As(err, &srvErr):
		raw = srvErr.resp
	default:
		c.metrics.ObserveUpstream(cl.method, cl.endpoint, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return c.transportError(ctx, cl, requestID, err)
	}

	c.metrics.ObserveUpstream(cl.method, cl.endpoint, raw.status, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", raw.status))
	if raw.status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(raw.status))
	}
	c.logger.Debug("Backend call",
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", raw.status),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)),
	)

	if raw.status >= 200 && raw.status < 300 {
		if cl.out == nil || len(bytes.TrimSpace(raw.body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw.body, cl.out); err != nil {
			return apperrors.NewExternalError("document backend", err).WithEndpoint(cl.endpoint)
		}
		return nil
	}

	return c.statusError(cl, raw)
}

func (c *Client) statusError(cl call, raw *rawResponse) error {
	message := errorMessage(raw.body)

	if raw.status == http.StatusUnauthorized {
		if c.session != nil && c.session.IsAuthenticated() {
			c.session.Clear()
			c.metrics.SessionCleared()
		}
		if message == "" {
			message = "session expired, please log in again"
		}
		return apperrors.NewUnauthorizedError(message)
	}

	if raw.status >= http.StatusInternalServerError {
		c.logger.Warn("Backend error",
			zap.String("method", cl.method),
			zap.String("endpoint", cl.endpoint),
			zap.Int("status", raw.status),
			zap.String("message", message),
		)
	}
	return apperrors.FromStatus(raw.status, message).WithEndpoint(cl.endpoint)
}

func (c *Client) transportError(ctx context.Context, cl call, requestID string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperrors.NewUnavailableError("document backend").WithCause(err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.NewTimeoutError(cl.method + " " + cl.endpoint).WithCause(err)
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTimeoutError(cl.method + " " + cl.endpoint).WithCause(err)
	}

	c.logger.Warn("Backend unreachable",
		zap.String("method", cl.method),
		zap.String("endpoint", cl.endpoint),
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	return apperrors.NewNetworkError("document backend unreachable", err)
}

// errorMessage extracts {"message"}, {"error"} or {"errors":{field:msg}} from
// a backend error body.
func errorMessage(body []byte) string {
	var parsed struct {
		Message string            `json:"message"`
		Error   string            `json:"error"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return strings.TrimSpace(string(body))
	}

	switch {
	case parsed.Message != "":
		return parsed.Message
	case parsed.Error != "":
		return parsed.Error
	case len(parsed.Errors) > 0:
		fields := make([]string, 0, len(parsed.Errors))
		for field := range parsed.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f+": "+parsed.Errors[f])
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// Health reports whether the backend answers at all. The probe is anonymous
// and any non-5xx response counts as reachable.
func (c *Client) Health(ctx context.Context) error {
	anon := *c
	anon.session = nil

	err := anon.do(ctx, call{method: http.MethodGet, path: "/documents", endpoint: "/documents"})
	if appErr := apperrors.GetAppError(err); appErr != nil && appErr.HTTPStatus < http.StatusInternalServerError {
		return nil
	}
	return err
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
