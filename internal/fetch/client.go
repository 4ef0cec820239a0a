// Package fetch is the client for the Analytics API, the remote service that
// computes z-scores and trade outcomes.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yourorg/hoops-valuation/internal/circuitbreaker"
	"github.com/yourorg/hoops-valuation/internal/config"
	"github.com/yourorg/hoops-valuation/internal/otel"
)

// ErrNoData is returned when the API answers 200 with an error envelope on a
// read endpoint, e.g. {"error": "No data found"}
var ErrNoData = errors.New("analytics api returned no data")

// maxBody caps how much of a response is read
const maxBody = 32 << 20

// Observer receives one call per finished request. status is "ok", "cached",
// "remote_error" or "error".
type Observer interface {
	ObserveRequest(op, status string, elapsed time.Duration)
}

// StatusError is a non-2xx response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512]
	}
	return fmt.Sprintf("analytics api error: status %d, body: %s", e.Code, body)
}

// envelope is the error shape the API uses inside 200 responses
type envelope struct {
	Error            string   `json:"error"`
	ValidationErrors []string `json:"validation_errors"`
}

func (e envelope) failed() bool {
	return e.Error != "" || len(e.ValidationErrors) > 0
}

// statusEnvelope extracts an error envelope from a rejected request's body
func statusEnvelope(err error) (envelope, bool) {
	var se *StatusError
	var env envelope
	if !errors.As(err, &se) || json.Unmarshal([]byte(se.Body), &env) != nil {
		return envelope{}, false
	}
	return env, env.failed()
}

// Options configures a Client
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int

	// Optional collaborators
	Limiter  *rate.Limiter
	Breaker  *circuitbreaker.CircuitBreaker
	Observer Observer
}

// OptionsFromConfig maps service configuration onto client options
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		BaseURL:  cfg.AnalyticsURL,
		Timeout:  cfg.AnalyticsTimeout,
		RetryMax: cfg.RetryMax,
	}
}

// Client talks to the Analytics API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	observer   Observer
}

// NewClient creates an Analytics API client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	retryClient := newRetryClient(opts.RetryMax)
	retryClient.HTTPClient.Timeout = opts.Timeout

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: retryClient.StandardClient(),
		limiter:    opts.Limiter,
		breaker:    opts.Breaker,
		observer:   opts.Observer,
	}
}

// newRetryClient creates an HTTP client that retries network errors and 5xx
func newRetryClient(retryMax int) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	if retryMax < 0 {
		retryMax = 0
	}
	c.RetryMax = retryMax
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = nil
	// Hand back the last 5xx response so its body reaches StatusError
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c
}

// Breaker returns the client's circuit breaker, or nil
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// get performs a cached GET. When the circuit is open, the transport fails
// or the API answers 5xx, the last good payload for the same URL is served.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	body, err := c.do(ctx, op, http.MethodGet, endpoint, nil)
	if err != nil {
		// A 4xx is a real answer; anything else may use the cached copy
		var se *StatusError
		rejected := errors.As(err, &se) && se.Code < http.StatusInternalServerError
		if c.breaker != nil && !rejected {
			if snap, ok := c.breaker.LastGood(endpoint); ok {
				logrus.WithError(err).WithFields(logrus.Fields{
					"op":        op,
					"stored_at": snap.StoredAt.Format(time.RFC3339),
				}).Warn("Serving last good analytics payload")
				c.observe(op, "cached", 0)
				return json.Unmarshal(snap.Payload, out)
			}
		}
		return err
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Error != "" {
		return fmt.Errorf("%s: %w: %s", op, ErrNoData, env.Error)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", op, err)
	}
	if c.breaker != nil {
		c.breaker.Remember(endpoint, body)
	}
	return nil
}

// post sends a JSON body and decodes the reply. An error envelope, in a 200
// or in a rejected request's body, is returned as trade.Violations.
func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("error encoding %s request: %w", op, err)
	}
	body, err := c.do(ctx, op, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		if env, ok := statusEnvelope(err); ok {
			c.observe(op, "remote_error", 0)
			return remoteError(env)
		}
		return err
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil && env.failed() {
		c.observe(op, "remote_error", 0)
		return remoteError(env)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", op, err)
	}
	return nil
}

// do runs one request through limiter, breaker and tracing and returns the
// raw 200 body
func (c *Client) do(ctx context.Context, op, method, endpoint string, payload []byte) ([]byte, error) {
	ctx, span := otel.Tracer().Start(ctx, "analytics."+op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", endpoint),
	))
	defer span.End()

	start := time.Now()
	body, err := c.roundTrip(ctx, method, endpoint, payload)
	elapsed := time.Since(start)

	var se *StatusError
	switch {
	case err == nil:
		if c.breaker != nil {
			c.breaker.RecordSuccess()
		}
		c.observe(op, "ok", elapsed)
	case errors.As(err, &se) && se.Code < 500:
		// The API is up; the request itself was rejected
		c.observe(op, "error", elapsed)
	case errors.Is(err, circuitbreaker.ErrOpen), ctx.Err() != nil:
		c.observe(op, "error", elapsed)
	default:
		if c.breaker != nil {
			c.breaker.RecordFailure(err)
		}
		c.observe(op, "error", elapsed)
	}
	if err != nil {
		otel.RecordError(ctx, err)
		logrus.WithError(err).WithFields(logrus.Fields{"op": op, "url": endpoint}).Debug("Analytics request failed")
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling analytics api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) observe(op, status string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(op, status, elapsed)
	}
}
