package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultMaxBodyBytes int64 = 10 << 20 // 10 MiB

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives the outcome of each upstream request.
type Observer interface {
	ObserveRequest(method string, status int, d time.Duration)
}

// Client executes JSON requests and classifies responses by status code.
type Client struct {
	HTTP         HTTPDoer
	Logger       *slog.Logger
	Observer     Observer // optional
	MaxBodyBytes int64
}

// NewClient returns a Client using doer, or a tuned default client when doer is nil.
func NewClient(doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = NewHTTPClient(TransportOptions{})
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		HTTP:         doer,
		Logger:       logger,
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

// Execute issues one request and returns the body of a 200 response.
// Any other status yields a *StatusError, network failures a *TransportError.
func (c *Client) Execute(ctx context.Context, method, uri string, query map[string]string, body any) ([]byte, error) {
	return c.Do(ctx, RequestSpec{Method: method, URI: uri, Query: query, Body: body})
}

// Do executes the given RequestSpec.
func (c *Client) Do(ctx context.Context, spec RequestSpec) ([]byte, error) {
	method, u, err := spec.Normalize()
	if err != nil {
		return nil, &TransportError{Method: canonicalMethod(spec.Method), URI: spec.URI, Err: fmt.Errorf("normalize request: %w", err)}
	}
	target := redactedURL(u)

	payload := spec.Body
	if payload == nil {
		payload = struct{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Method: method, URI: target, Err: fmt.Errorf("marshal body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(raw))
	if err != nil {
		return nil, &TransportError{Method: method, URI: target, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("upstream request", "method", method, "uri", target)

	start := time.Now()
	res, err := c.HTTP.Do(req)
	if err != nil {
		c.observe(method, 0, time.Since(start))
		c.Logger.Debug("upstream request failed", "method", method, "uri", target, "error", err)
		return nil, &TransportError{Method: method, URI: target, Err: err}
	}
	defer res.Body.Close() // nolint:errcheck

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	respBody, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	elapsed := time.Since(start)
	c.observe(method, res.StatusCode, elapsed)
	if err != nil {
		return nil, &TransportError{Method: method, URI: target, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(respBody)) > limit {
		return nil, &TransportError{Method: method, URI: target, Err: fmt.Errorf("response body exceeds %d bytes", limit)}
	}

	class := classify(res.StatusCode)
	c.logResponse(method, target, res.StatusCode, elapsed, class, respBody)
	if class != nil {
		return nil, &StatusError{
			Class:      class,
			Method:     method,
			URI:        target,
			StatusCode: res.StatusCode,
			Body:       respBody,
		}
	}
	return respBody, nil
}

// logResponse logs the outcome with a level matching its class.
func (c *Client) logResponse(method, uri string, status int, d time.Duration, class error, body []byte) {
	attrs := []any{
		"method", method,
		"uri", uri,
		"status", status,
		"duration", d,
		"body", string(trim(body, 2048)),
	}
	switch class {
	case nil:
		c.Logger.Debug("upstream response", attrs...)
	case ErrRemoteRejected:
		c.Logger.Debug("upstream rejected request", attrs...)
	case ErrRemoteUnavailable:
		c.Logger.Warn("upstream unavailable", attrs...)
	default:
		c.Logger.Warn("unexpected upstream response", attrs...)
	}
}

func (c *Client) observe(method string, status int, d time.Duration) {
	if c.Observer != nil {
		c.Observer.ObserveRequest(method, status, d)
	}
}
