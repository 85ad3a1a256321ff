package hnpixels

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Endpoint binds one remote operation (method + URL + default headers) to its
// own Ratelimiter and tracks whether the endpoint has been successfully
// probed. The server enforces a separate budget per endpoint, so limiter
// state is never shared.
//
// An Endpoint is not safe for concurrent use; it belongs to one Painter and
// one control loop.
type Endpoint struct {
	method  string
	url     string
	headers map[string]string

	http    *http.Client
	limiter *Ratelimiter
	logger  *slog.Logger

	// active records whether ratelimit state has been learned from at least
	// one non-429, non-error response.
	active bool
}

// NewEndpoint constructs an Endpoint. The default headers are applied to
// every request, with per-call headers winning on collision. A non-zero
// warmup delays the endpoint's first permitted request.
func NewEndpoint(hc *http.Client, method, endpointURL string, headers map[string]string, warmup time.Duration, logger *slog.Logger) *Endpoint {
	if hc == nil {
		hc = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Endpoint{
		method:  method,
		url:     endpointURL,
		headers: headers,
		http:    hc,
		limiter: NewRatelimiter(warmup, logger),
		logger:  logger,
	}
}

// RequestOptions carries the per-call parts of a request. All fields are
// optional.
type RequestOptions struct {
	// Query is appended to the endpoint URL.
	Query url.Values
	// Headers override the endpoint's default headers on key collision.
	Headers map[string]string
	// Body is sent as a JSON payload when non-nil.
	Body []byte
}

// updateRatelimiter feeds the limiter from response headers. Header sets are
// tried in order: the normal requests-remaining/requests-limit/requests-reset
// triple, then cooldown-reset, then retry-after (the latter two mean the
// budget is spent). ErrMissingRatelimit is returned when none are present.
func (e *Endpoint) updateRatelimiter(headers http.Header) error {
	e.logger.Debug("harvesting ratelimit headers", "url", e.url, "headers", headers)
	if rem := headers.Get("requests-remaining"); rem != "" {
		remaining, err := strconv.Atoi(rem)
		if err != nil {
			return fmt.Errorf("hnpixels: bad requests-remaining header %q: %w", rem, err)
		}
		limit, err := strconv.Atoi(headers.Get("requests-limit"))
		if err != nil {
			return fmt.Errorf("hnpixels: bad requests-limit header %q: %w", headers.Get("requests-limit"), err)
		}
		reset, err := parseSeconds(headers.Get("requests-reset"))
		if err != nil {
			return fmt.Errorf("hnpixels: bad requests-reset header: %w", err)
		}
		e.limiter.Unlock(remaining, limit, reset)
		return nil
	}
	for _, name := range []string{"cooldown-reset", "retry-after"} {
		if v := headers.Get(name); v != "" {
			reset, err := parseSeconds(v)
			if err != nil {
				return fmt.Errorf("hnpixels: bad %s header: %w", name, err)
			}
			e.limiter.Unlock(0, 0, reset)
			return nil
		}
	}
	return fmt.Errorf("%w (url=%s)", ErrMissingRatelimit, e.url)
}

// parseSeconds converts a header value of fractional seconds to a Duration.
func parseSeconds(value string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds value %q: %w", value, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// activate probes the endpoint with a HEAD request to learn its current
// ratelimit budget before the first real call. A 429 here is not fatal: its
// headers are still harvested and a RatelimitError is returned so the caller
// can immediately try again.
func (e *Endpoint) activate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, e.url, nil)
	if err != nil {
		return fmt.Errorf("hnpixels: build activation request: %w", err)
	}
	for key, value := range e.headers {
		req.Header.Set(key, value)
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("hnpixels: execute activation request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("hnpixels: read activation response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return e.updateRatelimiter(resp.Header)
	case resp.StatusCode == http.StatusTooManyRequests:
		if err := e.updateRatelimiter(resp.Header); err != nil {
			return err
		}
		return &RatelimitError{URL: e.url, Body: body}
	default:
		return &StatusError{StatusCode: resp.StatusCode, URL: e.url, Body: body}
	}
}

// Request performs the endpoint's operation and returns the response body.
//
// The first call activates the endpoint; if the probe is throttled it is
// retried exactly once, since the 429 itself supplies fresh ratelimit headers
// that let the limiter wait out the cooldown. Every subsequent call locks the
// limiter (which may block, up to the full cooldown window) before touching
// the network, and feeds response headers back into it.
//
// A 429 on the main request is returned as a RatelimitError; this layer does
// not retry the main request, the caller decides when to come back.
func (e *Endpoint) Request(ctx context.Context, opts RequestOptions) ([]byte, error) {
	if !e.active {
		if err := e.activate(ctx); err != nil {
			if !IsRatelimit(err) {
				return nil, fmt.Errorf("hnpixels: failed to activate endpoint %s: %w", e.url, err)
			}
			if err := e.activate(ctx); err != nil {
				return nil, fmt.Errorf("hnpixels: failed to activate endpoint %s: %w", e.url, err)
			}
		}
		e.active = true
	}

	headers := make(map[string]string, len(e.headers)+len(opts.Headers))
	for key, value := range e.headers {
		headers[key] = value
	}
	for key, value := range opts.Headers {
		headers[key] = value
	}

	// The actual throttling point.
	if err := e.limiter.Lock(ctx); err != nil {
		return nil, err
	}

	target := e.url
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}
	var reader io.Reader
	if opts.Body != nil {
		reader = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, e.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("hnpixels: build request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hnpixels: execute request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("hnpixels: read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := e.updateRatelimiter(resp.Header); err != nil {
			return nil, err
		}
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		if err := e.updateRatelimiter(resp.Header); err != nil {
			return nil, err
		}
		return nil, &RatelimitError{URL: e.url, Body: body}
	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: e.url, Body: body}
	}
}
