package hnpixels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the default API host.
	// A token can be obtained from https://pixels.pythondiscord.com/authorize.
	DefaultBaseURL = "https://pixels.pythondiscord.com"

	getPixelEndpoint  = "/get_pixel"
	getPixelsEndpoint = "/get_pixels"
	setPixelEndpoint  = "/set_pixel"
	getSizeEndpoint   = "/get_size"

	userAgentProduct    = "hnpixels-go"
	userAgentVersion    = "1.0"
	defaultHTTPTimeout  = 30 * time.Second
	maxResponseBodySize = 4 << 20 // 4 MiB guard
)

// Painter is the client for the Pixels API. It owns one Endpoint per remote
// operation, each with its own rate limiter, so any API method may block to
// obey that endpoint's budget; set_pixel in particular can sleep for a full
// cooldown window (~120s observed).
//
// A Painter is not safe for concurrent use: drive it from a single goroutine,
// or construct one Painter per goroutine.
type Painter struct {
	baseURL   string
	token     string
	http      *http.Client
	logger    *slog.Logger
	userAgent string
	warmup    time.Duration

	getPixel  *Endpoint
	getPixels *Endpoint
	setPixel  *Endpoint
}

// PainterOption mutates the painter during construction.
type PainterOption func(*Painter)

// NewPainter builds a Painter using the given bearer token.
func NewPainter(token string, opts ...PainterOption) (*Painter, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("hnpixels: API token is required")
	}
	p := &Painter{
		baseURL:   DefaultBaseURL,
		token:     token,
		userAgent: buildDefaultUserAgent(),
		http:      &http.Client{Timeout: defaultHTTPTimeout},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.http == nil {
		p.http = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.baseURL = sanitizeBaseURL(p.baseURL)
	p.logger = p.logger.With("component", "painter")

	headers := map[string]string{"Authorization": "Bearer " + p.token}
	if ua := strings.TrimSpace(p.userAgent); ua != "" {
		headers["User-Agent"] = ua
	}
	p.getPixel = NewEndpoint(p.http, http.MethodGet, p.endpoint(getPixelEndpoint), headers, p.warmup, p.logger)
	p.getPixels = NewEndpoint(p.http, http.MethodGet, p.endpoint(getPixelsEndpoint), headers, p.warmup, p.logger)
	p.setPixel = NewEndpoint(p.http, http.MethodPost, p.endpoint(setPixelEndpoint), headers, p.warmup, p.logger)
	return p, nil
}

// WithBaseURL overrides the API host (useful for staging/tests). No trailing
// slash required.
func WithBaseURL(baseURL string) PainterOption {
	return func(p *Painter) { p.baseURL = baseURL }
}

// WithHTTPClient installs a custom http.Client.
func WithHTTPClient(hc *http.Client) PainterOption {
	return func(p *Painter) { p.http = hc }
}

// WithLogger installs a structured logger. If unset, slog.Default() is used.
func WithLogger(logger *slog.Logger) PainterOption {
	return func(p *Painter) { p.logger = logger }
}

// WithUserAgent sets a custom User-Agent string.
func WithUserAgent(ua string) PainterOption {
	return func(p *Painter) { p.userAgent = ua }
}

// WithWarmup delays each endpoint's first permitted request by the given
// duration, avoiding a burst right after process start.
func WithWarmup(warmup time.Duration) PainterOption {
	return func(p *Painter) { p.warmup = warmup }
}

func sanitizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// endpoint returns the URL of appending an endpoint path to the API host.
func (p *Painter) endpoint(name string) string {
	return p.baseURL + name
}

// Colour returns the colour of the canvas pixel at (x, y).
func (p *Painter) Colour(ctx context.Context, x, y int) (Colour, error) {
	query := url.Values{}
	query.Set("x", strconv.Itoa(x))
	query.Set("y", strconv.Itoa(y))
	body, err := p.getPixel.Request(ctx, RequestOptions{Query: query})
	if err != nil {
		return Colour{}, err
	}
	var payload struct {
		RGB string `json:"rgb"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Colour{}, fmt.Errorf("hnpixels: decode get_pixel response: %w", err)
	}
	return ColourFromHex(payload.RGB)
}

// Paint sets the canvas pixel at (x, y) to the given colour.
//
// The live colour is read first and the write is skipped when it already
// matches, since the write budget is far scarcer than the read budget. A
// failed pre-check only loses that optimization: it is logged and the write
// still proceeds. May block for a significant period to obey ratelimits.
func (p *Painter) Paint(ctx context.Context, x, y int, colour Colour) error {
	return p.paint(ctx, x, y, colour, true)
}

// PaintOver is Paint without the read-before-write check, spending a write
// request unconditionally.
func (p *Painter) PaintOver(ctx context.Context, x, y int, colour Colour) error {
	return p.paint(ctx, x, y, colour, false)
}

func (p *Painter) paint(ctx context.Context, x, y int, colour Colour, check bool) error {
	if check {
		current, err := p.Colour(ctx, x, y)
		if err != nil {
			// The check is an optimization, not a correctness requirement.
			p.logger.Debug("pixel has an unknown colour", "x", x, "y", y, "error", err)
		} else if current == colour {
			p.logger.Info("pixel already has the correct colour", "x", x, "y", y, "colour", colour.Hex())
			return nil
		}
	}

	payload, err := json.Marshal(struct {
		X   int    `json:"x"`
		Y   int    `json:"y"`
		RGB string `json:"rgb"`
	}{X: x, Y: y, RGB: colour.Hex()})
	if err != nil {
		return fmt.Errorf("hnpixels: encode set_pixel request: %w", err)
	}
	body, err := p.setPixel.Request(ctx, RequestOptions{Body: payload})
	if err != nil {
		return err
	}

	var response struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &response); err == nil && response.Message != "" {
		p.logger.Info(response.Message)
	} else {
		p.logger.Warn("strange response from set_pixel", "body", string(body))
	}
	return nil
}

// Size returns the width and height of the canvas. The size endpoint is not
// throttled by the server, so this is a plain request with no limiter.
func (p *Painter) Size(ctx context.Context) (width, height int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(getSizeEndpoint), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("hnpixels: build get_size request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	if ua := strings.TrimSpace(p.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("hnpixels: execute get_size request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return 0, 0, fmt.Errorf("hnpixels: read get_size response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, 0, &StatusError{StatusCode: resp.StatusCode, URL: p.endpoint(getSizeEndpoint), Body: body}
	}
	var payload struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, 0, fmt.Errorf("hnpixels: decode get_size response: %w", err)
	}
	return payload.Width, payload.Height, nil
}

// Sketch fetches the current state of the whole canvas.
func (p *Painter) Sketch(ctx context.Context) (*Sketch, error) {
	content, err := p.getPixels.Request(ctx, RequestOptions{})
	if err != nil {
		return nil, err
	}
	width, height, err := p.Size(ctx)
	if err != nil {
		return nil, err
	}
	return NewSketch(content, width, height)
}

func buildDefaultUserAgent() string {
	goVer := strings.TrimPrefix(runtime.Version(), "go")
	if goVer == "" {
		goVer = runtime.Version()
	}
	return fmt.Sprintf("%s/%s (+https://github.com/HN67/hnpixels; Go%s; %s/%s)",
		userAgentProduct, userAgentVersion, goVer, runtime.GOOS, runtime.GOARCH)
}
