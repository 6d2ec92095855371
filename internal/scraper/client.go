package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corpix/uarand"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/htmldoc"
	"github.com/garyellow/school-timetable-go/internal/metrics"
)

// maxBodyBytes caps a single page; timetable pages are a few tens of KB.
const maxBodyBytes = 8 << 20

// Config configures a Client.
type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables pacing
	Burst             int
	UserAgent         string // empty picks a random browser UA per request
}

// Client fetches HTML pages. Concurrent fetches of the same URL share one
// request. Failed requests are not retried.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	flight     singleflight.Group
	userAgent  string
	metrics    *metrics.Metrics
}

// NewClient creates a new scraper client. m may be nil.
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		metrics:   m,
	}
}

// Get performs a GET request with rate limiting.
// Non-2xx responses are returned as *errors.FetchError.
// Caller is responsible for closing the response body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domerrors.NewFetchError(rawURL, 0, err)
	}
	if c.metrics != nil {
		c.metrics.RecordRateLimiterWait(time.Since(waitStart).Seconds())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domerrors.NewFetchError(rawURL, 0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", c.randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			err = fmt.Errorf("%w: %w", domerrors.ErrTimeout, err)
		}
		return nil, domerrors.NewFetchError(rawURL, 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, domerrors.NewFetchError(rawURL, resp.StatusCode, domerrors.ErrNotFound)
		case http.StatusTooManyRequests:
			return nil, domerrors.NewFetchError(rawURL, resp.StatusCode, errors.New("rate limited"))
		default:
			return nil, domerrors.NewFetchError(rawURL, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
	}

	return resp, nil
}

// FetchDocument fetches and parses an HTML page. kind labels the request in
// metrics (index, class, notices).
func (c *Client) FetchDocument(ctx context.Context, kind, rawURL string) (*htmldoc.Document, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, domerrors.NewFetchError(rawURL, 0, fmt.Errorf("invalid url: %w", err))
	}

	start := time.Now()
	v, err, shared := c.flight.Do(rawURL, func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, domerrors.NewFetchError(rawURL, 0, ctx.Err())
		default:
		}
		return c.fetch(ctx, rawURL, base)
	})
	if shared && c.metrics != nil {
		c.metrics.RecordSingleflightDedup()
	}

	if c.metrics != nil {
		c.metrics.RecordScraperRequest(kind, statusLabel(err), time.Since(start).Seconds())
	}
	if err != nil {
		slog.DebugContext(ctx, "Fetch failed",
			"kind", kind,
			"url", rawURL,
			"error", err)
		return nil, err
	}
	return v.(*htmldoc.Document), nil
}

func (c *Client) fetch(ctx context.Context, rawURL string, base *url.URL) (*htmldoc.Document, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, domerrors.NewFetchError(rawURL, resp.StatusCode, fmt.Errorf("failed to decompress gzip: %w", err))
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes+1))
	if err != nil {
		if isTimeout(err) {
			err = fmt.Errorf("%w: %w", domerrors.ErrTimeout, err)
		}
		return nil, domerrors.NewFetchError(rawURL, resp.StatusCode, fmt.Errorf("failed to read body: %w", err))
	}
	if len(body) > maxBodyBytes {
		return nil, domerrors.NewFetchError(rawURL, resp.StatusCode, fmt.Errorf("body exceeds %d bytes", maxBodyBytes))
	}

	doc, err := htmldoc.Parse(decodeBody(body, resp.Header.Get("Content-Type")), base)
	if err != nil {
		return nil, domerrors.NewFetchError(rawURL, resp.StatusCode, err)
	}
	return doc, nil
}

// decodeBody converts body to UTF-8 using the Content-Type charset, falling
// back to the raw bytes when the charset is missing or unknown.
func decodeBody(body []byte, contentType string) io.Reader {
	raw := bytes.NewReader(body)
	if contentType == "" {
		return raw
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return raw
	}
	name := strings.ToLower(strings.TrimSpace(params["charset"]))
	if name == "" || name == "utf-8" || name == "utf8" {
		return raw
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return raw
	}
	return transform.NewReader(raw, enc.NewDecoder())
}

// randomUserAgent returns the configured user agent or a random browser one.
func (c *Client) randomUserAgent() string {
	if c.userAgent != "" {
		return c.userAgent
	}
	return uarand.GetRandom()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domerrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domerrors.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
