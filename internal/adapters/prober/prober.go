// Package prober issues metadata-only HTTP requests against citation URLs.
package prober

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/onco-dash/citewatch/internal/core"
	"github.com/onco-dash/citewatch/internal/domain/freshness"
	"github.com/onco-dash/citewatch/internal/domain/model"
	"github.com/onco-dash/citewatch/internal/observability/metrics"
	"github.com/onco-dash/citewatch/internal/observability/statsd"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRedirects = 5
	defaultUserAgent    = "citewatch/1.0"

	// maxDrainBytes bounds how much of an unexpected body is read before closing.
	maxDrainBytes = 64 << 10
)

// ErrTooManyRedirects is reported when a citation exceeds the redirect budget.
var ErrTooManyRedirects = errors.New("too many redirects")

// Options configures an HTTPProber.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
	// GetFallback retries with a one-byte ranged GET when HEAD is answered with 405 or 501.
	GetFallback bool

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
	Logger    *slog.Logger
	Metrics   statsd.Sink
}

// HTTPProber implements core.Prober over net/http.
type HTTPProber struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	getFallback bool
	logger      *slog.Logger
	metrics     statsd.Sink
	now         func() time.Time
}

var _ core.Prober = (*HTTPProber)(nil)

// New creates an HTTPProber with bounded redirects and a per-probe timeout.
func New(opts Options) *HTTPProber {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects < 0 {
		maxRedirects = defaultMaxRedirects
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPProber{
		client: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("%w (%d)", ErrTooManyRedirects, len(via)-1)
				}
				return nil
			},
		},
		timeout:     timeout,
		userAgent:   ua,
		getFallback: opts.GetFallback,
		logger:      logger.With("component", "prober"),
		metrics:     opts.Metrics,
		now:         time.Now,
	}
}

// Probe performs a HEAD request against rawURL. It never returns an error:
// malformed URLs, transport failures and timeouts produce a result with Status 0 and Error set.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) model.ProbeResult {
	start := p.now()
	res := model.ProbeResult{URL: rawURL, Method: model.ProbeMethodHead, SourceDomain: freshness.SourceDomain(rawURL)}

	target, err := validateURL(rawURL)
	if err != nil {
		return p.finish(withError(res, err), start)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, header, err := p.do(ctx, http.MethodHead, target)
	if err == nil && p.getFallback && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		res.Method = model.ProbeMethodRangedGet
		status, header, err = p.do(ctx, http.MethodGet, target)
	}
	if err != nil {
		return p.finish(withError(res, err), start)
	}

	res.Status = status
	res.OK = status >= 200 && status < 300
	res.ETag = headerValue(header, "ETag")
	res.LastModified = headerValue(header, "Last-Modified")
	return p.finish(res, start)
}

func (p *HTTPProber) do(ctx context.Context, method, target string) (int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return resp.StatusCode, resp.Header, nil
}

func (p *HTTPProber) finish(res model.ProbeResult, start time.Time) model.ProbeResult {
	res.Duration = p.now().Sub(start)
	metrics.EmitProbe(p.metrics, metrics.ProbeMetric{
		Method:   string(res.Method),
		OK:       res.OK,
		Status:   res.Status,
		Duration: res.Duration,
	})
	if res.Error != nil {
		p.logger.Debug("probe failed", "url", res.URL, "source_domain", res.SourceDomain, "error", *res.Error)
	}
	return res
}

func validateURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("invalid url: missing host")
	}
	return u.String(), nil
}

func withError(res model.ProbeResult, err error) model.ProbeResult {
	msg := err.Error()
	res.Error = &msg
	res.Status = 0
	res.OK = false
	return res
}

func headerValue(h http.Header, key string) *string {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return nil
	}
	return &v
}
