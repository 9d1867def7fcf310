// Package resilient wraps outbound HTTP calls with a retry and backoff policy.
// It knows nothing about the MLS query protocol; every outbound call of the
// listing layer (search, media batches, single listing) goes through it.
package resilient

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// jitterFraction bounds the random jitter as a share of the exponential term.
const jitterFraction = 0.3

type Config struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Timeout applies to each individual attempt. Zero means no timeout.
	Timeout time.Duration
	// RequestsPerSecond throttles every attempt, retries included. Zero disables it.
	RequestsPerSecond float64
	// Transport overrides the pooled default transport (tests inject fakes here).
	Transport http.RoundTripper
	// Jitter returns a value in [0,1). Defaults to math/rand.
	Jitter func() float64
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1000 * time.Millisecond,
		MaxDelay:   10000 * time.Millisecond,
		Timeout:    15 * time.Second,
	}
}

type Fetcher struct {
	cfg     Config
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

func New(cfg Config) *Fetcher {
	def := DefaultConfig()
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Jitter == nil {
		cfg.Jitter = rand.Float64
	}

	f := &Fetcher{cfg: cfg}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.BaseDelay
	rc.RetryWaitMax = cfg.MaxDelay
	rc.HTTPClient.Timeout = cfg.Timeout
	if cfg.Transport != nil {
		rc.HTTPClient.Transport = cfg.Transport
	}
	if cfg.RequestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
		rc.HTTPClient.Transport = &limitedTransport{base: rc.HTTPClient.Transport, limiter: f.limiter}
	}
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger
	} else {
		rc.Logger = nil
	}
	rc.CheckRetry = checkRetry
	rc.Backoff = func(_, _ time.Duration, attempt int, _ *http.Response) time.Duration {
		return Delay(cfg, attempt, cfg.Jitter())
	}
	// hand the last response or error back untouched once retries run out
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	f.http = rc
	return f
}

// Do executes req, retrying retryable failures. When retries are exhausted the
// last failing response is returned with a nil error so the caller can inspect
// its status; network errors are returned as they were raised.
func (f *Fetcher) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	rreq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("wrap request: %w", err)
	}
	return f.http.Do(rreq)
}

func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return f.Do(ctx, req)
}

// limitedTransport holds every attempt, retries included, until the limiter
// grants a token. A wait that cannot finish before the request's deadline fails
// the attempt instead of sending it unthrottled.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("outbound rate limit: %w", err)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Delay computes the wait before retry number attempt (0-based):
// min(base*2^attempt + jitter, max) where jitter is r*30% of the exponential term.
// A non-positive MaxDelay means the default cap.
func Delay(cfg Config, attempt int, r float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	ceiling := cfg.MaxDelay
	if ceiling <= 0 {
		ceiling = DefaultConfig().MaxDelay
	}
	exp := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	d := exp + r*jitterFraction*exp
	if math.IsNaN(d) || d > float64(ceiling) {
		return ceiling
	}
	return time.Duration(d)
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return IsRetryableError(err), nil
	}
	return IsRetryableStatus(resp.StatusCode), nil
}

// IsRetryableStatus reports 5xx and 429 as transient. Other 4xx are terminal.
func IsRetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

var retryableMessages = []string{
	"connection reset",
	"econnreset",
	"connection refused",
	"econnrefused",
	"timeout",
	"timed out",
	"fetch failed",
	"network",
	"socket",
}

// IsRetryableError classifies a transport error by its message.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range retryableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
