package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"photobooth/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

const maxCaptureBytes = 64 << 20

type StatusResult struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CaptureResult reports the outcome of a capture. For asynchronous backends a successful
// result only means the shutter command was accepted; the file arrives through the watcher.
type CaptureResult struct {
	Success   bool   `json:"success"`
	ImageData []byte `json:"-"`
	Async     bool   `json:"async"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error,omitempty"`
}

type Client struct {
	configs   configSource
	http      *http.Client
	logger    *zlog.Zerolog
	baseDelay time.Duration
	maxDelay  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = max
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

func NewClient(configs configSource, logger *zlog.Zerolog, opts ...Option) *Client {
	c := &Client{
		configs:   configs,
		http:      &http.Client{},
		logger:    logger,
		baseDelay: DefaultBaseDelay,
		maxDelay:  DefaultMaxDelay,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckStatus never returns an error; every failure maps to Connected=false.
func (c *Client) CheckStatus(ctx context.Context) StatusResult {
	cfg := c.configs.Load()
	endpoint := statusURL(cfg)

	reqCtx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return StatusResult{Error: fmt.Sprintf("invalid status endpoint: %v", err)}
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		msg := describeError(err, cfg)
		c.logger.Debug().Str("endpoint", endpoint).Str("error", msg).Msg("Camera status check failed")
		return StatusResult{Error: msg}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxCaptureBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StatusResult{Error: fmt.Sprintf("camera responded with %s", resp.Status)}
	}

	return StatusResult{Connected: true, Message: fmt.Sprintf("connected to %s", cfg.Backend)}
}

// Capture triggers the shutter, retrying failed attempts with capped exponential backoff.
// Cancelling ctx stops further retries.
func (c *Client) Capture(ctx context.Context) CaptureResult {
	cfg := c.configs.Load()
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	result := CaptureResult{Async: !cfg.SynchronousCapture()}
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt

		data, err := c.captureOnce(ctx, cfg)
		if err == nil {
			result.Success = true
			result.ImageData = data
			c.logger.Info().
				Str("backend", string(cfg.Backend)).
				Int("attempt", attempt).
				Int("bytes", len(data)).
				Msg("Capture succeeded")
			return result
		}
		lastErr = err

		if ctx.Err() != nil {
			lastErr = ErrCaptureCancelled
			break
		}

		c.logger.Warn().
			Err(err).
			Str("backend", string(cfg.Backend)).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("Capture attempt failed")

		if attempt == attempts {
			break
		}

		if err := c.sleep(ctx, BackoffDelay(attempt, c.baseDelay, c.maxDelay)); err != nil {
			lastErr = ErrCaptureCancelled
			break
		}
	}

	result.Error = lastErr.Error()
	c.logger.Error().Str("error", result.Error).Int("attempts", result.Attempts).Msg("Capture failed")
	return result
}

func (c *Client) captureOnce(ctx context.Context, cfg domain.CaptureConfig) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	method := http.MethodGet
	if cfg.SynchronousCapture() {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, cfg.CaptureURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build capture request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New(describeError(err, cfg))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxCaptureBytes))
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	if !cfg.SynchronousCapture() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxCaptureBytes))
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptureBytes))
	if err != nil {
		return nil, errors.New(describeError(err, cfg))
	}
	if !looksLikeImage(resp.Header.Get("Content-Type"), data) {
		return nil, ErrNoImageData
	}
	return data, nil
}

// LiveFeedURL is deterministic for a given timestamp and performs no I/O.
func (c *Client) LiveFeedURL(t time.Time) string {
	return cacheBustURL(c.configs.Load().LiveFeedURL, t)
}

// FetchLiveFrame downloads a single live-view JPEG.
func (c *Client) FetchLiveFrame(ctx context.Context, t time.Time) ([]byte, error) {
	return c.FetchFrame(ctx, c.LiveFeedURL(t))
}

// FetchFrame downloads the image at a URL produced by LiveFeedURL.
func (c *Client) FetchFrame(ctx context.Context, frameURL string) ([]byte, error) {
	cfg := c.configs.Load()
	reqCtx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, frameURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build live feed request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New(describeError(err, cfg))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptureBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read live frame: %w", err)
	}
	if !looksLikeImage(resp.Header.Get("Content-Type"), data) {
		return nil, ErrNoImageData
	}
	return data, nil
}

func cacheBustURL(raw string, t time.Time) string {
	stamp := strconv.FormatInt(t.UnixMilli(), 10)
	u, err := url.Parse(raw)
	if err != nil {
		sep := "?"
		if strings.Contains(raw, "?") {
			sep = "&"
		}
		return raw + sep + "t=" + stamp
	}
	q := u.Query()
	q.Set("t", stamp)
	u.RawQuery = q.Encode()
	return u.String()
}

func statusURL(cfg domain.CaptureConfig) string {
	if cfg.StatusURL != "" {
		return cfg.StatusURL
	}
	if cfg.Backend == domain.BackendDigiCamPro {
		if u, err := url.Parse(cfg.CaptureURL); err == nil {
			return u.Scheme + "://" + u.Host + "/status"
		}
	}
	return cfg.LiveFeedURL
}

func describeError(err error, cfg domain.CaptureConfig) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("%v after %dms", ErrTimeout, cfg.Timeout)
	case errors.Is(err, context.Canceled):
		return ErrCaptureCancelled.Error()
	default:
		return fmt.Sprintf("camera unreachable: %v", err)
	}
}

var (
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
)

func looksLikeImage(contentType string, data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	return bytes.HasPrefix(data, jpegMagic) || bytes.HasPrefix(data, pngMagic)
}
