package camera

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"photobooth/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

type staticConfig struct {
	cfg domain.CaptureConfig
}

func (s staticConfig) Load() domain.CaptureConfig { return s.cfg }

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newTestClient(cfg domain.CaptureConfig, rec *sleepRecorder) *Client {
	return NewClient(staticConfig{cfg: cfg}, &zlog.Logger, WithSleep(rec.sleep))
}

func testConfig(base string, backend domain.CameraBackend) domain.CaptureConfig {
	return domain.CaptureConfig{
		Backend:       backend,
		LiveFeedURL:   base + "/liveview.jpg",
		CaptureURL:    base + "/capture",
		RefreshRate:   20,
		Timeout:       1000,
		RetryAttempts: 3,
	}
}

// =============================================================================
// BackoffDelay tests
// =============================================================================

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1000 * time.Millisecond},
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{4, 5000 * time.Millisecond},
		{10, 5000 * time.Millisecond},
	}

	for _, tc := range tests {
		got := BackoffDelay(tc.attempt, DefaultBaseDelay, DefaultMaxDelay)
		if got != tc.want {
			t.Errorf("BackoffDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

// =============================================================================
// CheckStatus tests
// =============================================================================

func TestCheckStatus_Connected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	c := newTestClient(testConfig(srv.URL, domain.BackendDigiCamControl), &sleepRecorder{})
	res := c.CheckStatus(context.Background())
	if !res.Connected {
		t.Fatalf("CheckStatus() = %+v, want connected", res)
	}
}

func TestCheckStatus_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(testConfig(srv.URL, domain.BackendDigiCamControl), &sleepRecorder{})
	res := c.CheckStatus(context.Background())
	if res.Connected {
		t.Fatal("CheckStatus() connected on 503")
	}
	if !strings.Contains(res.Error, "503") {
		t.Errorf("Error = %q, want mention of 503", res.Error)
	}
}

func TestCheckStatus_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL, domain.BackendDigiCamControl)
	cfg.Timeout = 50
	c := newTestClient(cfg, &sleepRecorder{})

	res := c.CheckStatus(context.Background())
	if res.Connected {
		t.Fatal("CheckStatus() connected despite timeout")
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Errorf("Error = %q, want timeout description", res.Error)
	}
}

func TestCheckStatus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := newTestClient(testConfig(base, domain.BackendDigiCamControl), &sleepRecorder{})
	res := c.CheckStatus(context.Background())
	if res.Connected || res.Error == "" {
		t.Fatalf("CheckStatus() = %+v, want disconnected with error", res)
	}
}

func TestCheckStatus_DigiCamProUsesStatusPath(t *testing.T) {
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
	}))
	defer srv.Close()

	c := newTestClient(testConfig(srv.URL, domain.BackendDigiCamPro), &sleepRecorder{})
	if res := c.CheckStatus(context.Background()); !res.Connected {
		t.Fatalf("CheckStatus() = %+v", res)
	}
	if got := path.Load(); got != "/status" {
		t.Errorf("status path = %v, want /status", got)
	}
}

// =============================================================================
// Capture tests
// =============================================================================

func TestCapture_AlwaysFailingRetriesWithBackoff(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	c := newTestClient(testConfig(srv.URL, domain.BackendDigiCamPro), rec)

	res := c.Capture(context.Background())
	if res.Success {
		t.Fatal("Capture() succeeded against failing backend")
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if res.Attempts != 3 {
		t.Errorf("res.Attempts = %d, want 3", res.Attempts)
	}
	want := []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}
	if len(rec.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", rec.delays, want)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, rec.delays[i], want[i])
		}
	}
	if !strings.Contains(res.Error, "500") {
		t.Errorf("Error = %q, want last error message", res.Error)
	}
}

func TestCapture_BackoffCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, domain.BackendDigiCamPro)
	cfg.RetryAttempts = 5
	rec := &sleepRecorder{}
	c := newTestClient(cfg, rec)

	c.Capture(context.Background())

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	if len(rec.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", rec.delays, want)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, rec.delays[i], want[i])
		}
	}
}

func TestCapture_SyncReturnsBytesAfterRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	c := newTestClient(testConfig(srv.URL, domain.BackendDigiCamPro), &sleepRecorder{})
	res := c.Capture(context.Background())
	if !res.Success {
		t.Fatalf("Capture() = %+v", res)
	}
	if res.Async {
		t.Error("digicampro capture should be synchronous")
	}
	if string(res.ImageData) != string(jpegBytes) {
		t.Errorf("ImageData = %v, want %v", res.ImageData, jpegBytes)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
}

func TestCapture_SyncRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, domain.BackendDigiCamPro)
	cfg.RetryAttempts = 1
	c := newTestClient(cfg, &sleepRecorder{})

	res := c.Capture(context.Background())
	if res.Success {
		t.Fatal("Capture() accepted empty body")
	}
	if res.Error != ErrNoImageData.Error() {
		t.Errorf("Error = %q, want %q", res.Error, ErrNoImageData.Error())
	}
}

func TestCapture_AsyncOnlyAcknowledges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("CMD") != "Capture" {
			t.Errorf("query = %q, want CMD=Capture", r.URL.RawQuery)
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, domain.BackendDigiCamControl)
	cfg.CaptureURL = srv.URL + "/?CMD=Capture"
	c := newTestClient(cfg, &sleepRecorder{})

	res := c.Capture(context.Background())
	if !res.Success || !res.Async {
		t.Fatalf("Capture() = %+v, want async success", res)
	}
	if res.ImageData != nil {
		t.Error("async capture should not return image data")
	}
}

func TestCapture_CancelStopsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig(srv.URL, domain.BackendDigiCamPro)
	cfg.RetryAttempts = 5
	c := NewClient(staticConfig{cfg: cfg}, &zlog.Logger, WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	res := c.Capture(ctx)
	if res.Success {
		t.Fatal("Capture() succeeded")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 after cancellation", got)
	}
	if res.Error != ErrCaptureCancelled.Error() {
		t.Errorf("Error = %q, want %q", res.Error, ErrCaptureCancelled.Error())
	}
}

func TestCapture_ZeroRetryAttemptsStillTriesOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, domain.BackendDigiCamPro)
	cfg.RetryAttempts = 0
	c := newTestClient(cfg, &sleepRecorder{})
	c.Capture(context.Background())

	if got := hits.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

// =============================================================================
// LiveFeedURL tests
// =============================================================================

func TestLiveFeedURL_Deterministic(t *testing.T) {
	c := newTestClient(testConfig("http://cam.local:5513", domain.BackendDigiCamControl), &sleepRecorder{})
	ts := time.UnixMilli(1700000000123)

	a := c.LiveFeedURL(ts)
	b := c.LiveFeedURL(ts)
	if a != b {
		t.Errorf("LiveFeedURL not deterministic: %q vs %q", a, b)
	}

	u, err := url.Parse(a)
	if err != nil {
		t.Fatalf("url.Parse() error: %v", err)
	}
	if got := u.Query().Get("t"); got != "1700000000123" {
		t.Errorf("t = %q, want 1700000000123", got)
	}
	if u.Path != "/liveview.jpg" {
		t.Errorf("path = %q, want /liveview.jpg", u.Path)
	}
}

func TestLiveFeedURL_PreservesQuery(t *testing.T) {
	cfg := testConfig("http://cam.local", domain.BackendDigiCamPro)
	cfg.LiveFeedURL = "http://cam.local/live?size=small"
	c := newTestClient(cfg, &sleepRecorder{})

	u, _ := url.Parse(c.LiveFeedURL(time.UnixMilli(5)))
	if u.Query().Get("size") != "small" || u.Query().Get("t") != "5" {
		t.Errorf("query = %q", u.RawQuery)
	}
}

func TestFetchLiveFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") == "" {
			t.Error("live frame request missing cache-busting parameter")
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	c := newTestClient(testConfig(srv.URL, domain.BackendDigiCamControl), &sleepRecorder{})
	data, err := c.FetchLiveFrame(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("FetchLiveFrame() error: %v", err)
	}
	if len(data) != len(jpegBytes) {
		t.Errorf("len = %d, want %d", len(data), len(jpegBytes))
	}
}
