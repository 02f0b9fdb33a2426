package domain

import "time"

type CameraBackend string

const (
	BackendDigiCamControl CameraBackend = "digicamcontrol"
	BackendDigiCamPro     CameraBackend = "digicampro"
)

// CaptureConfig is replaced as a whole on update; readers never see a partially applied value.
type CaptureConfig struct {
	Backend       CameraBackend `json:"backend" yaml:"backend" validate:"required,oneof=digicamcontrol digicampro"`
	LiveFeedURL   string        `json:"liveFeedUrl" yaml:"live_feed_url" validate:"required,http_url"`
	CaptureURL    string        `json:"captureUrl" yaml:"capture_url" validate:"required,http_url"`
	StatusURL     string        `json:"statusUrl,omitempty" yaml:"status_url" validate:"omitempty,http_url"`
	RefreshRate   int           `json:"refreshRate" yaml:"refresh_rate" validate:"min=1,max=60"`
	Timeout       int           `json:"timeout" yaml:"timeout" validate:"min=1000,max=30000"`
	RetryAttempts int           `json:"retryAttempts" yaml:"retry_attempts" validate:"min=0,max=10"`
}

func (c CaptureConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// SynchronousCapture reports whether the backend answers a capture with the image bytes.
func (c CaptureConfig) SynchronousCapture() bool {
	return c.Backend == BackendDigiCamPro
}

func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Backend:       BackendDigiCamControl,
		LiveFeedURL:   "http://localhost:5513/liveview.jpg",
		CaptureURL:    "http://localhost:5513/?CMD=Capture",
		RefreshRate:   20,
		Timeout:       5000,
		RetryAttempts: 3,
	}
}

type OverlayOutcome string

const (
	OutcomeApplied     OverlayOutcome = "applied"
	OutcomeUnavailable OverlayOutcome = "unavailable"
	OutcomeFailed      OverlayOutcome = "failed"
)

type CaptureEvent struct {
	Original   string         `json:"original"`
	Processed  string         `json:"processed"`
	Outcome    OverlayOutcome `json:"outcome"`
	DetectedAt time.Time      `json:"detected_at"`
}
