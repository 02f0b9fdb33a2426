package camera

import (
	"context"
	"io"

	"photobooth/internal/camera"
	"photobooth/internal/domain"
)

type cameraClient interface {
	CheckStatus(ctx context.Context) camera.StatusResult
	Capture(ctx context.Context) camera.CaptureResult
}

type liveStreamer interface {
	Stream(ctx context.Context, w io.Writer, boundary string, fps int) error
}

type configStore interface {
	Load() domain.CaptureConfig
	Update(next domain.CaptureConfig) error
}

type captureWriter interface {
	Save(data []byte) (string, error)
}
