package watcher

import (
	"context"

	"photobooth/internal/domain"
)

// compositor applies the fixed overlay to a captured photo. A nil compositor
// means the capability is unavailable on this kiosk.
type compositor interface {
	Apply(ctx context.Context, src, dst string) error
}

type publisher interface {
	Publish(event domain.CaptureEvent)
}
