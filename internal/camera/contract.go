package camera

import "photobooth/internal/domain"

type configSource interface {
	Load() domain.CaptureConfig
}
