package catalog

import "photobooth/internal/domain"

type frameCatalog interface {
	Source() string
	Frames() []domain.FrameTemplate
	Icons() []domain.OverlayIcon
}
