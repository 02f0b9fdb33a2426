package session

import (
	"context"

	"photobooth/internal/domain"
	"photobooth/internal/usecase/composer"
)

type catalog interface {
	FrameByID(id string) (domain.FrameTemplate, bool)
	IconByID(id string) (domain.OverlayIcon, bool)
}

type imageComposer interface {
	Compose(ctx context.Context, req composer.Request) ([]byte, error)
	ComposePreview(ctx context.Context, req composer.Request) ([]byte, error)
}

type photoSource interface {
	ReadPhoto(ctx context.Context, ref string) ([]byte, error)
}

type photoUploader interface {
	Upload(ctx context.Context, data []byte, filename string, edited bool) (*domain.PhotoRecord, error)
}
