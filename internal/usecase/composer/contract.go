package composer

import (
	"context"
	"image"

	"photobooth/internal/domain"
)

type assetLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

type iconCatalog interface {
	IconByID(id string) (domain.OverlayIcon, bool)
}
