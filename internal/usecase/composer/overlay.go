package composer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"os"
	"path/filepath"

	"photobooth/internal/repository/asset"
)

// OverlayApplier composites a fixed overlay image, centred at its natural
// size, onto captured photos.
type OverlayApplier struct {
	assets      assetLoader
	overlayPath string
	quality     int
}

func NewOverlayApplier(assets assetLoader, overlayPath string, quality int) *OverlayApplier {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &OverlayApplier{
		assets:      assets,
		overlayPath: overlayPath,
		quality:     quality,
	}
}

func (a *OverlayApplier) OverlayPath() string { return a.overlayPath }

// Apply reads src, draws the overlay over it and writes the JPEG to dst.
// dst is written through a temporary file so readers never see a partial
// image.
func (a *OverlayApplier) Apply(ctx context.Context, src, dst string) error {
	overlay, err := a.assets.Load(ctx, a.overlayPath)
	if errors.Is(err, asset.ErrAssetNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrOverlayMissing, err)
	}
	if err != nil {
		return fmt.Errorf("failed to load overlay: %w", err)
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open photo: %w", err)
	}
	photo, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}

	bounds := photo.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), photo, bounds.Min, draw.Src)

	ob := overlay.Bounds()
	offset := image.Pt((bounds.Dx()-ob.Dx())/2, (bounds.Dy()-ob.Dy())/2)
	draw.Draw(canvas, ob.Sub(ob.Min).Add(offset), overlay, ob.Min, draw.Over)

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeJPEG(canvas, a.quality)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write composed photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close composed photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move composed photo: %w", err)
	}
	return nil
}
