package composer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"sort"
	"strings"

	"photobooth/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

const defaultIconSize = 100

var defaultTextColor = color.RGBA{255, 255, 255, 255}

// Request is everything needed to render one composition. Coordinates are
// always in full canvas space.
type Request struct {
	Photo        []byte
	Frame        *domain.FrameTemplate
	Text         string
	TextSettings *domain.TextSettings
	Overlays     []domain.IconOverlay
}

type Composer struct {
	assets      assetLoader
	icons       iconCatalog
	fonts       *FontRegistry
	logger      *zlog.Zerolog
	canvasSize  int
	previewSize int
	wrapWidth   float64
	quality     int
}

type Option func(*Composer)

func WithCanvasSize(size int) Option {
	return func(c *Composer) {
		if size > 0 {
			c.canvasSize = size
		}
	}
}

func WithPreviewSize(size int) Option {
	return func(c *Composer) {
		if size > 0 {
			c.previewSize = size
		}
	}
}

func WithWrapWidth(width float64) Option {
	return func(c *Composer) {
		if width > 0 {
			c.wrapWidth = width
		}
	}
}

func WithQuality(quality int) Option {
	return func(c *Composer) {
		if quality > 0 && quality <= 100 {
			c.quality = quality
		}
	}
}

func NewComposer(assets assetLoader, icons iconCatalog, fonts *FontRegistry, logger *zlog.Zerolog, opts ...Option) *Composer {
	c := &Composer{
		assets:      assets,
		icons:       icons,
		fonts:       fonts,
		logger:      logger,
		canvasSize:  domain.CanvasSize,
		previewSize: domain.PreviewCanvasSize,
		wrapWidth:   domain.DefaultWrapWidth,
		quality:     domain.DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Composer) CanvasSize() int { return c.canvasSize }

// Compose renders the final full-size JPEG.
func (c *Composer) Compose(ctx context.Context, req Request) ([]byte, error) {
	img, err := c.Render(ctx, req, c.canvasSize)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img, c.quality)
}

// ComposePreview renders the same composition on the smaller preview canvas.
func (c *Composer) ComposePreview(ctx context.Context, req Request) ([]byte, error) {
	img, err := c.Render(ctx, req, c.previewSize)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img, c.quality)
}

// Render draws the composition onto a size x size canvas. Every coordinate
// is scaled by size/canvasSize.
func (c *Composer) Render(ctx context.Context, req Request, size int) (*image.RGBA, error) {
	if len(req.Photo) == 0 {
		return nil, ErrNoPhoto
	}

	photo, format, err := image.Decode(bytes.NewReader(req.Photo))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}

	scale := float64(size) / float64(c.canvasSize)
	surface := NewRaster(size, size, c.fonts)

	c.logger.Debug().
		Str("photo_format", format).
		Int("canvas", size).
		Bool("has_frame", req.Frame != nil).
		Int("overlays", len(req.Overlays)).
		Msg("Rendering composition")

	drawCover(surface, photo)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.drawFrame(ctx, surface, req.Frame, scale)

	c.drawText(surface, req, scale)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.drawOverlays(ctx, surface, req.Overlays, scale)

	return surface.Image(), nil
}

// drawCover fills the canvas with the centred crop of img that matches the
// canvas aspect ratio.
func drawCover(s Surface, img image.Image) {
	w, h := s.Size()
	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()
	if origWidth == 0 || origHeight == 0 {
		return
	}

	targetAspect := float64(w) / float64(h)
	cropWidth, cropHeight := origWidth, origHeight
	if float64(origWidth)/float64(origHeight) > targetAspect {
		cropWidth = int(math.Round(float64(origHeight) * targetAspect))
	} else {
		cropHeight = int(math.Round(float64(origWidth) / targetAspect))
	}

	cropX := bounds.Min.X + (origWidth-cropWidth)/2
	cropY := bounds.Min.Y + (origHeight-cropHeight)/2
	src := image.Rect(cropX, cropY, cropX+cropWidth, cropY+cropHeight)

	s.DrawImage(img, src, 0, 0, float64(w), float64(h))
}

func (c *Composer) drawText(s Surface, req Request, scale float64) {
	if req.Frame == nil || !req.Frame.TextSettings.Enabled || strings.TrimSpace(req.Text) == "" {
		return
	}

	settings := EffectiveTextSettings(req.Frame.TextSettings, req.TextSettings)
	spec := FontSpec{Family: settings.FontFamily, Size: settings.FontSize * scale}
	col := MustColor(settings.Color, defaultTextColor)

	lines := WrapText(req.Text, c.wrapWidth*scale, func(line string) float64 {
		return s.MeasureText(line, spec)
	})

	x := settings.Position.X * scale
	y := settings.Position.Y * scale
	for i, line := range lines {
		s.FillText(line, x, y+float64(i)*spec.Size, spec, col)
	}
}

// EffectiveTextSettings overlays the non-zero fields of override onto the
// frame defaults and fills in the global defaults.
func EffectiveTextSettings(base domain.TextSettings, override *domain.TextSettings) domain.TextSettings {
	out := base
	if override != nil {
		if override.Position != (domain.Position{}) {
			out.Position = override.Position
		}
		if override.FontSize > 0 {
			out.FontSize = override.FontSize
		}
		if override.FontFamily != "" {
			out.FontFamily = override.FontFamily
		}
		if override.Color != "" {
			out.Color = override.Color
		}
		if override.Align != "" {
			out.Align = override.Align
		}
	}

	if out.FontSize <= 0 {
		out.FontSize = domain.DefaultFontSize
	}
	if out.FontFamily == "" {
		out.FontFamily = domain.DefaultFontFamily
	}
	if out.Color == "" {
		out.Color = domain.DefaultTextColor
	}
	return out
}

func (c *Composer) drawOverlays(ctx context.Context, s Surface, overlays []domain.IconOverlay, scale float64) {
	ordered := make([]domain.IconOverlay, len(overlays))
	copy(ordered, overlays)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ZIndex < ordered[j].ZIndex
	})

	for _, ov := range ordered {
		icon, ok := c.icons.IconByID(ov.IconID)
		if !ok {
			c.logger.Warn().
				Str("overlay_id", ov.ID).
				Str("icon_id", ov.IconID).
				Msg("Unknown icon, overlay skipped")
			continue
		}

		img, err := c.assets.Load(ctx, icon.IconPath)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("overlay_id", ov.ID).
				Str("icon_path", icon.IconPath).
				Msg("Icon failed to load, overlay skipped")
			continue
		}

		size := ov.Size
		if size <= 0 {
			size = icon.DefaultSize
		}
		if size <= 0 {
			size = defaultIconSize
		}
		size *= scale

		s.Save()
		s.Translate(ov.Position.X*scale, ov.Position.Y*scale)
		s.Rotate(ov.Rotation * math.Pi / 180)
		s.DrawImage(img, img.Bounds(), -size/2, -size/2, size, size)
		s.Restore()
	}
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
