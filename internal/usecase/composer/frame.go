package composer

import (
	"context"
	"image/color"

	"photobooth/internal/domain"
)

var defaultBorderColor = color.RGBA{255, 255, 255, 255}

// drawFrame paints the frame image over the whole canvas. When the image is
// missing or fails to load the vector style is painted instead.
func (c *Composer) drawFrame(ctx context.Context, s Surface, frame *domain.FrameTemplate, scale float64) {
	if frame == nil {
		return
	}

	if frame.HasFrameImage() {
		img, err := c.assets.Load(ctx, frame.FrameImage)
		if err == nil {
			w, h := s.Size()
			s.DrawImage(img, img.Bounds(), 0, 0, float64(w), float64(h))
			return
		}
		c.logger.Warn().
			Err(err).
			Str("frame_id", frame.ID).
			Str("frame_image", frame.FrameImage).
			Msg("Frame image unavailable, drawing vector frame")
	}

	drawVectorFrame(s, frame.Style, scale)
}

func drawVectorFrame(s Surface, style domain.FrameStyle, scale float64) {
	w, h := s.Size()

	if rect := style.BackgroundRect; rect != nil && style.BackgroundColor != "" {
		if bg, err := ParseColor(style.BackgroundColor); err == nil {
			s.FillRect(rect.X*scale, rect.Y*scale, rect.Width*scale, rect.Height*scale, bg)
		}
	}

	bw := style.BorderWidth * scale
	if bw <= 0 {
		return
	}
	border := MustColor(style.BorderColor, defaultBorderColor)
	s.StrokeRect(bw/2, bw/2, float64(w)-bw, float64(h)-bw, bw, border)
}
