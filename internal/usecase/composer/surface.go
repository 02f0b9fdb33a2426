package composer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

type FontSpec struct {
	Family string
	Size   float64
}

// Surface is the minimal 2D drawing API the composer renders against.
type Surface interface {
	Size() (w, h int)
	DrawImage(img image.Image, src image.Rectangle, x, y, w, h float64)
	FillRect(x, y, w, h float64, c color.Color)
	StrokeRect(x, y, w, h, lineWidth float64, c color.Color)
	MeasureText(text string, f FontSpec) float64
	// FillText draws with a top baseline: y is the top of the line box.
	FillText(text string, x, y float64, f FontSpec, c color.Color)
	Save()
	Restore()
	Translate(x, y float64)
	Rotate(radians float64)
}

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Raster is a software Surface backed by an *image.RGBA.
type Raster struct {
	img   *image.RGBA
	fonts *FontRegistry
	faces map[faceKey]font.Face
	m     f64.Aff3
	stack []f64.Aff3
}

type faceKey struct {
	family string
	size   float64
}

func NewRaster(w, h int, fonts *FontRegistry) *Raster {
	return &Raster{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		fonts: fonts,
		faces: make(map[faceKey]font.Face),
		m:     identity,
	}
}

func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

func (r *Raster) DrawImage(img image.Image, src image.Rectangle, x, y, w, h float64) {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	if sw <= 0 || sh <= 0 || w <= 0 || h <= 0 {
		return
	}
	sx, sy := w/sw, h/sh
	s2d := mul(r.m, f64.Aff3{
		sx, 0, x - float64(src.Min.X)*sx,
		0, sy, y - float64(src.Min.Y)*sy,
	})
	xdraw.BiLinear.Transform(r.img, s2d, img, src, xdraw.Over, nil)
}

func (r *Raster) FillRect(x, y, w, h float64, c color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	if r.m[1] == 0 && r.m[3] == 0 {
		x0, y0 := r.apply(x, y)
		x1, y1 := r.apply(x+w, y+h)
		rect := image.Rect(round(x0), round(y0), round(x1), round(y1)).Canon()
		draw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, draw.Over)
		return
	}
	s2d := mul(r.m, f64.Aff3{w, 0, x, 0, h, y})
	xdraw.NearestNeighbor.Transform(r.img, s2d, image.NewUniform(c), image.Rect(0, 0, 1, 1), xdraw.Over, nil)
}

// StrokeRect strokes centred on the rectangle outline, as a canvas does.
func (r *Raster) StrokeRect(x, y, w, h, lineWidth float64, c color.Color) {
	if lineWidth <= 0 {
		return
	}
	half := lineWidth / 2
	r.FillRect(x-half, y-half, w+lineWidth, lineWidth, c)
	r.FillRect(x-half, y+h-half, w+lineWidth, lineWidth, c)
	r.FillRect(x-half, y+half, lineWidth, h-lineWidth, c)
	r.FillRect(x+w-half, y+half, lineWidth, h-lineWidth, c)
}

func (r *Raster) MeasureText(text string, f FontSpec) float64 {
	face := r.face(f)
	return fixedToFloat(font.MeasureString(face, text))
}

// FillText transforms the anchor point only; glyphs are not rotated.
func (r *Raster) FillText(text string, x, y float64, f FontSpec, c color.Color) {
	if text == "" || f.Size <= 0 {
		return
	}
	face := r.face(f)
	ascent := fixedToFloat(face.Metrics().Ascent)
	px, py := r.apply(x, y+ascent)

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(r.fonts.Font(f.Family))
	ctx.SetFontSize(f.Size)
	ctx.SetClip(r.img.Bounds())
	ctx.SetDst(r.img)
	ctx.SetSrc(image.NewUniform(c))
	ctx.SetHinting(font.HintingFull)

	pt := fixed.Point26_6{X: floatToFixed(px), Y: floatToFixed(py)}
	_, _ = ctx.DrawString(text, pt)
}

func (r *Raster) Save() {
	r.stack = append(r.stack, r.m)
}

func (r *Raster) Restore() {
	if len(r.stack) == 0 {
		return
	}
	r.m = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *Raster) Translate(x, y float64) {
	r.m = mul(r.m, f64.Aff3{1, 0, x, 0, 1, y})
}

func (r *Raster) Rotate(radians float64) {
	sin, cos := math.Sincos(radians)
	r.m = mul(r.m, f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

func (r *Raster) face(f FontSpec) font.Face {
	key := faceKey{family: r.fonts.Resolve(f.Family), size: f.Size}
	if face, ok := r.faces[key]; ok {
		return face
	}
	face := r.fonts.NewFace(key.family, key.size)
	r.faces[key] = face
	return face
}

func (r *Raster) apply(x, y float64) (float64, float64) {
	return r.m[0]*x + r.m[1]*y + r.m[2], r.m[3]*x + r.m[4]*y + r.m[5]
}

// mul returns a∘b: b is applied first.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
