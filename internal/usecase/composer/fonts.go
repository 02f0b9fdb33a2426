package composer

import (
	"fmt"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	fontRegular = "regular"
	fontBold    = "bold"
	fontItalic  = "italic"
	fontMedium  = "medium"
	fontMono    = "mono"
)

var familyAliases = map[string]string{
	"sans-serif":      fontRegular,
	"arial":           fontRegular,
	"helvetica":       fontRegular,
	"inter":           fontRegular,
	"roboto":          fontRegular,
	"system-ui":       fontRegular,
	"serif":           fontMedium,
	"georgia":         fontMedium,
	"times new roman": fontMedium,
	"impact":          fontBold,
	"arial black":     fontBold,
	"cursive":         fontItalic,
	"comic sans ms":   fontItalic,
	"monospace":       fontMono,
	"courier new":     fontMono,
	"courier":         fontMono,
}

// FontRegistry maps CSS font-family lists onto the bundled Go fonts. Parsed
// fonts are shared; faces are not safe for concurrent use and are created per
// caller.
type FontRegistry struct {
	fonts map[string]*truetype.Font
}

func NewFontRegistry() (*FontRegistry, error) {
	sources := map[string][]byte{
		fontRegular: goregular.TTF,
		fontBold:    gobold.TTF,
		fontItalic:  goitalic.TTF,
		fontMedium:  gomedium.TTF,
		fontMono:    gomono.TTF,
	}

	fonts := make(map[string]*truetype.Font, len(sources))
	for name, data := range sources {
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
		}
		fonts[name] = f
	}

	return &FontRegistry{fonts: fonts}, nil
}

// Resolve picks the first family of a CSS list that has a bundled match.
func (r *FontRegistry) Resolve(family string) string {
	for _, candidate := range strings.Split(family, ",") {
		name := strings.ToLower(strings.Trim(strings.TrimSpace(candidate), `"'`))
		if alias, ok := familyAliases[name]; ok {
			return alias
		}
		if _, ok := r.fonts[name]; ok {
			return name
		}
		if strings.Contains(name, "bold") || strings.Contains(name, "black") {
			return fontBold
		}
		if strings.Contains(name, "mono") {
			return fontMono
		}
	}
	return fontRegular
}

func (r *FontRegistry) Font(family string) *truetype.Font {
	return r.fonts[r.Resolve(family)]
}

func (r *FontRegistry) NewFace(family string, size float64) font.Face {
	return truetype.NewFace(r.Font(family), &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
