package domain

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

type EditableFields struct {
	Position bool `json:"position"`
	Color    bool `json:"color"`
	Size     bool `json:"size"`
}

// TextSettings positions are in full-resolution canvas space (CanvasSize), never preview space.
type TextSettings struct {
	Enabled    bool           `json:"enabled"`
	Position   Position       `json:"position"`
	FontSize   float64        `json:"fontSize" validate:"omitempty,gt=0,lte=400"`
	FontFamily string         `json:"fontFamily"`
	Color      string         `json:"color"`
	MaxWidth   float64        `json:"maxWidth"`
	Padding    float64        `json:"padding"`
	Align      TextAlign      `json:"align"`
	Editable   EditableFields `json:"editable"`
}

type FrameStyle struct {
	BorderWidth     float64 `json:"borderWidth"`
	BorderColor     string  `json:"borderColor"`
	BackgroundColor string  `json:"backgroundColor"`
	BackgroundRect  *Rect   `json:"backgroundRect,omitempty"`
}

type FrameTemplate struct {
	ID           string       `json:"id" validate:"required"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	PreviewImage string       `json:"previewImage"`
	FrameImage   string       `json:"frameImage,omitempty"`
	Style        FrameStyle   `json:"style"`
	TextSettings TextSettings `json:"textSettings"`
}

func (f *FrameTemplate) HasFrameImage() bool {
	return f != nil && f.FrameImage != ""
}
