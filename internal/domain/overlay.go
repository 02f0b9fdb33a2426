package domain

type OverlayIcon struct {
	ID              string   `json:"id" validate:"required"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	IconPath        string   `json:"iconPath" validate:"required"`
	IconType        string   `json:"iconType"`
	DefaultSize     float64  `json:"defaultSize"`
	DefaultPosition Position `json:"defaultPosition"`
}

// IconOverlay is a placed instance of an OverlayIcon. Several placements may share an IconID.
type IconOverlay struct {
	ID       string   `json:"id"`
	IconID   string   `json:"iconId"`
	Position Position `json:"position"`
	Size     float64  `json:"size"`
	Rotation float64  `json:"rotation"`
	ZIndex   int      `json:"zIndex"`
}

type EditState struct {
	SessionID     string         `json:"sessionId"`
	Photo         string         `json:"photo"`
	SelectedFrame *FrameTemplate `json:"selectedFrame,omitempty"`
	FrameText     string         `json:"frameText"`
	TextSettings  *TextSettings  `json:"textSettings,omitempty"`
	Overlays      []IconOverlay  `json:"overlays"`
}
