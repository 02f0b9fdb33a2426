package session

import (
	"sync"
	"unicode/utf8"

	"photobooth/internal/domain"

	"github.com/google/uuid"
)

const defaultOverlaySize = 100

// OverlayPatch carries the fields of an overlay to change; nil fields are kept.
type OverlayPatch struct {
	Position *domain.Position `json:"position,omitempty"`
	Size     *float64         `json:"size,omitempty"`
	Rotation *float64         `json:"rotation,omitempty"`
	ZIndex   *int             `json:"zIndex,omitempty"`
}

// EditSession is the edit in progress for one captured photo.
type EditSession struct {
	mu sync.Mutex

	id        string
	photo     string
	catalog   catalog
	canvas    float64
	maxText   int
	frame     *domain.FrameTemplate
	text      string
	settings  *domain.TextSettings
	overlays  []domain.IconOverlay
	nextIndex int
}

type Option func(*EditSession)

func WithCanvasSize(size int) Option {
	return func(s *EditSession) {
		if size > 0 {
			s.canvas = float64(size)
		}
	}
}

func WithMaxTextLength(n int) Option {
	return func(s *EditSession) {
		if n > 0 {
			s.maxText = n
		}
	}
}

func New(photo string, catalog catalog, opts ...Option) *EditSession {
	s := &EditSession{
		id:        uuid.New().String(),
		photo:     photo,
		catalog:   catalog,
		canvas:    domain.CanvasSize,
		maxText:   domain.MaxFrameTextLength,
		overlays:  []domain.IconOverlay{},
		nextIndex: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EditSession) ID() string { return s.id }

func (s *EditSession) Photo() string { return s.photo }

// SelectFrame selects a catalog frame; an empty id deselects.
func (s *EditSession) SelectFrame(id string) error {
	if id == "" {
		s.mu.Lock()
		s.frame = nil
		s.mu.Unlock()
		return nil
	}

	frame, ok := s.catalog.FrameByID(id)
	if !ok {
		return ErrFrameNotFound
	}

	s.mu.Lock()
	s.frame = &frame
	s.mu.Unlock()
	return nil
}

// SetText stores text truncated to the configured rune cap and returns what
// was stored.
func (s *EditSession) SetText(text string) string {
	if utf8.RuneCountInString(text) > s.maxText {
		text = string([]rune(text)[:s.maxText])
	}

	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	return text
}

// SetTextSettings overrides the frame's text defaults; nil removes the override.
func (s *EditSession) SetTextSettings(settings *domain.TextSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settings == nil {
		s.settings = nil
		return
	}
	cp := *settings
	s.settings = &cp
}

// AddOverlay places a new instance of the icon. Without an explicit position
// the icon's default position is used.
func (s *EditSession) AddOverlay(iconID string, pos *domain.Position) (domain.IconOverlay, error) {
	icon, ok := s.catalog.IconByID(iconID)
	if !ok {
		return domain.IconOverlay{}, ErrUnknownIcon
	}

	size := icon.DefaultSize
	if size <= 0 {
		size = defaultOverlaySize
	}
	position := icon.DefaultPosition
	if pos != nil {
		position = *pos
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ov := domain.IconOverlay{
		ID:       uuid.New().String(),
		IconID:   icon.ID,
		Position: ClampPosition(position, size, s.canvas),
		Size:     size,
		ZIndex:   s.nextIndex,
	}
	s.nextIndex++
	s.overlays = append(s.overlays, ov)
	return ov, nil
}

func (s *EditSession) RemoveOverlay(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ov := range s.overlays {
		if ov.ID == id {
			s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
			return nil
		}
	}
	return ErrOverlayNotFound
}

// UpdateOverlay applies patch and re-clamps the position so the overlay's
// box stays on the canvas.
func (s *EditSession) UpdateOverlay(id string, patch OverlayPatch) (domain.IconOverlay, error) {
	if patch.Size != nil && *patch.Size <= 0 {
		return domain.IconOverlay{}, ErrInvalidSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.overlays {
		ov := &s.overlays[i]
		if ov.ID != id {
			continue
		}
		if patch.Size != nil {
			ov.Size = *patch.Size
		}
		if patch.Rotation != nil {
			ov.Rotation = *patch.Rotation
		}
		if patch.ZIndex != nil {
			ov.ZIndex = *patch.ZIndex
			if ov.ZIndex >= s.nextIndex {
				s.nextIndex = ov.ZIndex + 1
			}
		}
		if patch.Position != nil {
			ov.Position = *patch.Position
		}
		ov.Position = ClampPosition(ov.Position, ov.Size, s.canvas)
		return *ov, nil
	}
	return domain.IconOverlay{}, ErrOverlayNotFound
}

// Clear resets the edit to its empty state. The photo stays attached.
func (s *EditSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame = nil
	s.text = ""
	s.settings = nil
	s.overlays = []domain.IconOverlay{}
	s.nextIndex = 1
}

// Snapshot returns a deep copy of the current state.
func (s *EditSession) Snapshot() domain.EditState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.EditState{
		SessionID: s.id,
		Photo:     s.photo,
		FrameText: s.text,
		Overlays:  make([]domain.IconOverlay, len(s.overlays)),
	}
	copy(state.Overlays, s.overlays)
	if s.frame != nil {
		frame := *s.frame
		state.SelectedFrame = &frame
	}
	if s.settings != nil {
		settings := *s.settings
		state.TextSettings = &settings
	}
	return state
}

// ClampPosition keeps a size x size box centred on p inside a square canvas.
// A box larger than the canvas is centred.
func ClampPosition(p domain.Position, size, canvas float64) domain.Position {
	half := size / 2
	lo, hi := half, canvas-half
	if lo > hi {
		return domain.Position{X: canvas / 2, Y: canvas / 2}
	}
	return domain.Position{
		X: clamp(p.X, lo, hi),
		Y: clamp(p.Y, lo, hi),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
