package session

import (
	"errors"
	"strings"
	"testing"

	"photobooth/internal/domain"
)

type fakeCatalog struct {
	frames map[string]domain.FrameTemplate
	icons  map[string]domain.OverlayIcon
}

func (f fakeCatalog) FrameByID(id string) (domain.FrameTemplate, bool) {
	fr, ok := f.frames[id]
	return fr, ok
}

func (f fakeCatalog) IconByID(id string) (domain.OverlayIcon, bool) {
	ic, ok := f.icons[id]
	return ic, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		frames: map[string]domain.FrameTemplate{
			"classic": {ID: "classic", Name: "Classic", TextSettings: domain.TextSettings{Enabled: true}},
		},
		icons: map[string]domain.OverlayIcon{
			"star":  {ID: "star", IconPath: "icons/star.png", DefaultSize: 100, DefaultPosition: domain.Position{X: 540, Y: 540}},
			"heart": {ID: "heart", IconPath: "icons/heart.png", DefaultPosition: domain.Position{X: 10, Y: 10}},
		},
	}
}

func TestClampPosition(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Position
		size float64
		want domain.Position
	}{
		{"inside unchanged", domain.Position{X: 300, Y: 400}, 100, domain.Position{X: 300, Y: 400}},
		{"beyond right and above top", domain.Position{X: 2000, Y: -50}, 100, domain.Position{X: 1030, Y: 50}},
		{"beyond left and below bottom", domain.Position{X: -10, Y: 1500}, 200, domain.Position{X: 100, Y: 980}},
		{"exact edge", domain.Position{X: 50, Y: 1030}, 100, domain.Position{X: 50, Y: 1030}},
		{"larger than canvas is centred", domain.Position{X: 0, Y: 0}, 2000, domain.Position{X: 540, Y: 540}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPosition(tt.in, tt.size, domain.CanvasSize); got != tt.want {
				t.Errorf("ClampPosition(%v, %v) = %v, want %v", tt.in, tt.size, got, tt.want)
			}
		})
	}
}

func TestUpdateOverlayClampsPosition(t *testing.T) {
	s := New("a.jpg", testCatalog())
	ov, err := s.AddOverlay("star", nil)
	if err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}

	got, err := s.UpdateOverlay(ov.ID, OverlayPatch{Position: &domain.Position{X: 2000, Y: -50}})
	if err != nil {
		t.Fatalf("UpdateOverlay: %v", err)
	}
	if got.Position != (domain.Position{X: 1030, Y: 50}) {
		t.Errorf("position = %v, want {1030 50}", got.Position)
	}

	size := 300.0
	got, err = s.UpdateOverlay(ov.ID, OverlayPatch{Size: &size})
	if err != nil {
		t.Fatalf("UpdateOverlay size: %v", err)
	}
	if got.Position != (domain.Position{X: 930, Y: 150}) {
		t.Errorf("growing the overlay must re-clamp, got %v", got.Position)
	}

	zero := 0.0
	if _, err := s.UpdateOverlay(ov.ID, OverlayPatch{Size: &zero}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero size err = %v, want ErrInvalidSize", err)
	}
	if _, err := s.UpdateOverlay("missing", OverlayPatch{}); !errors.Is(err, ErrOverlayNotFound) {
		t.Errorf("missing overlay err = %v, want ErrOverlayNotFound", err)
	}
}

func TestAddOverlay(t *testing.T) {
	s := New("a.jpg", testCatalog())

	first, err := s.AddOverlay("star", nil)
	if err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}
	if first.Position != (domain.Position{X: 540, Y: 540}) || first.Size != 100 {
		t.Errorf("defaults not applied: %+v", first)
	}

	second, err := s.AddOverlay("star", &domain.Position{X: 200, Y: 300})
	if err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}
	if second.Position != (domain.Position{X: 200, Y: 300}) {
		t.Errorf("explicit position ignored: %+v", second)
	}
	if second.ID == first.ID {
		t.Error("placements of the same icon share an id")
	}
	if second.ZIndex <= first.ZIndex {
		t.Errorf("zIndex not increasing: %d then %d", first.ZIndex, second.ZIndex)
	}

	heart, err := s.AddOverlay("heart", nil)
	if err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}
	if heart.Size != defaultOverlaySize || heart.Position != (domain.Position{X: 50, Y: 50}) {
		t.Errorf("heart = %+v, want default size and clamped position", heart)
	}

	if _, err := s.AddOverlay("nope", nil); !errors.Is(err, ErrUnknownIcon) {
		t.Errorf("unknown icon err = %v", err)
	}
}

func TestAddThenRemoveRestoresOverlays(t *testing.T) {
	s := New("a.jpg", testCatalog())
	keep, _ := s.AddOverlay("star", nil)
	before := s.Snapshot().Overlays

	added, err := s.AddOverlay("heart", nil)
	if err != nil {
		t.Fatalf("AddOverlay: %v", err)
	}
	if err := s.RemoveOverlay(added.ID); err != nil {
		t.Fatalf("RemoveOverlay: %v", err)
	}

	after := s.Snapshot().Overlays
	if len(after) != len(before) || after[0] != keep {
		t.Errorf("overlays after add/remove = %+v, want %+v", after, before)
	}
	if err := s.RemoveOverlay(added.ID); !errors.Is(err, ErrOverlayNotFound) {
		t.Errorf("second remove err = %v", err)
	}
}

func TestSetTextCapsLength(t *testing.T) {
	s := New("a.jpg", testCatalog())

	long := strings.Repeat("ж", 100)
	got := s.SetText(long)
	if n := len([]rune(got)); n != domain.MaxFrameTextLength {
		t.Errorf("stored %d runes, want %d", n, domain.MaxFrameTextLength)
	}
	if s.Snapshot().FrameText != got {
		t.Error("snapshot text differs from stored text")
	}

	short := New("a.jpg", testCatalog(), WithMaxTextLength(5))
	if got := short.SetText("hello world"); got != "hello" {
		t.Errorf("SetText = %q, want hello", got)
	}
}

func TestSelectFrameAndClear(t *testing.T) {
	s := New("a.jpg", testCatalog())

	if err := s.SelectFrame("missing"); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("missing frame err = %v", err)
	}
	if err := s.SelectFrame("classic"); err != nil {
		t.Fatalf("SelectFrame: %v", err)
	}
	s.SetText("hi")
	s.SetTextSettings(&domain.TextSettings{FontSize: 30})
	s.AddOverlay("star", nil)

	state := s.Snapshot()
	if state.SelectedFrame == nil || state.SelectedFrame.ID != "classic" {
		t.Fatalf("frame not selected: %+v", state.SelectedFrame)
	}
	if state.TextSettings == nil || state.TextSettings.FontSize != 30 {
		t.Fatalf("text settings not stored: %+v", state.TextSettings)
	}

	s.Clear()
	state = s.Snapshot()
	if state.SelectedFrame != nil || state.FrameText != "" || state.TextSettings != nil || len(state.Overlays) != 0 {
		t.Errorf("Clear left state behind: %+v", state)
	}
	if state.Photo != "a.jpg" {
		t.Errorf("Clear dropped the photo: %q", state.Photo)
	}

	if err := s.SelectFrame("classic"); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectFrame(""); err != nil || s.Snapshot().SelectedFrame != nil {
		t.Errorf("empty id must deselect, err=%v", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New("a.jpg", testCatalog())
	s.AddOverlay("star", nil)

	state := s.Snapshot()
	state.Overlays[0].Position.X = 1

	if s.Snapshot().Overlays[0].Position.X == 1 {
		t.Error("mutating a snapshot changed the session")
	}
}
