package gallery

import (
	"sort"
	"sync"
	"time"

	"photobooth/internal/domain"
)

// View is what the videotron screen renders.
type View struct {
	Current   *domain.PhotoRecord  `json:"current"`
	Index     int                  `json:"index"`
	Photos    []domain.PhotoRecord `json:"photos"`
	RotatedAt time.Time            `json:"rotated_at"`
}

// Gallery keeps the newest photos and the one currently on screen.
type Gallery struct {
	mu        sync.RWMutex
	size      int
	photos    []domain.PhotoRecord
	current   int
	rotatedAt time.Time
	now       func() time.Time
}

func New(size int) *Gallery {
	if size <= 0 {
		size = domain.DefaultGallerySize
	}
	return &Gallery{size: size, now: time.Now}
}

func (g *Gallery) Size() int { return g.size }

// Replace swaps in a fresh list, keeping the current photo on screen when it
// is still present.
func (g *Gallery) Replace(photos []domain.PhotoRecord) {
	next := make([]domain.PhotoRecord, 0, len(photos))
	for _, p := range photos {
		if !p.IsDeleted {
			next = append(next, p)
		}
	}
	sortNewestFirst(next)
	if len(next) > g.size {
		next = next[:g.size]
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	currentID := g.currentID()
	g.photos = next
	g.current = 0
	for i, p := range next {
		if p.ID == currentID {
			g.current = i
			break
		}
	}
}

// Add puts a new photo at the front. The oldest photo falls off when the
// gallery is full. A photo already present is updated in place.
func (g *Gallery) Add(p domain.PhotoRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.photos {
		if g.photos[i].ID == p.ID {
			g.photos[i] = p
			return
		}
	}

	currentID := g.currentID()
	g.photos = append([]domain.PhotoRecord{p}, g.photos...)
	sortNewestFirst(g.photos)
	if len(g.photos) > g.size {
		g.photos = g.photos[:g.size]
	}
	g.current = g.indexOf(currentID)
}

// Remove drops a photo. Reports whether it was present.
func (g *Gallery) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.photos {
		if g.photos[i].ID != id {
			continue
		}
		g.photos = append(g.photos[:i], g.photos[i+1:]...)
		if i < g.current {
			g.current--
		}
		if g.current >= len(g.photos) {
			g.current = 0
		}
		return true
	}
	return false
}

// Rotate advances to the next photo, wrapping at the end.
func (g *Gallery) Rotate() (domain.PhotoRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.photos) == 0 {
		return domain.PhotoRecord{}, false
	}
	g.current = (g.current + 1) % len(g.photos)
	g.rotatedAt = g.now()
	return g.photos[g.current], true
}

func (g *Gallery) View() View {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v := View{
		Index:     g.current,
		Photos:    make([]domain.PhotoRecord, len(g.photos)),
		RotatedAt: g.rotatedAt,
	}
	copy(v.Photos, g.photos)
	if len(g.photos) > 0 {
		cur := g.photos[g.current]
		v.Current = &cur
	}
	return v
}

func (g *Gallery) currentID() string {
	if g.current < len(g.photos) {
		return g.photos[g.current].ID
	}
	return ""
}

func (g *Gallery) indexOf(id string) int {
	for i, p := range g.photos {
		if p.ID == id {
			return i
		}
	}
	return 0
}

func sortNewestFirst(photos []domain.PhotoRecord) {
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].CreatedAt.After(photos[j].CreatedAt)
	})
}
