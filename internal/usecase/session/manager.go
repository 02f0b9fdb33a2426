package session

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"photobooth/internal/domain"
	"photobooth/internal/usecase/composer"

	"github.com/wb-go/wbf/zlog"
)

// Manager owns the single current EditSession. Beginning a new session
// discards the previous one.
type Manager struct {
	catalog  catalog
	composer imageComposer
	photos   photoSource
	uploader photoUploader
	logger   *zlog.Zerolog
	opts     []Option

	mu      sync.RWMutex
	current *EditSession
}

func NewManager(catalog catalog, composer imageComposer, photos photoSource, uploader photoUploader, logger *zlog.Zerolog, opts ...Option) *Manager {
	return &Manager{
		catalog:  catalog,
		composer: composer,
		photos:   photos,
		uploader: uploader,
		logger:   logger,
		opts:     opts,
	}
}

func (m *Manager) Begin(photo string) *EditSession {
	s := New(photo, m.catalog, m.opts...)

	m.mu.Lock()
	previous := m.current
	m.current = s
	m.mu.Unlock()

	event := m.logger.Info().Str("session_id", s.ID()).Str("photo", photo)
	if previous != nil {
		event = event.Str("discarded_session", previous.ID())
	}
	event.Msg("Edit session started")

	return s
}

func (m *Manager) Current() (*EditSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return nil, ErrNoSession
	}
	return m.current, nil
}

func (m *Manager) End() {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()

	if s != nil {
		m.logger.Info().Str("session_id", s.ID()).Msg("Edit session ended")
	}
}

// Preview renders the current state on the preview canvas.
func (m *Manager) Preview(ctx context.Context) ([]byte, error) {
	s, err := m.Current()
	if err != nil {
		return nil, err
	}

	req, err := m.request(ctx, s.Snapshot())
	if err != nil {
		return nil, err
	}
	return m.composer.ComposePreview(ctx, req)
}

// Finalize composes the full-size image, uploads it and ends the session.
// On upload failure the session stays open so the user can retry.
func (m *Manager) Finalize(ctx context.Context) (*domain.PhotoRecord, error) {
	s, err := m.Current()
	if err != nil {
		return nil, err
	}
	state := s.Snapshot()

	req, err := m.request(ctx, state)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := m.composer.Compose(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to compose photo: %w", err)
	}

	m.logger.Info().
		Str("session_id", state.SessionID).
		Int("bytes", len(data)).
		Dur("took", time.Since(start)).
		Msg("Photo composed")

	record, err := m.uploader.Upload(ctx, data, editedFilename(state.Photo), true)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.current == s {
		m.current = nil
	}
	m.mu.Unlock()

	return record, nil
}

func (m *Manager) request(ctx context.Context, state domain.EditState) (composer.Request, error) {
	data, err := m.photos.ReadPhoto(ctx, state.Photo)
	if err != nil {
		return composer.Request{}, fmt.Errorf("failed to read photo %s: %w", state.Photo, err)
	}
	return RequestFromState(state, data), nil
}

func RequestFromState(state domain.EditState, photo []byte) composer.Request {
	return composer.Request{
		Photo:        photo,
		Frame:        state.SelectedFrame,
		Text:         state.FrameText,
		TextSettings: state.TextSettings,
		Overlays:     state.Overlays,
	}
}

func editedFilename(photo string) string {
	base := path.Base(strings.ReplaceAll(photo, "\\", "/"))
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.TrimPrefix(base, domain.ProcessedPrefix)
	if base == "" || base == "." || base == "/" {
		base = "photo"
	}
	return "edited_" + base + ".jpg"
}
