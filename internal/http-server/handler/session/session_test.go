package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"photobooth/internal/domain"
	"photobooth/internal/http-server/handler/dto"
	"photobooth/internal/repository/asset"
	"photobooth/internal/usecase/catalog"
	"photobooth/internal/usecase/composer"
	ucPhoto "photobooth/internal/usecase/photo"
	"photobooth/internal/usecase/session"

	"github.com/go-chi/chi/v5"
	"github.com/wb-go/wbf/zlog"
)

type stubComposer struct{}

func (stubComposer) Compose(_ context.Context, req composer.Request) ([]byte, error) {
	return []byte("full"), nil
}

func (stubComposer) ComposePreview(_ context.Context, req composer.Request) ([]byte, error) {
	return []byte("preview"), nil
}

type stubPhotos struct{}

func (stubPhotos) ReadPhoto(_ context.Context, ref string) ([]byte, error) {
	if ref == "missing.jpg" {
		return nil, asset.ErrAssetNotFound
	}
	return []byte("photo"), nil
}

type stubUploader struct {
	err error
}

func (u *stubUploader) Upload(_ context.Context, data []byte, filename string, edited bool) (*domain.PhotoRecord, error) {
	if u.err != nil {
		return nil, u.err
	}
	return &domain.PhotoRecord{ID: "p1", Filename: filename, IsEdited: edited}, nil
}

func newTestRouter(up *stubUploader) (http.Handler, *session.Manager) {
	manager := session.NewManager(catalog.Embedded(), stubComposer{}, stubPhotos{}, up, &zlog.Logger)
	h := NewSessionHandler(manager, &zlog.Logger)

	r := chi.NewRouter()
	r.Post("/session", h.Begin)
	r.Get("/session", h.Get)
	r.Delete("/session", h.End)
	r.Post("/session/clear", h.Clear)
	r.Put("/session/frame", h.SelectFrame)
	r.Put("/session/text", h.SetText)
	r.Put("/session/text-settings", h.SetTextSettings)
	r.Post("/session/overlays", h.AddOverlay)
	r.Patch("/session/overlays/{id}", h.UpdateOverlay)
	r.Delete("/session/overlays/{id}", h.RemoveOverlay)
	r.Get("/session/preview", h.Preview)
	r.Post("/session/finalize", h.Finalize)
	return r, manager
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNoSession(t *testing.T) {
	h, _ := newTestRouter(&stubUploader{})

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/session", ""},
		{http.MethodPut, "/session/text", `{"text":"hi"}`},
		{http.MethodGet, "/session/preview", ""},
		{http.MethodPost, "/session/finalize", ""},
	} {
		if rec := do(t, h, tc.method, tc.target, tc.body); rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", tc.method, tc.target, rec.Code)
		}
	}
}

func TestSessionEditFlow(t *testing.T) {
	h, manager := newTestRouter(&stubUploader{})

	rec := do(t, h, http.MethodPost, "/session", `{"photo":"overlay_IMG_1.jpg"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("begin status = %d", rec.Code)
	}

	if rec := do(t, h, http.MethodPut, "/session/frame", `{"frameId":"classic-white"}`); rec.Code != http.StatusOK {
		t.Fatalf("frame status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/session/frame", `{"frameId":"nope"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown frame status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodPut, "/session/text", fmt.Sprintf(`{"text":%q}`, strings.Repeat("a", 100)))
	var text dto.TextResponse
	if err := json.NewDecoder(rec.Body).Decode(&text); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(text.Text) != domain.MaxFrameTextLength || !text.Truncated {
		t.Errorf("text = %d runes truncated=%v", len(text.Text), text.Truncated)
	}

	rec = do(t, h, http.MethodPost, "/session/overlays", `{"iconId":"star","position":{"x":1075,"y":5}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add overlay status = %d", rec.Code)
	}
	var ov domain.IconOverlay
	if err := json.NewDecoder(rec.Body).Decode(&ov); err != nil {
		t.Fatalf("decode: %v", err)
	}
	half := ov.Size / 2
	if ov.Position.X != domain.CanvasSize-half || ov.Position.Y != half {
		t.Errorf("position = %+v, want clamped by %v", ov.Position, half)
	}

	if rec := do(t, h, http.MethodPost, "/session/overlays", `{"iconId":"ghost"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown icon status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodPatch, "/session/overlays/"+ov.ID, `{"rotation":45,"size":200}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPatch, "/session/overlays/"+ov.ID, `{"size":-1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("negative size status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodPatch, "/session/overlays/unknown", `{"rotation":1}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown overlay status = %d, want 404", rec.Code)
	}

	s, err := manager.Current()
	if err != nil {
		t.Fatal(err)
	}
	state := s.Snapshot()
	if state.SelectedFrame == nil || state.SelectedFrame.ID != "classic-white" {
		t.Errorf("frame = %+v", state.SelectedFrame)
	}
	if len(state.Overlays) != 1 || state.Overlays[0].Rotation != 45 || state.Overlays[0].Size != 200 {
		t.Errorf("overlays = %+v", state.Overlays)
	}

	rec = do(t, h, http.MethodGet, "/session/preview", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/jpeg" || rec.Body.String() != "preview" {
		t.Errorf("preview = %d %q %q", rec.Code, rec.Header().Get("Content-Type"), rec.Body.String())
	}

	if rec := do(t, h, http.MethodDelete, "/session/overlays/"+ov.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("remove status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/session/overlays/"+ov.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/session/finalize", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("finalize status = %d", rec.Code)
	}
	var photo dto.PhotoResponse
	if err := json.NewDecoder(rec.Body).Decode(&photo); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !photo.IsEdited || photo.Filename != "edited_IMG_1.jpg" {
		t.Errorf("photo = %+v", photo)
	}
	if _, err := manager.Current(); err == nil {
		t.Error("session still open after finalize")
	}
}

func TestTextSettings(t *testing.T) {
	h, manager := newTestRouter(&stubUploader{})
	do(t, h, http.MethodPost, "/session", `{"photo":"IMG_2.jpg"}`)

	if rec := do(t, h, http.MethodPut, "/session/text-settings", `{"enabled":true,"fontSize":40,"color":"#ff0000"}`); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	s, _ := manager.Current()
	if st := s.Snapshot().TextSettings; st == nil || st.FontSize != 40 {
		t.Errorf("settings = %+v", st)
	}

	if rec := do(t, h, http.MethodPut, "/session/text-settings", `{"color":"not-a-colour"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad colour status = %d, want 400", rec.Code)
	}

	if rec := do(t, h, http.MethodPut, "/session/text-settings", `null`); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if st := s.Snapshot().TextSettings; st != nil {
		t.Errorf("settings = %+v, want nil", st)
	}
}

func TestFinalizeUploadFailureKeepsSession(t *testing.T) {
	h, manager := newTestRouter(&stubUploader{err: fmt.Errorf("%w: timeout", ucPhoto.ErrStorageError)})
	do(t, h, http.MethodPost, "/session", `{"photo":"IMG_2.jpg"}`)

	rec := do(t, h, http.MethodPost, "/session/finalize", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if _, err := manager.Current(); err != nil {
		t.Error("session closed after failed upload")
	}
}

func TestPreviewMissingPhoto(t *testing.T) {
	h, _ := newTestRouter(&stubUploader{})
	do(t, h, http.MethodPost, "/session", `{"photo":"missing.jpg"}`)

	if rec := do(t, h, http.MethodGet, "/session/preview", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestClearKeepsPhoto(t *testing.T) {
	h, manager := newTestRouter(&stubUploader{})
	do(t, h, http.MethodPost, "/session", `{"photo":"IMG_2.jpg"}`)
	do(t, h, http.MethodPut, "/session/text", `{"text":"hello"}`)

	if rec := do(t, h, http.MethodPost, "/session/clear", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	s, _ := manager.Current()
	state := s.Snapshot()
	if state.FrameText != "" || state.Photo != "IMG_2.jpg" {
		t.Errorf("state = %+v", state)
	}
}
