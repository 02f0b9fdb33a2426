package session

import (
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"photobooth/internal/domain"
	"photobooth/internal/http-server/handler/dto"
	"photobooth/internal/http-server/handler/respond"
	"photobooth/internal/repository/asset"
	"photobooth/internal/usecase/composer"
	ucPhoto "photobooth/internal/usecase/photo"
	"photobooth/internal/usecase/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

type SessionHandler struct {
	manager  sessionManager
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewSessionHandler(manager sessionManager, logger *zlog.Zerolog) *SessionHandler {
	return &SessionHandler{
		manager:  manager,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *SessionHandler) Begin(w http.ResponseWriter, r *http.Request) {
	var req dto.BeginSessionRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "photo is required", nil)
		return
	}

	s := h.manager.Begin(req.Photo)
	respond.JSON(w, h.logger, http.StatusCreated, dto.SessionResponse{State: s.Snapshot()})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w)
	if !ok {
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, dto.SessionResponse{State: s.Snapshot()})
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	h.manager.End()
	w.WriteHeader(http.StatusNoContent)
}

// Clear resets frame, text and overlays but keeps the session's photo.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w)
	if !ok {
		return
	}
	s.Clear()
	respond.JSON(w, h.logger, http.StatusOK, dto.SessionResponse{State: s.Snapshot()})
}

func (h *SessionHandler) SelectFrame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w)
	if !ok {
		return
	}

	var req dto.SelectFrameRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := s.SelectFrame(req.FrameID); err != nil {
		h.handleSessionError(w, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, dto.SessionResponse{State: s.Snapshot()})
}

func (h *SessionHandler) SetText(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w)
	if !ok {
		return
	}

	var req dto.SetTextRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	stored := s.SetText(req.Text)
	respond.JSON(w, h.logger, http.StatusOK, dto.TextResponse{
		Text:      stored,
		Truncated: utf8.RuneCountInString(stored) < utf8.RuneCountInString(req.Text),
	})
}

// SetTextSettings replaces the text override. A JSON null removes it.
func (h *SessionHandler) SetTextSettings(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w)
	if !ok {
		return
	}

	var settings *domain.TextSettings
	if err := respond.Decode(w, r, &settings); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if settings != nil {
		if err := h.validate.Struct(settings); err != nil {
			respond.Error(w, h.logger, http.StatusBadRequest, "Invalid text settings", nil)
			return
		}
		if settings.Color != "" {
			if _, err := composer.ParseColor(settings.Color); err != nil {
				respond.Error(w, h.logger, http.StatusBadRequest, "Invalid text color", nil)
				return
			}
		}
	}

	s.SetTextSettings(settings)
	respond.JSON(w, h.logger, http.StatusOK, dto.SessionResponse{State: s.Snapshot()})
}

func (h *SessionHandler) AddOverlay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w)
	if !ok {
		return
	}

	var req dto.AddOverlayRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "iconId is required", nil)
		return
	}

	ov, err := s.AddOverlay(req.IconID, req.Position)
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusCreated, ov)
}

func (h *SessionHandler) UpdateOverlay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w)
	if !ok {
		return
	}

	var req dto.UpdateOverlayRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid overlay update", nil)
		return
	}

	ov, err := s.UpdateOverlay(chi.URLParam(r, "id"), session.OverlayPatch{
		Position: req.Position,
		Size:     req.Size,
		Rotation: req.Rotation,
		ZIndex:   req.ZIndex,
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, ov)
}

func (h *SessionHandler) RemoveOverlay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w)
	if !ok {
		return
	}

	if err := s.RemoveOverlay(chi.URLParam(r, "id")); err != nil {
		h.handleSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	data, err := h.manager.Preview(r.Context())
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write preview")
	}
}

// Finalize composes and uploads the edit. When the upload fails the image is
// spooled for retry and the session stays open.
func (h *SessionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	record, err := h.manager.Finalize(r.Context())
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusCreated, dto.NewPhotoResponse(*record))
}

func (h *SessionHandler) current(w http.ResponseWriter) (*session.EditSession, bool) {
	s, err := h.manager.Current()
	if err != nil {
		h.handleSessionError(w, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) handleSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		respond.Error(w, h.logger, http.StatusNotFound, "No active edit session", nil)
	case errors.Is(err, session.ErrFrameNotFound):
		respond.Error(w, h.logger, http.StatusBadRequest, "Frame not found", nil)
	case errors.Is(err, session.ErrUnknownIcon):
		respond.Error(w, h.logger, http.StatusBadRequest, "Unknown overlay icon", nil)
	case errors.Is(err, session.ErrOverlayNotFound):
		respond.Error(w, h.logger, http.StatusNotFound, "Overlay not found", nil)
	case errors.Is(err, session.ErrInvalidSize):
		respond.Error(w, h.logger, http.StatusBadRequest, "Overlay size must be positive", nil)
	case errors.Is(err, asset.ErrAssetNotFound), errors.Is(err, asset.ErrOutsideRoot):
		respond.Error(w, h.logger, http.StatusNotFound, "Session photo not found", nil)
	case errors.Is(err, composer.ErrNoPhoto), errors.Is(err, composer.ErrInvalidPhoto):
		respond.Error(w, h.logger, http.StatusUnprocessableEntity, "Session photo cannot be decoded", nil)
	case errors.Is(err, ucPhoto.ErrStorageError), errors.Is(err, ucPhoto.ErrDatabaseError):
		h.logger.Error().Err(err).Msg("Upload failed")
		respond.Error(w, h.logger, http.StatusBadGateway, "Upload failed, photo kept for retry", err)
	default:
		h.logger.Error().Err(err).Msg("Session operation failed")
		respond.Error(w, h.logger, http.StatusInternalServerError, "Internal server error", err)
	}
}
