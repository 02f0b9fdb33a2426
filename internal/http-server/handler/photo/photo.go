package photo

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"photobooth/internal/http-server/handler/dto"
	"photobooth/internal/http-server/handler/respond"
	repoPhoto "photobooth/internal/repository/photo"
	ucPhoto "photobooth/internal/usecase/photo"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type PhotoHandler struct {
	usecase  photoUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewPhotoHandler(usecase photoUsecase, logger *zlog.Zerolog) *PhotoHandler {
	return &PhotoHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	var req dto.ListPhotosRequest
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respond.Error(w, h.logger, http.StatusBadRequest, "limit must be a number", nil)
			return
		}
		req.Limit = limit
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "limit must be between 0 and 100", nil)
		return
	}

	photos, err := h.usecase.ListRecent(r.Context(), req.Limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list photos")
		respond.Error(w, h.logger, http.StatusInternalServerError, "Failed to list photos", err)
		return
	}

	response := dto.PhotoListResponse{Photos: make([]dto.PhotoResponse, 0, len(photos)), Count: len(photos)}
	for _, p := range photos {
		response.Photos = append(response.Photos, dto.NewPhotoResponse(p))
	}
	if total, err := h.usecase.Count(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count photos")
		response.Total = response.Count
	} else {
		response.Total = total
	}
	respond.JSON(w, h.logger, http.StatusOK, response)
}

func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	photo, err := h.usecase.GetPhoto(r.Context(), id)
	if err != nil {
		h.handlePhotoError(w, err, id)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, dto.NewPhotoResponse(*photo))
}

// Content streams the stored image, for screens that cannot reach the
// object store directly.
func (h *PhotoHandler) Content(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	body, photo, err := h.usecase.Open(r.Context(), id)
	if err != nil {
		h.handlePhotoError(w, err, id)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", photo.MimeType)
	if photo.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(photo.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn().Err(err).Str("photo_id", id).Msg("Failed to stream photo")
	}
}

func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	if err := h.usecase.Delete(r.Context(), id); err != nil {
		h.handlePhotoError(w, err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PhotoHandler) MarkEdited(w http.ResponseWriter, r *http.Request) {
	id, ok := h.photoID(w, r)
	if !ok {
		return
	}

	if err := h.usecase.MarkEdited(r.Context(), id); err != nil {
		h.handlePhotoError(w, err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PhotoHandler) Pending(w http.ResponseWriter, r *http.Request) {
	names, err := h.usecase.Pending()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list pending uploads")
		respond.Error(w, h.logger, http.StatusInternalServerError, "Failed to list pending uploads", err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, dto.PendingResponse{Pending: names})
}

func (h *PhotoHandler) RetryPending(w http.ResponseWriter, r *http.Request) {
	report, err := h.usecase.RetryPending(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to retry pending uploads")
		respond.Error(w, h.logger, http.StatusInternalServerError, "Failed to retry pending uploads", err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, report)
}

func (h *PhotoHandler) photoID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid photo ID", nil)
		return "", false
	}
	return id, true
}

func (h *PhotoHandler) handlePhotoError(w http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, repoPhoto.ErrPhotoNotFound):
		respond.Error(w, h.logger, http.StatusNotFound, "Photo not found", nil)
	case errors.Is(err, repoPhoto.ErrObjectNotFound):
		respond.Error(w, h.logger, http.StatusNotFound, "Photo file not found", nil)
	case errors.Is(err, ucPhoto.ErrStorageError):
		h.logger.Error().Err(err).Str("photo_id", id).Msg("Object storage unavailable")
		respond.Error(w, h.logger, http.StatusBadGateway, "Object storage unavailable", err)
	default:
		h.logger.Error().Err(err).Str("photo_id", id).Msg("Photo operation failed")
		respond.Error(w, h.logger, http.StatusInternalServerError, "Internal server error", err)
	}
}
