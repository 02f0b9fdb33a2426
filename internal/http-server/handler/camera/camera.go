package camera

import (
	"errors"
	"net/http"
	"strconv"

	"photobooth/internal/config"
	"photobooth/internal/domain"
	"photobooth/internal/http-server/handler/dto"
	"photobooth/internal/http-server/handler/respond"
	"photobooth/internal/liveview"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type CameraHandler struct {
	client   cameraClient
	streamer liveStreamer
	configs  configStore
	captures captureWriter
	logger   *zlog.Zerolog
}

func NewCameraHandler(client cameraClient, streamer liveStreamer, configs configStore, captures captureWriter, logger *zlog.Zerolog) *CameraHandler {
	return &CameraHandler{
		client:   client,
		streamer: streamer,
		configs:  configs,
		captures: captures,
		logger:   logger,
	}
}

func (h *CameraHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.logger, http.StatusOK, h.client.CheckStatus(r.Context()))
}

// Capture triggers the shutter. Synchronous backends return the image, which
// is dropped into the capture directory so the watcher handles both backends
// the same way.
func (h *CameraHandler) Capture(w http.ResponseWriter, r *http.Request) {
	result := h.client.Capture(r.Context())

	response := dto.CaptureResponse{
		Success:  result.Success,
		Async:    result.Async,
		Attempts: result.Attempts,
		Error:    result.Error,
	}

	if !result.Success {
		h.logger.Warn().Int("attempts", result.Attempts).Str("error", result.Error).Msg("Capture failed")
		respond.JSON(w, h.logger, http.StatusBadGateway, response)
		return
	}

	if result.Async {
		respond.JSON(w, h.logger, http.StatusAccepted, response)
		return
	}

	path, err := h.captures.Save(result.ImageData)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to store captured image")
		respond.Error(w, h.logger, http.StatusInternalServerError, "Failed to store captured image", err)
		return
	}

	response.File = path
	h.logger.Info().Str("file", path).Int("attempts", result.Attempts).Msg("Photo captured")
	respond.JSON(w, h.logger, http.StatusOK, response)
}

// LiveView streams frames until the client disconnects. fps defaults to the
// configured refresh rate.
func (h *CameraHandler) LiveView(w http.ResponseWriter, r *http.Request) {
	fps := h.configs.Load().RefreshRate
	if raw := r.URL.Query().Get("fps"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 60 {
			respond.Error(w, h.logger, http.StatusBadRequest, "fps must be between 1 and 60", nil)
			return
		}
		fps = v
	}

	boundary := "frame" + uuid.NewString()[:8]
	w.Header().Set("Content-Type", liveview.ContentType(boundary))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusOK)

	if err := h.streamer.Stream(r.Context(), w, boundary, fps); err != nil && r.Context().Err() == nil {
		h.logger.Warn().Err(err).Msg("Live view stream ended")
	}
}

func (h *CameraHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.logger, http.StatusOK, h.configs.Load())
}

// UpdateConfig replaces the whole capture config. Invalid input is rejected
// with per-field messages and the previous config stays in effect.
func (h *CameraHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var next domain.CaptureConfig
	if err := respond.Decode(w, r, &next); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.configs.Update(next); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			response := dto.FieldErrorsResponse{Error: "validation failed"}
			for _, f := range verr.Fields {
				response.Fields = append(response.Fields, dto.FieldError{Field: f.Field, Message: f.Message})
			}
			respond.JSON(w, h.logger, http.StatusUnprocessableEntity, response)
			return
		}
		h.logger.Error().Err(err).Msg("Failed to update capture config")
		respond.Error(w, h.logger, http.StatusInternalServerError, "Failed to save capture config", err)
		return
	}

	h.logger.Info().
		Str("backend", string(next.Backend)).
		Int("refresh_rate", next.RefreshRate).
		Int("retry_attempts", next.RetryAttempts).
		Msg("Capture config updated")
	respond.JSON(w, h.logger, http.StatusOK, h.configs.Load())
}
