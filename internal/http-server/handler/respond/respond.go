package respond

import (
	"encoding/json"
	"net/http"

	"photobooth/internal/http-server/handler/dto"

	"github.com/wb-go/wbf/zlog"
)

func JSON(w http.ResponseWriter, logger *zlog.Zerolog, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func Error(w http.ResponseWriter, logger *zlog.Zerolog, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil && status >= http.StatusInternalServerError {
		response.Details = err.Error()
	}

	JSON(w, logger, status, response)
}

// Decode reads a JSON body into v, rejecting unknown fields.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
