package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"photobooth/internal/http-server/handler/dto"
	"photobooth/internal/http-server/handler/respond"

	"github.com/wb-go/wbf/zlog"
)

const defaultHeartbeat = 15 * time.Second

type EventsHandler struct {
	captures  captureFeed
	logs      logFeed
	heartbeat time.Duration
	logger    *zlog.Zerolog
}

func NewEventsHandler(captures captureFeed, logs logFeed, logger *zlog.Zerolog) *EventsHandler {
	return &EventsHandler{
		captures:  captures,
		logs:      logs,
		heartbeat: defaultHeartbeat,
		logger:    logger,
	}
}

// Captures streams capture notifications as server-sent events until the
// client goes away.
func (h *EventsHandler) Captures(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.Error(w, h.logger, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	events, unsubscribe := h.captures.Subscribe()
	defer unsubscribe()

	startStream(w)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to encode capture event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: capture\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Logs returns the buffered log lines. With ?follow=1 it keeps the
// connection open and streams new lines as server-sent events.
func (h *EventsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("follow") == "" {
		respond.JSON(w, h.logger, http.StatusOK, dto.LogsResponse{Lines: h.logs.Lines()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.Error(w, h.logger, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	lines, unsubscribe := h.logs.Subscribe()
	defer unsubscribe()

	startStream(w)
	for _, line := range h.logs.Lines() {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", line); err != nil {
			return
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", line); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func startStream(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
}
