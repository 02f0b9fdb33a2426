package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"photobooth/internal/http-server/handler/camera"
	"photobooth/internal/http-server/handler/catalog"
	"photobooth/internal/http-server/handler/events"
	"photobooth/internal/http-server/handler/photo"
	"photobooth/internal/http-server/handler/session"
	"photobooth/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	CameraHandler  *camera.CameraHandler
	CatalogHandler *catalog.CatalogHandler
	SessionHandler *session.SessionHandler
	PhotoHandler   *photo.PhotoHandler
	EventsHandler  *events.EventsHandler
}

type Options struct {
	APIKey string
	// StaticDir holds the kiosk UI build. Empty disables UI serving.
	StaticDir string
}

// isStream reports whether the request opens a long-lived response that the
// access log would otherwise report only when it closes.
func isStream(path string) bool {
	return path == "/api/camera/liveview" || path == "/api/events" || strings.HasPrefix(path, "/static/")
}

func SetupRouter(h *Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStream(r.URL.Path) {
				middleware.LoggingMiddleware(next).ServeHTTP(w, r)
			} else {
				next.ServeHTTP(w, r)
			}
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyMiddleware(opts.APIKey))

			r.Route("/camera", func(r chi.Router) {
				r.Get("/status", h.CameraHandler.GetStatus)
				r.Post("/capture", h.CameraHandler.Capture)
				r.Get("/liveview", h.CameraHandler.LiveView)
				r.Get("/config", h.CameraHandler.GetConfig)
				r.Put("/config", h.CameraHandler.UpdateConfig)
			})

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/frames", h.CatalogHandler.Frames)
				r.Get("/icons", h.CatalogHandler.Icons)
			})

			r.Route("/session", func(r chi.Router) {
				r.Post("/", h.SessionHandler.Begin)
				r.Get("/", h.SessionHandler.Get)
				r.Delete("/", h.SessionHandler.End)
				r.Post("/clear", h.SessionHandler.Clear)
				r.Put("/frame", h.SessionHandler.SelectFrame)
				r.Put("/text", h.SessionHandler.SetText)
				r.Put("/text-settings", h.SessionHandler.SetTextSettings)
				r.Post("/overlays", h.SessionHandler.AddOverlay)
				r.Patch("/overlays/{id}", h.SessionHandler.UpdateOverlay)
				r.Delete("/overlays/{id}", h.SessionHandler.RemoveOverlay)
				r.Get("/preview", h.SessionHandler.Preview)
				r.Post("/finalize", h.SessionHandler.Finalize)
			})

			r.Route("/photos", func(r chi.Router) {
				r.Get("/", h.PhotoHandler.List)
				r.Get("/pending", h.PhotoHandler.Pending)
				r.Post("/pending/retry", h.PhotoHandler.RetryPending)
				r.Get("/{id}", h.PhotoHandler.Get)
				r.Get("/{id}/content", h.PhotoHandler.Content)
				r.Delete("/{id}", h.PhotoHandler.Delete)
				r.Post("/{id}/edited", h.PhotoHandler.MarkEdited)
			})

			r.Get("/events", h.EventsHandler.Captures)
			r.Get("/debug/logs", h.EventsHandler.Logs)
		})
	})

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.NotFound(w, r)
				return
			}
			serveHTML(w, r, opts.StaticDir)
		})
	}

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func serveHTML(w http.ResponseWriter, r *http.Request, staticDir string) {
	indexPath := filepath.Join(staticDir, "index.html")

	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		http.Error(w, "Kiosk UI not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, indexPath)
}
