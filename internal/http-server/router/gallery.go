package router

import (
	"net/http"

	"photobooth/internal/http-server/handler/gallery"
	"photobooth/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

// SetupGalleryRouter serves the videotron screen's API.
func SetupGalleryRouter(h *gallery.GalleryHandler, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)
		r.With(middleware.APIKeyMiddleware(opts.APIKey)).Get("/gallery", h.Get)
	})

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			serveHTML(w, r, opts.StaticDir)
		})
	}

	return r
}
