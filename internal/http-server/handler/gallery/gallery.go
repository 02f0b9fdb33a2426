package gallery

import (
	"net/http"

	"photobooth/internal/http-server/handler/respond"
	ucGallery "photobooth/internal/usecase/gallery"

	"github.com/wb-go/wbf/zlog"
)

type galleryView interface {
	View() ucGallery.View
}

type GalleryHandler struct {
	gallery galleryView
	logger  *zlog.Zerolog
}

func NewGalleryHandler(gallery galleryView, logger *zlog.Zerolog) *GalleryHandler {
	return &GalleryHandler{gallery: gallery, logger: logger}
}

func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	respond.JSON(w, h.logger, http.StatusOK, h.gallery.View())
}
