package catalog

import (
	"net/http"

	"photobooth/internal/http-server/handler/dto"
	"photobooth/internal/http-server/handler/respond"

	"github.com/wb-go/wbf/zlog"
)

type CatalogHandler struct {
	catalog frameCatalog
	logger  *zlog.Zerolog
}

func NewCatalogHandler(catalog frameCatalog, logger *zlog.Zerolog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) Frames(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.logger, http.StatusOK, dto.FramesResponse{
		Source: h.catalog.Source(),
		Frames: h.catalog.Frames(),
	})
}

func (h *CatalogHandler) Icons(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.logger, http.StatusOK, dto.IconsResponse{
		Source: h.catalog.Source(),
		Icons:  h.catalog.Icons(),
	})
}
