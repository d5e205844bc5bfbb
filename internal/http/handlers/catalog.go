package handlers

import (
	"net/http"

	"github.com/turnosmed/booking-engine/internal/catalog"
	"github.com/turnosmed/booking-engine/pkg/logging"
)

// CatalogHandler serves the reference data the booking UI renders its
// filters from.
type CatalogHandler struct {
	loader *catalog.Loader
	logger *logging.Logger
}

func NewCatalogHandler(loader *catalog.Loader, logger *logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogHandler{loader: loader, logger: logger}
}

// Get returns the catalog snapshot. A partially failed load still answers
// 200 with complete=false so the client can degrade instead of erroring.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.loader.Load(r.Context())
	writeJSON(w, http.StatusOK, snap)
}
