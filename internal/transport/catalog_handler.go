package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tienda-api/internal/middleware"
	"tienda-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the public storefront endpoints
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/categories", h.ListCategories)
		r.Get("/events", h.StreamProducts)
	})
}

// ListProducts returns the filtered product list, newest first
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := service.Filter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}

	products, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ListCategories returns all categories in display order
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// StreamProducts is the live product feed as server-sent events. On every
// change notification the full list is re-fetched and pushed, so clients
// never apply deltas. The subscription is closed when the client goes away.
func (h *CatalogHandler) StreamProducts(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The stream outlives the server's write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Failed to clear write deadline", zap.Error(err))
	}

	sub, err := h.catalogService.SubscribeProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to subscribe to product changes", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to open event stream")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial snapshot so new subscribers start consistent
	if err := h.pushProducts(w, r); err != nil {
		h.logger.Debug("Failed to push initial snapshot", zap.Error(err))
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := h.pushProducts(w, r); err != nil {
				h.logger.Debug("Dropping event stream client", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func (h *CatalogHandler) pushProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.catalogService.ListProducts(r.Context(), service.Filter{})
	if err != nil {
		return err
	}

	payload, err := json.Marshal(products)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: products\ndata: %s\n\n", payload)
	return err
}
