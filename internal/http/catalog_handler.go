package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/catalog"
)

type CatalogHandler struct {
	provider catalog.Provider
}

func NewCatalogHandler(provider catalog.Provider) *CatalogHandler {
	return &CatalogHandler{provider: provider}
}

type ProductsResponse struct {
	Products []catalog.Product `json:"products"`
}

// List serves the full menu, narrowed by ?category= and ?q= when present.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		products []catalog.Product
		err      error
	)
	switch {
	case query.Get("q") != "":
		products, err = h.provider.Search(ctx, query.Get("q"))
	case query.Get("category") != "":
		products, err = h.provider.GetByCategory(ctx, query.Get("category"))
	default:
		products, err = h.provider.All(ctx)
	}
	if err != nil {
		log.Printf("catalog list failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load products")
		return
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	product, err := h.provider.GetByID(r.Context(), productID)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		log.Printf("catalog get failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 4)

	products, err := h.provider.Featured(r.Context(), limit)
	if err != nil {
		log.Printf("catalog featured failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load highlights")
		return
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// Related suggests products for the cross-sell strip under a product page.
// Unknown ids fall back to the highlights so the strip never renders empty.
func (h *CatalogHandler) Related(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	limit := parseLimit(r.URL.Query().Get("limit"), 3)

	products, err := h.provider.Related(r.Context(), productID, limit)
	if err != nil {
		log.Printf("catalog related failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load suggestions")
		return
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
