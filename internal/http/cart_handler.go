package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/cart"
	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/money"
)

type CartHandler struct {
	store *cart.Store
}

func NewCartHandler(store *cart.Store) *CartHandler {
	return &CartHandler{store: store}
}

type UpdateQuantityRequestDTO struct {
	Quantity float64 `json:"quantity"`
}

type SetFeeRequestDTO struct {
	Fee any `json:"fee"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

// TotalsDisplayDTO carries the totals pre-formatted in pt-BR currency so
// every consuming view renders the same strings.
type TotalsDisplayDTO struct {
	Subtotal string `json:"subtotal"`
	Fee      string `json:"fee"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

type CartResponseDTO struct {
	Cart    cart.Cart        `json:"cart"`
	Totals  cart.Totals      `json:"totals"`
	Count   int              `json:"count"`
	Display TotalsDisplayDTO `json:"display"`
}

func cartResponse(c cart.Cart) CartResponseDTO {
	totals := cart.ComputeTotals(c)
	return CartResponseDTO{
		Cart:   c,
		Totals: totals,
		Count:  c.ItemCount(),
		Display: TotalsDisplayDTO{
			Subtotal: money.Format(totals.Subtotal),
			Fee:      money.Format(totals.Fee),
			Discount: money.Format(totals.Discount),
			Total:    money.Format(totals.Total),
		},
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.store.GetCart(r.Context())))
}

type CountResponseDTO struct {
	Count int `json:"count"`
}

// Count serves the badge on the cart icon without the full snapshot.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, CountResponseDTO{Count: h.store.ItemCount(r.Context())})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cart.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.ID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", "item id is required")
		return
	}

	updated := h.store.AddItem(r.Context(), req)
	respondJSON(w, http.StatusCreated, cartResponse(updated))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Zero and negative quantities remove the item, mirroring the stepper
	// buttons on the cart page.
	updated := h.store.UpdateQty(r.Context(), itemID, req.Quantity)
	respondJSON(w, http.StatusOK, cartResponse(updated))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item id is required")
		return
	}

	updated := h.store.RemoveItem(r.Context(), itemID)
	respondJSON(w, http.StatusOK, cartResponse(updated))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	updated := h.store.Clear(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(updated))
}

func (h *CartHandler) SetFee(w http.ResponseWriter, r *http.Request) {
	var req SetFeeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	updated := h.store.SetFee(r.Context(), req.Fee)
	respondJSON(w, http.StatusOK, cartResponse(updated))
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if !h.store.ApplyCoupon(r.Context(), req.Code) {
		respondError(w, http.StatusNotFound, "unknown_coupon", "cupom inválido")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(h.store.GetCart(r.Context())))
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	h.store.RemoveCoupon(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(h.store.GetCart(r.Context())))
}
