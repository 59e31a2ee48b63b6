package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/checkout"
)

type CheckoutHandler struct {
	service *checkout.Service
}

func NewCheckoutHandler(service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type PixResponseDTO struct {
	Code string `json:"code"`
}

// Pay processes one payment submission. Refusals and validation problems
// are client errors; only an unreachable gateway surfaces as a 5xx.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	confirmation, err := h.service.Pay(r.Context(), req)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, confirmation)
}

// Pix returns the copy-and-paste payload for the current cart total.
func (h *CheckoutHandler) Pix(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, PixResponseDTO{Code: h.service.Pix(r.Context())})
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	var fieldErrs checkout.FieldErrors
	if errors.As(err, &fieldErrs) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid payment data",
			Code:    "invalid_card",
			Details: fieldErrs,
		})
		return
	}

	var refusal *checkout.RefusalError
	if errors.As(err, &refusal) {
		respondError(w, http.StatusPaymentRequired, "payment_refused", refusal.Reason)
		return
	}

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrUnknownMethod):
		respondError(w, http.StatusBadRequest, "unknown_method", err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "gateway_unavailable", "payment gateway temporarily unavailable")
	default:
		log.Printf("checkout failed: %v", err)
		respondError(w, http.StatusBadGateway, "gateway_error", "payment could not be processed")
	}
}
