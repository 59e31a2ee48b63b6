package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/cart"
)

const (
	eventBuffer       = 8
	heartbeatInterval = 15 * time.Second
)

// EventsHandler streams cart changes over Server-Sent Events so every open
// page re-renders its badge and summary when any of them mutates the cart.
type EventsHandler struct {
	store *cart.Store
}

func NewEventsHandler(store *cart.Store) *EventsHandler {
	return &EventsHandler{store: store}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Slow consumers drop intermediate states; the next event always
	// carries the full cart, so nothing is lost that matters.
	changes := make(chan cart.Change, eventBuffer)
	unsubscribe := h.store.Subscribe(func(c cart.Change) {
		select {
		case changes <- c:
		default:
		}
	})
	defer unsubscribe()

	ctx := r.Context()

	// Initial snapshot so a freshly opened page renders without waiting
	// for the first mutation.
	snapshot := h.store.GetCart(ctx)
	if err := writeEvent(w, cart.Change{Cart: snapshot, Totals: cart.ComputeTotals(snapshot)}); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case change := <-changes:
			if err := writeEvent(w, change); err != nil {
				log.Printf("event stream write failed: %v", err)
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, change cart.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal cart change: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: cartchange\ndata: %s\n\n", payload)
	return err
}
