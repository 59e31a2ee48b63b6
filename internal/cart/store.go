package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/money"
	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/storage"
)

// Change is the payload broadcast to subscribers after every successful
// mutation: the new cart snapshot and its freshly computed totals.
type Change struct {
	Cart   Cart   `json:"cart"`
	Totals Totals `json:"totals"`
}

// Store is the single source of truth for cart state. Every operation runs
// load -> mutate -> persist -> notify under one lock; listeners are invoked
// synchronously after persistence, outside the lock, with defensive copies.
//
// The persistence slot is a collaborator: when it fails, the store logs a
// warning and keeps serving from its in-memory copy, so no operation ever
// returns an error to the caller.
type Store struct {
	slot storage.Slot
	now  func() time.Time

	mu      sync.Mutex
	mem     Cart
	subs    map[int]func(Change)
	nextSub int
}

func NewStore(slot storage.Slot) *Store {
	s := &Store{
		slot: slot,
		now:  time.Now,
		subs: make(map[int]func(Change)),
	}
	s.mem = DefaultCart(s.now())
	return s
}

// Subscribe registers a change listener and returns its unsubscribe handle.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Watch starts adopting external writes when the slot supports change
// notification. Without that capability the store degrades to
// single-context consistency.
func (s *Store) Watch(ctx context.Context) {
	watcher, ok := s.slot.(storage.Watcher)
	if !ok {
		return
	}
	if err := watcher.Watch(ctx, s.adoptExternal); err != nil {
		log.Printf("cart: external change watching unavailable: %v", err)
	}
}

// AddItem normalizes the descriptor and appends it, or merges quantities
// when an item with the same id is already present. Descriptors that fail
// normalization leave the cart untouched.
func (s *Store) AddItem(ctx context.Context, in ItemInput) Cart {
	item, ok := in.normalize()
	if !ok {
		return s.GetCart(ctx)
	}

	return s.mutate(ctx, func(c *Cart) bool {
		for i := range c.Items {
			if c.Items[i].ID == item.ID {
				c.Items[i].Qty += item.Qty
				return true
			}
		}
		c.Items = append(c.Items, item)
		return true
	})
}

// RemoveItem drops the matching item; absent ids still persist and notify,
// matching the behavior of the other mutations.
func (s *Store) RemoveItem(ctx context.Context, id string) Cart {
	return s.mutate(ctx, func(c *Cart) bool {
		kept := c.Items[:0]
		for _, item := range c.Items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		c.Items = kept
		return true
	})
}

// UpdateQty rounds qty and sets it on the matching item. A resulting
// quantity of zero or less removes the item. Unknown ids are a no-op.
func (s *Store) UpdateQty(ctx context.Context, id string, qty float64) Cart {
	quantity := 0
	if !math.IsNaN(qty) && !math.IsInf(qty, 0) {
		quantity = int(math.Round(qty))
	}

	return s.mutate(ctx, func(c *Cart) bool {
		for i := range c.Items {
			if c.Items[i].ID != id {
				continue
			}
			if quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Qty = quantity
			}
			return true
		}
		return false
	})
}

// Clear resets to the empty cart: no items, no coupon, default fee.
func (s *Store) Clear(ctx context.Context) Cart {
	return s.mutate(ctx, func(c *Cart) bool {
		*c = DefaultCart(s.now())
		return true
	})
}

// SetFee normalizes the value through the money rules and clamps it
// non-negative.
func (s *Store) SetFee(ctx context.Context, value any) Cart {
	return s.mutate(ctx, func(c *Cart) bool {
		fee := normalizeFee(value)
		c.Fee = fee
		return true
	})
}

// ApplyCoupon looks the code up case-insensitively. Unknown codes mutate
// nothing and report failure so the UI can message the user; this is the
// only store operation with a failure signal.
func (s *Store) ApplyCoupon(ctx context.Context, code string) bool {
	coupon, ok := LookupCoupon(code)
	if !ok {
		return false
	}

	s.mutate(ctx, func(c *Cart) bool {
		c.Coupon = &coupon
		return true
	})
	return true
}

// RemoveCoupon clears the active coupon.
func (s *Store) RemoveCoupon(ctx context.Context) {
	s.mutate(ctx, func(c *Cart) bool {
		c.Coupon = nil
		return true
	})
}

// GetCart returns a defensive copy of the current state.
func (s *Store) GetCart(ctx context.Context) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return s.mem.Clone()
}

// GetTotals computes totals from the current state.
func (s *Store) GetTotals(ctx context.Context) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return ComputeTotals(s.mem)
}

// ItemCount is the sum of all item quantities.
func (s *Store) ItemCount(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return s.mem.ItemCount()
}

// mutate runs one load-mutate-persist-notify cycle. fn reports whether it
// changed anything; a false return skips persistence and notification.
func (s *Store) mutate(ctx context.Context, fn func(c *Cart) bool) Cart {
	s.mu.Lock()
	s.loadLocked(ctx)

	working := s.mem.Clone()
	if !fn(&working) {
		snapshot := s.mem.Clone()
		s.mu.Unlock()
		return snapshot
	}

	s.persistLocked(ctx, working)
	snapshot := s.mem.Clone()
	change := Change{Cart: s.mem.Clone(), Totals: ComputeTotals(s.mem)}
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(change)
	}
	return snapshot
}

// loadLocked refreshes s.mem from the slot, re-normalizing defensively so a
// corrupted or externally-modified value is coerced into a valid cart.
// Caller holds s.mu.
func (s *Store) loadLocked(ctx context.Context) {
	raw, err := s.slot.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		s.mem = DefaultCart(s.now())
		return
	}
	if err != nil {
		log.Printf("cart: slot read failed, serving in-memory copy: %v", err)
		s.mem = NormalizeCart(cartToAny(s.mem), s.now())
		return
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		log.Printf("cart: corrupted slot value, resetting: %v", err)
		s.mem = DefaultCart(s.now())
		return
	}
	s.mem = NormalizeCart(decoded, s.now())
}

// persistLocked stamps UpdatedAt, writes through the slot and adopts the
// value as the in-memory copy. Write failures are logged and tolerated.
// Caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context, c Cart) {
	c.UpdatedAt = s.now().UnixMilli()
	s.mem = c

	data, err := json.Marshal(c)
	if err != nil {
		log.Printf("cart: marshal failed, state kept in memory only: %v", err)
		return
	}
	if err := s.slot.Set(ctx, data); err != nil {
		log.Printf("cart: slot write failed, state kept in memory only: %v", err)
	}
}

// adoptExternal handles a write made by another process: re-normalize, adopt
// and notify through the same path as local mutations. A malformed external
// value is logged and ignored, leaving local state unchanged.
func (s *Store) adoptExternal(raw []byte) {
	var decoded any
	if raw != nil {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			log.Printf("cart: ignoring malformed external update: %v", err)
			return
		}
	}

	s.mu.Lock()
	s.mem = NormalizeCart(decoded, s.now())
	change := Change{Cart: s.mem.Clone(), Totals: ComputeTotals(s.mem)}
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(change)
	}
}

func (s *Store) listenersLocked() []func(Change) {
	listeners := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	return listeners
}

func normalizeFee(value any) int64 {
	fee := money.Normalize(value)
	if fee < 0 {
		return 0
	}
	return fee
}

// cartToAny re-encodes the in-memory cart for defensive re-normalization
// after a failed slot read.
func cartToAny(c Cart) any {
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}
	return decoded
}
