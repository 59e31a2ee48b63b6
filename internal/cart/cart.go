// Package cart owns the canonical cart state: the data model, the
// normalization of untrusted input, the store with its persistence slot and
// change notifications, and the derived totals.
package cart

import "time"

// ItemType is the two-value menu classification.
type ItemType string

const (
	TypeFood  ItemType = "food"
	TypeDrink ItemType = "drink"
)

const (
	// ServiceFeeCents is the default cart fee.
	ServiceFeeCents int64 = 0

	// DefaultItemName labels items persisted without a name.
	DefaultItemName = "Item"

	// PlaceholderImage replaces a missing item image.
	PlaceholderImage = "https://images.unsplash.com/photo-1504674900247-0877df9cc836?auto=format&fit=crop&w=400&q=80"
)

// Item is one cart line. Identity is ID: adding an item with an ID already
// in the cart merges quantities instead of duplicating the line.
type Item struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Price int64    `json:"price"` // cents, >= 0
	Qty   int      `json:"qty"`   // >= 1
	Image string   `json:"image"`
	Type  ItemType `json:"type"`
}

// Coupon is a percentage discount. At most one is active per cart.
type Coupon struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"` // 1..90
}

// Cart is the persisted record. UpdatedAt is unix milliseconds so the
// on-disk format stays readable by earlier clients of the same slot.
type Cart struct {
	Items     []Item  `json:"items"`
	Coupon    *Coupon `json:"coupon"`
	Fee       int64   `json:"fee"`
	UpdatedAt int64   `json:"updatedAt"`
}

// Totals are derived from a cart and never stored.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Fee      int64 `json:"fee"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// DefaultCart is the empty cart: no items, no coupon, default fee.
func DefaultCart(now time.Time) Cart {
	return Cart{
		Items:     []Item{},
		Coupon:    nil,
		Fee:       ServiceFeeCents,
		UpdatedAt: now.UnixMilli(),
	}
}

// Clone returns a deep copy; mutating the copy never affects the original.
func (c Cart) Clone() Cart {
	cp := c
	cp.Items = make([]Item, len(c.Items))
	copy(cp.Items, c.Items)
	if c.Coupon != nil {
		coupon := *c.Coupon
		cp.Coupon = &coupon
	}
	return cp
}

// ItemCount is the sum of all line quantities.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Qty
	}
	return count
}

// ComputeTotals derives the cart totals. The discount is capped at the
// subtotal and the grand total never goes negative.
func ComputeTotals(c Cart) Totals {
	var subtotal int64
	for _, item := range c.Items {
		subtotal += item.Price * int64(item.Qty)
	}

	var discount int64
	if c.Coupon != nil {
		discount = (subtotal*int64(c.Coupon.Percent) + 50) / 100
		if discount > subtotal {
			discount = subtotal
		}
	}

	total := subtotal + c.Fee - discount
	if total < 0 {
		total = 0
	}

	return Totals{
		Subtotal: subtotal,
		Fee:      c.Fee,
		Discount: discount,
		Total:    total,
	}
}
