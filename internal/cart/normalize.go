package cart

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/money"
)

// This file is the trust boundary between externally-sourced data (the
// persisted slot, another process's write, an HTTP body) and the in-memory
// canonical cart. Every function here is pure and total: any input maps to
// a valid value or a safe default, never to an error.

// ItemInput is the raw descriptor accepted by Store.AddItem. Price and Qty
// are deliberately untyped because upstream callers send whatever their
// templates carried: numbers, formatted strings, or garbage.
type ItemInput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price any    `json:"price"`
	Qty   any    `json:"qty"`
	Image string `json:"image"`
	Type  string `json:"type"`
}

func (in ItemInput) normalize() (Item, bool) {
	return buildItem(in.ID, in.Name, in.Price, in.Qty, in.Image, in.Type)
}

// NormalizeItem validates one decoded item of unknown shape. The second
// return value is false when the item must be dropped: missing id or a
// price that normalizes negative.
func NormalizeItem(v any) (Item, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Item{}, false
	}
	id, ok := coerceID(m["id"])
	if !ok {
		return Item{}, false
	}
	return buildItem(id, coerceString(m["name"]), m["price"], m["qty"], coerceString(m["image"]), coerceString(m["type"]))
}

func buildItem(id, name string, price, qty any, image, typ string) (Item, bool) {
	if id == "" {
		return Item{}, false
	}

	cents := money.Normalize(price)
	if cents < 0 {
		return Item{}, false
	}

	if name == "" {
		name = DefaultItemName
	}
	if image == "" {
		image = PlaceholderImage
	}

	itemType := TypeFood
	if typ == string(TypeDrink) {
		itemType = TypeDrink
	}

	return Item{
		ID:    id,
		Name:  name,
		Price: cents,
		Qty:   normalizeQty(qty),
		Image: image,
		Type:  itemType,
	}, true
}

// NormalizeCoupon validates a decoded coupon. A missing or non-string code,
// or a percent that does not round to a positive integer, yields nil.
// Percent is clamped to at most 90.
func NormalizeCoupon(v any) *Coupon {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	code, ok := m["code"].(string)
	if !ok || code == "" {
		return nil
	}

	f, ok := toFloat(m["percent"])
	if !ok {
		return nil
	}
	percent := int(math.Round(f))
	if percent <= 0 {
		return nil
	}
	if percent > 90 {
		percent = 90
	}

	return &Coupon{Code: strings.ToUpper(code), Percent: percent}
}

// NormalizeCart coerces a whole decoded record into a valid cart. Non-object
// input becomes the empty cart; invalid items are dropped; the fee falls
// back to the default and is clamped non-negative; a missing timestamp is
// stamped with now.
func NormalizeCart(v any, now time.Time) Cart {
	m, ok := v.(map[string]any)
	if !ok {
		return DefaultCart(now)
	}

	items := []Item{}
	if rawItems, ok := m["items"].([]any); ok {
		for _, raw := range rawItems {
			if item, ok := NormalizeItem(raw); ok {
				items = append(items, item)
			}
		}
	}

	fee := ServiceFeeCents
	switch m["fee"].(type) {
	case float64, string:
		fee = money.Normalize(m["fee"])
	}
	if fee < 0 {
		fee = 0
	}

	updatedAt := now.UnixMilli()
	if ts, ok := toFloat(m["updatedAt"]); ok && ts > 0 {
		updatedAt = int64(ts)
	}

	return Cart{
		Items:     items,
		Coupon:    NormalizeCoupon(m["coupon"]),
		Fee:       fee,
		UpdatedAt: updatedAt,
	}
}

// normalizeQty coerces a raw quantity to an integer >= 1, rounding rather
// than truncating. Non-numeric and non-positive input defaults to 1.
func normalizeQty(v any) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 1
	}
	qty := int(math.Round(f))
	if qty < 1 {
		return 1
	}
	return qty
}

// coerceID applies the falsy-id rejection rule: nil, empty string, zero and
// false all reject the item. Everything else is stringified.
func coerceID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		if id == 0 || math.IsNaN(id) {
			return "", false
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case bool:
		if !id {
			return "", false
		}
		return "true", true
	default:
		return "", false
	}
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
