// Package catalog provides the read-only product list consumed by the UI.
// The cart never depends on it; items enter the cart as raw descriptors.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetByID for unknown product ids.
var ErrNotFound = errors.New("catalog: product not found")

// Product is one menu entry. Price is in cents.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Highlight   bool   `json:"highlight"`
}

// Provider is the catalog contract consumed by the HTTP layer.
type Provider interface {
	All(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByCategory(ctx context.Context, category string) ([]Product, error)
	// Search matches the text case-insensitively against name, description
	// and category. A blank query returns everything.
	Search(ctx context.Context, query string) ([]Product, error)
	// Featured returns highlighted products first, backfilled with others
	// up to limit.
	Featured(ctx context.Context, limit int) ([]Product, error)
	// Related returns same-category products (excluding id) first,
	// backfilled up to limit. An unknown id falls back to Featured.
	Related(ctx context.Context, id string, limit int) ([]Product, error)
}
