// Package menu defines the menu catalog consumed by the order intent engine.
//
// A catalog is an ordered list of items: ordering matters because the menu
// matcher breaks score ties by catalog position. Item names are canonical
// lowercase strings and double as cart keys; prices are whole rupees.
//
// Two implementations are provided: a Static catalog populated from the YAML
// config and a PG catalog backed by PostgreSQL (postgres.go) so staff can
// edit the menu without redeploying the kiosk.
package menu

import "context"

// Item is a single orderable menu entry.
type Item struct {
	// Name is the canonical lowercase item name (e.g., "classic burger").
	// It is the unique key used by the cart and the matcher.
	Name string `yaml:"name"`

	// Price is the item price in whole rupees.
	Price int `yaml:"price"`
}

// Catalog supplies the active menu. An empty item list is a valid state (the
// engine degrades menu-query and order-mutation routes to a "menu is empty"
// reply); implementations must return it rather than an error.
type Catalog interface {
	// Items returns the active menu in catalog order. The returned slice
	// must not be mutated by the caller.
	Items(ctx context.Context) ([]Item, error)
}

// Static is a fixed in-memory catalog, typically loaded from config.
type Static struct {
	items []Item
}

// Compile-time interface assertion.
var _ Catalog = (*Static)(nil)

// NewStatic returns a Static catalog over items. The slice is copied.
func NewStatic(items []Item) *Static {
	cp := make([]Item, len(items))
	copy(cp, items)
	return &Static{items: cp}
}

// Items implements Catalog.
func (s *Static) Items(_ context.Context) ([]Item, error) {
	return s.items, nil
}
