package intent

import "sort"

// CartLine is one item in a cart snapshot.
type CartLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
}

// Cart accumulates the items a customer has ordered during a session.
// Quantities are merged per item name; an item whose quantity drops to zero
// or below disappears entirely. Cart is not safe for concurrent use; the
// session owning it serializes access.
type Cart struct {
	quantities map[string]int
	prices     map[string]int
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{
		quantities: make(map[string]int),
		prices:     make(map[string]int),
	}
}

// Add increases the quantity of name by qty at the given unit price.
// A non-positive qty is ignored.
func (c *Cart) Add(name string, qty, price int) {
	if qty <= 0 {
		return
	}
	c.quantities[name] += qty
	c.prices[name] = price
}

// Remove decreases the quantity of name by qty, deleting the line when it
// reaches zero, and returns how many units were actually removed. Removing
// an item not in the cart is a no-op returning 0, so the caller can tell the
// customer there was nothing to remove. There is no negative inventory.
func (c *Cart) Remove(name string, qty int) int {
	if qty <= 0 {
		return 0
	}
	cur, ok := c.quantities[name]
	if !ok {
		return 0
	}
	if qty >= cur {
		delete(c.quantities, name)
		delete(c.prices, name)
		return cur
	}
	c.quantities[name] = cur - qty
	return qty
}

// Quantity returns the current quantity of name, zero if absent.
func (c *Cart) Quantity(name string) int {
	return c.quantities[name]
}

// Total returns the sum of quantity times unit price over all lines.
func (c *Cart) Total() int {
	total := 0
	for name, qty := range c.quantities {
		total += qty * c.prices[name]
	}
	return total
}

// Len returns the number of distinct item lines.
func (c *Cart) Len() int {
	return len(c.quantities)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.quantities = make(map[string]int)
	c.prices = make(map[string]int)
}

// Snapshot returns the cart contents as lines sorted by item name, suitable
// for serialization and order persistence.
func (c *Cart) Snapshot() []CartLine {
	lines := make([]CartLine, 0, len(c.quantities))
	for name, qty := range c.quantities {
		lines = append(lines, CartLine{Name: name, Quantity: qty, Price: c.prices[name]})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines
}
