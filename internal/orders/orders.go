// Package orders persists finalized orders together with the customer
// details collected by the checkout dialogue.
package orders

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrEmptyOrder is returned when an order with no lines is submitted.
var ErrEmptyOrder = errors.New("orders: order has no lines")

// Line is one item of a finalized order.
type Line struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
}

// Order is a finalized cart with the customer who placed it. ID and
// CreatedAt are assigned by the store on save.
type Order struct {
	ID            int64
	CustomerName  string
	CustomerPhone string
	Lines         []Line
	Total         int
	CreatedAt     time.Time
}

// Store persists finalized orders. Save must be atomic: either the customer
// record and the order record are both written or neither is. A failed Save
// leaves the checkout ready to retry.
type Store interface {
	// Save persists the order, filling in ID and CreatedAt on success.
	Save(ctx context.Context, order *Order) error
}

// Compile-time interface check.
var _ Store = (*Memory)(nil)

// Memory is an in-process Store for development setups without a database
// and for tests. Orders are kept in insertion order and never expire.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	orders []Order
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

// Save appends the order, assigning a sequential ID.
func (m *Memory) Save(_ context.Context, order *Order) error {
	if len(order.Lines) == 0 {
		return ErrEmptyOrder
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = m.nextID
	order.CreatedAt = time.Now()
	m.nextID++
	m.orders = append(m.orders, *order)
	return nil
}

// All returns a copy of every saved order in insertion order.
func (m *Memory) All() []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Order(nil), m.orders...)
}
