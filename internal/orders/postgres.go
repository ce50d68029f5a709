package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the SQL DDL for the customers and orders tables. Executed on
// construction; apply it manually if the kiosk's database role cannot create
// tables.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    phone      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS orders (
    id          BIGSERIAL PRIMARY KEY,
    customer_id BIGINT NOT NULL REFERENCES customers(id),
    items       JSONB NOT NULL,
    total       INTEGER NOT NULL CHECK (total >= 0),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
`

// Postgres is a Store backed by PostgreSQL. Each save writes the customer
// and the order in one transaction.
type Postgres struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ Store = (*Postgres)(nil)

// NewPostgres connects to the database at dsn and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("orders: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("orders: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("orders: migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Save implements Store. The customer row is keyed by phone when one was
// collected, so a returning customer accumulates orders under one record;
// without a phone a fresh customer row is written.
func (p *Postgres) Save(ctx context.Context, order *Order) error {
	if len(order.Lines) == 0 {
		return ErrEmptyOrder
	}

	itemsJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("orders: marshal lines: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("orders: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID int64
	if order.CustomerPhone != "" {
		const upsert = `
			WITH existing AS (
				SELECT id FROM customers WHERE phone = $2 LIMIT 1
			), inserted AS (
				INSERT INTO customers (name, phone)
				SELECT $1, $2
				WHERE NOT EXISTS (SELECT 1 FROM existing)
				RETURNING id
			)
			SELECT id FROM existing UNION ALL SELECT id FROM inserted`
		err = tx.QueryRow(ctx, upsert, order.CustomerName, order.CustomerPhone).Scan(&customerID)
	} else {
		const insert = `INSERT INTO customers (name, phone) VALUES ($1, '') RETURNING id`
		err = tx.QueryRow(ctx, insert, order.CustomerName).Scan(&customerID)
	}
	if err != nil {
		return fmt.Errorf("orders: save customer: %w", err)
	}

	const insertOrder = `
		INSERT INTO orders (customer_id, items, total)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertOrder, customerID, itemsJSON, order.Total).
		Scan(&order.ID, &order.CreatedAt); err != nil {
		return fmt.Errorf("orders: save order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("orders: commit: %w", err)
	}
	return nil
}

// Close releases all connections held by the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
