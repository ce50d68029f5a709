package menu

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is a PostgreSQL-backed catalog. The menu table is small and read on
// every utterance, so no caching layer is interposed — staff edits become
// visible on the next interaction.
//
// Obtain one via NewPG. All methods are safe for concurrent use.
type PG struct {
	pool *pgxpool.Pool
}

// Compile-time interface assertion.
var _ Catalog = (*PG)(nil)

// NewPG creates a PG catalog, establishes a connection pool to the database
// at dsn, and ensures the menu table exists.
func NewPG(ctx context.Context, dsn string) (*PG, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("menu catalog: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("menu catalog: ping: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("menu catalog: migrate: %w", err)
	}
	return &PG{pool: pool}, nil
}

// migrate ensures the menu table exists. position drives catalog order,
// which the matcher uses as its tie-break.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS menu (
		    item_name TEXT PRIMARY KEY,
		    price     INTEGER NOT NULL CHECK (price >= 0),
		    position  INTEGER NOT NULL DEFAULT 0
		)`
	_, err := pool.Exec(ctx, ddl)
	return err
}

// Items implements Catalog. It returns all menu rows ordered by position,
// then name for a stable order among unpositioned rows.
func (p *PG) Items(ctx context.Context) ([]Item, error) {
	const q = `
		SELECT item_name, price
		FROM   menu
		ORDER  BY position, item_name`

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("menu catalog: query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Name, &it.Price); err != nil {
			return nil, fmt.Errorf("menu catalog: scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("menu catalog: iterate items: %w", err)
	}
	return items, nil
}

// Close releases all connections held by the underlying pool.
func (p *PG) Close() {
	p.pool.Close()
}
