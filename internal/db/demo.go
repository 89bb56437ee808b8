package db

import (
	"context"
	"database/sql"
	"fmt"
)

const demoSchema = `
CREATE TABLE IF NOT EXISTS demo_stock (
    id           INTEGER PRIMARY KEY,
    sku          TEXT NOT NULL UNIQUE,
    name         TEXT NOT NULL,
    category     TEXT,
    qty          INTEGER NOT NULL DEFAULT 0,
    unit_price   REAL,
    restocked_on TEXT
);

CREATE TABLE IF NOT EXISTS demo_orders (
    id         INTEGER PRIMARY KEY,
    stock_id   INTEGER NOT NULL REFERENCES demo_stock(id),
    quantity   INTEGER NOT NULL,
    ordered_on TEXT NOT NULL,
    status     TEXT
);

CREATE INDEX IF NOT EXISTS idx_demo_orders_stock_id ON demo_orders(stock_id);
`

type demoItem struct {
	sku, name, category string
	qty                 int
	price               any
	restocked           any
}

var demoItems = []demoItem{
	{"A-100", "Hex bolt M6", "fasteners", 1200, 0.08, "2026-09-30"},
	{"A-101", "Hex bolt M8", "fasteners", 85, 0.12, "2026-10-02"},
	{"A-102", "Wing nut M6", "fasteners", 9, 0.2, nil},
	{"B-200", "Cable tie 200mm", "electrical", 430, 0.03, "2026-08-14"},
	{"B-201", "Heat shrink 6mm", "electrical", 0, nil, nil},
	{"C-300", "Wood glue 250ml", "adhesives", 27, 4.5, "2026-10-11"},
	{"C-301", "Epoxy 2-part", "", 3, 12.75, "2026-07-01"},
	{"D-400", "Sandpaper P120", "abrasives", 150, 0.6, "2026-09-05"},
}

var demoOrders = []struct {
	sku      string
	quantity int
	on       string
	status   any
}{
	{"A-100", 500, "2026-10-01", "shipped"},
	{"A-101", 40, "2026-10-03", "open"},
	{"B-200", 100, "2026-10-05", nil},
	{"C-300", 2, "2026-10-12", "open"},
	{"A-100", 1000, "2026-10-15", "cancelled"},
	{"D-400", 25, "2026-10-18", "shipped"},
}

// SeedDemo creates and fills the demo tables used by the sample dialogs.
// Existing demo rows are left alone.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, demoSchema); err != nil {
		return fmt.Errorf("failed to create demo schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, it := range demoItems {
		var category any
		if it.category != "" {
			category = it.category
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO demo_stock (sku, name, category, qty, unit_price, restocked_on)
			VALUES (?, ?, ?, ?, ?, ?)
		`, it.sku, it.name, category, it.qty, it.price, it.restocked); err != nil {
			return fmt.Errorf("failed to insert demo stock: %w", err)
		}
	}

	var orders int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM demo_orders`).Scan(&orders); err != nil {
		return fmt.Errorf("failed to count demo orders: %w", err)
	}
	if orders == 0 {
		for _, o := range demoOrders {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO demo_orders (stock_id, quantity, ordered_on, status)
				SELECT id, ?, ?, ? FROM demo_stock WHERE sku = ?
			`, o.quantity, o.on, o.status, o.sku); err != nil {
				return fmt.Errorf("failed to insert demo order: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit demo data: %w", err)
	}
	return nil
}
