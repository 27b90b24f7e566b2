package catalog

import (
	"database/sql"

	"github.com/avolkov/vitrine/internal/store"
)

// Migrations returns the catalog schema migrations, in ascending order.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create products table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE products (
						id               INTEGER PRIMARY KEY AUTOINCREMENT,
						name             TEXT NOT NULL,
						description      TEXT,
						price            REAL NOT NULL,
						discounted_price REAL,
						sku              TEXT NOT NULL,
						photo_url        TEXT,
						created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE UNIQUE INDEX idx_products_sku ON products(sku)`,
					`CREATE INDEX idx_products_created_at ON products(created_at)`,
					`CREATE INDEX idx_products_price ON products(price)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
