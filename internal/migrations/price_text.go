package migrations

import (
	"database/sql"

	"github.com/jbweber/homelab/catalog/internal/datastore"
)

// GetPriceMigrations returns migrations that change how prices are stored
func GetPriceMigrations() []Migration {
	return []Migration{
		{
			Version: 3,
			Name:    "store_product_price_as_text",
			Up: func(tx *sql.Tx, dialect datastore.Dialect) error {
				// NUMERIC(18, 2) is already exact on postgres
				if dialect == datastore.DialectPostgres {
					return nil
				}
				return rebuildProducts(tx, "TEXT NOT NULL DEFAULT '0'", "CAST(price AS TEXT)")
			},
			Down: func(tx *sql.Tx, dialect datastore.Dialect) error {
				if dialect == datastore.DialectPostgres {
					return nil
				}
				return rebuildProducts(tx, "NUMERIC NOT NULL DEFAULT 0", "price")
			},
		},
	}
}

// rebuildProducts recreates the sqlite products table with a new price column
// definition, since sqlite cannot alter a column type in place.
func rebuildProducts(tx *sql.Tx, priceColumn, priceExpr string) error {
	statements := []string{
		`CREATE TABLE products_rebuild (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			price ` + priceColumn + `,
			color TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`INSERT INTO products_rebuild (id, name, price, color, created_at, updated_at)
			SELECT id, name, ` + priceExpr + `, color, created_at, updated_at FROM products`,
		`DROP TABLE products`,
		`ALTER TABLE products_rebuild RENAME TO products`,
		`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
