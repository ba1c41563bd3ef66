package migrations

import (
	"database/sql"

	"github.com/jbweber/homelab/catalog/internal/datastore"
)

// GetInitialMigrations returns all initial migrations
func GetInitialMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_products_table",
			Up: func(tx *sql.Tx, dialect datastore.Dialect) error {
				_, err := tx.Exec(productsTableDDL(dialect))
				return err
			},
			Down: func(tx *sql.Tx, _ datastore.Dialect) error {
				_, err := tx.Exec(`DROP TABLE IF EXISTS products`)
				return err
			},
		},
	}
}

// productsTableDDL returns the products table definition for the dialect.
func productsTableDDL(dialect datastore.Dialect) string {
	if dialect == datastore.DialectPostgres {
		return `
			CREATE TABLE IF NOT EXISTS products (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				price NUMERIC(18, 2) NOT NULL DEFAULT 0,
				color TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
		`
	}
	return `
		CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL DEFAULT 0,
			color TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`
}
