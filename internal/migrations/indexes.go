package migrations

import (
	"database/sql"

	"github.com/jbweber/homelab/catalog/internal/datastore"
)

// GetIndexMigrations returns lookup index migrations
func GetIndexMigrations() []Migration {
	return []Migration{
		{
			Version: 2,
			Name:    "add_products_name_index",
			Up: func(tx *sql.Tx, _ datastore.Dialect) error {
				_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)")
				return err
			},
			Down: func(tx *sql.Tx, _ datastore.Dialect) error {
				_, err := tx.Exec("DROP INDEX IF EXISTS idx_products_name")
				return err
			},
		},
	}
}
