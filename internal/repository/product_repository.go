package repository

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jbweber/homelab/catalog/internal/datastore"
	"github.com/jbweber/homelab/catalog/internal/domain"
)

// ProductRepository is the repository the products controller depends on
type ProductRepository = Repository[domain.Product, int64]

var _ ProductRepository = (*DatastoreRepository[domain.Product, int64])(nil)

var productMapping = EntityMapping[domain.Product, int64]{
	Name:        "product",
	Table:       "products",
	IDColumn:    "id",
	Columns:     []string{"name", "price", "color"},
	TouchColumn: "updated_at",
	GetID: func(p domain.Product) int64 {
		return p.ID
	},
	SetID: func(p *domain.Product, id int64) {
		p.ID = id
	},
	Values: func(p domain.Product) []any {
		return []any{p.Name, p.Price, p.Color}
	},
	// Price is read as text so it never passes through a float
	Scan: func(row RowScanner) (domain.Product, error) {
		var p domain.Product
		var price string
		if err := row.Scan(&p.ID, &p.Name, &price, &p.Color); err != nil {
			return p, err
		}
		parsed, err := decimal.NewFromString(price)
		if err != nil {
			return p, fmt.Errorf("invalid price %q for product %d: %w", price, p.ID, err)
		}
		p.Price = parsed
		return p, nil
	},
}

// NewProductRepository creates a new product repository
func NewProductRepository(ds *datastore.Datastore) *DatastoreRepository[domain.Product, int64] {
	return NewDatastoreRepository(ds, productMapping)
}
