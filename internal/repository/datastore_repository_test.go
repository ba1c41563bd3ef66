package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/catalog/internal/datastore"
	"github.com/jbweber/homelab/catalog/internal/domain"
)

func newPostgresMock(t *testing.T) (*DatastoreRepository[domain.Product, int64], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewProductRepository(datastore.New(db, datastore.DialectPostgres)), mock
}

func TestDatastoreRepository_Postgres_GetAll(t *testing.T) {
	repo, mock := newPostgresMock(t)

	rows := sqlmock.NewRows([]string{"id", "name", "price", "color"}).
		AddRow(int64(1), "pencil", "35", "red").
		AddRow(int64(2), "notebook", "44.10", "blue")
	mock.ExpectPrepare(regexp.QuoteMeta(`SELECT id, name, price, color FROM products ORDER BY id ASC`)).
		ExpectQuery().
		WillReturnRows(rows)

	products, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "notebook", products[1].Name)
	assert.True(t, decimal.RequireFromString("44.10").Equal(products[1].Price))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreRepository_Postgres_GetAll_RowError(t *testing.T) {
	repo, mock := newPostgresMock(t)

	rows := sqlmock.NewRows([]string{"id", "name", "price", "color"}).
		AddRow(int64(1), "pencil", "35", "red").
		RowError(0, errors.New("connection reset"))
	mock.ExpectPrepare(regexp.QuoteMeta(`SELECT id, name, price, color FROM products ORDER BY id ASC`)).
		ExpectQuery().
		WillReturnRows(rows)

	_, err := repo.GetAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDatastoreRepository_Postgres_GetByID_NotFound(t *testing.T) {
	repo, mock := newPostgresMock(t)

	mock.ExpectPrepare(regexp.QuoteMeta(`SELECT id, name, price, color FROM products WHERE id = $1`)).
		ExpectQuery().
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "color"}))

	_, err := repo.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreRepository_Postgres_GetByID_Fault(t *testing.T) {
	repo, mock := newPostgresMock(t)

	mock.ExpectPrepare(regexp.QuoteMeta(`SELECT id, name, price, color FROM products WHERE id = $1`)).
		ExpectQuery().
		WithArgs(int64(5)).
		WillReturnError(errors.New("db down"))

	_, err := repo.GetByID(context.Background(), 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDatastoreRepository_Postgres_Create(t *testing.T) {
	repo, mock := newPostgresMock(t)

	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO products (name, price, color) VALUES ($1, $2, $3) RETURNING id`)).
		ExpectQuery().
		WithArgs("pencil", sqlmock.AnyArg(), "red").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	created, err := repo.Create(context.Background(), pencil())
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreRepository_Postgres_Create_WithExplicitID(t *testing.T) {
	repo, mock := newPostgresMock(t)

	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO products (id, name, price, color) VALUES ($1, $2, $3, $4) RETURNING id`)).
		ExpectQuery().
		WithArgs(int64(42), "pencil", sqlmock.AnyArg(), "red").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta(`SELECT setval(pg_get_serial_sequence('products', 'id'), (SELECT MAX(id) FROM products))`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := pencil()
	p.ID = 42
	created, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreRepository_Postgres_Update(t *testing.T) {
	repo, mock := newPostgresMock(t)

	prep := mock.ExpectPrepare(regexp.QuoteMeta(`UPDATE products SET name = $1, price = $2, color = $3, updated_at = CURRENT_TIMESTAMP WHERE id = $4`))
	prep.ExpectExec().
		WithArgs("pencil", sqlmock.AnyArg(), "red", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("pencil", sqlmock.AnyArg(), "red", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	p := pencil()
	p.ID = 3
	require.NoError(t, repo.Update(context.Background(), p))

	// No row matched
	p.ID = 4
	assert.ErrorIs(t, repo.Update(context.Background(), p), ErrNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreRepository_Postgres_Delete(t *testing.T) {
	repo, mock := newPostgresMock(t)

	prep := mock.ExpectPrepare(regexp.QuoteMeta(`DELETE FROM products WHERE id = $1`))
	prep.ExpectExec().WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), domain.Product{ID: 9}))
	require.NoError(t, repo.Delete(context.Background(), domain.Product{ID: 9}))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreRepository_Postgres_ExistsByID(t *testing.T) {
	repo, mock := newPostgresMock(t)

	prep := mock.ExpectPrepare(regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE id = $1`))
	prep.ExpectQuery().WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	prep.ExpectQuery().WithArgs(int64(2)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.ExistsByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByID(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, exists)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreRepository_PrepareError(t *testing.T) {
	repo, mock := newPostgresMock(t)

	mock.ExpectPrepare(regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE id = $1`)).
		WillReturnError(errors.New("permission denied"))

	_, err := repo.ExistsByID(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prepare product existence check")
	assert.Equal(t, 0, repo.stmts.Size())
}
