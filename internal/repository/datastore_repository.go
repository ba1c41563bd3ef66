package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jbweber/homelab/catalog/internal/datastore"
)

// RowScanner is satisfied by *sql.Row and *sql.Rows
type RowScanner interface {
	Scan(dest ...any) error
}

// EntityMapping describes how an entity type maps onto a single table.
// Scan must read the ID column followed by Columns, in order.
type EntityMapping[T any, ID comparable] struct {
	Name     string   // Entity name used in error messages
	Table    string   // Table name
	IDColumn string   // Primary key column, assigned by the store
	Columns  []string // Mutable columns, in the order returned by Values

	// TouchColumn, when set, is refreshed to CURRENT_TIMESTAMP on update
	TouchColumn string

	GetID  func(entity T) ID
	SetID  func(entity *T, id ID)
	Values func(entity T) []any
	Scan   func(row RowScanner) (T, error)
}

// DatastoreRepository provides a generic implementation of Repository
// on top of datastore.Datastore, driven by an EntityMapping
type DatastoreRepository[T any, ID comparable] struct {
	ds      *datastore.Datastore
	mapping EntityMapping[T, ID]
	stmts   *PreparedStatementCache

	selectAll  string
	selectByID string
	insert     string
	insertWith string
	update     string
	deleteByID string
	existsByID string
}

// NewDatastoreRepository creates a new generic repository
func NewDatastoreRepository[T any, ID comparable](ds *datastore.Datastore, mapping EntityMapping[T, ID]) *DatastoreRepository[T, ID] {
	r := &DatastoreRepository[T, ID]{
		ds:      ds,
		mapping: mapping,
		stmts:   NewPreparedStatementCache(ds.DB),
	}
	r.buildQueries()
	return r
}

// buildQueries renders the SQL for every operation once, in the datastore's dialect
func (r *DatastoreRepository[T, ID]) buildQueries() {
	m := r.mapping
	selectCols := strings.Join(append([]string{m.IDColumn}, m.Columns...), ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(m.Columns)), ", ")

	assignments := make([]string, 0, len(m.Columns)+1)
	for _, col := range m.Columns {
		assignments = append(assignments, col+" = ?")
	}
	if m.TouchColumn != "" {
		assignments = append(assignments, m.TouchColumn+" = CURRENT_TIMESTAMP")
	}

	r.selectAll = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC", selectCols, m.Table, m.IDColumn)
	r.selectByID = r.ds.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", selectCols, m.Table, m.IDColumn))
	r.insert = r.ds.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		m.Table, strings.Join(m.Columns, ", "), placeholders, m.IDColumn))
	r.insertWith = r.ds.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, %s) RETURNING %s",
		m.Table, selectCols, placeholders, m.IDColumn))
	r.update = r.ds.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		m.Table, strings.Join(assignments, ", "), m.IDColumn))
	r.deleteByID = r.ds.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", m.Table, m.IDColumn))
	r.existsByID = r.ds.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", m.Table, m.IDColumn))
}

// GetAll retrieves all entities
func (r *DatastoreRepository[T, ID]) GetAll(ctx context.Context) ([]T, error) {
	stmt, err := r.stmts.Get(ctx, r.selectAll)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s list: %w", r.mapping.Name, err)
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", r.mapping.Name, err)
	}
	defer rows.Close()

	entities := make([]T, 0)
	for rows.Next() {
		entity, err := r.mapping.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.mapping.Name, err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", r.mapping.Name, err)
	}
	return entities, nil
}

// GetByID retrieves an entity by its ID
func (r *DatastoreRepository[T, ID]) GetByID(ctx context.Context, id ID) (T, error) {
	var zero T
	stmt, err := r.stmts.Get(ctx, r.selectByID)
	if err != nil {
		return zero, fmt.Errorf("failed to prepare %s lookup: %w", r.mapping.Name, err)
	}

	entity, err := r.mapping.Scan(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, fmt.Errorf("%s with ID %v: %w", r.mapping.Name, id, ErrNotFound)
		}
		return zero, fmt.Errorf("failed to find %s: %w", r.mapping.Name, err)
	}
	return entity, nil
}

// Create inserts the entity. A zero ID is assigned by the store;
// a non-zero ID is inserted as given.
func (r *DatastoreRepository[T, ID]) Create(ctx context.Context, entity T) (T, error) {
	var zero ID
	query := r.insert
	args := r.mapping.Values(entity)
	explicitID := r.mapping.GetID(entity) != zero
	if explicitID {
		query = r.insertWith
		args = append([]any{r.mapping.GetID(entity)}, args...)
	}

	stmt, err := r.stmts.Get(ctx, query)
	if err != nil {
		return entity, fmt.Errorf("failed to prepare %s insert: %w", r.mapping.Name, err)
	}

	var id ID
	if err := stmt.QueryRowContext(ctx, args...).Scan(&id); err != nil {
		return entity, fmt.Errorf("failed to create %s: %w", r.mapping.Name, err)
	}
	r.mapping.SetID(&entity, id)

	if explicitID && r.ds.Dialect == datastore.DialectPostgres {
		if err := r.syncSequence(ctx); err != nil {
			return entity, err
		}
	}
	return entity, nil
}

// syncSequence moves a postgres serial sequence past explicitly inserted IDs
func (r *DatastoreRepository[T, ID]) syncSequence(ctx context.Context) error {
	query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', '%s'), (SELECT MAX(%s) FROM %s))",
		r.mapping.Table, r.mapping.IDColumn, r.mapping.IDColumn, r.mapping.Table)
	if _, err := r.ds.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to sync %s id sequence: %w", r.mapping.Name, err)
	}
	return nil
}

// Update replaces the mutable columns of an existing entity
func (r *DatastoreRepository[T, ID]) Update(ctx context.Context, entity T) error {
	var zero ID
	id := r.mapping.GetID(entity)
	if id == zero {
		return fmt.Errorf("%s ID is required for update: %w", r.mapping.Name, ErrInvalidEntity)
	}

	stmt, err := r.stmts.Get(ctx, r.update)
	if err != nil {
		return fmt.Errorf("failed to prepare %s update: %w", r.mapping.Name, err)
	}

	args := append(r.mapping.Values(entity), id)
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.mapping.Name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read %s update result: %w", r.mapping.Name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s with ID %v: %w", r.mapping.Name, id, ErrNotFound)
	}
	return nil
}

// Delete removes an entity by its ID
func (r *DatastoreRepository[T, ID]) Delete(ctx context.Context, entity T) error {
	stmt, err := r.stmts.Get(ctx, r.deleteByID)
	if err != nil {
		return fmt.Errorf("failed to prepare %s delete: %w", r.mapping.Name, err)
	}
	if _, err := stmt.ExecContext(ctx, r.mapping.GetID(entity)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.mapping.Name, err)
	}
	return nil
}

// ExistsByID checks if an entity exists by its ID
func (r *DatastoreRepository[T, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	stmt, err := r.stmts.Get(ctx, r.existsByID)
	if err != nil {
		return false, fmt.Errorf("failed to prepare %s existence check: %w", r.mapping.Name, err)
	}

	var count int
	if err := stmt.QueryRowContext(ctx, id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", r.mapping.Name, err)
	}
	return count > 0, nil
}

// Close releases the repository's prepared statements
func (r *DatastoreRepository[T, ID]) Close() error {
	return r.stmts.Close()
}
