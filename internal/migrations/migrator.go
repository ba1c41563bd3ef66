package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jbweber/homelab/catalog/internal/datastore"
)

// Migration represents a database migration with up and down functions.
// Both functions run inside the transaction that records the version change.
type Migration struct {
	Version int64
	Name    string
	Up      func(tx *sql.Tx, dialect datastore.Dialect) error
	Down    func(tx *sql.Tx, dialect datastore.Dialect) error
}

// Migrator handles database migrations
type Migrator struct {
	ds         *datastore.Datastore
	migrations []Migration
}

// NewMigrator creates a new migrator instance
func NewMigrator(ds *datastore.Datastore) *Migrator {
	return &Migrator{
		ds:         ds,
		migrations: []Migration{},
	}
}

// AddMigration adds a migration to the migrator
func (m *Migrator) AddMigration(migration Migration) {
	m.migrations = append(m.migrations, migration)
	// Sort migrations by version
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// RunMigrations runs all pending migrations
func (m *Migrator) RunMigrations(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			if err := m.runMigration(ctx, migration); err != nil {
				return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
			}
		}
	}

	return nil
}

// Rollback reverts the most recently applied migration.
// It is a no-op when nothing has been applied.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion == 0 {
		return nil
	}

	for _, migration := range m.migrations {
		if migration.Version == currentVersion {
			if err := m.revertMigration(ctx, migration); err != nil {
				return fmt.Errorf("failed to revert migration %d (%s): %w", migration.Version, migration.Name, err)
			}
			return nil
		}
	}

	return fmt.Errorf("applied migration %d is not registered", currentVersion)
}

// createMigrationsTable creates the migrations tracking table
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.ds.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// getCurrentVersion returns the current migration version
func (m *Migrator) getCurrentVersion(ctx context.Context) (int64, error) {
	var version int64
	err := m.ds.DB.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// runMigration executes a single migration
func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	if migration.Up == nil {
		return errors.New("migration has no up step")
	}
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if err := migration.Up(tx, m.ds.Dialect); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, m.ds.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"), migration.Version, migration.Name)
		return err
	})
}

// revertMigration executes a single migration's down step
func (m *Migrator) revertMigration(ctx context.Context, migration Migration) error {
	if migration.Down == nil {
		return errors.New("migration has no down step")
	}
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if err := migration.Down(tx, m.ds.Dialect); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, m.ds.Rebind("DELETE FROM schema_migrations WHERE version = ?"), migration.Version)
		return err
	})
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.ds.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		// ErrTxDone after a successful commit
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// GetCurrentVersion returns the current migration version (public method)
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int64, error) {
	return m.getCurrentVersion(ctx)
}

// GetMigrations returns all registered migrations
func (m *Migrator) GetMigrations() []Migration {
	return m.migrations
}

// All returns every migration known to the catalog, in version order.
func All() []Migration {
	all := append([]Migration{}, GetInitialMigrations()...)
	all = append(all, GetIndexMigrations()...)
	all = append(all, GetPriceMigrations()...)
	sort.Slice(all, func(i, j int) bool { return all[i].Version < all[j].Version })
	return all
}

// Run registers every known migration against ds and applies the pending ones.
func Run(ctx context.Context, ds *datastore.Datastore) error {
	migrator := NewMigrator(ds)
	for _, migration := range All() {
		migrator.AddMigration(migration)
	}
	return migrator.RunMigrations(ctx)
}
