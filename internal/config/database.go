package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jbweber/homelab/catalog/internal/datastore"
	"github.com/jbweber/homelab/catalog/internal/migrations"
)

// InitializeDatabase opens the configured datastore, tunes it and runs migrations
func (c *Config) InitializeDatabase(ctx context.Context) (*datastore.Datastore, error) {
	ds, err := c.OpenDatabase(ctx)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.Run(ctx, ds); err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return ds, nil
}

// OpenDatabase opens and tunes the configured datastore without migrating it
func (c *Config) OpenDatabase(ctx context.Context) (*datastore.Datastore, error) {
	dialect, err := datastore.ParseDialect(c.Database.Driver)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Database.Timeout)
	defer cancel()

	var ds *datastore.Datastore
	switch dialect {
	case datastore.DialectPostgres:
		ds, err = datastore.Open(ctx, dialect, c.Database.URL)
		if err != nil {
			return nil, err
		}
	default:
		dbPath := c.expandPath(c.Database.Path)

		// Ensure database directory exists
		dbDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		// Foreign keys are enabled on every pooled connection
		ds, err = datastore.Open(ctx, dialect, "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, err
		}

		if err := ApplyPragmaOptimizations(ctx, ds.DB); err != nil {
			_ = ds.Close()
			return nil, fmt.Errorf("failed to apply performance optimizations: %w", err)
		}
	}

	// Apply performance optimizations
	OptimizeDatabaseConnection(ds.DB)

	return ds, nil
}

// OptimizeDatabaseConnection applies connection pool limits
func OptimizeDatabaseConnection(db *sql.DB) {
	db.SetMaxOpenConns(10)                 // Limit concurrent connections
	db.SetMaxIdleConns(5)                  // Keep some connections alive
	db.SetConnMaxLifetime(5 * time.Minute) // Recycle connections periodically
	db.SetConnMaxIdleTime(1 * time.Minute) // Close idle connections after 1 minute
}

// ApplyPragmaOptimizations applies SQLite-specific performance pragmas
func ApplyPragmaOptimizations(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",    // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous = NORMAL",  // Balance between safety and performance
		"PRAGMA cache_size = 10000",    // Increase cache size (10MB)
		"PRAGMA temp_store = MEMORY",   // Store temporary tables in memory
		"PRAGMA mmap_size = 268435456", // 256MB memory mapping
		"PRAGMA optimize",              // Enable query optimizer
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return nil
}
