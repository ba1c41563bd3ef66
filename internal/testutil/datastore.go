package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jbweber/homelab/catalog/internal/datastore"
	"github.com/jbweber/homelab/catalog/internal/domain"
	"github.com/jbweber/homelab/catalog/internal/migrations"
)

// CleanupTestDB removes the test database file. In-memory databases
// have no file and are left alone.
func CleanupTestDB(dsn string) error {
	// Extract file path from DSN
	if len(dsn) < 5 || dsn[:5] != "file:" {
		return fmt.Errorf("invalid DSN format")
	}

	path := dsn[5:]
	if idx := strings.Index(path, "?"); idx != -1 {
		if strings.Contains(path[idx:], "mode=memory") {
			return nil
		}
		path = path[:idx]
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SetupTestDB creates and returns a test datastore backed by a named in-memory database
func SetupTestDB(t *testing.T, testName string) (*datastore.Datastore, func()) {
	t.Helper()
	dsn := NewTestDSN(testName)

	ds, err := datastore.Open(context.Background(), datastore.DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		if err := ds.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
		if err := CleanupTestDB(dsn); err != nil {
			t.Logf("Warning: failed to clean up test database: %v", err)
		}
	}

	return ds, cleanup
}

// SetupTestDBWithMigrations creates a test datastore with the full schema applied
func SetupTestDBWithMigrations(t *testing.T, testName string) (*datastore.Datastore, func()) {
	t.Helper()
	ds, cleanup := SetupTestDB(t, testName)

	if err := migrations.Run(context.Background(), ds); err != nil {
		cleanup()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return ds, cleanup
}

// SeedProducts inserts products directly, bypassing the repository
func SeedProducts(t *testing.T, ds *datastore.Datastore, products ...domain.Product) {
	t.Helper()
	query := ds.Rebind("INSERT INTO products (id, name, price, color) VALUES (?, ?, ?, ?)")
	for _, p := range products {
		if _, err := ds.DB.Exec(query, p.ID, p.Name, p.Price, p.Color); err != nil {
			t.Fatalf("Failed to seed product %q: %v", p.Name, err)
		}
	}
}
