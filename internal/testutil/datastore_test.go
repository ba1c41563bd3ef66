package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jbweber/homelab/catalog/internal/domain"
	"github.com/shopspring/decimal"
)

func TestSetupTestDB(t *testing.T) {
	ds, cleanup := SetupTestDB(t, "TestSetupTestDB")
	defer cleanup()

	if ds == nil {
		t.Fatal("Expected non-nil datastore")
	}

	// Verify database connection works
	err := ds.DB.Ping()
	if err != nil {
		t.Errorf("Database ping failed: %v", err)
	}

	// Test that we can execute a query
	var result string
	err = ds.DB.QueryRow("SELECT 'test'").Scan(&result)
	if err != nil {
		t.Errorf("Test query failed: %v", err)
	}
	if result != "test" {
		t.Errorf("Expected 'test', got '%s'", result)
	}
}

func TestSetupTestDBWithMigrations(t *testing.T) {
	ds, cleanup := SetupTestDBWithMigrations(t, "TestSetupTestDBWithMigrations")
	defer cleanup()

	// Verify migration tables exist (schema_migrations should be created by migrator)
	var tableName string
	err := ds.DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='schema_migrations'").Scan(&tableName)
	if err != nil {
		t.Errorf("Expected schema_migrations table to exist: %v", err)
	}

	var count int
	err = ds.DB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='products'").Scan(&count)
	if err != nil {
		t.Errorf("Error checking for table products: %v", err)
	}
	if count == 0 {
		t.Error("Expected table products to exist")
	}
}

func TestCleanupTestDB(t *testing.T) {
	// Test cleanup with in-memory database (should not error)
	dsn := NewTestDSN("test-cleanup")
	err := CleanupTestDB(dsn)
	if err != nil {
		t.Errorf("CleanupTestDB should not error on in-memory database: %v", err)
	}

	// Test cleanup with invalid DSN
	err = CleanupTestDB("invalid-dsn")
	if err == nil {
		t.Error("Expected error for invalid DSN")
	}
}

func TestCleanupTestDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	if err := os.WriteFile(path, []byte{}, 0o600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if err := CleanupTestDB("file:" + path + "?_pragma=foreign_keys(1)"); err != nil {
		t.Errorf("CleanupTestDB failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be removed", path)
	}

	// Already gone
	if err := CleanupTestDB("file:" + path); err != nil {
		t.Errorf("Second cleanup call failed: %v", err)
	}
}

func TestSetupTestDB_MultipleInstances(t *testing.T) {
	// Test that we can create multiple test databases without conflicts
	ds1, cleanup1 := SetupTestDB(t, "TestSetupTestDB_MultipleInstances_1")
	defer cleanup1()

	ds2, cleanup2 := SetupTestDB(t, "TestSetupTestDB_MultipleInstances_2")
	defer cleanup2()

	if err := ds1.DB.Ping(); err != nil {
		t.Errorf("First database failed: %v", err)
	}
	if err := ds2.DB.Ping(); err != nil {
		t.Errorf("Second database failed: %v", err)
	}

	// They should be separate instances
	if ds1.DB == ds2.DB {
		t.Error("Expected different database instances")
	}
}

func TestSeedProducts(t *testing.T) {
	ds, cleanup := SetupTestDBWithMigrations(t, "TestSeedProducts")
	defer cleanup()

	SeedProducts(t, ds,
		domain.Product{ID: 1, Name: "pencil", Price: decimal.NewFromInt(35), Color: "red"},
		domain.Product{ID: 2, Name: "notebook", Price: decimal.NewFromInt(44), Color: "blue"},
	)

	var name string
	if err := ds.DB.QueryRow("SELECT name FROM products WHERE id = 2").Scan(&name); err != nil {
		t.Fatalf("Failed to query seeded product: %v", err)
	}
	if name != "notebook" {
		t.Errorf("Expected 'notebook', got '%s'", name)
	}
}
