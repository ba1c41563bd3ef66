package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/catalog/internal/datastore"
)

func TestNewConfig(t *testing.T) {
	config := NewConfig()

	require.NotNil(t, config)
	assert.Equal(t, "sqlite", config.Database.Driver)
	assert.Equal(t, "~/catalog/data/catalog.db", config.Database.Path)
	assert.Equal(t, 8080, config.HTTP.Port)
	assert.Equal(t, 5*time.Second, config.Store.Timeout)
	assert.NoError(t, config.Validate())
}

func TestLoadFiles_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFiles(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoadFiles_Layers(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "catalog.yaml")
	envFile := filepath.Join(dir, ".env")

	yaml := `
database:
  driver: sqlite
  path: /var/lib/catalog/yaml.db
http:
  port: 9000
  timeout:
    readheader: 2s
log:
  level: debug
store:
  timeout: 3s
`
	require.NoError(t, os.WriteFile(configFile, []byte(yaml), 0o600))
	require.NoError(t, os.WriteFile(envFile, []byte("CATALOG_HTTP_PORT=9100\nCATALOG_LOG_LEVEL=warn\nUNRELATED=1\n"), 0o600))
	t.Setenv("CATALOG_LOG_LEVEL", "error")

	cfg, err := LoadFiles(configFile, envFile)
	require.NoError(t, err)

	// YAML over defaults
	assert.Equal(t, "/var/lib/catalog/yaml.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Second, cfg.HTTP.Timeout.ReadHeader)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout.Read)
	// .env over YAML
	assert.Equal(t, 9100, cfg.HTTP.Port)
	// Environment over .env
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadFiles_Postgres(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CATALOG_DATABASE_DRIVER", "postgres")
	t.Setenv("CATALOG_DATABASE_URL", "postgres://user:secret@db:5432/catalog")

	cfg, err := LoadFiles(filepath.Join(dir, "missing.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, datastore.DialectPostgres, cfg.Dialect())
	assert.NotContains(t, cfg.String(), "secret")
	assert.Contains(t, cfg.String(), "****@db:5432/catalog")
}

func TestLoadFiles_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("bad yaml", func(t *testing.T) {
		configFile := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("http: [unclosed"), 0o600))
		_, err := LoadFiles(configFile, "")
		assert.Error(t, err)
	})

	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("CATALOG_DATABASE_DRIVER", "postgres")
		_, err := LoadFiles("", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database URL is not configured")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("CATALOG_DATABASE_DRIVER", "oracle")
		_, err := LoadFiles("", "")
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("CATALOG_HTTP_PORT", "70000")
		_, err := LoadFiles("", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid HTTP server port")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty sqlite path", func(c *Config) { c.Database.Path = "" }, "database path is not configured"},
		{"non postgres url", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.URL = "mysql://x"
		}, "must start with 'postgres://'"},
		{"zero connect timeout", func(c *Config) { c.Database.Timeout = 0 }, "invalid database connect timeout"},
		{"zero read timeout", func(c *Config) { c.HTTP.Timeout.Read = 0 }, "read timeout"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"zero shutdown timeout", func(c *Config) { c.Shutdown.Timeout = 0 }, "shutdown timeout"},
		{"zero store timeout", func(c *Config) { c.Store.Timeout = 0 }, "store timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, ":8080", NewConfig().Addr())
}

func TestConfig_expandPath_WithTilde(t *testing.T) {
	config := NewConfig()

	expanded := config.expandPath("~/test/path")

	assert.False(t, strings.HasPrefix(expanded, "~/"), "expected path to be expanded, got %q", expanded)
	assert.True(t, strings.HasSuffix(expanded, filepath.Join("test", "path")))
}

func TestConfig_expandPath_WithoutTilde(t *testing.T) {
	config := NewConfig()
	assert.Equal(t, "/absolute/path", config.expandPath("/absolute/path"))
	assert.Equal(t, "relative/path", config.expandPath("relative/path"))
}

func TestConfig_InitializeDatabase_Success(t *testing.T) {
	config := NewConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "test.db")

	ds, err := config.InitializeDatabase(context.Background())
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, datastore.DialectSQLite, ds.Dialect)
	require.NoError(t, ds.Ping(context.Background()))

	// Verify foreign keys are enabled
	var fkEnabled bool
	require.NoError(t, ds.DB.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.True(t, fkEnabled)

	var journalMode string
	require.NoError(t, ds.DB.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	// Verify that migrations ran
	var count int
	require.NoError(t, ds.DB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='products'").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestConfig_InitializeDatabase_DirectoryCreation(t *testing.T) {
	config := NewConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "nested", "path", "test.db")

	ds, err := config.InitializeDatabase(context.Background())
	require.NoError(t, err)
	defer ds.Close()

	_, err = os.Stat(filepath.Dir(config.Database.Path))
	assert.NoError(t, err, "expected directory to be created")
}

func TestConfig_InitializeDatabase_InvalidPath(t *testing.T) {
	// A regular file cannot be used as a directory
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	config := NewConfig()
	config.Database.Path = filepath.Join(blocker, "sub", "catalog.db")

	ds, err := config.InitializeDatabase(context.Background())
	if err == nil {
		ds.Close()
		t.Fatal("Expected error for invalid path")
	}
	assert.Contains(t, err.Error(), "failed to create database directory")
}

func TestConfig_InitializeDatabase_UnknownDriver(t *testing.T) {
	config := NewConfig()
	config.Database.Driver = "oracle"

	_, err := config.InitializeDatabase(context.Background())
	assert.Error(t, err)
}
