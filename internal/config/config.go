package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jbweber/homelab/catalog/internal/datastore"
)

// EnvPrefix is the prefix of environment variables read into the configuration.
// CATALOG_DATABASE_DRIVER maps to database.driver.
const EnvPrefix = "CATALOG_"

// DefaultConfigFile is read when no config file is given
const DefaultConfigFile = "catalog.yaml"

// Config holds all configuration for the catalog service
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	HTTP     HTTPConfig     `koanf:"http"`
	Log      LogConfig      `koanf:"log"`
	Shutdown ShutdownConfig `koanf:"shutdown"`
	Store    StoreConfig    `koanf:"store"`
}

type DatabaseConfig struct {
	Driver  string        `koanf:"driver"`  // sqlite or postgres
	Path    string        `koanf:"path"`    // SQLite database file, ~ is expanded
	URL     string        `koanf:"url"`     // PostgreSQL connection URL
	Timeout time.Duration `koanf:"timeout"` // Connect timeout
}

type HTTPConfig struct {
	Port    int `koanf:"port"`
	Timeout struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readheader"`
	} `koanf:"timeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// StoreConfig bounds every repository call made while serving a request
type StoreConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    "~/catalog/data/catalog.db",
			Timeout: 5 * time.Second,
		},
		HTTP:     HTTPConfig{Port: 8080},
		Log:      LogConfig{Level: "info"},
		Shutdown: ShutdownConfig{Timeout: 10 * time.Second},
		Store:    StoreConfig{Timeout: 5 * time.Second},
	}
	cfg.HTTP.Timeout.Read = 10 * time.Second
	cfg.HTTP.Timeout.Write = 10 * time.Second
	cfg.HTTP.Timeout.Idle = 60 * time.Second
	cfg.HTTP.Timeout.ReadHeader = 5 * time.Second
	return cfg
}

// defaults flattens NewConfig into koanf keys
func defaults() map[string]any {
	d := NewConfig()
	return map[string]any{
		"database.driver":         d.Database.Driver,
		"database.path":           d.Database.Path,
		"database.url":            d.Database.URL,
		"database.timeout":        d.Database.Timeout,
		"http.port":               d.HTTP.Port,
		"http.timeout.read":       d.HTTP.Timeout.Read,
		"http.timeout.write":      d.HTTP.Timeout.Write,
		"http.timeout.idle":       d.HTTP.Timeout.Idle,
		"http.timeout.readheader": d.HTTP.Timeout.ReadHeader,
		"log.level":               d.Log.Level,
		"shutdown.timeout":        d.Shutdown.Timeout,
		"store.timeout":           d.Store.Timeout,
	}
}

// Load reads configuration from configFile and a .env file in the working directory
func Load(configFile string) (*Config, error) {
	return LoadFiles(configFile, ".env")
}

// LoadFiles builds the configuration in layers, each overriding the last:
// defaults, the YAML config file, the .env file, then CATALOG_ environment
// variables. Missing files are skipped.
func LoadFiles(configFile, envFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	if envFile != "" {
		envFileMap, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			envMap := make(map[string]any, len(envFileMap))
			for key, value := range envFileMap {
				if strings.HasPrefix(key, EnvPrefix) {
					envMap[envKey(key)] = value
				}
			}
			if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps CATALOG_HTTP_TIMEOUT_READ to http.timeout.read
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	return c.Store.Validate()
}

func (c *DatabaseConfig) Validate() error {
	dialect, err := datastore.ParseDialect(c.Driver)
	if err != nil {
		return err
	}
	switch dialect {
	case datastore.DialectPostgres:
		if c.URL == "" {
			return fmt.Errorf("database URL is not configured")
		}
		if !strings.HasPrefix(c.URL, "postgres://") && !strings.HasPrefix(c.URL, "postgresql://") {
			return fmt.Errorf("database URL must start with 'postgres://'")
		}
	default:
		if c.Path == "" {
			return fmt.Errorf("database path is not configured")
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid database connect timeout: %v", c.Timeout)
	}
	return nil
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level: %q", c.Level)
	}
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}

func (c *StoreConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("store timeout is not configured")
	}
	return nil
}

// String renders the configuration with credentials masked
func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Database Configuration ---\n")
	b.WriteString(fmt.Sprintf("  database.driver: %s\n", c.Database.Driver))
	b.WriteString(fmt.Sprintf("  database.path: %s\n", c.Database.Path))
	b.WriteString(fmt.Sprintf("  database.url: %s\n", maskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  database.timeout: %s\n", c.Database.Timeout))

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  http.port: %d\n", c.HTTP.Port))
	b.WriteString(fmt.Sprintf("  http.timeout.read: %v\n", c.HTTP.Timeout.Read))
	b.WriteString(fmt.Sprintf("  http.timeout.write: %v\n", c.HTTP.Timeout.Write))
	b.WriteString(fmt.Sprintf("  http.timeout.idle: %v\n", c.HTTP.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  http.timeout.readheader: %v\n", c.HTTP.Timeout.ReadHeader))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))
	b.WriteString(fmt.Sprintf("  store.timeout: %s\n", c.Store.Timeout))

	return b.String()
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	// Mask the URL by replacing the username and password with "****"
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

// Dialect returns the configured SQL dialect
func (c *Config) Dialect() datastore.Dialect {
	dialect, err := datastore.ParseDialect(c.Database.Driver)
	if err != nil {
		return datastore.DialectSQLite
	}
	return dialect
}

// expandPath expands ~ to home directory
func (c *Config) expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Return original path if we can't get home dir
		return path
	}

	return filepath.Join(homeDir, path[2:])
}
