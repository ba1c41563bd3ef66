package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour spoken by the underlying database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name onto a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// Datastore pairs a database handle with the dialect used to talk to it.
type Datastore struct {
	DB      *sql.DB
	Dialect Dialect
}

// New wraps an already opened database handle.
func New(db *sql.DB, dialect Dialect) *Datastore {
	return &Datastore{DB: db, Dialect: dialect}
}

// Open opens a database connection for the given dialect and DSN.
// The connection is verified with a ping before returning.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Datastore, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}
	return &Datastore{DB: db, Dialect: dialect}, nil
}

// Rebind rewrites '?' placeholders into the dialect's native form.
// Queries are written with '?' throughout the codebase.
func (ds *Datastore) Rebind(query string) string {
	return Rebind(ds.Dialect, query)
}

// Rebind rewrites '?' placeholders for the given dialect.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Ping verifies the database is reachable.
func (ds *Datastore) Ping(ctx context.Context) error {
	return ds.DB.PingContext(ctx)
}

// Close closes the underlying database handle.
func (ds *Datastore) Close() error {
	return ds.DB.Close()
}
