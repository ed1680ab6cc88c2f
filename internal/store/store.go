package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/edmsql/internal/sqlexpr"
)

// ErrUnsupportedDialect is returned by Open for dialects without a
// registered database/sql driver.
var ErrUnsupportedDialect = errors.New("no driver for dialect")

// Store executes compiled statements against one database.
type Store struct {
	db      *sql.DB
	dialect sqlexpr.Dialect
}

// DriverName returns the database/sql driver registered for d.
func DriverName(d sqlexpr.Dialect) (string, error) {
	switch d {
	case sqlexpr.DialectSQLite:
		return "sqlite3", nil
	case sqlexpr.DialectPostgres:
		return "postgres", nil
	case sqlexpr.DialectMySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedDialect, d)
}

// Open connects to the database at dsn with the driver of dialect.
//
// SQLite databases are configured with:
//   - a single connection, so ":memory:" databases outlive one query
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func Open(dialect sqlexpr.Dialect, dsn string) (*Store, error) {
	driver, err := DriverName(dialect)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == sqlexpr.DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	slog.Debug("database opened", "dialect", dialect, "driver", driver)
	return &Store{db: db, dialect: dialect}, nil
}

// New wraps an open database handle. Statements are rebound for dialect.
func New(db *sql.DB, dialect sqlexpr.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the dialect statements are rebound for.
func (s *Store) Dialect() sqlexpr.Dialect {
	return s.dialect
}

// ApplySchema runs a DDL script, e.g. the tables of a test catalog.
// The script may hold several statements separated by semicolons.
func (s *Store) ApplySchema(ctx context.Context, ddl string) error {
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
