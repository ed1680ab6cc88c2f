// Package store executes compiled statements through database/sql.
//
// Drivers are registered for three dialects:
//   - sqlite: github.com/mattn/go-sqlite3
//   - postgres: github.com/lib/pq
//   - mysql: github.com/go-sql-driver/mysql
//
// Statements carry '?' placeholders; Rebind rewrites them to $n for
// PostgreSQL. Parameters are bound in placeholder order after temporal and
// numeric conversion (querysql.Statement.Args).
//
// Skip and top are enforced while reading rows: the first Skip rows are
// discarded and reading stops at Top, so dialects that render no limit
// return the same page as dialects that do.
package store
