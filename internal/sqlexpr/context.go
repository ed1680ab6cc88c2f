package sqlexpr

import "strings"

// Dialect tags the target database product.
type Dialect string

const (
	DialectANSI     Dialect = "ansi"
	DialectDerby    Dialect = "derby"
	DialectPostgres Dialect = "postgres"
	DialectH2       Dialect = "h2"
	DialectHANA     Dialect = "hana"
	DialectSybase   Dialect = "sybase"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect maps a product name onto a Dialect. Unknown names are kept
// as-is and render no pagination.
func ParseDialect(s string) Dialect {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "ansi", "default":
		return DialectANSI
	case "derby", "javadb":
		return DialectDerby
	case "postgres", "postgresql", "pg":
		return DialectPostgres
	case "h2":
		return DialectH2
	case "hana", "sap_hana", "saphana":
		return DialectHANA
	case "sybase", "sybase_ase", "ase":
		return DialectSybase
	case "mysql", "mariadb":
		return DialectMySQL
	case "sqlite", "sqlite3":
		return DialectSQLite
	default:
		return Dialect(name)
	}
}

// Pagination is the syntax a dialect uses to limit a result set.
type Pagination int

const (
	// PaginationNone renders no limit; the full result set is returned.
	PaginationNone Pagination = iota
	// PaginationFetchFirst renders FETCH FIRST n ROWS ONLY after the query.
	PaginationFetchFirst
	// PaginationLimit renders LIMIT n after the query.
	PaginationLimit
	// PaginationTop renders TOP n ahead of the column list.
	PaginationTop
)

// Pagination returns the limit syntax of d.
func (d Dialect) Pagination() Pagination {
	switch d {
	case DialectDerby:
		return PaginationFetchFirst
	case DialectPostgres, DialectH2, DialectHANA, DialectMySQL, DialectSQLite:
		return PaginationLimit
	case DialectSybase:
		return PaginationTop
	default:
		return PaginationNone
	}
}

// Context carries the per-request settings shared by all expressions of a
// query.
type Context struct {
	Dialect Dialect

	// CaseSensitive quotes table names, aliases and column names.
	CaseSensitive bool
}

// Quote wraps an identifier in double quotes when the context is case
// sensitive. Identifiers that are already quoted are returned unchanged;
// any other embedded double quote is doubled.
func (c Context) Quote(ident string) string {
	if !c.CaseSensitive {
		return ident
	}
	if isQuoted(ident) {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// isQuoted reports whether ident is a complete quoted identifier whose inner
// quotes are all doubled.
func isQuoted(ident string) bool {
	if len(ident) < 2 || !strings.HasPrefix(ident, `"`) || !strings.HasSuffix(ident, `"`) {
		return false
	}
	inner := ident[1 : len(ident)-1]
	return !strings.Contains(strings.ReplaceAll(inner, `""`, ""), `"`)
}

// qualify renders alias.column with context quoting.
func (c Context) qualify(alias, column string) string {
	return c.Quote(alias) + "." + c.Quote(column)
}
