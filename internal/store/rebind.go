package store

import (
	"strconv"
	"strings"

	"github.com/roach88/edmsql/internal/sqlexpr"
)

// Rebind rewrites the '?' placeholders of query into the bind syntax of
// dialect. Only PostgreSQL needs it ($1, $2, ...). Placeholders inside
// quoted strings or identifiers are left alone.
func Rebind(dialect sqlexpr.Dialect, query string) string {
	if dialect != sqlexpr.DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
