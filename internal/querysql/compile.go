package querysql

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/edmsql/internal/sqlexpr"
)

// IDGenerator produces statement IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 statement IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Statement is a compiled request: the SQL text and its parameters.
//
// The N-th Param belongs to the N-th '?' of SQL. Values are never
// interpolated into the text.
type Statement struct {
	ID     string
	Kind   Kind
	SQL    string
	Params []sqlexpr.Param

	// Columns lists the result column aliases of a select, in order.
	Columns []string

	// Top is the row limit the reader enforces, or sqlexpr.NotSet. It is set
	// even for dialects that render the limit into SQL, and includes Skip.
	Top int
	// Skip is the number of leading rows the reader discards. It never
	// renders as an offset.
	Skip int
	// ServerPaging is set when Top is the builder's page size rather than
	// the requested top.
	ServerPaging bool
}

// Args binds Params for database/sql.
func (s *Statement) Args() ([]any, error) {
	return sqlexpr.BindAll(s.Params)
}

func (s *Statement) String() string {
	return fmt.Sprintf("%s %s %v", s.Kind, s.SQL, s.Params)
}

// template assembles a statement from its rendered clauses.
type template func(r *sqlexpr.Rendered) string

var templates = map[sqlexpr.StatementKind]template{
	sqlexpr.StatementSelect: selectTemplate,
	sqlexpr.StatementInsert: insertTemplate,
	sqlexpr.StatementUpdate: updateTemplate,
	sqlexpr.StatementDelete: deleteTemplate,
}

// compile renders the attached statement of q into SQL.
func compile(q *sqlexpr.Query) (string, []sqlexpr.Param, error) {
	r, err := q.Render()
	if err != nil {
		return "", nil, err
	}
	tmpl, ok := templates[r.Kind]
	if !ok {
		return "", nil, fmt.Errorf("no template for %s statements", r.Kind)
	}
	return tmpl(r), r.Params, nil
}

// SELECT [prefix] columns FROM from [joins] [WHERE where] [ORDER BY order] [suffix]
func selectTemplate(r *sqlexpr.Rendered) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if p := r.Clause(sqlexpr.ClauseSelectPrefix); p != "" {
		sb.WriteString(p)
		sb.WriteString(" ")
	}
	sb.WriteString(r.Clause(sqlexpr.ClauseColumnList))
	sb.WriteString(" FROM ")
	sb.WriteString(r.Clause(sqlexpr.ClauseFrom))
	if j := r.Clause(sqlexpr.ClauseJoin); j != "" {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if w := r.Clause(sqlexpr.ClauseWhere); w != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(w)
	}
	if o := r.Clause(sqlexpr.ClauseOrderBy); o != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(o)
	}
	if s := r.Clause(sqlexpr.ClauseSelectSuffix); s != "" {
		sb.WriteString(" ")
		sb.WriteString(s)
	}
	return sb.String()
}

func insertTemplate(r *sqlexpr.Rendered) string {
	return "INSERT INTO " + r.Clause(sqlexpr.ClauseInto) + " VALUES " + r.Clause(sqlexpr.ClauseValues)
}

func updateTemplate(r *sqlexpr.Rendered) string {
	return "UPDATE " + r.Clause(sqlexpr.ClauseTable)
}

func deleteTemplate(r *sqlexpr.Rendered) string {
	return "DELETE FROM " + r.Clause(sqlexpr.ClauseFrom) + " WHERE " + r.Clause(sqlexpr.ClauseKeys)
}
