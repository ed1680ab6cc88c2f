package sqlexpr

import (
	"strings"

	"github.com/roach88/edmsql/internal/edm"
)

// Insert renders INTO and VALUES for one new row.
type Insert struct {
	target *edm.StructuralType
	a      *assignments
}

// NewInsert collects the columns and values of entry. Navigation values
// must carry the related entity's keys; creating related rows is not
// supported.
func NewInsert(q *Query, target *edm.StructuralType, entry map[string]any) (*Insert, error) {
	a, err := collect(q, target, entry, false)
	if err != nil {
		return nil, err
	}
	return &Insert{target: target, a: a}, nil
}

// Columns returns the column names in VALUES order.
func (ins *Insert) Columns() []string {
	out := make([]string, ins.a.len())
	for i, c := range ins.a.columns {
		out[i] = c.Name
	}
	return out
}

// Params returns one parameter per column, in column order.
func (ins *Insert) Params() []Param { return ins.a.params() }

// IsEmpty reports whether no column was collected.
func (ins *Insert) IsEmpty() bool { return ins.a.len() == 0 }

// Evaluate implements Expression.
func (ins *Insert) Evaluate(q *Query, kind ClauseKind) (string, error) {
	if kind != ClauseInto && kind != ClauseValues {
		return "", unsupportedClause("insert", kind)
	}
	if ins.IsEmpty() {
		return "", newError(ErrCodeInternal, ins.target.FQN(), "", "insert has no columns")
	}
	if kind == ClauseValues {
		return "(" + strings.TrimSuffix(strings.Repeat("?,", ins.a.len()), ",") + ")", nil
	}
	table, err := q.table(ins.target)
	if err != nil {
		return "", err
	}
	cols := make([]string, ins.a.len())
	for i, c := range ins.a.columns {
		cols[i] = q.ctx.Quote(c.Name)
	}
	return q.ctx.Quote(table) + " (" + strings.Join(cols, ",") + ")", nil
}
