package sqlexpr

import (
	"strings"

	"github.com/roach88/edmsql/internal/edm"
)

// Update renders the TABLE clause of an update of one row:
// table SET c1=?,c2=? WHERE k1=? AND k2=?.
type Update struct {
	target *edm.StructuralType
	set    *assignments
	keys   *assignments
}

// NewUpdate collects the SET list from entry, leaving key properties out,
// and the key predicate from keys in declared key order.
func NewUpdate(q *Query, target *edm.StructuralType, entry, keys map[string]any) (*Update, error) {
	k, err := keyValues(q, target, keys)
	if err != nil {
		return nil, err
	}
	set, err := collect(q, target, entry, true)
	if err != nil {
		return nil, err
	}
	return &Update{target: target, set: set, keys: k}, nil
}

// Params returns the SET values followed by the key values.
func (u *Update) Params() []Param {
	return append(u.set.params(), u.keys.params()...)
}

// IsEmpty reports whether the SET list is empty.
func (u *Update) IsEmpty() bool { return u.set.len() == 0 }

// Evaluate implements Expression.
func (u *Update) Evaluate(q *Query, kind ClauseKind) (string, error) {
	if kind != ClauseTable {
		return "", unsupportedClause("update", kind)
	}
	if u.IsEmpty() {
		return "", newError(ErrCodeInternal, u.target.FQN(), "", "update has nothing to set")
	}
	table, err := q.table(u.target)
	if err != nil {
		return "", err
	}
	set := make([]string, u.set.len())
	for i, c := range u.set.columns {
		set[i] = q.ctx.Quote(c.Name) + "=?"
	}
	return q.ctx.Quote(table) + " SET " + strings.Join(set, ",") + " WHERE " + predicates(q.ctx, u.keys.columns), nil
}
