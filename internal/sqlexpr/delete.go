package sqlexpr

import "github.com/roach88/edmsql/internal/edm"

// Delete renders FROM and KEYS of a delete of one row.
type Delete struct {
	target *edm.StructuralType
	keys   *assignments
}

// NewDelete collects the key predicate from keys in declared key order.
func NewDelete(q *Query, target *edm.StructuralType, keys map[string]any) (*Delete, error) {
	k, err := keyValues(q, target, keys)
	if err != nil {
		return nil, err
	}
	return &Delete{target: target, keys: k}, nil
}

// Params returns the key values in declared key order.
func (d *Delete) Params() []Param { return d.keys.params() }

// IsEmpty reports whether there is no key predicate.
func (d *Delete) IsEmpty() bool { return d.keys.len() == 0 }

// Evaluate implements Expression. FROM is the bare table: several
// dialects reject an alias in DELETE.
func (d *Delete) Evaluate(q *Query, kind ClauseKind) (string, error) {
	switch kind {
	case ClauseFrom:
		table, err := q.table(d.target)
		if err != nil {
			return "", err
		}
		return q.ctx.Quote(table), nil
	case ClauseKeys:
		return predicates(q.ctx, d.keys.columns), nil
	default:
		return "", unsupportedClause("delete", kind)
	}
}
