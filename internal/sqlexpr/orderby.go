package sqlexpr

import (
	"strings"

	"github.com/roach88/edmsql/internal/edm"
)

// OrderKey is one sort key. Path is a property of the target, or a member
// of one of its complex or navigation properties ("customer", "name").
type OrderKey struct {
	Path       []string
	Descending bool
}

type orderTerm struct {
	column     string
	descending bool
}

// OrderBy renders ORDER BY terms. Every term is resolved, and every join it
// needs registered, when the OrderBy is created.
type OrderBy struct {
	terms []orderTerm
}

// NewOrderBy resolves keys against target. Ordering by a property that is
// not column-mapped fails with InternalError.
func NewOrderBy(q *Query, target *edm.StructuralType, keys []OrderKey) (*OrderBy, error) {
	o := &OrderBy{}
	for _, k := range keys {
		owner, name, err := resolveOrderPath(q, target, k.Path)
		if err != nil {
			return nil, err
		}
		col, _, _, err := q.column(owner, name)
		if err != nil {
			return nil, newError(ErrCodeInternal, owner.FQN(), name, "cannot order by a property without a column")
		}
		o.terms = append(o.terms, orderTerm{column: col, descending: k.Descending})
	}
	return o, nil
}

func resolveOrderPath(q *Query, target *edm.StructuralType, path []string) (*edm.StructuralType, string, error) {
	switch len(path) {
	case 1:
		return target, path[0], nil
	case 2:
		member, ok := target.Property(path[0])
		if !ok || member.Kind == edm.KindScalar {
			return nil, "", newError(ErrCodeInternal, target.FQN(), path[0], "order path does not go through a complex or navigation property")
		}
		owner, ok := q.catalog.Type(member.Target)
		if !ok {
			return nil, "", newError(ErrCodeInternal, member.Target, "", "unknown type in order path")
		}
		q.RegisterJoin(owner, target)
		return owner, path[1], nil
	default:
		return nil, "", newError(ErrCodeInternal, target.FQN(), strings.Join(path, "/"), "unsupported order path")
	}
}

// IsEmpty reports whether there are no terms.
func (o *OrderBy) IsEmpty() bool { return len(o.terms) == 0 }

// Evaluate implements Expression.
func (o *OrderBy) Evaluate(_ *Query, kind ClauseKind) (string, error) {
	if kind != ClauseOrderBy {
		return "", unsupportedClause("order by", kind)
	}
	parts := make([]string, len(o.terms))
	for i, t := range o.terms {
		dir := "ASC"
		if t.descending {
			dir = "DESC"
		}
		parts[i] = t.column + " " + dir
	}
	return strings.Join(parts, ", "), nil
}
