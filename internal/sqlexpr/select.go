package sqlexpr

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/edmsql/internal/edm"
)

// NotSet marks an unset top or skip.
const NotSet = -1

// SelectColumn is one entry of the select's column mapping.
type SelectColumn struct {
	// Owner is the type whose table holds the column.
	Owner *edm.StructuralType
	// Property is a scalar property of Owner.
	Property edm.Property
	// Parent is set when the column was reached through a complex property;
	// Owner is then the complex type and must be joined to Parent.
	Parent *edm.StructuralType
}

// Select renders the column list, FROM and pagination of a read.
type Select struct {
	properties []string
	expands    [][]string
	top        int
	skip       int
	count      bool

	target  *edm.StructuralType
	columns []SelectColumn
}

// NewSelect selects properties (all own properties when empty) and joins in
// every expand path. An expand path is a sequence of navigation properties
// starting at the select target.
func NewSelect(properties []string, expands [][]string) *Select {
	return &Select{
		properties: properties,
		expands:    expands,
		top:        NotSet,
		skip:       NotSet,
	}
}

// NewCountSelect selects COUNT(*).
func NewCountSelect() *Select {
	s := NewSelect(nil, nil)
	s.count = true
	return s
}

// Top limits the result to n rows. Negative values are ignored.
func (s *Select) Top(n int) *Select {
	if n >= 0 {
		s.top = n
	}
	return s
}

// Skip records an offset. Zero means no skip. Skip never renders into SQL;
// readers apply it while consuming rows.
func (s *Select) Skip(n int) *Select {
	switch {
	case n > 0:
		s.skip = n
	case n == 0:
		s.skip = NotSet
	}
	return s
}

// TopValue returns top, or NotSet.
func (s *Select) TopValue() int { return s.top }

// SkipValue returns skip, or NotSet.
func (s *Select) SkipValue() int { return s.skip }

// IsCount reports whether the select counts rows.
func (s *Select) IsCount() bool { return s.count }

// Target returns the type passed to From.
func (s *Select) Target() *edm.StructuralType { return s.target }

// Columns returns the resolved column mapping. In count mode it holds a
// single placeholder entry with a zero Property.
func (s *Select) Columns() []SelectColumn {
	out := make([]SelectColumn, len(s.columns))
	copy(out, s.columns)
	return out
}

// IsEmpty reports whether the select contributes nothing.
func (s *Select) IsEmpty() bool {
	return !s.count && len(s.columns) == 0
}

// From grants target's alias and resolves the column mapping: the requested
// (or all) properties of target, then the properties of every type along
// each expand path.
func (s *Select) From(q *Query, target *edm.StructuralType) error {
	q.GrantAlias(target)
	s.target = target
	s.columns = nil

	if s.count {
		s.columns = append(s.columns, SelectColumn{Owner: target})
		return nil
	}

	props, err := selectedProperties(q, target, s.properties)
	if err != nil {
		return err
	}
	if err := s.addColumns(q, target, props); err != nil {
		return err
	}

	// A type holds one alias per query, so every expanded type must be new
	// to the query unless an earlier path already expanded the same prefix.
	expanded := make(map[string]bool)
	for _, path := range s.expands {
		from := target
		for i, segment := range path {
			nav, ok := from.Property(segment)
			if !ok || nav.Kind != edm.KindNavigation {
				return newError(ErrCodeMapping, from.FQN(), segment, "expand segment is not a navigation property")
			}
			related, err := q.target(nav.Target)
			if err != nil {
				return err
			}
			prefix := strings.Join(path[:i+1], "/")
			if expanded[prefix] {
				from = related
				continue
			}
			if _, aliased := q.AliasFor(related); aliased {
				return newError(ErrCodeMapping, from.FQN(), segment, "expand %s leads back to %s, which is already part of the query", prefix, related.FQN())
			}
			expanded[prefix] = true
			q.RegisterJoin(related, from)
			all, err := selectedProperties(q, related, nil)
			if err != nil {
				return err
			}
			if err := s.addColumns(q, related, all); err != nil {
				return err
			}
			from = related
		}
	}
	return nil
}

// selectedProperties returns the named properties of t, or every own
// column-backed property when names is empty.
func selectedProperties(q *Query, t *edm.StructuralType, names []string) ([]edm.Property, error) {
	if len(names) == 0 {
		var out []edm.Property
		for _, p := range t.OwnProperties() {
			if p.Kind == edm.KindScalar {
				if _, mapped := q.catalog.PropertyColumn(t, p.Name); !mapped {
					continue
				}
			}
			out = append(out, p)
		}
		return out, nil
	}
	out := make([]edm.Property, 0, len(names))
	for _, name := range names {
		p, ok := t.Property(name)
		if !ok {
			return nil, newError(ErrCodeMapping, t.FQN(), name, "unknown property")
		}
		if p.Kind == edm.KindNavigation {
			return nil, newError(ErrCodeMapping, t.FQN(), name, "navigation properties cannot be selected, expand them instead")
		}
		out = append(out, p)
	}
	return out, nil
}

// addColumns appends props of owner, flattening complex properties into
// their scalar members.
func (s *Select) addColumns(q *Query, owner *edm.StructuralType, props []edm.Property) error {
	for _, p := range props {
		if p.Kind == edm.KindScalar {
			s.columns = append(s.columns, SelectColumn{Owner: owner, Property: p})
			continue
		}
		complexType, err := q.target(p.Target)
		if err != nil {
			return err
		}
		for _, cp := range complexType.ScalarProperties() {
			s.columns = append(s.columns, SelectColumn{Owner: complexType, Property: cp, Parent: owner})
		}
	}
	return nil
}

// Evaluate implements Expression.
func (s *Select) Evaluate(q *Query, kind ClauseKind) (string, error) {
	switch kind {
	case ClauseSelectPrefix:
		return s.prefix(q), nil
	case ClauseColumnList:
		return s.columnList(q)
	case ClauseFrom:
		return s.from(q)
	case ClauseJoin, ClauseWhere, ClauseOrderBy:
		return "", nil
	case ClauseSelectSuffix:
		return s.suffix(q), nil
	default:
		return "", unsupportedClause("select", kind)
	}
}

func (s *Select) prefix(q *Query) string {
	if s.count || s.top <= 0 {
		return ""
	}
	if q.ctx.Dialect.Pagination() == PaginationTop {
		return fmt.Sprintf("TOP %d", s.top)
	}
	return ""
}

func (s *Select) suffix(q *Query) string {
	if s.count || s.top <= 0 {
		return ""
	}
	switch q.ctx.Dialect.Pagination() {
	case PaginationFetchFirst:
		return fmt.Sprintf("FETCH FIRST %d ROWS ONLY", s.top)
	case PaginationLimit:
		return fmt.Sprintf("LIMIT %d", s.top)
	}
	return ""
}

func (s *Select) columnList(q *Query) (string, error) {
	if s.count {
		return "COUNT(*)", nil
	}
	parts := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		if c.Parent != nil {
			q.RegisterJoin(c.Owner, c.Parent)
		}
		col, _, _, err := q.column(c.Owner, c.Property.Name)
		if err != nil {
			return "", err
		}
		parts = append(parts, col+" AS "+s.ColumnAlias(q, c))
	}
	return strings.Join(parts, ", "), nil
}

// ColumnAlias returns the result-set name of c: the upper-cased property
// name for the select target, PROPERTY_ALIAS for every other type.
func (s *Select) ColumnAlias(q *Query, c SelectColumn) string {
	name := cases.Upper(language.Und).String(c.Property.Name)
	if edm.SameType(c.Owner, s.target) {
		return name
	}
	return name + "_" + q.GrantAlias(c.Owner)
}

func (s *Select) from(q *Query) (string, error) {
	if s.target == nil {
		return "", newError(ErrCodeInternal, "", "", "select has no target")
	}
	table, err := q.table(s.target)
	if err != nil {
		return "", err
	}
	return q.ctx.Quote(table) + " AS " + q.ctx.Quote(q.GrantAlias(s.target)), nil
}
