package sqlexpr

import (
	"strings"

	"github.com/roach88/edmsql/internal/edm"
)

// KeyPredicate binds a key property to a literal value.
type KeyPredicate struct {
	Property string
	Value    any
}

// Join brings Start into a query that already contains Target. It always
// renders as a LEFT JOIN so that owning rows survive an empty related set.
type Join struct {
	start  *edm.StructuralType
	target *edm.StructuralType
	key    JoinKey

	predicates []KeyPredicate
	bound      bool
}

func newJoin(start, target *edm.StructuralType) *Join {
	return &Join{
		start:  start,
		target: target,
		key:    JoinKey{Start: start.FQN(), Target: target.FQN()},
	}
}

// Start returns the joined-in type.
func (j *Join) Start() *edm.StructuralType { return j.start }

// Target returns the type already present in the query.
func (j *Join) Target() *edm.StructuralType { return j.target }

// Key returns the identity of the join. Predicates are not part of it.
func (j *Join) Key() JoinKey { return j.key }

// Equal reports whether both joins connect the same pair of types.
func (j *Join) Equal(other *Join) bool {
	return other != nil && j.key == other.key
}

// Predicates returns the key predicates attached with With.
func (j *Join) Predicates() []KeyPredicate { return j.predicates }

// IsEmpty reports whether the join is a self join, which renders nothing.
func (j *Join) IsEmpty() bool {
	return j.key.Start == j.key.Target
}

// With scopes the joined type to one row: every predicate becomes
// alias.column=? and the conjunction is ANDed into the query's WHERE.
// It may be called once per join.
func (j *Join) With(q *Query, predicates []KeyPredicate) error {
	if j.bound {
		return newError(ErrCodeAlreadyBound, j.key.Start, "", "key predicates of join to %s already set", j.key.Target)
	}
	where, err := WhereFromKeyPredicates(q, j.start, predicates)
	if err != nil {
		return err
	}
	j.bound = true
	j.predicates = predicates
	q.And(where)
	return nil
}

// Evaluate implements Expression.
func (j *Join) Evaluate(q *Query, kind ClauseKind) (string, error) {
	if kind != ClauseJoin {
		return "", unsupportedClause("join", kind)
	}
	if j.IsEmpty() {
		return "", nil
	}
	startMT, hasStartMT := q.catalog.MappingTable(j.start, j.target)
	targetMT, hasTargetMT := q.catalog.MappingTable(j.target, j.start)
	switch {
	case hasStartMT && hasTargetMT:
		return j.renderThroughMappingTable(q, startMT, targetMT)
	case hasStartMT || hasTargetMT:
		return "", newError(ErrCodeMapping, j.key.Start, "", "mapping table to %s must be declared on both sides", j.key.Target)
	}

	fk, err := joinColumns(q, j.start, j.target)
	if err != nil {
		return "", err
	}
	ref, err := joinColumns(q, j.target, j.start)
	if err != nil {
		return "", err
	}
	table, err := q.table(j.start)
	if err != nil {
		return "", err
	}
	return j.render(q, table, q.GrantAlias(j.start), fk, q.GrantAlias(j.target), ref)
}

// renderThroughMappingTable joins the link table to the target first, then
// the start type to the link table.
func (j *Join) renderThroughMappingTable(q *Query, startMT, targetMT edm.MappingTable) (string, error) {
	if startMT.Table != targetMT.Table {
		return "", newError(ErrCodeMapping, j.key.Start, "",
			"mapping table differs between %s (%s) and %s (%s)", j.key.Start, startMT.Table, j.key.Target, targetMT.Table)
	}
	mtAlias := q.mappingAlias(startMT.Table)

	targetCols, err := joinColumns(q, j.target, j.start)
	if err != nil {
		return "", err
	}
	first, err := j.render(q, startMT.Table, mtAlias, targetMT.JoinColumns, q.GrantAlias(j.target), targetCols)
	if err != nil {
		return "", err
	}

	startCols, err := joinColumns(q, j.start, j.target)
	if err != nil {
		return "", err
	}
	table, err := q.table(j.start)
	if err != nil {
		return "", err
	}
	second, err := j.render(q, table, q.GrantAlias(j.start), startCols, mtAlias, startMT.JoinColumns)
	if err != nil {
		return "", err
	}
	return first + " " + second, nil
}

func joinColumns(q *Query, from, to *edm.StructuralType) ([]string, error) {
	cols, ok := q.catalog.JoinColumns(from, to)
	if !ok {
		return nil, newError(ErrCodeMapping, from.FQN(), "", "no join columns towards %s", to.FQN())
	}
	return cols, nil
}

// render writes LEFT JOIN table AS alias ON alias.l_i = other.r_i [AND ...].
// Both column lists pair positionally and must have the same length.
func (j *Join) render(q *Query, table, alias string, left []string, otherAlias string, right []string) (string, error) {
	if len(left) != len(right) {
		return "", newError(ErrCodeMapping, j.key.Start, "",
			"join to %s pairs %d columns with %d", j.key.Target, len(left), len(right))
	}
	var b strings.Builder
	b.WriteString("LEFT JOIN ")
	b.WriteString(q.ctx.Quote(table))
	b.WriteString(" AS ")
	b.WriteString(q.ctx.Quote(alias))
	b.WriteString(" ON ")
	for i := range left {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(q.ctx.qualify(alias, left[i]))
		b.WriteString(" = ")
		b.WriteString(q.ctx.qualify(otherAlias, right[i]))
	}
	return b.String(), nil
}
