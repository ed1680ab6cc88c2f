package sqlexpr

import (
	"log/slog"
	"strconv"

	"github.com/roach88/edmsql/internal/edm"
)

// AliasNamer produces the n-th alias of a query, n counting from zero.
type AliasNamer func(n int) string

// DefaultAliasNamer names aliases T0, T1, ...
func DefaultAliasNamer(n int) string {
	return "T" + strconv.Itoa(n)
}

// Option configures a Query.
type Option func(*Query)

// WithAliasNamer replaces the default alias naming scheme.
func WithAliasNamer(namer AliasNamer) Option {
	return func(q *Query) {
		if namer != nil {
			q.namer = namer
		}
	}
}

// JoinKey identifies a join by the FQNs of its two types.
type JoinKey struct {
	Start  string
	Target string
}

// Query is the per-request compilation state: the alias registry, the
// registered joins, the accumulated WHERE and the statement expression.
//
// A Query is not safe for concurrent use and must not be reused across
// requests.
type Query struct {
	ctx     Context
	catalog edm.Catalog
	namer   AliasNamer

	// alias registry, insertion ordered
	aliases     []string
	typeByAlias map[string]*edm.StructuralType
	aliasByType map[string]string

	// link tables of many-to-many joins
	mappingAliases map[string]string

	joinIndex map[JoinKey]int
	joins     []*Join

	where   *Where
	orderBy *OrderBy

	selectExpr *Select
	insertExpr *Insert
	updateExpr *Update
	deleteExpr *Delete
}

// NewQuery creates an empty query against catalog.
func NewQuery(catalog edm.Catalog, ctx Context, opts ...Option) *Query {
	q := &Query{
		ctx:            ctx,
		catalog:        catalog,
		namer:          DefaultAliasNamer,
		typeByAlias:    make(map[string]*edm.StructuralType),
		aliasByType:    make(map[string]string),
		mappingAliases: make(map[string]string),
		joinIndex:      make(map[JoinKey]int),
		where:          NewWhere(""),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Context returns the query context.
func (q *Query) Context() Context { return q.ctx }

// Catalog returns the metadata catalog.
func (q *Query) Catalog() edm.Catalog { return q.catalog }

// GrantAlias returns the alias of t, allocating the next one if t has none.
func (q *Query) GrantAlias(t *edm.StructuralType) string {
	fqn := t.FQN()
	if a, ok := q.aliasByType[fqn]; ok {
		return a
	}
	a := q.namer(len(q.aliases))
	q.aliases = append(q.aliases, a)
	q.aliasByType[fqn] = a
	q.typeByAlias[a] = t
	slog.Debug("alias granted", "type", fqn, "alias", a)
	return a
}

// AliasFor returns the alias of t if one was granted.
func (q *Query) AliasFor(t *edm.StructuralType) (string, bool) {
	a, ok := q.aliasByType[t.FQN()]
	return a, ok
}

// TypeForAlias returns the type an alias was granted to.
func (q *Query) TypeForAlias(alias string) (*edm.StructuralType, bool) {
	t, ok := q.typeByAlias[alias]
	return t, ok
}

// Aliases returns the granted aliases in insertion order.
func (q *Query) Aliases() []string {
	out := make([]string, len(q.aliases))
	copy(out, q.aliases)
	return out
}

func (q *Query) mappingAlias(table string) string {
	if a, ok := q.mappingAliases[table]; ok {
		return a
	}
	a := "MT" + strconv.Itoa(len(q.mappingAliases))
	q.mappingAliases[table] = a
	return a
}

// RegisterJoin returns the join bringing start into a query that already
// contains target. A join for the same pair is created once; later calls
// return the stored instance. Self joins are returned but never stored.
func (q *Query) RegisterJoin(start, target *edm.StructuralType) *Join {
	j := newJoin(start, target)
	q.GrantAlias(target)
	q.GrantAlias(start)
	if j.IsEmpty() {
		return j
	}
	if i, ok := q.joinIndex[j.Key()]; ok {
		return q.joins[i]
	}
	q.joinIndex[j.Key()] = len(q.joins)
	q.joins = append(q.joins, j)
	slog.Debug("join registered", "start", j.key.Start, "target", j.key.Target)
	return j
}

// Joins returns the registered joins in registration order.
func (q *Query) Joins() []*Join {
	out := make([]*Join, len(q.joins))
	copy(out, q.joins)
	return out
}

// And ANDs fragments into the query's WHERE.
func (q *Query) And(others ...*Where) *Query {
	q.where.And(others...)
	return q
}

// Or ORs fragments into the query's WHERE.
func (q *Query) Or(others ...*Where) *Query {
	q.where.Or(others...)
	return q
}

// Where returns the accumulated WHERE expression.
func (q *Query) Where() *Where { return q.where }

// column resolves the binding of a scalar property of t and renders it
// qualified by t's alias.
func (q *Query) column(t *edm.StructuralType, property string) (string, edm.Property, edm.Column, error) {
	prop, ok := t.Property(property)
	if !ok {
		return "", prop, edm.Column{}, newError(ErrCodeMapping, t.FQN(), property, "unknown property")
	}
	col, ok := q.catalog.PropertyColumn(t, property)
	if !ok {
		return "", prop, col, newError(ErrCodeMapping, t.FQN(), property, "property is not mapped to a column")
	}
	return q.ctx.qualify(q.GrantAlias(t), col.Name), prop, col, nil
}

// Column resolves a column-mapped property of t to its alias-qualified
// column, granting t an alias if needed. The returned Param carries the
// binding tags of the column and no value.
func (q *Query) Column(t *edm.StructuralType, property string) (string, Param, error) {
	col, prop, binding, err := q.column(t, property)
	if err != nil {
		return "", Param{}, err
	}
	return col, paramFor(nil, prop, binding), nil
}

func (q *Query) table(t *edm.StructuralType) (string, error) {
	name, ok := q.catalog.Table(t)
	if !ok {
		return "", newError(ErrCodeMapping, t.FQN(), "", "type is not bound to a table")
	}
	return name, nil
}

func (q *Query) target(name string) (*edm.StructuralType, error) {
	t, ok := q.catalog.Type(name)
	if l, isLookup := q.catalog.(interface {
		Lookup(string) (*edm.StructuralType, bool)
	}); !ok && isLookup {
		t, ok = l.Lookup(name)
	}
	if !ok {
		return nil, newError(ErrCodeMapping, name, "", "unknown type")
	}
	return t, nil
}

// Lookup resolves a type name (FQN, or unambiguous short name where the
// catalog supports it) against the catalog.
func (q *Query) Lookup(name string) (*edm.StructuralType, error) {
	return q.target(name)
}

func (q *Query) statementSet() bool {
	return q.selectExpr != nil || q.insertExpr != nil || q.updateExpr != nil || q.deleteExpr != nil
}

func (q *Query) attach() error {
	if q.statementSet() {
		return newError(ErrCodeInternal, "", "", "query already has a statement")
	}
	return nil
}

// Select attaches s as the statement and resolves it against target.
func (q *Query) Select(target *edm.StructuralType, s *Select) error {
	if err := q.attach(); err != nil {
		return err
	}
	if err := s.From(q, target); err != nil {
		return err
	}
	q.selectExpr = s
	return nil
}

// SelectExpression returns the attached select, or nil.
func (q *Query) SelectExpression() *Select { return q.selectExpr }

// OrderBy resolves keys against the select target and attaches the result.
func (q *Query) OrderBy(keys ...OrderKey) error {
	if q.selectExpr == nil {
		return newError(ErrCodeInternal, "", "", "order by requires a select")
	}
	o, err := NewOrderBy(q, q.selectExpr.Target(), keys)
	if err != nil {
		return err
	}
	q.orderBy = o
	return nil
}

// Insert attaches an insert of entry into target.
func (q *Query) Insert(target *edm.StructuralType, entry map[string]any) error {
	if err := q.attach(); err != nil {
		return err
	}
	ins, err := NewInsert(q, target, entry)
	if err != nil {
		return err
	}
	q.insertExpr = ins
	return nil
}

// Update attaches an update of the row identified by keys.
func (q *Query) Update(target *edm.StructuralType, entry, keys map[string]any) error {
	if err := q.attach(); err != nil {
		return err
	}
	upd, err := NewUpdate(q, target, entry, keys)
	if err != nil {
		return err
	}
	q.updateExpr = upd
	return nil
}

// Delete attaches a delete of the row identified by keys.
func (q *Query) Delete(target *edm.StructuralType, keys map[string]any) error {
	if err := q.attach(); err != nil {
		return err
	}
	del, err := NewDelete(q, target, keys)
	if err != nil {
		return err
	}
	q.deleteExpr = del
	return nil
}
