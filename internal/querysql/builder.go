package querysql

import (
	"fmt"
	"log/slog"

	"github.com/roach88/edmsql/internal/edm"
	"github.com/roach88/edmsql/internal/filter"
	"github.com/roach88/edmsql/internal/sqlexpr"
)

// DefaultPageSize caps the rows of a select that asks for no top, or for
// more than a page.
const DefaultPageSize = 1000

// Builder turns requests into statements against one catalog.
//
// A Builder holds configuration only; every call compiles on a fresh
// sqlexpr.Query, so a Builder is safe for concurrent use once configured.
type Builder struct {
	catalog      edm.Catalog
	ctx          sqlexpr.Context
	ids          IDGenerator
	pageSize     int
	namer        sqlexpr.AliasNamer
	interceptors []registered
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithContext sets the dialect and identifier case sensitivity.
func WithContext(ctx sqlexpr.Context) BuilderOption {
	return func(b *Builder) { b.ctx = ctx }
}

// WithIDGenerator replaces the UUIDv7 statement IDs.
func WithIDGenerator(ids IDGenerator) BuilderOption {
	return func(b *Builder) {
		if ids != nil {
			b.ids = ids
		}
	}
}

// WithPageSize sets the server-side page size. Values below 1 keep the
// default.
func WithPageSize(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.pageSize = n
		}
	}
}

// WithAliasNamer replaces the T0, T1, ... table aliases.
func WithAliasNamer(namer sqlexpr.AliasNamer) BuilderOption {
	return func(b *Builder) { b.namer = namer }
}

// WithInterceptor runs ic on every request of the given kinds, or of every
// kind when none are given. Interceptors run in registration order.
func WithInterceptor(ic Interceptor, kinds ...Kind) BuilderOption {
	return func(b *Builder) {
		b.interceptors = append(b.interceptors, registered{ic: ic, kinds: kinds})
	}
}

// NewBuilder creates a builder for catalog.
func NewBuilder(catalog edm.Catalog, opts ...BuilderOption) *Builder {
	b := &Builder{
		catalog:  catalog,
		ids:      UUIDv7Generator{},
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Context returns the builder's query context.
func (b *Builder) Context() sqlexpr.Context { return b.ctx }

// PageSize returns the server-side page size.
func (b *Builder) PageSize() int { return b.pageSize }

// Build validates req and compiles it.
func (b *Builder) Build(req *Request) (*Statement, error) {
	if req == nil {
		return nil, &RequestError{Message: "nil request"}
	}
	if err := req.decodeFilter(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	q := b.newQuery()
	var (
		stmt *Statement
		err  error
	)
	switch req.Kind {
	case KindSelect:
		stmt, err = b.buildSelect(q, req, false)
	case KindCount:
		stmt, err = b.buildCount(q, req)
	case KindInsert:
		stmt, err = b.buildInsert(q, req)
	case KindUpdate:
		stmt, err = b.buildUpdate(q, req)
	case KindDelete:
		stmt, err = b.buildDelete(q, req)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.Kind, req.Target, err)
	}
	slog.Debug("statement built", "id", stmt.ID, "kind", stmt.Kind, "sql", stmt.SQL, "params", len(stmt.Params))
	return stmt, nil
}

// SelectKeys compiles the first query of a paged read with expands: it
// reads only the key columns of the rows a select request would return. The
// keys it returns are then read with KeyIn and the request's expands, so
// to-many expands cannot shift the page.
func (b *Builder) SelectKeys(req *Request) (*Statement, error) {
	if req == nil || req.Kind != KindSelect {
		return nil, &RequestError{Field: "kind", Message: "key selection needs a select request"}
	}
	if err := req.decodeFilter(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	stmt, err := b.buildSelect(b.newQuery(), req, true)
	if err != nil {
		return nil, fmt.Errorf("build key select %s: %w", req.Target, err)
	}
	return stmt, nil
}

func (b *Builder) newQuery() *sqlexpr.Query {
	var opts []sqlexpr.Option
	if b.namer != nil {
		opts = append(opts, sqlexpr.WithAliasNamer(b.namer))
	}
	return sqlexpr.NewQuery(b.catalog, b.ctx, opts...)
}

// resolveTarget returns the request target and, for navigation reads, the
// start type.
func (b *Builder) resolveTarget(q *sqlexpr.Query, req *Request) (target, start *edm.StructuralType, err error) {
	if req.From != nil {
		if start, err = q.Lookup(req.From.Type); err != nil {
			return nil, nil, err
		}
		if req.From.Property != "" {
			nav, ok := start.Property(req.From.Property)
			if !ok || nav.Kind != edm.KindNavigation {
				return nil, nil, &RequestError{Field: "from.property", Message: fmt.Sprintf("%s has no navigation property %q", start.FQN(), req.From.Property)}
			}
			if target, err = q.Lookup(nav.Target); err != nil {
				return nil, nil, err
			}
			if req.Target != "" {
				named, err := q.Lookup(req.Target)
				if err != nil {
					return nil, nil, err
				}
				if !edm.SameType(named, target) {
					return nil, nil, &RequestError{Field: "target", Message: fmt.Sprintf("%s.%s leads to %s, not %s", start.FQN(), req.From.Property, target.FQN(), named.FQN())}
				}
			}
			return target, start, nil
		}
	}
	if target, err = q.Lookup(req.Target); err != nil {
		return nil, nil, err
	}
	return target, start, nil
}

// navigate joins the start entity into the query and scopes it to the
// entity identified by the navigation keys.
func navigate(q *sqlexpr.Query, start, target *edm.StructuralType, keys map[string]any) error {
	if start == nil {
		return nil
	}
	if edm.SameType(start, target) {
		return &RequestError{Field: "from.type", Message: "navigation must lead to a different type"}
	}
	preds, err := sqlexpr.KeyPredicates(start, keys)
	if err != nil {
		return err
	}
	return q.RegisterJoin(start, target).With(q, preds)
}

func scopeToKeys(q *sqlexpr.Query, target *edm.StructuralType, keys map[string]any) error {
	if len(keys) == 0 {
		return nil
	}
	preds, err := sqlexpr.KeyPredicates(target, keys)
	if err != nil {
		return err
	}
	w, err := sqlexpr.WhereFromKeyPredicates(q, target, preds)
	if err != nil {
		return err
	}
	q.And(w)
	return nil
}

// pagination returns the rows a page holds and whether that is the page
// size. The rendered limit adds skip, which the reader discards.
func (b *Builder) pagination(req *Request) (int, bool) {
	if req.Top == nil || *req.Top > b.pageSize {
		return b.pageSize, true
	}
	return *req.Top, false
}

func (b *Builder) buildSelect(q *sqlexpr.Query, req *Request, keysOnly bool) (*Statement, error) {
	target, start, err := b.resolveTarget(q, req)
	if err != nil {
		return nil, err
	}

	properties, expands := req.Select, splitPaths(req.Expand)
	if keysOnly {
		properties, expands = target.Keys, nil
	}
	sel := sqlexpr.NewSelect(properties, expands).Skip(req.Skip)

	// A key list already bounds the read; a limit would cut the rows that
	// to-many expands add per key.
	top, paging := sqlexpr.NotSet, false
	if len(req.KeyIn) == 0 || keysOnly {
		top, paging = b.pagination(req)
		if req.Skip > 0 {
			top += req.Skip
		}
		sel.Top(top)
	}
	if err := q.Select(target, sel); err != nil {
		return nil, err
	}

	if len(req.KeyIn) > 0 && !keysOnly {
		w, err := sqlexpr.WhereKeyIn(q, target, req.KeyIn)
		if err != nil {
			return nil, err
		}
		q.And(w)
	} else if err := filter.Apply(q, target, req.Filter); err != nil {
		return nil, err
	}
	if err := navigate(q, start, target, navKeys(req)); err != nil {
		return nil, err
	}
	if err := scopeToKeys(q, target, req.Keys); err != nil {
		return nil, err
	}

	keys := make([]sqlexpr.OrderKey, 0, len(req.OrderBy))
	for _, s := range req.OrderBy {
		k, err := ParseOrderKey(s)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if len(keys) > 0 {
		if err := q.OrderBy(keys...); err != nil {
			return nil, err
		}
	}

	stmt, err := b.finish(q, req, target)
	if err != nil {
		return nil, err
	}
	for _, c := range sel.Columns() {
		stmt.Columns = append(stmt.Columns, sel.ColumnAlias(q, c))
	}
	stmt.Top, stmt.Skip, stmt.ServerPaging = top, req.Skip, paging
	return stmt, nil
}

func (b *Builder) buildCount(q *sqlexpr.Query, req *Request) (*Statement, error) {
	target, start, err := b.resolveTarget(q, req)
	if err != nil {
		return nil, err
	}
	if err := q.Select(target, sqlexpr.NewCountSelect()); err != nil {
		return nil, err
	}
	if err := navigate(q, start, target, navKeys(req)); err != nil {
		return nil, err
	}
	if err := filter.Apply(q, target, req.Filter); err != nil {
		return nil, err
	}
	if err := scopeToKeys(q, target, req.Keys); err != nil {
		return nil, err
	}
	stmt, err := b.finish(q, req, target)
	if err != nil {
		return nil, err
	}
	stmt.Columns = []string{"COUNT"}
	return stmt, nil
}

func (b *Builder) buildInsert(q *sqlexpr.Query, req *Request) (*Statement, error) {
	target, err := q.Lookup(req.Target)
	if err != nil {
		return nil, err
	}
	if err := q.Insert(target, req.Entry); err != nil {
		return nil, err
	}
	return b.finish(q, req, target)
}

func (b *Builder) buildUpdate(q *sqlexpr.Query, req *Request) (*Statement, error) {
	target, err := q.Lookup(req.Target)
	if err != nil {
		return nil, err
	}
	if err := q.Update(target, req.Entry, req.Keys); err != nil {
		return nil, err
	}
	return b.finish(q, req, target)
}

func (b *Builder) buildDelete(q *sqlexpr.Query, req *Request) (*Statement, error) {
	target, err := q.Lookup(req.Target)
	if err != nil {
		return nil, err
	}
	if err := q.Delete(target, req.Keys); err != nil {
		return nil, err
	}
	return b.finish(q, req, target)
}

// finish runs the interceptors and renders the statement.
func (b *Builder) finish(q *sqlexpr.Query, req *Request, target *edm.StructuralType) (*Statement, error) {
	for _, r := range b.interceptors {
		if !r.appliesTo(req.Kind) {
			continue
		}
		if err := r.ic.Intercept(q, target, req); err != nil {
			return nil, fmt.Errorf("interceptor: %w", err)
		}
	}
	sql, params, err := compile(q)
	if err != nil {
		return nil, err
	}
	return &Statement{
		ID:     b.ids.Generate(),
		Kind:   req.Kind,
		SQL:    sql,
		Params: params,
		Top:    sqlexpr.NotSet,
	}, nil
}

func navKeys(req *Request) map[string]any {
	if req.From == nil {
		return nil
	}
	return req.From.Keys
}

func splitPaths(paths []string) [][]string {
	if len(paths) == 0 {
		return nil
	}
	out := make([][]string, len(paths))
	for i, p := range paths {
		out[i] = splitPath(p)
	}
	return out
}
