package store

import (
	"context"
	"log/slog"

	"github.com/roach88/edmsql/internal/querysql"
)

// Read builds and runs a read request.
//
// A paged select with expands runs in two steps: the keys of the page are
// selected first, then the rows of those keys are read with their expands.
// To-many expands multiply rows, so limiting the expanded query directly
// would cut the page short. Types with composite keys fall back to a single
// query.
func (s *Store) Read(ctx context.Context, b *querysql.Builder, req *querysql.Request) (*Result, error) {
	if req.Kind != querysql.KindSelect || len(req.Expand) == 0 || len(req.KeyIn) > 0 {
		return s.build(ctx, b, req)
	}

	keys, err := b.SelectKeys(req)
	if err != nil {
		return nil, err
	}
	if len(keys.Columns) != 1 {
		return s.build(ctx, b, req)
	}
	page, err := s.Query(ctx, keys)
	if err != nil {
		return nil, err
	}
	if len(page.Rows) == 0 {
		return &Result{StatementID: keys.ID, Kind: req.Kind, Columns: keys.Columns, Rows: []Row{}}, nil
	}

	values := make([]any, len(page.Rows))
	for i, row := range page.Rows {
		values[i] = row[keys.Columns[0]]
	}
	slog.Debug("page keys selected", "id", keys.ID, "keys", len(values))

	expanded := &querysql.Request{
		Kind:    querysql.KindSelect,
		Target:  req.Target,
		Select:  req.Select,
		Expand:  req.Expand,
		OrderBy: req.OrderBy,
		From:    req.From,
		KeyIn:   values,
	}
	res, err := s.build(ctx, b, expanded)
	if err != nil {
		return nil, err
	}
	res.More = page.More
	return res, nil
}

func (s *Store) build(ctx context.Context, b *querysql.Builder, req *querysql.Request) (*Result, error) {
	stmt, err := b.Build(req)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, stmt)
}
