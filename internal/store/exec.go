package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/edmsql/internal/querysql"
	"github.com/roach88/edmsql/internal/sqlexpr"
)

// Row maps result column names to values. []byte values are returned as
// strings.
type Row map[string]any

// Result is the outcome of one statement.
type Result struct {
	StatementID string        `json:"statement_id"`
	Kind        querysql.Kind `json:"kind"`

	// Columns and Rows are set for selects.
	Columns []string `json:"columns,omitempty"`
	Rows    []Row    `json:"rows,omitempty"`
	// More is set when the limit cut the result off and further rows
	// may exist.
	More bool `json:"more,omitempty"`

	// Count is set for counts.
	Count int64 `json:"count,omitempty"`
	// RowsAffected is set for inserts, updates and deletes.
	RowsAffected int64 `json:"rows_affected,omitempty"`
}

// Execute runs stmt with the method its kind calls for.
func (s *Store) Execute(ctx context.Context, stmt *querysql.Statement) (*Result, error) {
	switch stmt.Kind {
	case querysql.KindSelect:
		return s.Query(ctx, stmt)
	case querysql.KindCount:
		n, err := s.Count(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return &Result{StatementID: stmt.ID, Kind: stmt.Kind, Count: n}, nil
	default:
		n, err := s.Exec(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return &Result{StatementID: stmt.ID, Kind: stmt.Kind, RowsAffected: n}, nil
	}
}

// Query runs a select and reads its rows. The first stmt.Skip rows are
// discarded and reading stops after stmt.Top rows, whether or not the
// dialect rendered the limit into the SQL.
func (s *Store) Query(ctx context.Context, stmt *querysql.Statement) (*Result, error) {
	query, args, err := s.prepare(stmt)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", stmt.ID, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	res := &Result{StatementID: stmt.ID, Kind: stmt.Kind, Columns: columns, Rows: []Row{}}

	read := 0
	for rows.Next() {
		if stmt.Top != sqlexpr.NotSet && read >= stmt.Top {
			res.More = true
			break
		}
		read++
		if read <= stmt.Skip {
			continue
		}
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	if stmt.ServerPaging && read == stmt.Top {
		res.More = true
	}

	slog.Debug("rows read", "id", stmt.ID, "read", read, "returned", len(res.Rows))
	return res, nil
}

// Count runs a count statement and returns its single value.
func (s *Store) Count(ctx context.Context, stmt *querysql.Statement) (int64, error) {
	query, args, err := s.prepare(stmt)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", stmt.ID, err)
	}
	return n, nil
}

// Exec runs an insert, update or delete and returns the rows affected.
func (s *Store) Exec(ctx context.Context, stmt *querysql.Statement) (int64, error) {
	query, args, err := s.prepare(stmt)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec %s: %w", stmt.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	slog.Debug("statement executed", "id", stmt.ID, "kind", stmt.Kind, "rows", n)
	return n, nil
}

func (s *Store) prepare(stmt *querysql.Statement) (string, []any, error) {
	args, err := stmt.Args()
	if err != nil {
		return "", nil, fmt.Errorf("bind %s: %w", stmt.ID, err)
	}
	return Rebind(s.dialect, stmt.SQL), args, nil
}

func scanRow(rows *sql.Rows, columns []string) (Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	row := make(Row, len(columns))
	for i, c := range columns {
		if b, ok := values[i].([]byte); ok {
			row[c] = string(b)
			continue
		}
		row[c] = values[i]
	}
	return row, nil
}
