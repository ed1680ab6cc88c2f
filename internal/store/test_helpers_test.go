package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/querysql"
	"github.com/roach88/edmsql/internal/sqlexpr"
	"github.com/roach88/edmsql/internal/testutil"
)

// createShopStore opens an in-memory SQLite database with the shop tables.
func createShopStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(sqlexpr.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.ApplySchema(context.Background(), testutil.ShopSchema))
	return s
}

// createMockStore wraps a sqlmock database that matches SQL exactly.
func createMockStore(t *testing.T, dialect sqlexpr.Dialect) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, dialect), mock
}

func shopBuilder(dialect sqlexpr.Dialect) *querysql.Builder {
	return querysql.NewBuilder(testutil.ShopModel(),
		querysql.WithContext(sqlexpr.Context{Dialect: dialect}),
		querysql.WithIDGenerator(testutil.NewFixedIDGenerator("")),
	)
}

// mustBuild builds req or fails the test.
func mustBuild(t *testing.T, b *querysql.Builder, req *querysql.Request) *querysql.Statement {
	t.Helper()
	stmt, err := b.Build(req)
	require.NoError(t, err)
	return stmt
}

// seedShop inserts two customers, three orders and three order items
// through the builder.
func seedShop(t *testing.T, s *Store, b *querysql.Builder) {
	t.Helper()
	ctx := context.Background()
	entries := []struct {
		target string
		entry  map[string]any
	}{
		{"Customer", map[string]any{"id": 1, "name": "ann", "email": "ann@example.com"}},
		{"Customer", map[string]any{"id": 2, "name": "bob", "email": "bob@example.com"}},
		{"Order", map[string]any{"id": 1, "customerName": "ann", "total": 12.5, "customer": map[string]any{"id": 1}}},
		{"Order", map[string]any{"id": 2, "customerName": "ann", "total": 7.25, "customer": map[string]any{"id": 1}}},
		{"Order", map[string]any{"id": 3, "customerName": "bob", "total": 99.0, "customer": map[string]any{"id": 2}}},
		{"OrderItem", map[string]any{"orderId": 1, "lineNo": 1, "product": "bolt", "quantity": 10}},
		{"OrderItem", map[string]any{"orderId": 2, "lineNo": 1, "product": "nut", "quantity": 4}},
		{"OrderItem", map[string]any{"orderId": 2, "lineNo": 2, "product": "washer", "quantity": 8}},
	}
	for _, e := range entries {
		stmt := mustBuild(t, b, &querysql.Request{Kind: querysql.KindInsert, Target: e.target, Entry: e.entry})
		n, err := s.Exec(ctx, stmt)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	}
}
