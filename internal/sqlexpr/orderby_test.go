package sqlexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/testutil"
)

func TestOrderBy_DirectionPerKey(t *testing.T) {
	q, m := shopQuery(t, Context{})
	require.NoError(t, q.Select(testutil.MustType(m, "Order"), NewSelect([]string{"id"}, nil)))
	require.NoError(t, q.OrderBy(
		OrderKey{Path: []string{"total"}, Descending: true},
		OrderKey{Path: []string{"customerName"}},
	))

	r, err := q.RenderSelect()
	require.NoError(t, err)
	assert.Equal(t, "T0.TOTAL DESC, T0.CUSTOMER_NAME ASC", r.Clause(ClauseOrderBy))
}

func TestOrderBy_MemberPathJoins(t *testing.T) {
	tests := []struct {
		name  string
		path  []string
		order string
		join  string
	}{
		{
			name:  "navigation",
			path:  []string{"customer", "name"},
			order: "T1.NAME ASC",
			join:  "LEFT JOIN CUSTOMERS AS T1 ON T1.ID = T0.CUSTOMER_ID",
		},
		{
			name:  "complex",
			path:  []string{"shipTo", "city"},
			order: "T1.CITY ASC",
			join:  "LEFT JOIN ORDER_ADDRESSES AS T1 ON T1.ORDER_ID = T0.ID",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, m := shopQuery(t, Context{})
			require.NoError(t, q.Select(testutil.MustType(m, "Order"), NewSelect([]string{"id"}, nil)))
			require.NoError(t, q.OrderBy(OrderKey{Path: tt.path}))

			r, err := q.RenderSelect()
			require.NoError(t, err)
			assert.Equal(t, tt.order, r.Clause(ClauseOrderBy))
			assert.Equal(t, tt.join, r.Clause(ClauseJoin))
		})
	}
}

func TestOrderBy_Errors(t *testing.T) {
	tests := []struct {
		name string
		path []string
	}{
		{name: "transient property", path: []string{"note"}},
		{name: "unknown property", path: []string{"missing"}},
		{name: "member of scalar", path: []string{"total", "x"}},
		{name: "path too long", path: []string{"customer", "orders", "id"}},
		{name: "empty path", path: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, m := shopQuery(t, Context{})
			_, err := NewOrderBy(q, testutil.MustType(m, "Order"), []OrderKey{{Path: tt.path}})
			assert.True(t, IsInternalError(err), "got %v", err)
		})
	}
}

func TestOrderBy_Empty(t *testing.T) {
	q, m := shopQuery(t, Context{})
	o, err := NewOrderBy(q, testutil.MustType(m, "Order"), nil)
	require.NoError(t, err)
	assert.True(t, o.IsEmpty())

	text, err := o.Evaluate(q, ClauseOrderBy)
	require.NoError(t, err)
	assert.Empty(t, text)
}
