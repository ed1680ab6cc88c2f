package sqlexpr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/testutil"
)

func w(text string, values ...any) *Where {
	params := make([]Param, len(values))
	for i, v := range values {
		params[i] = Param{Value: v}
	}
	return NewWhere(text, params...)
}

func TestWhere_Composition(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *Where
		text   string
		values []any
	}{
		{
			name:   "and with several operands wraps the group",
			build:  func() *Where { return w("a=?", 1).And(w("b=?", 2), w("c=?", 3)) },
			text:   "a=? AND (b=? AND c=?)",
			values: []any{1, 2, 3},
		},
		{
			name:   "and with one operand is never wrapped",
			build:  func() *Where { return w("a=?", 1).And(w("b=?", 2)) },
			text:   "a=? AND b=?",
			values: []any{1, 2},
		},
		{
			name:   "or with several operands wraps the group",
			build:  func() *Where { return w("a=?", 1).Or(w("b=?", 2), w("c=?", 3)) },
			text:   "a=? OR (b=? OR c=?)",
			values: []any{1, 2, 3},
		},
		{
			name:   "into empty clause is never wrapped",
			build:  func() *Where { return NewWhere("").And(w("b=?", 2), w("c=?", 3)) },
			text:   "b=? AND c=?",
			values: []any{2, 3},
		},
		{
			name:   "empty operand is a no-op",
			build:  func() *Where { return w("a=?", 1).And(NewWhere(""), nil) },
			text:   "a=?",
			values: []any{1},
		},
		{
			name:   "empty operands are dropped before counting",
			build:  func() *Where { return w("a=?", 1).And(NewWhere(""), w("b=?", 2)) },
			text:   "a=? AND b=?",
			values: []any{1, 2},
		},
		{
			name:   "chained",
			build:  func() *Where { return w("a=?", 1).And(w("b=?", 2)).Or(w("c=?", 3)) },
			text:   "a=? AND b=? OR c=?",
			values: []any{1, 2, 3},
		},
		{
			name:   "grouped operand",
			build:  func() *Where { return w("a=?", 1).And(w("b=?", 2).Or(w("c=?", 3)).Group()) },
			text:   "a=? AND (b=? OR c=?)",
			values: []any{1, 2, 3},
		},
		{
			name:   "operand without params",
			build:  func() *Where { return w("a IS NULL").And(w("b=?", 2)) },
			text:   "a IS NULL AND b=?",
			values: []any{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.build()
			assert.Equal(t, tt.text, got.Clause())
			assert.Equal(t, tt.values, paramValues(got.Params()))
			assert.Equal(t, strings.Count(got.Clause(), "?"), len(got.Params()))
		})
	}
}

func TestWhere_IsEmpty(t *testing.T) {
	assert.True(t, NewWhere("").IsEmpty())
	assert.True(t, NewWhere("   ").IsEmpty())
	assert.False(t, w("a=?", 1).IsEmpty())
	assert.True(t, NewWhere("").Group().IsEmpty())
}

func TestWhere_ParamsAreCopied(t *testing.T) {
	a := w("a=?", 1)
	params := a.Params()
	params[0].Value = 99
	assert.Equal(t, []any{1}, paramValues(a.Params()))
}

func TestWhere_Evaluate(t *testing.T) {
	got, err := w("a=?", 1).Evaluate(nil, ClauseWhere)
	require.NoError(t, err)
	assert.Equal(t, "a=?", got)

	_, err = w("a=?", 1).Evaluate(nil, ClauseKeys)
	assert.True(t, IsInternalError(err))
}

func TestWhereFromKeyPredicates(t *testing.T) {
	q, m := shopQuery(t, Context{})
	customer := testutil.MustType(m, "Customer")

	where, err := WhereFromKeyPredicates(q, customer, []KeyPredicate{{Property: "id", Value: int64(5)}})
	require.NoError(t, err)
	assert.Equal(t, "T0.ID=?", where.Clause())
	require.Len(t, where.Params(), 1)
	assert.Equal(t, "BIGINT", where.Params()[0].SQLType)

	_, err = WhereFromKeyPredicates(q, customer, []KeyPredicate{{Property: "orders", Value: 1}})
	assert.True(t, IsMappingError(err))
}

func TestWhereFromKeyPredicates_TemporalTag(t *testing.T) {
	q, m := shopQuery(t, Context{})
	where, err := WhereFromKeyPredicates(q, testutil.MustType(m, "Customer"),
		[]KeyPredicate{{Property: "since", Value: "2020-01-01"}})
	require.NoError(t, err)
	assert.Equal(t, TemporalTimestamp, where.Params()[0].Temporal)
}

func TestKeyPredicates(t *testing.T) {
	m := testutil.ShopModel()
	item := testutil.MustType(m, "OrderItem")

	preds, err := KeyPredicates(item, map[string]any{"lineNo": 2, "orderId": 1, "product": "x"})
	require.NoError(t, err)
	assert.Equal(t, []KeyPredicate{{Property: "orderId", Value: 1}, {Property: "lineNo", Value: 2}}, preds)

	_, err = KeyPredicates(item, map[string]any{"orderId": 1})
	assert.True(t, IsInvalidKey(err))
	_, err = KeyPredicates(testutil.MustType(m, "Address"), map[string]any{"city": "x"})
	assert.True(t, IsInvalidKey(err))
}

func TestWhereKeyIn(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")

	where, err := WhereKeyIn(q, order, []any{3, 5, 8})
	require.NoError(t, err)
	assert.Equal(t, "T0.ID IN (?, ?, ?)", where.Clause())
	assert.Equal(t, []any{3, 5, 8}, paramValues(where.Params()))

	_, err = WhereKeyIn(q, order, nil)
	assert.True(t, IsInvalidKey(err))
	_, err = WhereKeyIn(q, order, []any{1, nil})
	assert.True(t, IsInvalidKey(err))
	_, err = WhereKeyIn(q, testutil.MustType(m, "OrderItem"), []any{1})
	assert.True(t, IsInvalidKey(err))
}
