package sqlexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/testutil"
)

func TestQuery_GrantAliasIsIdempotent(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")
	customer := testutil.MustType(m, "Customer")

	a := q.GrantAlias(order)
	assert.Equal(t, "T0", a)
	assert.Equal(t, a, q.GrantAlias(order))
	assert.Equal(t, "T1", q.GrantAlias(customer))
	assert.Equal(t, "T0", q.GrantAlias(order))

	got, ok := q.AliasFor(customer)
	require.True(t, ok)
	assert.Equal(t, "T1", got)

	typ, ok := q.TypeForAlias("T0")
	require.True(t, ok)
	assert.Equal(t, order.FQN(), typ.FQN())

	_, ok = q.TypeForAlias("T9")
	assert.False(t, ok)
	_, ok = q.AliasFor(testutil.MustType(m, "Tag"))
	assert.False(t, ok)

	assert.Equal(t, []string{"T0", "T1"}, q.Aliases())
}

func TestQuery_CustomAliasNamer(t *testing.T) {
	q, m := shopQuery(t, Context{}, WithAliasNamer(func(n int) string { return string(rune('a' + n)) }))
	assert.Equal(t, "a", q.GrantAlias(testutil.MustType(m, "Order")))
	assert.Equal(t, "b", q.GrantAlias(testutil.MustType(m, "Customer")))
}

func TestQuery_RegisterJoinDeduplicates(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")
	customer := testutil.MustType(m, "Customer")

	first := q.RegisterJoin(customer, order)
	second := q.RegisterJoin(customer, order)
	assert.Same(t, first, second)
	assert.Len(t, q.Joins(), 1)

	reverse := q.RegisterJoin(order, customer)
	assert.NotSame(t, first, reverse)
	assert.False(t, first.Equal(reverse))
	assert.Len(t, q.Joins(), 2)

	self := q.RegisterJoin(order, order)
	assert.True(t, self.IsEmpty())
	assert.Len(t, q.Joins(), 2)
}

func TestQuery_RegisterJoinGrantsTargetFirst(t *testing.T) {
	q, m := shopQuery(t, Context{})
	q.RegisterJoin(testutil.MustType(m, "Customer"), testutil.MustType(m, "Order"))

	order, _ := q.TypeForAlias("T0")
	customer, _ := q.TypeForAlias("T1")
	assert.Equal(t, "shop.Order", order.FQN())
	assert.Equal(t, "shop.Customer", customer.FQN())
}

func TestQuery_RenderIsRepeatable(t *testing.T) {
	q, m := shopQuery(t, Context{Dialect: DialectPostgres})
	order := testutil.MustType(m, "Order")
	require.NoError(t, q.Select(order, NewSelect(nil, [][]string{{"customer"}}).Top(3)))
	require.NoError(t, q.OrderBy(OrderKey{Path: []string{"customer", "name"}}))
	q.And(NewWhere("T0.TOTAL > ?", Param{Value: 10}))

	first, err := q.RenderSelect()
	require.NoError(t, err)
	aliases := q.Aliases()

	second, err := q.RenderSelect()
	require.NoError(t, err)

	assert.Equal(t, first.Clauses, second.Clauses)
	assert.Equal(t, first.Params, second.Params)
	assert.Equal(t, aliases, q.Aliases())
}

func TestQuery_SingleStatement(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")
	require.NoError(t, q.Select(order, NewSelect(nil, nil)))

	err := q.Delete(order, map[string]any{"id": 1})
	assert.True(t, IsInternalError(err))

	_, err = NewQuery(m, Context{}).Render()
	assert.True(t, IsInternalError(err))
}

func TestQuery_RenderWithoutStatement(t *testing.T) {
	q, _ := shopQuery(t, Context{})

	_, err := q.RenderSelect()
	assert.True(t, IsInternalError(err))
	_, err = q.RenderInsert()
	assert.True(t, IsInternalError(err))
	_, err = q.RenderUpdate()
	assert.True(t, IsInternalError(err))
	_, err = q.RenderDelete()
	assert.True(t, IsInternalError(err))
	assert.True(t, IsInternalError(q.OrderBy(OrderKey{Path: []string{"id"}})))
}

func TestQuery_RenderFailsOnBadTemporalParam(t *testing.T) {
	q, m := shopQuery(t, Context{})
	require.NoError(t, q.Select(testutil.MustType(m, "Order"), NewSelect([]string{"id"}, nil)))
	q.And(NewWhere("T0.CREATED_AT < ?", Param{Value: "yesterday", Temporal: TemporalTimestamp}))

	r, err := q.RenderSelect()
	assert.Nil(t, r)
	assert.True(t, IsTypeMismatch(err))
	assert.True(t, IsClientError(err))
}
