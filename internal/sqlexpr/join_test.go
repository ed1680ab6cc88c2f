package sqlexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/edm"
	"github.com/roach88/edmsql/internal/testutil"
)

// compositeModel has Parent keyed by (a, b) and Child referencing it through
// two columns. childCols sets Child's side of the join.
func compositeModel(childCols []string) (*edm.Model, *edm.StructuralType, *edm.StructuralType) {
	m := edm.NewModel()
	parent := m.MustAdd(&edm.StructuralType{
		Namespace: "c", Name: "Parent", Keys: []string{"a", "b"},
		Properties: []edm.Property{
			{Name: "a", Kind: edm.KindScalar, Type: edm.TypeInt32},
			{Name: "b", Kind: edm.KindScalar, Type: edm.TypeInt32},
			{Name: "children", Kind: edm.KindNavigation, Target: "c.Child", Collection: true},
		},
	}, edm.TableBinding{
		Table:   "P",
		Columns: map[string]edm.ColumnDef{"a": {Name: "A"}, "b": {Name: "B"}},
		Joins:   map[string][]string{"c.Child": {"A", "B"}},
	})
	child := m.MustAdd(&edm.StructuralType{
		Namespace: "c", Name: "Child", Keys: []string{"id"},
		Properties: []edm.Property{
			{Name: "id", Kind: edm.KindScalar, Type: edm.TypeInt32},
			{Name: "parent", Kind: edm.KindNavigation, Target: "c.Parent"},
		},
	}, edm.TableBinding{
		Table:   "C",
		Columns: map[string]edm.ColumnDef{"id": {Name: "ID"}},
		Joins:   map[string][]string{"c.Parent": childCols},
	})
	return m, parent, child
}

func TestJoin_EqualityIgnoresPredicates(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")
	customer := testutil.MustType(m, "Customer")

	a := newJoin(customer, order)
	b := newJoin(customer, order)
	require.NoError(t, a.With(q, []KeyPredicate{{Property: "id", Value: 1}}))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	set := map[JoinKey]*Join{a.Key(): a}
	_, found := set[b.Key()]
	assert.True(t, found)

	assert.False(t, a.Equal(newJoin(order, customer)))
	assert.False(t, a.Equal(nil))
}

func TestJoin_Render(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")
	q.GrantAlias(order)
	j := q.RegisterJoin(testutil.MustType(m, "Customer"), order)

	text, err := j.Evaluate(q, ClauseJoin)
	require.NoError(t, err)
	assert.Equal(t, "LEFT JOIN CUSTOMERS AS T1 ON T1.ID = T0.CUSTOMER_ID", text)

	_, err = j.Evaluate(q, ClauseFrom)
	assert.True(t, IsInternalError(err))
}

func TestJoin_CompositeColumnsPairPositionally(t *testing.T) {
	m, parent, child := compositeModel([]string{"PA", "PB"})
	q := NewQuery(m, Context{})
	q.GrantAlias(parent)

	text, err := q.RegisterJoin(child, parent).Evaluate(q, ClauseJoin)
	require.NoError(t, err)
	assert.Equal(t, "LEFT JOIN C AS T1 ON T1.PA = T0.A AND T1.PB = T0.B", text)
}

func TestJoin_ArityMismatchIsMappingError(t *testing.T) {
	m, parent, child := compositeModel([]string{"PA"})
	q := NewQuery(m, Context{})
	q.GrantAlias(parent)

	text, err := q.RegisterJoin(child, parent).Evaluate(q, ClauseJoin)
	assert.Empty(t, text)
	assert.True(t, IsMappingError(err), "got %v", err)
}

func TestJoin_SelfJoinRendersNothing(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")

	text, err := q.RegisterJoin(order, order).Evaluate(q, ClauseJoin)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestJoin_WithOnlyOnce(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")
	customer := testutil.MustType(m, "Customer")
	require.NoError(t, q.Select(order, NewSelect([]string{"id"}, nil)))

	j := q.RegisterJoin(customer, order)
	require.NoError(t, j.With(q, []KeyPredicate{{Property: "id", Value: 1}}))

	err := j.With(q, []KeyPredicate{{Property: "id", Value: 2}})
	assert.True(t, IsAlreadyBound(err))

	// the registry hands out the bound instance
	again := q.RegisterJoin(customer, order)
	assert.True(t, IsAlreadyBound(again.With(q, nil)))

	r, err := q.RenderSelect()
	require.NoError(t, err)
	assert.Equal(t, "LEFT JOIN CUSTOMERS AS T1 ON T1.ID = T0.CUSTOMER_ID", r.Clause(ClauseJoin))
	assert.Equal(t, "T1.ID=?", r.Clause(ClauseWhere))
	assert.Equal(t, []any{1}, paramValues(r.Params))
}

func TestJoin_WithCompositeKey(t *testing.T) {
	q, m := shopQuery(t, Context{})
	order := testutil.MustType(m, "Order")
	item := testutil.MustType(m, "OrderItem")
	require.NoError(t, q.Select(order, NewSelect([]string{"id"}, nil)))

	err := q.RegisterJoin(item, order).With(q, []KeyPredicate{
		{Property: "orderId", Value: 4},
		{Property: "lineNo", Value: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "T1.ORDER_ID=? AND T1.LINE_NO=?", q.Where().Clause())
	assert.Equal(t, []any{4, 2}, paramValues(q.Where().Params()))
}

func TestJoin_WithUnknownProperty(t *testing.T) {
	q, m := shopQuery(t, Context{})
	j := q.RegisterJoin(testutil.MustType(m, "Customer"), testutil.MustType(m, "Order"))

	err := j.With(q, []KeyPredicate{{Property: "nope", Value: 1}})
	assert.True(t, IsMappingError(err))
	assert.True(t, q.Where().IsEmpty())

	// a failed With leaves the join unbound
	require.NoError(t, j.With(q, []KeyPredicate{{Property: "id", Value: 1}}))
}

func TestJoin_ThroughMappingTable(t *testing.T) {
	q, m := shopQuery(t, Context{})
	product := testutil.MustType(m, "Product")
	require.NoError(t, q.Select(product, NewSelect([]string{"name"}, [][]string{{"tags"}})))

	r, err := q.RenderSelect()
	require.NoError(t, err)
	assert.Equal(t,
		"LEFT JOIN PRODUCT_TAGS AS MT0 ON MT0.PRODUCT_ID = T0.ID LEFT JOIN TAGS AS T1 ON T1.ID = MT0.TAG_ID",
		r.Clause(ClauseJoin))
	assert.Equal(t, "T0.NAME AS NAME, T1.ID AS ID_T1, T1.LABEL AS LABEL_T1", r.Clause(ClauseColumnList))
}

func TestJoin_MappingTableErrors(t *testing.T) {
	build := func(tagTable string) (*edm.Model, *edm.StructuralType, *edm.StructuralType) {
		m := edm.NewModel()
		a := m.MustAdd(&edm.StructuralType{Namespace: "m", Name: "A", Keys: []string{"id"},
			Properties: []edm.Property{{Name: "id", Kind: edm.KindScalar}}},
			edm.TableBinding{Table: "A", Columns: map[string]edm.ColumnDef{"id": {Name: "ID"}},
				Joins:         map[string][]string{"m.B": {"ID"}},
				MappingTables: map[string]edm.MappingTable{"m.B": {Table: "A_B", JoinColumns: []string{"A_ID"}}}})
		bBinding := edm.TableBinding{Table: "B", Columns: map[string]edm.ColumnDef{"id": {Name: "ID"}},
			Joins: map[string][]string{"m.A": {"ID"}}}
		if tagTable != "" {
			bBinding.MappingTables = map[string]edm.MappingTable{"m.A": {Table: tagTable, JoinColumns: []string{"B_ID"}}}
		}
		b := m.MustAdd(&edm.StructuralType{Namespace: "m", Name: "B", Keys: []string{"id"},
			Properties: []edm.Property{{Name: "id", Kind: edm.KindScalar}}}, bBinding)
		return m, a, b
	}

	t.Run("one sided", func(t *testing.T) {
		m, a, b := build("")
		q := NewQuery(m, Context{})
		_, err := q.RegisterJoin(b, a).Evaluate(q, ClauseJoin)
		assert.True(t, IsMappingError(err))
	})

	t.Run("different tables", func(t *testing.T) {
		m, a, b := build("B_A")
		q := NewQuery(m, Context{})
		_, err := q.RegisterJoin(b, a).Evaluate(q, ClauseJoin)
		assert.True(t, IsMappingError(err))
	})

	t.Run("same table", func(t *testing.T) {
		m, a, b := build("A_B")
		q := NewQuery(m, Context{CaseSensitive: true})
		text, err := q.RegisterJoin(b, a).Evaluate(q, ClauseJoin)
		require.NoError(t, err)
		assert.Equal(t,
			`LEFT JOIN "A_B" AS "MT0" ON "MT0"."A_ID" = "T0"."ID" LEFT JOIN "B" AS "T1" ON "T1"."ID" = "MT0"."B_ID"`,
			text)
	})
}
