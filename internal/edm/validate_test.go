package edm

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidModel(t *testing.T) {
	m := NewModel()
	typ, binding := sampleType()
	m.MustAdd(typ, binding)
	m.MustAdd(&StructuralType{Namespace: "shop", Name: "Customer", Keys: []string{"id"},
		Properties: []Property{{Name: "id", Kind: KindScalar}}},
		TableBinding{Table: "CUSTOMERS", Columns: map[string]ColumnDef{"id": {Name: "ID"}},
			Joins: map[string][]string{"shop.Order": {"ID"}}})

	assert.NoError(t, m.Validate())
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	m := NewModel()
	m.MustAdd(&StructuralType{
		Namespace: "bad",
		Name:      "Thing",
		Keys:      []string{"id", "missing"},
		Properties: []Property{
			{Name: "id", Kind: KindScalar},
			{Name: "owner", Kind: KindNavigation, Target: "bad.Nowhere"},
			{Name: "address", Kind: KindComplex, Target: "bad.Other"},
		},
	}, TableBinding{
		Columns: map[string]ColumnDef{"ghost": {Name: "GHOST"}},
	})
	m.MustAdd(&StructuralType{
		Namespace: "bad",
		Name:      "Other",
		Properties: []Property{{Name: "x", Kind: KindScalar}},
	}, TableBinding{Table: "OTHER"})

	err := m.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)

	msg := err.Error()
	assert.Contains(t, msg, "bad.Thing: no table bound")
	assert.Contains(t, msg, `column bound to unknown property "ghost"`)
	assert.Contains(t, msg, `key "id" has no column`)
	assert.Contains(t, msg, `key "missing" is not a scalar property`)
	assert.Contains(t, msg, `unknown target type "bad.Nowhere"`)
	assert.Contains(t, msg, "bad.Other: entity type declares no key")
	assert.Contains(t, msg, "bad.Thing.address: target bad.Other is not a complex type")
}

func TestValidate_JoinProblems(t *testing.T) {
	build := func(left, right []string) *Model {
		m := NewModel()
		m.MustAdd(&StructuralType{Namespace: "j", Name: "A", Keys: []string{"id"},
			Properties: []Property{{Name: "id", Kind: KindScalar}, {Name: "b", Kind: KindNavigation, Target: "j.B"}}},
			TableBinding{Table: "A", Columns: map[string]ColumnDef{"id": {Name: "ID"}}, Joins: map[string][]string{"j.B": left}})
		m.MustAdd(&StructuralType{Namespace: "j", Name: "B", Keys: []string{"id"},
			Properties: []Property{{Name: "id", Kind: KindScalar}}},
			TableBinding{Table: "B", Columns: map[string]ColumnDef{"id": {Name: "ID"}}, Joins: map[string][]string{"j.A": right}})
		return m
	}

	assert.NoError(t, build([]string{"B_ID"}, []string{"ID"}).Validate())

	err := build([]string{"B_ID", "B_REV"}, []string{"ID"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join arity mismatch")

	err = build(nil, []string{"ID"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no join columns from j.A to j.B")
}

func TestValidate_MappingTables(t *testing.T) {
	build := func(aTable, bTable string) *Model {
		m := NewModel()
		aBinding := TableBinding{Table: "A", Columns: map[string]ColumnDef{"id": {Name: "ID"}},
			Joins: map[string][]string{"j.B": {"ID"}}}
		if aTable != "" {
			aBinding.MappingTables = map[string]MappingTable{"j.B": {Table: aTable, JoinColumns: []string{"A_ID"}}}
		}
		bBinding := TableBinding{Table: "B", Columns: map[string]ColumnDef{"id": {Name: "ID"}},
			Joins: map[string][]string{"j.A": {"ID"}}}
		if bTable != "" {
			bBinding.MappingTables = map[string]MappingTable{"j.A": {Table: bTable, JoinColumns: []string{"B_ID"}}}
		}
		m.MustAdd(&StructuralType{Namespace: "j", Name: "A", Keys: []string{"id"},
			Properties: []Property{{Name: "id", Kind: KindScalar}, {Name: "bs", Kind: KindNavigation, Target: "j.B", Collection: true}}}, aBinding)
		m.MustAdd(&StructuralType{Namespace: "j", Name: "B", Keys: []string{"id"},
			Properties: []Property{{Name: "id", Kind: KindScalar}}}, bBinding)
		return m
	}

	assert.NoError(t, build("A_B", "A_B").Validate())

	err := build("A_B", "").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be declared on both")

	err = build("A_B", "B_A").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "differs between sides")
}
