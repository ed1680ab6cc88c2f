package compiler

import (
	"errors"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/edm"
	"github.com/roach88/edmsql/internal/testutil"
)

// assertSameModel compares every type and binding of two models.
func assertSameModel(t *testing.T, want, got *edm.Model) {
	t.Helper()
	require.Equal(t, len(want.Types()), len(got.Types()))
	for i, wt := range want.Types() {
		gt := got.Types()[i]
		assert.Equal(t, wt, gt)
		wb, _ := want.Binding(wt)
		gb, ok := got.Binding(gt)
		require.True(t, ok, "no binding for %s", gt.FQN())
		assert.Equal(t, wb, gb, "binding of %s", gt.FQN())
	}
}

func TestLoad_ShopCatalog(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"yaml file", filepath.Join("testdata", "shop.yaml")},
		{"cue directory", filepath.Join("testdata", "cue")},
		{"cue file", filepath.Join("testdata", "cue", "shop.cue")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(tt.path)
			require.NoError(t, err)
			assertSameModel(t, testutil.ShopModel(), m)
		})
	}
}

func TestLoadDocument_Errors(t *testing.T) {
	_, err := LoadDocument(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadDocument("doc.go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog file")
}

func TestCompileCatalog_PreservesOrder(t *testing.T) {
	v := cuecontext.New().CompileString(`
namespace: "inv"
types: Bin: {
	table: "BINS"
	keys: ["zone", "code"]
	properties: {
		zone:  {type: "Edm.String", column: "ZONE"}
		code:  {type: "Edm.Int32", column: "CODE"}
		label: {column: "LABEL"}
	}
}
`)
	doc, err := CompileCatalog(v)
	require.NoError(t, err)

	require.Len(t, doc.Types, 1)
	bin := doc.Types[0]
	assert.Equal(t, []string{"zone", "code"}, bin.Keys)
	var names []string
	for _, p := range bin.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"zone", "code", "label"}, names)

	m, err := Build(doc)
	require.NoError(t, err)
	typ, ok := m.Type("inv.Bin")
	require.True(t, ok)
	label, _ := typ.Property("label")
	assert.Equal(t, edm.TypeString, label.Type, "scalar type defaults to string")
}

func TestCompileCatalog_Errors(t *testing.T) {
	t.Run("types required", func(t *testing.T) {
		_, err := CompileCatalog(cuecontext.New().CompileString(`namespace: "x"`))
		var ce *CompileError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "types", ce.Field)
	})

	t.Run("wrong field kind", func(t *testing.T) {
		_, err := CompileCatalog(cuecontext.New().CompileString(`types: A: {table: 42}`, cue.Filename("bad.cue")))
		assert.Error(t, err)
	})
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte("namespace: [x"), "bad.yaml")
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "yaml", ce.Field)

	_, err = ParseYAML([]byte("namespace: x\n"), "empty.yaml")
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "types", ce.Field)

	_, err = ParseYAML([]byte("types:\n  - name: A\n    keys: id\n"), "keys.yaml")
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 2, ce.Line)
	assert.Contains(t, ce.Error(), "keys.yaml:2")
}

func TestValidate(t *testing.T) {
	doc, err := ParseYAML([]byte(`
namespace: bad
types:
  - name: A
    properties:
      - {name: id, type: Edm.Int64}
      - {name: id, type: Edm.Int64}
      - {name: b, navigation: B, complex: C}
      - {name: c, navigation: Missing}
      - {name: d, complex: E, column: D}
  - name: A
    table: A2
    keys: [id]
  - name: E
    table: ES
    complex: true
    keys: [x]
  - name: "1bad"
    table: T
`), "bad.yaml")
	require.NoError(t, err)

	errs := Validate(doc)
	var codes []string
	for _, e := range errs {
		codes = append(codes, e.Code)
		assert.Equal(t, "bad.yaml", e.File)
	}
	assert.ElementsMatch(t, []string{
		ErrDuplicateName,     // second A
		ErrTypeNameInvalid,   // 1bad
		ErrNoTable,           // A
		ErrDuplicateName,     // A.id twice
		ErrAmbiguousProperty, // A.b
		ErrUnknownTarget,     // A.c
		ErrColumnOnRelation,  // A.d
		ErrNoKeys,            // A
		ErrComplexWithKeys,   // E
		ErrInvalidKey,        // E.x
	}, codes)

	_, err = Build(doc)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok, "got %T", err)
	assert.Len(t, merr.Errors, len(errs))
}

func TestValidate_KeysMustBeBoundScalars(t *testing.T) {
	doc := &Document{Types: []TypeSpec{{
		Name:  "A",
		Table: "AS",
		Keys:  []string{"id", "ref", "gone"},
		Properties: []PropertySpec{
			{Name: "id", Type: edm.TypeInt64},
			{Name: "ref", Navigation: "A"},
		},
	}}}
	errs := Validate(doc)
	require.Len(t, errs, 3)
	for i, e := range errs {
		assert.Equal(t, ErrInvalidKey, e.Code, "error %d", i)
	}
}

func TestBuild_ModelRelationshipErrors(t *testing.T) {
	doc := &Document{
		Namespace: "x",
		Types: []TypeSpec{
			{
				Name: "A", Table: "AS", Keys: []string{"id"},
				Properties: []PropertySpec{
					{Name: "id", Column: "ID"},
					{Name: "b", Navigation: "B"},
				},
			},
			{
				Name: "B", Table: "BS", Keys: []string{"id"},
				Properties: []PropertySpec{{Name: "id", Column: "ID"}},
			},
		},
	}
	_, err := Build(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog:")
}
