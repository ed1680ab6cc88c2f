package edm

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Column is the binding of one property: table, column and SQL type tag.
type Column struct {
	Table   string `json:"table"`
	Name    string `json:"name"`
	SQLType string `json:"sql_type,omitempty"`
}

// ColumnDef is the per-property part of a TableBinding.
type ColumnDef struct {
	Name    string `json:"name"`
	SQLType string `json:"sql_type,omitempty"`
}

// MappingTable describes a many-to-many link table as seen from one side.
// JoinColumns are the link table's columns that reference the declaring type.
type MappingTable struct {
	Table       string   `json:"table"`
	JoinColumns []string `json:"join_columns"`
}

// TableBinding maps a structural type onto a table.
type TableBinding struct {
	Table string `json:"table"`

	// Columns maps property name to column. Properties without an entry are
	// transient: they exist in the model but not in the table.
	Columns map[string]ColumnDef `json:"columns"`

	// Joins maps another type's FQN to this table's columns used when the two
	// types are joined. Composite relationships list several columns.
	Joins map[string][]string `json:"joins,omitempty"`

	// MappingTables maps another type's FQN to the link table between them.
	MappingTables map[string]MappingTable `json:"mapping_tables,omitempty"`
}

// Catalog is the read-only metadata view used by the compiler.
type Catalog interface {
	// Type resolves a type by FQN.
	Type(fqn string) (*StructuralType, bool)

	// Table returns the table bound to t.
	Table(t *StructuralType) (string, bool)

	// PropertyColumn returns the column bound to a property of t.
	// ok is false for transient or unknown properties.
	PropertyColumn(t *StructuralType, property string) (Column, bool)

	// JoinColumns returns the columns of from's table used to join to.
	JoinColumns(from, to *StructuralType) ([]string, bool)

	// MappingTable returns the link table declared by from towards to.
	MappingTable(from, to *StructuralType) (MappingTable, bool)
}

// Model is an in-memory Catalog. Types keep their registration order.
type Model struct {
	types    map[string]*StructuralType
	bindings map[string]*TableBinding
	order    []string
}

var _ Catalog = (*Model)(nil)

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		types:    make(map[string]*StructuralType),
		bindings: make(map[string]*TableBinding),
	}
}

// Add registers a type with its binding. Identifiers are NFC normalized so
// that names coming from different files compare equal.
func (m *Model) Add(t *StructuralType, b TableBinding) error {
	if t == nil {
		return fmt.Errorf("cannot add nil type")
	}
	normalizeType(t)
	fqn := t.FQN()
	if fqn == "" {
		return fmt.Errorf("type name is required")
	}
	if _, exists := m.types[fqn]; exists {
		return fmt.Errorf("type %s already defined", fqn)
	}
	if b.Columns == nil {
		b.Columns = make(map[string]ColumnDef)
	}
	m.types[fqn] = t
	m.bindings[fqn] = &b
	m.order = append(m.order, fqn)
	return nil
}

// MustAdd is Add for static fixtures. Panics on error.
func (m *Model) MustAdd(t *StructuralType, b TableBinding) *StructuralType {
	if err := m.Add(t, b); err != nil {
		panic(err)
	}
	return t
}

// Types returns all types in registration order.
func (m *Model) Types() []*StructuralType {
	out := make([]*StructuralType, 0, len(m.order))
	for _, fqn := range m.order {
		out = append(out, m.types[fqn])
	}
	return out
}

// Type implements Catalog.
func (m *Model) Type(fqn string) (*StructuralType, bool) {
	t, ok := m.types[norm.NFC.String(fqn)]
	return t, ok
}

// Lookup resolves a type by FQN, falling back to an unambiguous short name.
func (m *Model) Lookup(name string) (*StructuralType, bool) {
	if t, ok := m.Type(name); ok {
		return t, true
	}
	name = norm.NFC.String(name)
	var found *StructuralType
	for _, fqn := range m.order {
		t := m.types[fqn]
		if t.Name != name {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = t
	}
	return found, found != nil
}

// Binding returns the table binding of t.
func (m *Model) Binding(t *StructuralType) (*TableBinding, bool) {
	if t == nil {
		return nil, false
	}
	b, ok := m.bindings[t.FQN()]
	return b, ok
}

// Table implements Catalog.
func (m *Model) Table(t *StructuralType) (string, bool) {
	b, ok := m.Binding(t)
	if !ok || b.Table == "" {
		return "", false
	}
	return b.Table, true
}

// PropertyColumn implements Catalog.
func (m *Model) PropertyColumn(t *StructuralType, property string) (Column, bool) {
	b, ok := m.Binding(t)
	if !ok {
		return Column{}, false
	}
	p, ok := t.Property(property)
	if !ok || p.Kind != KindScalar {
		return Column{}, false
	}
	c, ok := b.Columns[property]
	if !ok || c.Name == "" {
		return Column{}, false
	}
	return Column{Table: b.Table, Name: c.Name, SQLType: c.SQLType}, true
}

// JoinColumns implements Catalog.
func (m *Model) JoinColumns(from, to *StructuralType) ([]string, bool) {
	b, ok := m.Binding(from)
	if !ok || to == nil {
		return nil, false
	}
	cols, ok := b.Joins[to.FQN()]
	if !ok || len(cols) == 0 {
		return nil, false
	}
	return cols, true
}

// MappingTable implements Catalog.
func (m *Model) MappingTable(from, to *StructuralType) (MappingTable, bool) {
	b, ok := m.Binding(from)
	if !ok || to == nil {
		return MappingTable{}, false
	}
	mt, ok := b.MappingTables[to.FQN()]
	if !ok || mt.Table == "" {
		return MappingTable{}, false
	}
	return mt, true
}

func normalizeType(t *StructuralType) {
	t.Namespace = norm.NFC.String(strings.TrimSpace(t.Namespace))
	t.Name = norm.NFC.String(strings.TrimSpace(t.Name))
	for i := range t.Properties {
		t.Properties[i].Name = norm.NFC.String(t.Properties[i].Name)
		t.Properties[i].Target = norm.NFC.String(t.Properties[i].Target)
	}
	for i := range t.Keys {
		t.Keys[i] = norm.NFC.String(t.Keys[i])
	}
}
