package compiler

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/edmsql/internal/edm"
)

// Document is a catalog as written in a CUE or YAML file, before it is
// resolved into an edm.Model.
type Document struct {
	Namespace string     `yaml:"namespace" json:"namespace"`
	Types     []TypeSpec `yaml:"types" json:"types"`
}

// TypeSpec declares one entity or complex type and its table binding.
type TypeSpec struct {
	Name    string `yaml:"name" json:"name"`
	Table   string `yaml:"table" json:"table"`
	Complex bool   `yaml:"complex,omitempty" json:"complex,omitempty"`
	// Keys lists key properties in declared order.
	Keys       []string       `yaml:"keys,omitempty" json:"keys,omitempty"`
	Properties []PropertySpec `yaml:"properties" json:"properties"`

	// Joins maps a related type to this table's join columns.
	Joins map[string][]string `yaml:"joins,omitempty" json:"joins,omitempty"`
	// MappingTables maps a related type to the link table between them.
	MappingTables map[string]MappingSpec `yaml:"mapping_tables,omitempty" json:"mapping_tables,omitempty"`

	// Source position, for error messages.
	File string `yaml:"-" json:"-"`
	Line int    `yaml:"-" json:"-"`
}

// PropertySpec declares one property. At most one of Navigation and
// ComplexType is set; a property with neither is a scalar.
type PropertySpec struct {
	Name string `yaml:"name" json:"name"`

	// Scalars.
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Column  string `yaml:"column,omitempty" json:"column,omitempty"`
	SQLType string `yaml:"sql_type,omitempty" json:"sql_type,omitempty"`

	ComplexType string `yaml:"complex,omitempty" json:"complex,omitempty"`
	Navigation  string `yaml:"navigation,omitempty" json:"navigation,omitempty"`
	Collection  bool   `yaml:"collection,omitempty" json:"collection,omitempty"`
}

// MappingSpec is the link table of a many-to-many relationship.
type MappingSpec struct {
	Table       string   `yaml:"table" json:"table"`
	JoinColumns []string `yaml:"join_columns" json:"join_columns"`
}

// Kind returns the edm kind the property declares.
func (p PropertySpec) Kind() edm.Kind {
	switch {
	case p.Navigation != "":
		return edm.KindNavigation
	case p.ComplexType != "":
		return edm.KindComplex
	default:
		return edm.KindScalar
	}
}

// qualify resolves a type reference. Names without a namespace belong to
// the document's namespace.
func (d *Document) qualify(name string) string {
	if name == "" || strings.Contains(name, ".") || d.Namespace == "" {
		return name
	}
	return edm.QualifiedName(d.Namespace, name)
}

// Build validates the document and resolves it into a model. All problems
// are reported together.
func Build(doc *Document) (*edm.Model, error) {
	if errs := Validate(doc); len(errs) > 0 {
		var result *multierror.Error
		for _, e := range errs {
			result = multierror.Append(result, e)
		}
		return nil, result
	}

	m := edm.NewModel()
	for _, ts := range doc.Types {
		t, binding := doc.resolve(ts)
		if err := m.Add(t, binding); err != nil {
			return nil, &CompileError{Field: "types", Message: err.Error(), File: ts.File, Line: ts.Line}
		}
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return m, nil
}

func (d *Document) resolve(ts TypeSpec) (*edm.StructuralType, edm.TableBinding) {
	t := &edm.StructuralType{
		Namespace: d.Namespace,
		Name:      ts.Name,
		Complex:   ts.Complex,
		Keys:      append([]string(nil), ts.Keys...),
	}
	b := edm.TableBinding{
		Table:   ts.Table,
		Columns: make(map[string]edm.ColumnDef),
	}

	for _, ps := range ts.Properties {
		p := edm.Property{Name: ps.Name, Kind: ps.Kind()}
		switch p.Kind {
		case edm.KindNavigation:
			p.Target = d.qualify(ps.Navigation)
			p.Collection = ps.Collection
		case edm.KindComplex:
			p.Target = d.qualify(ps.ComplexType)
		default:
			p.Type = ps.Type
			if p.Type == "" {
				p.Type = edm.TypeString
			}
			if ps.Column != "" {
				b.Columns[ps.Name] = edm.ColumnDef{Name: ps.Column, SQLType: ps.SQLType}
			}
		}
		t.Properties = append(t.Properties, p)
	}

	if len(ts.Joins) > 0 {
		b.Joins = make(map[string][]string, len(ts.Joins))
		for other, cols := range ts.Joins {
			b.Joins[d.qualify(other)] = append([]string(nil), cols...)
		}
	}
	if len(ts.MappingTables) > 0 {
		b.MappingTables = make(map[string]edm.MappingTable, len(ts.MappingTables))
		for other, mt := range ts.MappingTables {
			b.MappingTables[d.qualify(other)] = edm.MappingTable{
				Table:       mt.Table,
				JoinColumns: append([]string(nil), mt.JoinColumns...),
			}
		}
	}
	return t, b
}
