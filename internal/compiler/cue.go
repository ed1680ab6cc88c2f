package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// CompileCatalog parses a CUE value into a Document. Types and properties
// are labeled structs; their declaration order is kept.
//
//	namespace: "shop"
//	types: Customer: {
//		table: "CUSTOMERS"
//		keys: ["id"]
//		properties: {
//			id:     {type: "Edm.Int64", column: "ID", sql_type: "BIGINT"}
//			orders: {navigation: "Order", collection: true}
//		}
//		joins: Order: ["ID"]
//	}
func CompileCatalog(v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{}
	if nsVal := v.LookupPath(cue.ParsePath("namespace")); nsVal.Exists() {
		ns, err := nsVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		doc.Namespace = ns
	}

	typesVal := v.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return nil, &CompileError{
			Field:   "types",
			Message: "types are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		ts, err := parseType(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		doc.Types = append(doc.Types, ts)
	}
	return doc, nil
}

func parseType(name string, v cue.Value) (TypeSpec, error) {
	ts := TypeSpec{Name: name}
	if pos := v.Pos(); pos.IsValid() {
		ts.File, ts.Line = pos.Filename(), pos.Line()
	}

	var err error
	if ts.Table, err = optionalString(v, "table"); err != nil {
		return ts, err
	}
	if complexVal := v.LookupPath(cue.ParsePath("complex")); complexVal.Exists() {
		if ts.Complex, err = complexVal.Bool(); err != nil {
			return ts, formatCUEError(err)
		}
	}
	if ts.Keys, err = stringList(v.LookupPath(cue.ParsePath("keys"))); err != nil {
		return ts, err
	}

	if propsVal := v.LookupPath(cue.ParsePath("properties")); propsVal.Exists() {
		iter, err := propsVal.Fields()
		if err != nil {
			return ts, formatCUEError(err)
		}
		for iter.Next() {
			ps, err := parseProperty(iter.Label(), iter.Value())
			if err != nil {
				return ts, err
			}
			ts.Properties = append(ts.Properties, ps)
		}
	}

	if joinsVal := v.LookupPath(cue.ParsePath("joins")); joinsVal.Exists() {
		iter, err := joinsVal.Fields()
		if err != nil {
			return ts, formatCUEError(err)
		}
		ts.Joins = make(map[string][]string)
		for iter.Next() {
			cols, err := stringList(iter.Value())
			if err != nil {
				return ts, err
			}
			ts.Joins[iter.Label()] = cols
		}
	}

	if mtVal := v.LookupPath(cue.ParsePath("mapping_tables")); mtVal.Exists() {
		iter, err := mtVal.Fields()
		if err != nil {
			return ts, formatCUEError(err)
		}
		ts.MappingTables = make(map[string]MappingSpec)
		for iter.Next() {
			var ms MappingSpec
			if ms.Table, err = optionalString(iter.Value(), "table"); err != nil {
				return ts, err
			}
			if ms.JoinColumns, err = stringList(iter.Value().LookupPath(cue.ParsePath("join_columns"))); err != nil {
				return ts, err
			}
			ts.MappingTables[iter.Label()] = ms
		}
	}
	return ts, nil
}

func parseProperty(name string, v cue.Value) (PropertySpec, error) {
	ps := PropertySpec{Name: name}
	fields := []struct {
		label string
		dst   *string
	}{
		{"type", &ps.Type},
		{"column", &ps.Column},
		{"sql_type", &ps.SQLType},
		{"complex", &ps.ComplexType},
		{"navigation", &ps.Navigation},
	}
	for _, f := range fields {
		s, err := optionalString(v, f.label)
		if err != nil {
			return ps, err
		}
		*f.dst = s
	}
	if collVal := v.LookupPath(cue.ParsePath("collection")); collVal.Exists() {
		b, err := collVal.Bool()
		if err != nil {
			return ps, formatCUEError(err)
		}
		ps.Collection = b
	}
	return ps, nil
}

func optionalString(v cue.Value, label string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(label))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadCUE loads a catalog from a CUE file or from the CUE package in a
// directory.
func LoadCUE(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog not found: %w", err)
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	if !info.IsDir() {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}
	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &CompileError{Field: "cue", Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileCatalog(value)
}
