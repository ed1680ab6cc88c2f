package compiler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Namespace string      `yaml:"namespace"`
	Types     []yaml.Node `yaml:"types"`
}

// ParseYAML parses a YAML catalog. Types and properties are lists, so
// their order is the declaration order:
//
//	namespace: shop
//	types:
//	  - name: Customer
//	    table: CUSTOMERS
//	    keys: [id]
//	    properties:
//	      - {name: id, type: Edm.Int64, column: ID, sql_type: BIGINT}
//	      - {name: orders, navigation: Order, collection: true}
//	    joins: {Order: [ID]}
//
// filename is only used in error positions.
func ParseYAML(data []byte, filename string) (*Document, error) {
	var raw yamlDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error(), File: filename}
	}
	if raw.Types == nil {
		return nil, &CompileError{Field: "types", Message: "types are required", File: filename, Line: 1}
	}

	doc := &Document{Namespace: raw.Namespace}
	for i := range raw.Types {
		node := &raw.Types[i]
		var ts TypeSpec
		if err := node.Decode(&ts); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("types[%d]", i),
				Message: err.Error(),
				File:    filename,
				Line:    node.Line,
			}
		}
		ts.File, ts.Line = filename, node.Line
		doc.Types = append(doc.Types, ts)
	}
	return doc, nil
}

// LoadYAML reads and parses a YAML catalog file.
func LoadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseYAML(data, path)
}
