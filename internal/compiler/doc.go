// Package compiler loads entity catalogs from CUE or YAML files into an
// edm.Model.
//
// Both formats describe the same Document: a namespace and a list of types,
// each with its table, keys, properties in declared order, join columns
// towards related types and optional many-to-many link tables. Type
// references without a namespace resolve within the document's namespace.
//
// Loading happens in three steps:
//
//  1. Parse: CompileCatalog (CUE value) or ParseYAML (bytes) into a Document
//  2. Validate: structural checks with coded ValidationErrors (E1xx)
//  3. Build: resolve into an edm.Model and run its relationship checks
//
// Load performs all three for a path.
package compiler
