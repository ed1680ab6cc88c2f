// Package edm provides the read-only entity model consumed by the SQL
// expression compiler.
//
// The model has two halves:
//
//   - Structural types: entity and complex types with their properties in
//     declared order. Each property is tagged once, at load time, as a
//     scalar, a complex (nested) property, or a navigation property, so
//     callers switch on Property.Kind instead of inspecting types.
//   - Table bindings: for every structural type the table it lives in, the
//     column behind each property, and the join columns used to reach other
//     types (optionally through a many-to-many mapping table).
//
// The compiler only depends on the Catalog interface. Model is the in-memory
// implementation produced by the loaders in internal/compiler and by tests.
//
// This package imports nothing internal.
package edm
