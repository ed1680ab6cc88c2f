// Package filter holds the expression tree of row filters and the visitor
// that compiles a tree into a parameterized WHERE fragment.
//
// Trees are built in Go with the constructors of this package or decoded
// from maps (YAML or JSON documents); there is no textual filter syntax.
//
//	f := filter.And(
//	    filter.Eq(filter.Prop("customerName"), filter.Lit("ann")),
//	    filter.Gt(filter.Member("customer", "since"), filter.TypedLit("2024-01-01", edm.TypeDate)),
//	)
//	w, err := filter.ToWhere(q, order, f)
//
// Every literal becomes a '?' placeholder with a parameter appended in the
// order the placeholder appears in the text. Comparisons against null render
// IS NULL / IS NOT NULL and bind nothing. Member paths through navigation or
// complex properties register the joins they need on the query.
//
// EXPRESSION KINDS:
//
// Expression is a sealed interface. Only the types of this package
// implement it:
//   - Property: an own property of the filter target
//   - MemberPath: a property reached through navigation/complex properties
//   - Literal: a typed constant, or null
//   - Binary: comparison, logical and arithmetic operators
//   - Unary: not, minus
//   - Method: startswith, endswith, substringof, tolower, toupper, length, concat
package filter
