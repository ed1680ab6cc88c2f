// Package sqlexpr compiles entity-model reads and writes into parameterized
// SQL clauses.
//
// A Query is created per request. Exactly one statement expression (Select,
// Insert, Update or Delete) is attached to it, together with any number of
// joins and WHERE fragments. Rendering asks each expression for a named
// clause (ClauseKind); the caller assembles the clauses into SQL text with a
// fixed template per statement kind.
//
// Two ordering rules hold for every rendered statement:
//
//   - The N-th Param belongs to the N-th '?' in the assembled SQL text.
//   - Column lists are rendered before FROM and JOIN, because rendering a
//     column of a complex property registers the join that brings its table
//     in.
//
// Aliases are granted once per structural type and never change for the
// lifetime of the Query. Joins are deduplicated by their (start, target)
// type pair.
package sqlexpr
