// Package harness runs request scenarios against a catalog and checks the
// compiled SQL, its parameters and, optionally, the rows it produces.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: orders_of_ann
//	description: "Navigation from a customer to its orders"
//	catalog: ../catalog/shop.yaml
//	dialect: sqlite
//	schema: ../catalog/shop.sql
//	steps:
//	  - name: seed
//	    request: {kind: insert, target: Customer, entry: {id: 1, name: ann}}
//	    expect: {rows_affected: 1}
//	  - name: orders
//	    request:
//	      kind: select
//	      from: {type: Customer, keys: {id: 1}, property: orders}
//	      select: [id]
//	    expect:
//	      sql: SELECT T0.ID AS ID FROM ORDERS AS T0 LEFT JOIN ...
//	      params: [1]
//	      rows: [{ID: 1}]
//
// Catalog and schema paths are relative to the scenario file. Without a
// schema, steps are only compiled and the expectations are limited to sql,
// params and error.
//
// # Deterministic Testing
//
// Statement IDs are fixed to the scenario name and every scenario gets its
// own in-memory SQLite database, so the trace of a scenario is the same on
// every run and can be compared with a golden file (see RunWithGolden).
package harness
