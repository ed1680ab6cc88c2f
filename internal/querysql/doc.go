// Package querysql builds executable statements from requests.
//
// A Request names a target type and what to do with it (select, count,
// insert, update, delete). The Builder resolves it against the catalog on a
// fresh sqlexpr.Query, runs the registered interceptors, renders the clauses
// and assembles them with the template of the statement kind:
//
//	SELECT [prefix] <columns> FROM <from> [<joins>] [WHERE <where>] [ORDER BY <order>] [<suffix>]
//	INSERT INTO <into> VALUES <values>
//	UPDATE <table>
//	DELETE FROM <from> WHERE <keys>
//
// All values are parameterized, never interpolated. Statement.Params holds
// them in placeholder order; Statement.Args binds them for database/sql.
//
// Selects without a top, or with a top above the page size, are capped at
// the page size (DefaultPageSize unless configured). Skip never renders as
// an offset: the limit is widened by skip and the reader discards the
// leading rows.
package querysql
