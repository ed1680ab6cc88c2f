package sqlexpr

import "strings"

// StatementKind is the kind of statement a Query renders.
type StatementKind int

const (
	StatementSelect StatementKind = iota
	StatementInsert
	StatementUpdate
	StatementDelete
)

func (k StatementKind) String() string {
	switch k {
	case StatementSelect:
		return "select"
	case StatementInsert:
		return "insert"
	case StatementUpdate:
		return "update"
	case StatementDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Rendered holds the clause texts of one statement and its parameters, ready
// to be assembled by a statement template.
type Rendered struct {
	Kind    StatementKind
	Clauses map[ClauseKind]string
	Params  []Param
}

// Clause returns the text of kind, or "" if the statement has none.
func (r *Rendered) Clause(kind ClauseKind) string {
	return r.Clauses[kind]
}

// RenderSelect renders the attached select.
//
// Column-list rendering can register joins for complex properties, so every
// clause that may do so is evaluated before FROM and JOIN are read.
func (q *Query) RenderSelect() (*Rendered, error) {
	s := q.selectExpr
	if s == nil {
		return nil, newError(ErrCodeInternal, "", "", "query has no select")
	}
	r := &Rendered{Kind: StatementSelect, Clauses: make(map[ClauseKind]string)}
	for _, kind := range []ClauseKind{ClauseSelectPrefix, ClauseColumnList} {
		text, err := s.Evaluate(q, kind)
		if err != nil {
			return nil, err
		}
		r.Clauses[kind] = text
	}
	where, err := q.where.Evaluate(q, ClauseWhere)
	if err != nil {
		return nil, err
	}
	r.Clauses[ClauseWhere] = where
	if q.orderBy != nil {
		text, err := q.orderBy.Evaluate(q, ClauseOrderBy)
		if err != nil {
			return nil, err
		}
		r.Clauses[ClauseOrderBy] = text
	}
	suffix, err := s.Evaluate(q, ClauseSelectSuffix)
	if err != nil {
		return nil, err
	}
	r.Clauses[ClauseSelectSuffix] = suffix

	from, err := s.Evaluate(q, ClauseFrom)
	if err != nil {
		return nil, err
	}
	r.Clauses[ClauseFrom] = from
	joins, err := q.renderJoins()
	if err != nil {
		return nil, err
	}
	r.Clauses[ClauseJoin] = joins

	return q.finish(r, q.where.Params())
}

// renderJoins renders joins in the insertion order of their start aliases.
func (q *Query) renderJoins() (string, error) {
	var parts []string
	for _, alias := range q.aliases {
		fqn := q.typeByAlias[alias].FQN()
		for _, j := range q.joins {
			if j.key.Start != fqn {
				continue
			}
			text, err := j.Evaluate(q, ClauseJoin)
			if err != nil {
				return "", err
			}
			if text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " "), nil
}

// RenderInsert renders the attached insert.
func (q *Query) RenderInsert() (*Rendered, error) {
	ins := q.insertExpr
	if ins == nil {
		return nil, newError(ErrCodeInternal, "", "", "query has no insert")
	}
	r := &Rendered{Kind: StatementInsert, Clauses: make(map[ClauseKind]string)}
	for _, kind := range []ClauseKind{ClauseInto, ClauseValues} {
		text, err := ins.Evaluate(q, kind)
		if err != nil {
			return nil, err
		}
		r.Clauses[kind] = text
	}
	return q.finish(r, ins.Params())
}

// RenderUpdate renders the attached update.
func (q *Query) RenderUpdate() (*Rendered, error) {
	upd := q.updateExpr
	if upd == nil {
		return nil, newError(ErrCodeInternal, "", "", "query has no update")
	}
	text, err := upd.Evaluate(q, ClauseTable)
	if err != nil {
		return nil, err
	}
	r := &Rendered{Kind: StatementUpdate, Clauses: map[ClauseKind]string{ClauseTable: text}}
	return q.finish(r, upd.Params())
}

// RenderDelete renders the attached delete.
func (q *Query) RenderDelete() (*Rendered, error) {
	del := q.deleteExpr
	if del == nil {
		return nil, newError(ErrCodeInternal, "", "", "query has no delete")
	}
	r := &Rendered{Kind: StatementDelete, Clauses: make(map[ClauseKind]string)}
	for _, kind := range []ClauseKind{ClauseFrom, ClauseKeys} {
		text, err := del.Evaluate(q, kind)
		if err != nil {
			return nil, err
		}
		r.Clauses[kind] = text
	}
	return q.finish(r, del.Params())
}

// Render renders whichever statement is attached.
func (q *Query) Render() (*Rendered, error) {
	switch {
	case q.selectExpr != nil:
		return q.RenderSelect()
	case q.insertExpr != nil:
		return q.RenderInsert()
	case q.updateExpr != nil:
		return q.RenderUpdate()
	case q.deleteExpr != nil:
		return q.RenderDelete()
	}
	return nil, newError(ErrCodeInternal, "", "", "query has no statement")
}

// finish checks that every parameter binds, so a statement that cannot be
// executed is never handed out.
func (q *Query) finish(r *Rendered, params []Param) (*Rendered, error) {
	if _, err := BindAll(params); err != nil {
		return nil, err
	}
	r.Params = append([]Param(nil), params...)
	for k, v := range r.Clauses {
		r.Clauses[k] = strings.TrimSpace(v)
	}
	return r, nil
}
