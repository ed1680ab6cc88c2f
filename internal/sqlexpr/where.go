package sqlexpr

import (
	"strings"

	"github.com/roach88/edmsql/internal/edm"
)

// Where accumulates condition text and the parameters of its placeholders.
// Text and parameters are always appended together, so the N-th parameter
// belongs to the N-th '?' of the text.
type Where struct {
	text   string
	params []Param
}

// NewWhere creates a fragment from text and the parameters of its
// placeholders.
func NewWhere(text string, params ...Param) *Where {
	return &Where{
		text:   strings.TrimSpace(text),
		params: append([]Param(nil), params...),
	}
}

// Clause returns the condition text.
func (w *Where) Clause() string { return w.text }

// Params returns the parameters in placeholder order.
func (w *Where) Params() []Param {
	return append([]Param(nil), w.params...)
}

// IsEmpty reports whether the fragment has no condition.
func (w *Where) IsEmpty() bool { return w.text == "" }

func (w *Where) String() string { return w.text }

// And appends others with AND. See compose for parenthesization.
func (w *Where) And(others ...*Where) *Where {
	return w.compose("AND", others)
}

// Or appends others with OR. See compose for parenthesization.
func (w *Where) Or(others ...*Where) *Where {
	return w.compose("OR", others)
}

// compose appends the non-empty fragments of others, joined by op.
// Appending several fragments to a non-empty condition wraps the appended
// group in one pair of parentheses; a single fragment, or any fragments
// appended to an empty condition, are never wrapped.
func (w *Where) compose(op string, others []*Where) *Where {
	var texts []string
	var params []Param
	for _, o := range others {
		if o == nil || o.IsEmpty() {
			continue
		}
		texts = append(texts, o.text)
		params = append(params, o.params...)
	}
	if len(texts) == 0 {
		return w
	}
	group := strings.Join(texts, " "+op+" ")
	switch {
	case w.IsEmpty():
		w.text = group
	case len(texts) == 1:
		w.text = w.text + " " + op + " " + group
	default:
		w.text = w.text + " " + op + " (" + group + ")"
	}
	w.params = append(w.params, params...)
	return w
}

// Group returns a copy of w wrapped in parentheses, for use as a single
// operand of a surrounding condition.
func (w *Where) Group() *Where {
	if w.IsEmpty() {
		return NewWhere("")
	}
	return NewWhere("("+w.text+")", w.params...)
}

// Evaluate implements Expression.
func (w *Where) Evaluate(_ *Query, kind ClauseKind) (string, error) {
	if kind != ClauseWhere {
		return "", unsupportedClause("where", kind)
	}
	return w.text, nil
}

// WhereFromKeyPredicates builds alias.column=? [AND ...] for predicates on
// t. Every predicate must name a column-mapped property.
func WhereFromKeyPredicates(q *Query, t *edm.StructuralType, predicates []KeyPredicate) (*Where, error) {
	w := NewWhere("")
	for _, kp := range predicates {
		col, prop, binding, err := q.column(t, kp.Property)
		if err != nil {
			return nil, err
		}
		w.And(NewWhere(col+"=?", paramFor(kp.Value, prop, binding)))
	}
	return w, nil
}

// KeyPredicates lists the key values of t in declared key order. Every key
// component must be present and non-null.
func KeyPredicates(t *edm.StructuralType, keys map[string]any) ([]KeyPredicate, error) {
	if len(t.Keys) == 0 {
		return nil, newError(ErrCodeInvalidKey, t.FQN(), "", "type declares no key")
	}
	preds := make([]KeyPredicate, 0, len(t.Keys))
	for _, k := range t.Keys {
		v, ok := keys[k]
		if !ok || isNil(v) {
			return nil, newError(ErrCodeInvalidKey, t.FQN(), k, "key component is missing or null")
		}
		preds = append(preds, KeyPredicate{Property: k, Value: v})
	}
	return preds, nil
}

// WhereKeyIn builds alias.column IN (?, ...) over the single key of t.
func WhereKeyIn(q *Query, t *edm.StructuralType, values []any) (*Where, error) {
	if len(t.Keys) != 1 {
		return nil, newError(ErrCodeInvalidKey, t.FQN(), "", "IN filter needs exactly one key property, type has %d", len(t.Keys))
	}
	if len(values) == 0 {
		return nil, newError(ErrCodeInvalidKey, t.FQN(), t.Keys[0], "IN filter needs at least one value")
	}
	col, prop, binding, err := q.column(t, t.Keys[0])
	if err != nil {
		return nil, err
	}
	params := make([]Param, len(values))
	marks := make([]string, len(values))
	for i, v := range values {
		if isNil(v) {
			return nil, newError(ErrCodeInvalidKey, t.FQN(), t.Keys[0], "IN filter value %d is null", i+1)
		}
		params[i] = paramFor(v, prop, binding)
		marks[i] = "?"
	}
	return NewWhere(col+" IN ("+strings.Join(marks, ", ")+")", params...), nil
}
