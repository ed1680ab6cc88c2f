package sqlexpr

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/edmsql/internal/edm"
)

// assignments are the parallel column, value and property lists shared by
// Insert and Update. The three slices always have the same length.
type assignments struct {
	columns    []edm.Column
	values     []any
	properties []edm.Property
}

func (a *assignments) add(col edm.Column, value any, prop edm.Property) {
	a.columns = append(a.columns, col)
	a.values = append(a.values, value)
	a.properties = append(a.properties, prop)
}

func (a *assignments) index(column string) int {
	for i, c := range a.columns {
		if c.Name == column {
			return i
		}
	}
	return -1
}

func (a *assignments) len() int { return len(a.columns) }

func (a *assignments) params() []Param {
	out := make([]Param, len(a.columns))
	for i := range a.columns {
		out[i] = paramFor(a.values[i], a.properties[i], a.columns[i])
	}
	return out
}

// collect walks the own properties of target, then its navigation
// properties, both in declared order, and records every value present in
// entry. Transient properties are skipped. With skipKeys, key properties and
// columns holding a key are left out.
func collect(q *Query, target *edm.StructuralType, entry map[string]any, skipKeys bool) (*assignments, error) {
	if err := checkEntry(target, entry); err != nil {
		return nil, err
	}
	keyColumns := make(map[string]bool)
	for _, k := range target.Keys {
		if c, ok := q.catalog.PropertyColumn(target, k); ok {
			keyColumns[c.Name] = true
		}
	}

	a := &assignments{}
	for _, p := range target.OwnProperties() {
		v, present := entry[p.Name]
		if !present {
			continue
		}
		if p.Kind == edm.KindComplex {
			return nil, newError(ErrCodeDeepInsertUnsupported, target.FQN(), p.Name, "complex values cannot be written inline")
		}
		if skipKeys && target.IsKey(p.Name) {
			continue
		}
		col, ok := q.catalog.PropertyColumn(target, p.Name)
		if !ok {
			slog.Debug("skipping transient property", "type", target.FQN(), "property", p.Name)
			continue
		}
		a.add(col, v, p)
	}

	for _, p := range target.NavigationProperties() {
		v, present := entry[p.Name]
		if !present || v == nil {
			continue
		}
		if err := collectForeignKey(q, target, p, v, a, skipKeys, keyColumns); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// collectForeignKey derives target's foreign-key columns from the keys of
// the related entity given inline as a map.
func collectForeignKey(q *Query, target *edm.StructuralType, nav edm.Property, v any, a *assignments, skipKeys bool, keyColumns map[string]bool) error {
	if nav.Collection {
		return newError(ErrCodeDeepInsertUnsupported, target.FQN(), nav.Name, "to-many navigation values cannot be written inline")
	}
	related, ok := v.(map[string]any)
	if !ok {
		return newError(ErrCodeDeepInsertUnsupported, target.FQN(), nav.Name, "navigation value must hold the related keys, got %T", v)
	}
	relatedType, err := q.target(nav.Target)
	if err != nil {
		return err
	}
	fk, err := joinColumns(q, target, relatedType)
	if err != nil {
		return err
	}
	ref, err := joinColumns(q, relatedType, target)
	if err != nil {
		return err
	}
	if len(fk) != len(ref) {
		return newError(ErrCodeMapping, target.FQN(), nav.Name, "join pairs %d columns with %d", len(fk), len(ref))
	}

	for i, refCol := range ref {
		prop, binding, ok := keyForColumn(q, relatedType, refCol)
		if !ok {
			return newError(ErrCodeDeepInsertUnsupported, target.FQN(), nav.Name, "column %s of %s is not a key", refCol, relatedType.FQN())
		}
		value, ok := related[prop.Name]
		if !ok || value == nil {
			return newError(ErrCodeDeepInsertUnsupported, target.FQN(), nav.Name, "related key %q is missing", prop.Name)
		}
		if skipKeys && keyColumns[fk[i]] {
			continue
		}
		if j := a.index(fk[i]); j >= 0 {
			if !sameValue(a.values[j], value) {
				return newError(ErrCodeInvalidKey, target.FQN(), nav.Name, "column %s given two different values", fk[i])
			}
			continue
		}
		col, ok := ownColumn(q, target, fk[i])
		if !ok {
			table, _ := q.catalog.Table(target)
			col = edm.Column{Table: table, Name: fk[i], SQLType: binding.SQLType}
		}
		a.add(col, value, prop)
	}
	return nil
}

// keyForColumn finds the key property of t bound to column.
func keyForColumn(q *Query, t *edm.StructuralType, column string) (edm.Property, edm.Column, bool) {
	for _, k := range t.Keys {
		c, ok := q.catalog.PropertyColumn(t, k)
		if !ok || c.Name != column {
			continue
		}
		p, _ := t.Property(k)
		return p, c, true
	}
	return edm.Property{}, edm.Column{}, false
}

// ownColumn finds the binding of column among t's own properties.
func ownColumn(q *Query, t *edm.StructuralType, column string) (edm.Column, bool) {
	for _, p := range t.ScalarProperties() {
		if c, ok := q.catalog.PropertyColumn(t, p.Name); ok && c.Name == column {
			return c, true
		}
	}
	return edm.Column{}, false
}

func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// checkEntry rejects properties the type does not declare.
func checkEntry(t *edm.StructuralType, entry map[string]any) error {
	names := make([]string, 0, len(entry))
	for name := range entry {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := t.Property(name); !ok {
			return newError(ErrCodeMapping, t.FQN(), name, "unknown property")
		}
	}
	return nil
}

// keyValues returns the key columns of t and their values from keys, in
// declared key order. Every component must be present and non-nil.
func keyValues(q *Query, t *edm.StructuralType, keys map[string]any) (*assignments, error) {
	if len(t.Keys) == 0 {
		return nil, newError(ErrCodeInvalidKey, t.FQN(), "", "type declares no key")
	}
	a := &assignments{}
	for _, k := range t.Keys {
		v, ok := keys[k]
		if !ok || isNil(v) {
			return nil, newError(ErrCodeInvalidKey, t.FQN(), k, "key component is missing or null")
		}
		col, ok := q.catalog.PropertyColumn(t, k)
		if !ok {
			return nil, newError(ErrCodeMapping, t.FQN(), k, "key property is not mapped to a column")
		}
		p, _ := t.Property(k)
		a.add(col, v, p)
	}
	return a, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// predicates renders c1=? AND c2=? over bare column names.
func predicates(ctx Context, cols []edm.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = ctx.Quote(c.Name) + "=?"
	}
	return strings.Join(parts, " AND ")
}
