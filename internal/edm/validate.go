package edm

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validate checks the model for structural problems and returns all of them
// at once. A nil result means every type is bound, every key is a bound
// scalar, and every relationship can be rendered as a join.
func (m *Model) Validate() error {
	var result *multierror.Error
	for _, t := range m.Types() {
		b, _ := m.Binding(t)
		if b.Table == "" {
			result = multierror.Append(result, fmt.Errorf("%s: no table bound", t.FQN()))
		}
		for prop := range b.Columns {
			p, ok := t.Property(prop)
			if !ok {
				result = multierror.Append(result, fmt.Errorf("%s: column bound to unknown property %q", t.FQN(), prop))
				continue
			}
			if p.Kind != KindScalar {
				result = multierror.Append(result, fmt.Errorf("%s.%s: only scalar properties can be bound to columns", t.FQN(), prop))
			}
		}
		if !t.Complex && len(t.Keys) == 0 {
			result = multierror.Append(result, fmt.Errorf("%s: entity type declares no key", t.FQN()))
		}
		for _, key := range t.Keys {
			p, ok := t.Property(key)
			if !ok || p.Kind != KindScalar {
				result = multierror.Append(result, fmt.Errorf("%s: key %q is not a scalar property", t.FQN(), key))
				continue
			}
			if _, ok := m.PropertyColumn(t, key); !ok {
				result = multierror.Append(result, fmt.Errorf("%s: key %q has no column", t.FQN(), key))
			}
		}
		for _, p := range t.Properties {
			if p.Kind == KindScalar {
				continue
			}
			if err := m.validateRelationship(t, p); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

func (m *Model) validateRelationship(owner *StructuralType, p Property) error {
	target, ok := m.Type(p.Target)
	if !ok {
		return fmt.Errorf("%s.%s: unknown target type %q", owner.FQN(), p.Name, p.Target)
	}
	if p.Kind == KindComplex && !target.Complex {
		return fmt.Errorf("%s.%s: target %s is not a complex type", owner.FQN(), p.Name, target.FQN())
	}
	if p.Kind == KindNavigation && target.Complex {
		return fmt.Errorf("%s.%s: navigation target %s is a complex type", owner.FQN(), p.Name, target.FQN())
	}

	_, ownerMT := m.MappingTable(owner, target)
	_, targetMT := m.MappingTable(target, owner)
	if ownerMT || targetMT {
		return m.validateMappingTable(owner, target, p.Name)
	}

	from, okFrom := m.JoinColumns(owner, target)
	to, okTo := m.JoinColumns(target, owner)
	switch {
	case !okFrom:
		return fmt.Errorf("%s.%s: no join columns from %s to %s", owner.FQN(), p.Name, owner.FQN(), target.FQN())
	case !okTo:
		return fmt.Errorf("%s.%s: no join columns from %s to %s", owner.FQN(), p.Name, target.FQN(), owner.FQN())
	case len(from) != len(to):
		return fmt.Errorf("%s.%s: join arity mismatch (%d columns vs %d)", owner.FQN(), p.Name, len(from), len(to))
	}
	return nil
}

func (m *Model) validateMappingTable(owner, target *StructuralType, prop string) error {
	a, okA := m.MappingTable(owner, target)
	b, okB := m.MappingTable(target, owner)
	if !okA || !okB {
		return fmt.Errorf("%s.%s: mapping table must be declared on both %s and %s", owner.FQN(), prop, owner.FQN(), target.FQN())
	}
	if a.Table != b.Table {
		return fmt.Errorf("%s.%s: mapping table differs between sides (%s vs %s)", owner.FQN(), prop, a.Table, b.Table)
	}
	ownerCols, _ := m.JoinColumns(owner, target)
	targetCols, _ := m.JoinColumns(target, owner)
	if len(ownerCols) != len(a.JoinColumns) || len(targetCols) != len(b.JoinColumns) {
		return fmt.Errorf("%s.%s: mapping table %s join arity mismatch", owner.FQN(), prop, a.Table)
	}
	return nil
}
