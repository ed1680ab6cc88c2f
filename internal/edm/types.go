package edm

import "strings"

// Kind tags a property as scalar, complex or navigation.
type Kind int

const (
	// KindScalar is a simple, column-backed property.
	KindScalar Kind = iota
	// KindComplex is a nested structural value stored in its own table.
	KindComplex
	// KindNavigation is a relationship to another entity type.
	KindNavigation
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindComplex:
		return "complex"
	case KindNavigation:
		return "navigation"
	default:
		return "unknown"
	}
}

// Simple type names understood by the compiler. Anything else is treated as
// an opaque scalar.
const (
	TypeString         = "Edm.String"
	TypeInt32          = "Edm.Int32"
	TypeInt64          = "Edm.Int64"
	TypeDecimal        = "Edm.Decimal"
	TypeBoolean        = "Edm.Boolean"
	TypeDate           = "Edm.Date"
	TypeTime           = "Edm.Time"
	TypeDateTime       = "Edm.DateTime"
	TypeDateTimeOffset = "Edm.DateTimeOffset"
	TypeGuid           = "Edm.Guid"
	TypeNull           = "Null"
)

// Property is one member of a structural type.
type Property struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// Type is the simple type name for scalars (e.g. "Edm.String").
	Type string `json:"type,omitempty"`

	// Target is the FQN of the complex type (KindComplex) or of the related
	// entity type (KindNavigation).
	Target string `json:"target,omitempty"`

	// Collection marks a to-many navigation property.
	Collection bool `json:"collection,omitempty"`
}

// IsScalar reports whether the property is column-backed.
func (p Property) IsScalar() bool { return p.Kind == KindScalar }

// IsTemporal reports whether the scalar type carries a date or time.
func (p Property) IsTemporal() bool {
	switch p.Type {
	case TypeDate, TypeTime, TypeDateTime, TypeDateTimeOffset:
		return true
	}
	return false
}

// StructuralType is an entity or complex type.
type StructuralType struct {
	Namespace  string     `json:"namespace"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`

	// Keys lists key property names in declared order. Empty for complex types.
	Keys []string `json:"keys,omitempty"`

	Complex bool `json:"complex,omitempty"`
}

// FQN returns the fully-qualified name, the identity of the type.
func (t *StructuralType) FQN() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Property looks up a property by name.
func (t *StructuralType) Property(name string) (Property, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// OwnProperties returns scalar and complex properties in declared order.
func (t *StructuralType) OwnProperties() []Property {
	var out []Property
	for _, p := range t.Properties {
		if p.Kind != KindNavigation {
			out = append(out, p)
		}
	}
	return out
}

// ScalarProperties returns scalar properties in declared order.
func (t *StructuralType) ScalarProperties() []Property {
	var out []Property
	for _, p := range t.Properties {
		if p.Kind == KindScalar {
			out = append(out, p)
		}
	}
	return out
}

// NavigationProperties returns navigation properties in declared order.
func (t *StructuralType) NavigationProperties() []Property {
	var out []Property
	for _, p := range t.Properties {
		if p.Kind == KindNavigation {
			out = append(out, p)
		}
	}
	return out
}

// IsKey reports whether name is one of the declared key properties.
func (t *StructuralType) IsKey(name string) bool {
	for _, k := range t.Keys {
		if k == name {
			return true
		}
	}
	return false
}

// SameType compares two types by FQN. Nil types are never equal.
func SameType(a, b *StructuralType) bool {
	if a == nil || b == nil {
		return false
	}
	return a.FQN() == b.FQN()
}

// QualifiedName joins a namespace and a name the way FQN does.
func QualifiedName(namespace, name string) string {
	if namespace == "" || strings.Contains(name, ".") {
		return name
	}
	return namespace + "." + name
}
