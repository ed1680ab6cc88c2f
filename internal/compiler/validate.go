package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/edmsql/internal/edm"
)

// Validation error codes (E100-E199)
const (
	ErrTypeNameInvalid   = "E101" // type or property name is empty or malformed
	ErrDuplicateName     = "E102" // duplicate type or property name
	ErrNoTable           = "E103" // type is not bound to a table
	ErrNoKeys            = "E104" // entity type declares no key
	ErrInvalidKey        = "E105" // key is not a column-bound scalar
	ErrAmbiguousProperty = "E106" // property is both navigation and complex
	ErrUnknownTarget     = "E107" // navigation or complex target not declared
	ErrComplexWithKeys   = "E108" // complex type declares keys
	ErrColumnOnRelation  = "E109" // column bound to a non-scalar property
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identifier = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// Validate checks a catalog document for structural problems.
// Returns all errors found (does not fail-fast).
func Validate(doc *Document) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]*TypeSpec, len(doc.Types))
	for i := range doc.Types {
		ts := &doc.Types[i]
		field := fmt.Sprintf("types[%d]", i)
		if !identifier.MatchString(ts.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid type name %q", ts.Name),
				Code:    ErrTypeNameInvalid,
				File:    ts.File,
				Line:    ts.Line,
			})
			continue
		}
		fqn := doc.qualify(ts.Name)
		if _, dup := declared[fqn]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate type name: %q", ts.Name),
				Code:    ErrDuplicateName,
				File:    ts.File,
				Line:    ts.Line,
			})
			continue
		}
		declared[fqn] = ts
	}

	for i := range doc.Types {
		ts := &doc.Types[i]
		if declared[doc.qualify(ts.Name)] != ts {
			continue
		}
		errs = append(errs, validateType(doc, ts, fmt.Sprintf("types[%d]", i), declared)...)
	}
	return errs
}

func validateType(doc *Document, ts *TypeSpec, field string, declared map[string]*TypeSpec) []ValidationError {
	var errs []ValidationError
	add := func(f, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   f,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			File:    ts.File,
			Line:    ts.Line,
		})
	}

	if ts.Table == "" {
		add(field+".table", ErrNoTable, "type %q is not bound to a table", ts.Name)
	}
	switch {
	case ts.Complex && len(ts.Keys) > 0:
		add(field+".keys", ErrComplexWithKeys, "complex type %q cannot declare keys", ts.Name)
	case !ts.Complex && len(ts.Keys) == 0:
		add(field+".keys", ErrNoKeys, "entity type %q declares no key", ts.Name)
	}

	props := make(map[string]PropertySpec, len(ts.Properties))
	for j, ps := range ts.Properties {
		pf := fmt.Sprintf("%s.properties[%d]", field, j)
		if !identifier.MatchString(ps.Name) {
			add(pf+".name", ErrTypeNameInvalid, "invalid property name %q", ps.Name)
			continue
		}
		if _, dup := props[ps.Name]; dup {
			add(pf+".name", ErrDuplicateName, "duplicate property name: %q", ps.Name)
			continue
		}
		props[ps.Name] = ps

		if ps.Navigation != "" && ps.ComplexType != "" {
			add(pf, ErrAmbiguousProperty, "property %q cannot be both navigation and complex", ps.Name)
			continue
		}
		if ps.Kind() != edm.KindScalar && ps.Column != "" {
			add(pf+".column", ErrColumnOnRelation, "%s property %q cannot be bound to a column", ps.Kind(), ps.Name)
		}
		if target := ps.Navigation + ps.ComplexType; target != "" {
			other, ok := declared[doc.qualify(target)]
			switch {
			case !ok:
				add(pf, ErrUnknownTarget, "property %q targets undeclared type %q", ps.Name, target)
			case ps.ComplexType != "" && !other.Complex:
				add(pf, ErrUnknownTarget, "property %q targets %q, which is not a complex type", ps.Name, target)
			case ps.Navigation != "" && other.Complex:
				add(pf, ErrUnknownTarget, "navigation %q targets complex type %q", ps.Name, target)
			}
		}
	}

	for j, key := range ts.Keys {
		ps, ok := props[key]
		if !ok || ps.Kind() != edm.KindScalar || ps.Column == "" {
			add(fmt.Sprintf("%s.keys[%d]", field, j), ErrInvalidKey, "key %q must be a scalar property bound to a column", key)
		}
	}
	return errs
}
