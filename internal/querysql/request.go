package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/roach88/edmsql/internal/filter"
	"github.com/roach88/edmsql/internal/sqlexpr"
)

// Kind is the kind of request.
type Kind string

const (
	KindSelect Kind = "select"
	KindCount  Kind = "count"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

func (k Kind) valid() bool {
	switch k {
	case KindSelect, KindCount, KindInsert, KindUpdate, KindDelete:
		return true
	}
	return false
}

func (k Kind) read() bool { return k == KindSelect || k == KindCount }

// Navigation starts a read at one entity and follows a navigation property
// to the target, e.g. the orders of customer 1.
type Navigation struct {
	// Type is the start entity type.
	Type string `yaml:"type" json:"type"`
	// Keys identifies the start entity.
	Keys map[string]any `yaml:"keys" json:"keys"`
	// Property is the navigation property of Type leading to the target.
	// When empty, Request.Target must name the target.
	Property string `yaml:"property,omitempty" json:"property,omitempty"`
}

// Request describes one statement to build.
type Request struct {
	Kind   Kind   `yaml:"kind" json:"kind"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`

	// Keys identifies one row: the single entity to read, or the row to
	// update or delete.
	Keys map[string]any `yaml:"keys,omitempty" json:"keys,omitempty"`

	From *Navigation `yaml:"from,omitempty" json:"from,omitempty"`

	// Select lists properties to read; empty reads all own properties.
	Select []string `yaml:"select,omitempty" json:"select,omitempty"`
	// Expand lists navigation paths to read along, e.g. "items/order".
	Expand []string `yaml:"expand,omitempty" json:"expand,omitempty"`
	// OrderBy lists sort keys, e.g. "customer/name desc".
	OrderBy []string `yaml:"orderby,omitempty" json:"orderby,omitempty"`

	Top  *int `yaml:"top,omitempty" json:"top,omitempty"`
	Skip int  `yaml:"skip,omitempty" json:"skip,omitempty"`

	// KeyIn restricts a select to the rows whose single key is in the list.
	// It replaces Filter; it is used to read expanded rows for keys selected
	// by an earlier paged query.
	KeyIn []any `yaml:"key_in,omitempty" json:"key_in,omitempty"`

	// Filter is the row filter. DecodeRequest fills it from RawFilter.
	Filter    filter.Expression `yaml:"-" json:"-"`
	RawFilter any               `yaml:"filter,omitempty" json:"filter,omitempty"`

	Entry map[string]any `yaml:"entry,omitempty" json:"entry,omitempty"`
}

// RequestError reports a malformed request.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsRequestError reports whether err is or wraps a *RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// DecodeRequest decodes a YAML (or JSON) request document and its filter.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// UnmarshalYAML decodes the request fields and then its filter, so a
// Request embedded in a larger document arrives ready to build.
func (r *Request) UnmarshalYAML(node *yaml.Node) error {
	type plain Request
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = Request(p)
	return r.decodeFilter()
}

func (r *Request) decodeFilter() error {
	if r.Filter != nil || r.RawFilter == nil {
		return nil
	}
	f, err := filter.Decode(r.RawFilter)
	if err != nil {
		return fmt.Errorf("request filter: %w", err)
	}
	r.Filter = f
	return nil
}

// Validate checks the request shape without a catalog. Every problem is
// reported.
func (r *Request) Validate() error {
	var result *multierror.Error
	add := func(field, format string, args ...any) {
		result = multierror.Append(result, &RequestError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !r.Kind.valid() {
		add("kind", "unknown request kind %q", r.Kind)
		return result.ErrorOrNil()
	}
	if r.Target == "" && (r.From == nil || r.From.Property == "") {
		add("target", "target is required")
	}
	if r.From != nil {
		if !r.Kind.read() {
			add("from", "navigation is only valid for reads")
		}
		if r.From.Type == "" {
			add("from.type", "start type is required")
		}
		if len(r.From.Keys) == 0 {
			add("from.keys", "start entity keys are required")
		}
	}
	if r.Top != nil && *r.Top < 0 {
		add("top", "must not be negative")
	}
	if r.Skip < 0 {
		add("skip", "must not be negative")
	}

	if !r.Kind.read() {
		for field, set := range map[string]bool{
			"filter":  r.Filter != nil || r.RawFilter != nil,
			"select":  len(r.Select) > 0,
			"expand":  len(r.Expand) > 0,
			"orderby": len(r.OrderBy) > 0,
			"key_in":  len(r.KeyIn) > 0,
		} {
			if set {
				add(field, "only valid for reads")
			}
		}
	}
	if r.Kind == KindCount && (len(r.Select) > 0 || len(r.Expand) > 0 || len(r.OrderBy) > 0) {
		add("select", "count requests take no select, expand or orderby")
	}
	if len(r.KeyIn) > 0 && r.Filter != nil {
		add("key_in", "cannot be combined with a filter")
	}

	switch r.Kind {
	case KindInsert:
		if len(r.Entry) == 0 {
			add("entry", "insert needs an entry")
		}
	case KindUpdate:
		if len(r.Entry) == 0 {
			add("entry", "update needs an entry")
		}
		if len(r.Keys) == 0 {
			add("keys", "update needs keys")
		}
	case KindDelete:
		if len(r.Keys) == 0 {
			add("keys", "delete needs keys")
		}
		if len(r.Entry) > 0 {
			add("entry", "delete takes no entry")
		}
	}

	if err := filter.Validate(r.Filter); err != nil {
		result = multierror.Append(result, fmt.Errorf("filter: %w", err))
	}
	for _, o := range r.OrderBy {
		if _, err := ParseOrderKey(o); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// ParseOrderKey parses "path [asc|desc]" where path separates segments
// with '/'.
func ParseOrderKey(s string) (sqlexpr.OrderKey, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return sqlexpr.OrderKey{}, &RequestError{Field: "orderby", Message: fmt.Sprintf("malformed sort key %q", s)}
	}
	key := sqlexpr.OrderKey{Path: splitPath(fields[0])}
	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "asc":
		case "desc":
			key.Descending = true
		default:
			return sqlexpr.OrderKey{}, &RequestError{Field: "orderby", Message: fmt.Sprintf("unknown direction %q", fields[1])}
		}
	}
	return key, nil
}

func splitPath(s string) []string {
	return strings.Split(strings.Trim(s, "/"), "/")
}
