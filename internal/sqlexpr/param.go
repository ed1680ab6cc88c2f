package sqlexpr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/roach88/edmsql/internal/edm"
)

// TemporalType forces date/time binding of a parameter.
type TemporalType int

const (
	TemporalNone TemporalType = iota
	TemporalDate
	TemporalTime
	TemporalTimestamp
)

func (t TemporalType) String() string {
	switch t {
	case TemporalDate:
		return "DATE"
	case TemporalTime:
		return "TIME"
	case TemporalTimestamp:
		return "TIMESTAMP"
	default:
		return ""
	}
}

// TemporalFor returns the temporal tag of a scalar property.
func TemporalFor(p edm.Property) TemporalType {
	switch p.Type {
	case edm.TypeDate:
		return TemporalDate
	case edm.TypeTime:
		return TemporalTime
	case edm.TypeDateTime, edm.TypeDateTimeOffset:
		return TemporalTimestamp
	default:
		return TemporalNone
	}
}

// Param is one bind value. The N-th Param of a statement belongs to the N-th
// placeholder, counted left to right.
type Param struct {
	Value    any
	Temporal TemporalType

	// SQLType overrides driver type inference. Only NUMERIC is acted upon.
	SQLType string
}

func (p Param) String() string {
	if p.Temporal != TemporalNone {
		return fmt.Sprintf("%v(%s)", p.Value, p.Temporal)
	}
	return fmt.Sprintf("%v", p.Value)
}

// paramFor builds the parameter for a value of a column-bound property.
func paramFor(value any, prop edm.Property, col edm.Column) Param {
	return Param{Value: value, Temporal: TemporalFor(prop), SQLType: col.SQLType}
}

// Bind converts the value for a database/sql driver.
//
// Temporal parameters accept time.Time and the civil Date, Time and DateTime
// types (or pointers to them); anything else fails with TypeMismatch.
// A nil value binds as NULL regardless of tags.
func (p Param) Bind() (any, error) {
	if p.Value == nil {
		return nil, nil
	}
	if p.Temporal != TemporalNone {
		return bindTemporal(p.Value, p.Temporal)
	}
	if strings.EqualFold(p.SQLType, "NUMERIC") {
		return bindNumeric(p.Value)
	}
	return p.Value, nil
}

func bindTemporal(v any, tag TemporalType) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case civil.Date:
		return x.In(time.UTC), nil
	case *civil.Date:
		if x == nil {
			return nil, nil
		}
		return x.In(time.UTC), nil
	case civil.DateTime:
		return x.In(time.UTC), nil
	case *civil.DateTime:
		if x == nil {
			return nil, nil
		}
		return x.In(time.UTC), nil
	case civil.Time:
		return x.String(), nil
	case *civil.Time:
		if x == nil {
			return nil, nil
		}
		return x.String(), nil
	}
	return nil, newError(ErrCodeTypeMismatch, "", "", "%s parameter requires a date-like value, got %T", tag, v)
}

func bindNumeric(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return nil, newError(ErrCodeTypeMismatch, "", "", "NUMERIC parameter has a fraction: %v", x)
		}
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, newError(ErrCodeTypeMismatch, "", "", "NUMERIC parameter is not an integer: %q", x)
		}
		return n, nil
	}
	return nil, newError(ErrCodeTypeMismatch, "", "", "NUMERIC parameter has unsupported type %T", v)
}

// BindAll binds params in order.
func BindAll(params []Param) ([]any, error) {
	args := make([]any, len(params))
	for i, p := range params {
		v, err := p.Bind()
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i+1, err)
		}
		args[i] = v
	}
	return args, nil
}
