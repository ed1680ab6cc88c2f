package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/edmsql/internal/edm"
	"github.com/roach88/edmsql/internal/sqlexpr"
)

// Interceptor adjusts a query after the builder resolved the request and
// before it is rendered, e.g. to add tenant or visibility conditions.
type Interceptor interface {
	Intercept(q *sqlexpr.Query, target *edm.StructuralType, req *Request) error
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(q *sqlexpr.Query, target *edm.StructuralType, req *Request) error

// Intercept calls f.
func (f InterceptorFunc) Intercept(q *sqlexpr.Query, target *edm.StructuralType, req *Request) error {
	return f(q, target, req)
}

type registered struct {
	ic    Interceptor
	kinds []Kind
}

func (r registered) appliesTo(k Kind) bool {
	if len(r.kinds) == 0 {
		return true
	}
	for _, kind := range r.kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// AliasPlaceholder in a Scope condition is replaced by the target's alias.
const AliasPlaceholder = "{alias}"

// Scope restricts reads with a fixed condition and its arguments, e.g.
//
//	Scope{Target: "shop.Order", Condition: "{alias}.TENANT_ID = ?", Args: []any{tenant}}
//
// The condition is ANDed into the WHERE of select and count requests; other
// requests are left alone.
type Scope struct {
	// Target limits the scope to one type, by FQN or name. Empty applies to
	// every type.
	Target    string
	Condition string
	Args      []any
}

// Intercept implements Interceptor.
func (s Scope) Intercept(q *sqlexpr.Query, target *edm.StructuralType, req *Request) error {
	if !req.Kind.read() {
		return nil
	}
	if s.Target != "" && s.Target != target.FQN() && s.Target != target.Name {
		return nil
	}
	if n := strings.Count(s.Condition, "?"); n != len(s.Args) {
		return fmt.Errorf("scope condition has %d placeholders but %d args", n, len(s.Args))
	}
	alias := q.Context().Quote(q.GrantAlias(target))
	cond := strings.ReplaceAll(s.Condition, AliasPlaceholder, alias)

	params := make([]sqlexpr.Param, len(s.Args))
	for i, a := range s.Args {
		params[i] = sqlexpr.Param{Value: a}
	}
	w := sqlexpr.NewWhere(cond, params...)
	if strings.Contains(strings.ToUpper(cond), " OR ") {
		w = w.Group()
	}
	q.And(w)
	return nil
}
