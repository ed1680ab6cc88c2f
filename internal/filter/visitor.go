package filter

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/roach88/edmsql/internal/edm"
	"github.com/roach88/edmsql/internal/sqlexpr"
)

// ToWhere compiles e against target into a WHERE fragment. Joins needed by
// member paths are registered on q; the fragment itself is not attached.
func ToWhere(q *sqlexpr.Query, target *edm.StructuralType, e Expression) (*sqlexpr.Where, error) {
	v := &visitor{q: q, target: target}
	f, err := v.visit(e)
	if err != nil {
		return nil, err
	}
	text, params, err := v.write(f, "", nil)
	if err != nil {
		return nil, err
	}
	slog.Debug("filter compiled", "target", target.FQN(), "where", text, "params", len(params))
	return sqlexpr.NewWhere(text, params...), nil
}

// Apply compiles e and ANDs it into the query's WHERE. A disjunction at the
// root is parenthesized so conditions added before or after it keep their
// meaning.
func Apply(q *sqlexpr.Query, target *edm.StructuralType, e Expression) error {
	if e == nil {
		return nil
	}
	w, err := ToWhere(q, target, e)
	if err != nil {
		return err
	}
	if b, ok := e.(Binary); ok && b.Op == OpOr {
		w = w.Group()
	}
	q.And(w)
	return nil
}

// fragment is the compiled form of one node. Literals stay unwritten until
// their parent places them, so the parameter lands next to its placeholder
// and can pick up the binding of the column it is compared with.
type fragment struct {
	text   string
	params []sqlexpr.Param

	// op is set for fragments produced by an infix binary operator.
	op BinaryOp
	// column is the binding of a bare column reference.
	column *sqlexpr.Param
	// literal is set for a literal not yet written.
	literal *Literal
	// compound marks unary and binary results, which a unary operator wraps
	// in parentheses.
	compound bool
}

type visitor struct {
	q      *sqlexpr.Query
	target *edm.StructuralType
}

func (v *visitor) visit(e Expression) (fragment, error) {
	switch x := e.(type) {
	case nil:
		return fragment{}, invalid(nil, "missing operand")
	case Property:
		return v.property(x)
	case MemberPath:
		return v.member(x)
	case Literal:
		lit := x
		return fragment{literal: &lit}, nil
	case Binary:
		return v.binary(x)
	case Unary:
		return v.unary(x)
	case Method:
		return v.method(x)
	default:
		return fragment{}, unsupported(e, "unknown expression %T", e)
	}
}

func (v *visitor) property(p Property) (fragment, error) {
	if prop, ok := v.target.Property(p.Name); ok && !prop.IsScalar() {
		return fragment{}, invalid(p, "%s property %q must be followed by a member", prop.Kind, p.Name)
	}
	col, binding, err := v.q.Column(v.target, p.Name)
	if err != nil {
		return fragment{}, fmt.Errorf("filter on %s: %w", v.target.FQN(), err)
	}
	return fragment{text: col, column: &binding}, nil
}

// member walks the path from the filter target, joining every navigation or
// complex type it passes through, and resolves the last segment as a column.
func (v *visitor) member(m MemberPath) (fragment, error) {
	switch len(m.Path) {
	case 0:
		return fragment{}, invalid(m, "empty member path")
	case 1:
		return v.property(Property{Name: m.Path[0]})
	}
	owner := v.target
	for _, seg := range m.Path[:len(m.Path)-1] {
		prop, ok := owner.Property(seg)
		if !ok {
			return fragment{}, invalid(m, "unknown property %q of %s", seg, owner.FQN())
		}
		if prop.IsScalar() {
			return fragment{}, invalid(m, "scalar property %q cannot have members", seg)
		}
		next, ok := v.q.Catalog().Type(prop.Target)
		if !ok {
			return fragment{}, invalid(m, "unknown type %q", prop.Target)
		}
		v.q.RegisterJoin(next, owner)
		owner = next
	}
	last := m.Path[len(m.Path)-1]
	if prop, ok := owner.Property(last); ok && !prop.IsScalar() {
		return fragment{}, invalid(m, "member %q is not a scalar property", last)
	}
	col, binding, err := v.q.Column(owner, last)
	if err != nil {
		return fragment{}, fmt.Errorf("filter on %s: %w", v.target.FQN(), err)
	}
	return fragment{text: col, column: &binding}, nil
}

func (v *visitor) binary(b Binary) (fragment, error) {
	if !b.Op.valid() {
		return fragment{}, unsupported(b, "operator %q", b.Op)
	}
	left, err := v.visit(b.Left)
	if err != nil {
		return fragment{}, err
	}
	right, err := v.visit(b.Right)
	if err != nil {
		return fragment{}, err
	}

	leftNull := left.literal != nil && left.literal.IsNull()
	rightNull := right.literal != nil && right.literal.IsNull()
	if leftNull && !rightNull {
		left, right = right, left
		rightNull, leftNull = true, false
	}
	if (leftNull || rightNull) && b.Op != OpEq && b.Op != OpNe {
		return fragment{}, invalid(b, "null can only be compared with eq or ne")
	}

	// a literal next to a column binds like that column
	var leftBinding, rightBinding *sqlexpr.Param
	if b.Op != OpAnd && b.Op != OpOr {
		leftBinding, rightBinding = right.column, left.column
	}

	lt, lp, err := v.write(left, "", leftBinding)
	if err != nil {
		return fragment{}, err
	}
	rt, rp, err := v.write(right, "", rightBinding)
	if err != nil {
		return fragment{}, err
	}
	lt = escapePrecedence(b.Op, left, lt, false)
	rt = escapePrecedence(b.Op, right, rt, true)

	params := append(append([]sqlexpr.Param(nil), lp...), rp...)
	if b.Op == OpMod {
		return fragment{text: "MOD(" + lt + ", " + rt + ")", params: params}, nil
	}
	return fragment{
		text:     lt + " " + sqlOperator(b.Op, rightNull) + " " + rt,
		params:   params,
		op:       b.Op,
		compound: true,
	}, nil
}

// escapePrecedence parenthesizes child when SQL would otherwise bind it
// differently. Subtraction and division are left-associative, so a right
// operand of the same priority keeps its parentheses.
func escapePrecedence(parent BinaryOp, child fragment, text string, right bool) string {
	if child.op == "" {
		return text
	}
	p, c := parent.Priority(), child.op.Priority()
	if p > c || (right && p == c && (parent == OpSub || parent == OpDiv)) {
		return "(" + text + ")"
	}
	return text
}

func sqlOperator(op BinaryOp, null bool) string {
	switch op {
	case OpEq:
		if null {
			return "IS"
		}
		return "="
	case OpNe:
		if null {
			return "IS NOT"
		}
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return strings.ToUpper(string(op))
	}
}

func (v *visitor) unary(u Unary) (fragment, error) {
	var op string
	switch u.Op {
	case OpNot:
		op = "NOT"
	case OpMinus:
		op = "-"
	default:
		return fragment{}, unsupported(u, "unary operator %q", u.Op)
	}
	operand, err := v.visit(u.Operand)
	if err != nil {
		return fragment{}, err
	}
	text, params, err := v.write(operand, "", nil)
	if err != nil {
		return fragment{}, err
	}
	format := "%s %s"
	if operand.compound {
		format = "%s(%s)"
	}
	return fragment{text: fmt.Sprintf(format, op, text), params: params, compound: true}, nil
}

func (v *visitor) method(m Method) (fragment, error) {
	n := m.Name.arity()
	if n == 0 {
		return fragment{}, unsupported(m, "method %q", m.Name)
	}
	if len(m.Args) != n {
		return fragment{}, invalid(m, "%s takes %d arguments, got %d", m.Name, n, len(m.Args))
	}
	args := make([]fragment, n)
	for i, a := range m.Args {
		f, err := v.visit(a)
		if err != nil {
			return fragment{}, err
		}
		args[i] = f
	}

	switch m.Name {
	case MethodStartsWith, MethodEndsWith, MethodSubstringOf:
		subject, pattern, format := args[0], args[1], "%v%%"
		switch m.Name {
		case MethodEndsWith:
			format = "%%%v"
		case MethodSubstringOf:
			subject, pattern, format = args[1], args[0], "%%%v%%"
		}
		if subject.literal != nil {
			return fragment{}, invalid(m, "%s needs a property to match against", m.Name)
		}
		if pattern.literal == nil || pattern.literal.IsNull() {
			return fragment{}, invalid(m, "%s needs a non-null literal pattern", m.Name)
		}
		st, sp, err := v.write(subject, "", nil)
		if err != nil {
			return fragment{}, err
		}
		pt, pp, err := v.write(pattern, format, nil)
		if err != nil {
			return fragment{}, err
		}
		return fragment{text: st + " LIKE " + pt + " ESCAPE '" + likeEscape + "'", params: append(append([]sqlexpr.Param(nil), sp...), pp...)}, nil

	case MethodConcat:
		lt, lp, err := v.write(args[0], "", nil)
		if err != nil {
			return fragment{}, err
		}
		rt, rp, err := v.write(args[1], "", nil)
		if err != nil {
			return fragment{}, err
		}
		return fragment{text: "CONCAT(" + lt + "," + rt + ")", params: append(append([]sqlexpr.Param(nil), lp...), rp...)}, nil

	default:
		fn := map[MethodName]string{MethodToLower: "LOWER", MethodToUpper: "UPPER", MethodLength: "LENGTH"}[m.Name]
		text, params, err := v.write(args[0], "", nil)
		if err != nil {
			return fragment{}, err
		}
		return fragment{text: fn + "(" + text + ")", params: params}, nil
	}
}

// likeEscape marks a literal '%' or '_' in a LIKE pattern. A backslash
// would need doubling in MySQL string literals.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// write places f. A literal becomes '?' plus its parameter (or NULL);
// format, when set, turns the literal into a LIKE pattern, with wildcards
// in the literal escaped. binding is the
// column the literal is compared with.
func (v *visitor) write(f fragment, format string, binding *sqlexpr.Param) (string, []sqlexpr.Param, error) {
	if f.literal == nil {
		return f.text, f.params, nil
	}
	lit := *f.literal
	if lit.IsNull() {
		return "NULL", nil, nil
	}
	if format != "" {
		pattern := likeEscaper.Replace(fmt.Sprint(lit.Value))
		return "?", []sqlexpr.Param{{Value: fmt.Sprintf(format, pattern)}}, nil
	}

	p := sqlexpr.Param{Value: lit.Value, Temporal: sqlexpr.TemporalFor(edm.Property{Type: lit.Type})}
	if binding != nil {
		p.SQLType = binding.SQLType
		if p.Temporal == sqlexpr.TemporalNone {
			p.Temporal = binding.Temporal
		}
	}
	value, err := temporalValue(p.Value, p.Temporal)
	if err != nil {
		return "", nil, invalid(lit, "%v", err)
	}
	p.Value = value
	return "?", []sqlexpr.Param{p}, nil
}

// temporalValue parses string literals of temporal parameters. Other values
// pass through and are checked when bound.
func temporalValue(v any, tag sqlexpr.TemporalType) (any, error) {
	s, ok := v.(string)
	if !ok || tag == sqlexpr.TemporalNone {
		return v, nil
	}
	s = strings.TrimSpace(s)
	switch tag {
	case sqlexpr.TemporalDate:
		if d, err := civil.ParseDate(s); err == nil {
			return d, nil
		}
	case sqlexpr.TemporalTime:
		if t, err := civil.ParseTime(s); err == nil {
			return t, nil
		}
	case sqlexpr.TemporalTimestamp:
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts, nil
		}
		if dt, err := civil.ParseDateTime(s); err == nil {
			return dt, nil
		}
		if d, err := civil.ParseDate(s); err == nil {
			return civil.DateTime{Date: d}, nil
		}
	}
	return nil, fmt.Errorf("%q is not a valid %s literal", s, tag)
}
