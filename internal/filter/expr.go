package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/edmsql/internal/edm"
)

// Expression is a node of a filter tree.
//
// This is a sealed interface - only types in this package implement it.
type Expression interface {
	filterNode()
	String() string
}

// BinaryOp is a binary operator.
type BinaryOp string

const (
	OpEq  BinaryOp = "eq"
	OpNe  BinaryOp = "ne"
	OpLt  BinaryOp = "lt"
	OpLe  BinaryOp = "le"
	OpGt  BinaryOp = "gt"
	OpGe  BinaryOp = "ge"
	OpAnd BinaryOp = "and"
	OpOr  BinaryOp = "or"
	OpAdd BinaryOp = "add"
	OpSub BinaryOp = "sub"
	OpMul BinaryOp = "mul"
	OpDiv BinaryOp = "div"
	OpMod BinaryOp = "mod"
)

// Priority returns the binding strength of op. A child expression binding
// weaker than its parent is parenthesized.
func (op BinaryOp) Priority() int {
	switch op {
	case OpMul, OpDiv, OpMod:
		return 60
	case OpAdd, OpSub:
		return 50
	case OpLt, OpGt, OpLe, OpGe:
		return 40
	case OpEq, OpNe:
		return 30
	case OpAnd:
		return 20
	case OpOr:
		return 10
	default:
		return 0
	}
}

func (op BinaryOp) valid() bool { return op.Priority() > 0 }

func (op BinaryOp) comparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// UnaryOp is a unary operator.
type UnaryOp string

const (
	OpNot   UnaryOp = "not"
	OpMinus UnaryOp = "minus"
)

// MethodName names a filter function.
type MethodName string

const (
	MethodStartsWith  MethodName = "startswith"
	MethodEndsWith    MethodName = "endswith"
	MethodSubstringOf MethodName = "substringof"
	MethodToLower     MethodName = "tolower"
	MethodToUpper     MethodName = "toupper"
	MethodLength      MethodName = "length"
	MethodConcat      MethodName = "concat"
)

// arity returns the number of arguments of m, or 0 for unknown methods.
func (m MethodName) arity() int {
	switch m {
	case MethodStartsWith, MethodEndsWith, MethodSubstringOf, MethodConcat:
		return 2
	case MethodToLower, MethodToUpper, MethodLength:
		return 1
	}
	return 0
}

// Property references an own scalar property of the filter target.
type Property struct {
	Name string
}

func (Property) filterNode() {}

func (p Property) String() string { return p.Name }

// MemberPath references a scalar property reached through navigation or
// complex properties, e.g. customer/name.
type MemberPath struct {
	Path []string
}

func (MemberPath) filterNode() {}

func (m MemberPath) String() string { return strings.Join(m.Path, "/") }

// Literal is a constant. Type is an edm simple type name; it tags date and
// time values. A nil Value or the Null type is the null literal.
type Literal struct {
	Value any
	Type  string
}

func (Literal) filterNode() {}

// IsNull reports whether l is the null literal.
func (l Literal) IsNull() bool { return l.Value == nil || l.Type == edm.TypeNull }

func (l Literal) String() string {
	if l.IsNull() {
		return "null"
	}
	if s, ok := l.Value.(string); ok {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return fmt.Sprintf("%v", l.Value)
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (Binary) filterNode() {}

func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", str(b.Left), b.Op, str(b.Right))
}

// Unary applies Op to Operand.
type Unary struct {
	Op      UnaryOp
	Operand Expression
}

func (Unary) filterNode() {}

func (u Unary) String() string {
	if u.Op == OpMinus {
		return "-" + str(u.Operand)
	}
	return fmt.Sprintf("%s %s", u.Op, str(u.Operand))
}

// Method calls a filter function.
type Method struct {
	Name MethodName
	Args []Expression
}

func (Method) filterNode() {}

func (m Method) String() string {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = str(a)
	}
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(args, ","))
}

func str(e Expression) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

// Prop references an own property.
func Prop(name string) Property { return Property{Name: name} }

// Member references a property through a path of navigation or complex
// properties.
func Member(path ...string) MemberPath { return MemberPath{Path: path} }

// Lit is an untyped literal.
func Lit(v any) Literal { return Literal{Value: v} }

// TypedLit is a literal of an edm simple type.
func TypedLit(v any, typ string) Literal { return Literal{Value: v, Type: typ} }

// Null is the null literal.
func Null() Literal { return Literal{Type: edm.TypeNull} }

func Eq(l, r Expression) Binary { return Binary{Op: OpEq, Left: l, Right: r} }
func Ne(l, r Expression) Binary { return Binary{Op: OpNe, Left: l, Right: r} }
func Lt(l, r Expression) Binary { return Binary{Op: OpLt, Left: l, Right: r} }
func Le(l, r Expression) Binary { return Binary{Op: OpLe, Left: l, Right: r} }
func Gt(l, r Expression) Binary { return Binary{Op: OpGt, Left: l, Right: r} }
func Ge(l, r Expression) Binary { return Binary{Op: OpGe, Left: l, Right: r} }

// And folds operands left to right: And(a, b, c) is (a and b) and c.
func And(operands ...Expression) Expression { return fold(OpAnd, operands) }

// Or folds operands left to right.
func Or(operands ...Expression) Expression { return fold(OpOr, operands) }

// Not negates e.
func Not(e Expression) Unary { return Unary{Op: OpNot, Operand: e} }

// Call builds a method call.
func Call(name MethodName, args ...Expression) Method { return Method{Name: name, Args: args} }

func fold(op BinaryOp, operands []Expression) Expression {
	if len(operands) == 0 {
		return nil
	}
	acc := operands[0]
	for _, e := range operands[1:] {
		acc = Binary{Op: op, Left: acc, Right: e}
	}
	return acc
}
