package filter

import (
	"github.com/hashicorp/go-multierror"
)

// Validate checks the shape of a tree without a catalog: operators and
// methods are known, operands are present and method arity matches. Every
// problem is reported, not just the first.
//
// Whether properties exist and are mapped is only known when compiling
// against a query. A nil tree is valid.
func Validate(e Expression) error {
	if e == nil {
		return nil
	}
	var result *multierror.Error
	walk(e, func(n Expression) {
		switch x := n.(type) {
		case nil:
			result = multierror.Append(result, invalid(nil, "missing operand"))
		case Property:
			if x.Name == "" {
				result = multierror.Append(result, invalid(x, "empty property name"))
			}
		case MemberPath:
			if len(x.Path) == 0 {
				result = multierror.Append(result, invalid(x, "empty member path"))
			}
		case Binary:
			if !x.Op.valid() {
				result = multierror.Append(result, unsupported(x, "operator %q", x.Op))
			}
			if isNull(x.Left) || isNull(x.Right) {
				if x.Op != OpEq && x.Op != OpNe {
					result = multierror.Append(result, invalid(x, "null can only be compared with eq or ne"))
				}
			}
		case Unary:
			if x.Op != OpNot && x.Op != OpMinus {
				result = multierror.Append(result, unsupported(x, "unary operator %q", x.Op))
			}
		case Method:
			n := x.Name.arity()
			switch {
			case n == 0:
				result = multierror.Append(result, unsupported(x, "method %q", x.Name))
			case len(x.Args) != n:
				result = multierror.Append(result, invalid(x, "%s takes %d arguments, got %d", x.Name, n, len(x.Args)))
			}
		}
	})
	return result.ErrorOrNil()
}

// walk visits e and its operands depth first, left to right. Missing
// operands are visited as nil.
func walk(e Expression, fn func(Expression)) {
	fn(e)
	switch x := e.(type) {
	case Binary:
		walk(x.Left, fn)
		walk(x.Right, fn)
	case Unary:
		walk(x.Operand, fn)
	case Method:
		for _, a := range x.Args {
			walk(a, fn)
		}
	}
}

func isNull(e Expression) bool {
	l, ok := e.(Literal)
	return ok && l.IsNull()
}
