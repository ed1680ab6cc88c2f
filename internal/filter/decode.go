package filter

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode builds a tree from its map form, as produced by decoding YAML or
// JSON into any:
//
//	{property: name}
//	{member: [customer, name]}          or {member: customer/name}
//	{literal: 42, type: Edm.Int64}      or {null: true}
//	{eq: [<expr>, <expr>]}              eq ne lt le gt ge add sub mul div mod
//	{and: [<expr>, <expr>, ...]}        and, or fold left to right
//	{not: <expr>}, {minus: <expr>}
//	{startswith: [<expr>, <expr>]}      and every other method name
//
// A nil input decodes to a nil Expression (no filter).
func Decode(v any) (Expression, error) {
	if v == nil {
		return nil, nil
	}
	return decodeNode(v, "filter")
}

// DecodeYAML decodes a filter document.
func DecodeYAML(data []byte) (Expression, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return Decode(v)
}

func decodeNode(v any, at string) (Expression, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf("%s: expected a mapping, got %T", at, v)}
	}

	if _, ok := m["literal"]; ok {
		return decodeLiteral(m, at)
	}
	if len(m) != 1 {
		return nil, &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf("%s: expected exactly one key, got %s", at, keys(m))}
	}

	for key, arg := range m {
		at := at + "." + key
		switch key {
		case "property":
			name, ok := arg.(string)
			if !ok || name == "" {
				return nil, &Error{Code: ErrCodeInvalid, Message: at + ": property name must be a non-empty string"}
			}
			return Prop(name), nil

		case "member":
			path, err := decodePath(arg, at)
			if err != nil {
				return nil, err
			}
			return Member(path...), nil

		case "null":
			return Null(), nil

		case "not", "minus":
			operand, err := decodeNode(arg, at)
			if err != nil {
				return nil, err
			}
			return Unary{Op: UnaryOp(key), Operand: operand}, nil
		}

		args, err := decodeArgs(arg, at)
		if err != nil {
			return nil, err
		}
		if op := BinaryOp(key); op.valid() {
			if op == OpAnd || op == OpOr {
				if len(args) < 2 {
					return nil, &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf("%s: needs at least 2 operands, got %d", at, len(args))}
				}
				return fold(op, args), nil
			}
			if len(args) != 2 {
				return nil, &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf("%s: needs 2 operands, got %d", at, len(args))}
			}
			return Binary{Op: op, Left: args[0], Right: args[1]}, nil
		}
		if MethodName(key).arity() > 0 {
			return Method{Name: MethodName(key), Args: args}, nil
		}
		return nil, &Error{Code: ErrCodeUnsupported, Message: fmt.Sprintf("%s: unknown operator or method", at)}
	}
	panic("unreachable")
}

func decodeLiteral(m map[string]any, at string) (Expression, error) {
	lit := Literal{Value: m["literal"]}
	for k, v := range m {
		switch k {
		case "literal":
		case "type":
			typ, ok := v.(string)
			if !ok {
				return nil, &Error{Code: ErrCodeInvalid, Message: at + ".type: must be a string"}
			}
			lit.Type = typ
		default:
			return nil, &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf("%s: unexpected key %q next to literal", at, k)}
		}
	}
	if lit.Value == nil {
		return Null(), nil
	}
	return lit, nil
}

func decodeArgs(v any, at string) ([]Expression, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf("%s: expected a list of operands, got %T", at, v)}
	}
	out := make([]Expression, len(list))
	for i, item := range list {
		e, err := decodeNode(item, fmt.Sprintf("%s[%d]", at, i))
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func decodePath(v any, at string) ([]string, error) {
	switch x := v.(type) {
	case string:
		if x != "" {
			return strings.Split(x, "/"), nil
		}
	case []any:
		path := make([]string, 0, len(x))
		for _, seg := range x {
			s, ok := seg.(string)
			if !ok || s == "" {
				return nil, &Error{Code: ErrCodeInvalid, Message: at + ": path segments must be non-empty strings"}
			}
			path = append(path, s)
		}
		if len(path) > 0 {
			return path, nil
		}
	}
	return nil, &Error{Code: ErrCodeInvalid, Message: at + ": expected a path"}
}

// asMap accepts the map types produced by yaml.v3 and encoding/json.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if k == nil {
				// unquoted null key
				out["null"] = val
				continue
			}
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func keys(m map[string]any) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return "[" + strings.Join(out, ", ") + "]"
}
