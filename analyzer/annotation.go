package analyzer

import (
	"fmt"
	"strings"

	"github.com/py2gomod/py2gomod/ir"
	"github.com/py2gomod/py2gomod/pysyntax"
)

var (
	namePrefixes      = []string{"builtins.", "typing.", "types."}
	containerPrefixes = []string{"typing.", "collections.abc."}
)

func stripPrefixes(s string, prefixes []string) string {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			return rest
		}
	}
	return s
}

// ResolveAnnotation maps an annotation expression onto the closed
// parameter type grammar.
//
// Unknown identifiers and unknown generic bases resolve to Any. Shapes
// outside of the grammar, such as string forward references, are
// rejected with ErrUnsupportedAnnotation.
func ResolveAnnotation(x *pysyntax.Expr) (ir.ParameterType, error) {
	switch x.Kind {
	case pysyntax.ExprName, pysyntax.ExprAttribute:
		name, ok := x.DottedName()
		if !ok {
			return ir.ParameterType{}, fmt.Errorf("%w: %v", ErrUnsupportedAnnotation, x)
		}
		return resolveName(stripPrefixes(name, namePrefixes)), nil
	case pysyntax.ExprBinOp:
		if x.Op != "|" {
			return ir.ParameterType{}, fmt.Errorf("%w: operator %q in %v", ErrUnsupportedAnnotation, x.Op, x)
		}
		return resolveUnion(x)
	case pysyntax.ExprSubscript:
		return resolveSubscript(x)
	case pysyntax.ExprConstant:
		if x.IsNone() {
			return ir.None(), nil
		}
		return ir.ParameterType{}, fmt.Errorf("%w: %v", ErrUnsupportedAnnotation, x)
	default:
		return ir.ParameterType{}, fmt.Errorf("%w: %v", ErrUnsupportedAnnotation, x)
	}
}

func resolveName(name string) ir.ParameterType {
	switch name {
	case "int":
		return ir.Integer()
	case "float":
		return ir.Float()
	case "str":
		return ir.String()
	case "bool":
		return ir.Boolean()
	case "None", "NoneType":
		return ir.None()
	default:
		return ir.Any()
	}
}

func resolveUnion(x *pysyntax.Expr) (ir.ParameterType, error) {
	left, err := ResolveAnnotation(x.X)
	if err != nil {
		return ir.ParameterType{}, err
	}
	right, err := ResolveAnnotation(x.Y)
	if err != nil {
		return ir.ParameterType{}, err
	}
	leftNone, rightNone := left.Kind == ir.KindNone, right.Kind == ir.KindNone
	switch {
	case rightNone && !leftNone:
		return ir.Optional(left), nil
	case leftNone && !rightNone:
		return ir.Optional(right), nil
	default:
		return ir.ParameterType{}, fmt.Errorf("%w: %v", ErrMalformedUnion, x)
	}
}

func resolveSubscript(x *pysyntax.Expr) (ir.ParameterType, error) {
	base, ok := x.X.DottedName()
	if !ok {
		return ir.ParameterType{}, fmt.Errorf("%w: subscript base %v", ErrUnsupportedAnnotation, x.X)
	}
	base = stripPrefixes(base, containerPrefixes)

	args := []*pysyntax.Expr{x.Y}
	if x.Y.Kind == pysyntax.ExprTuple {
		args = x.Y.Elts
	}
	resolveArgs := func(want int) ([]ir.ParameterType, error) {
		if want >= 0 && len(args) != want {
			return nil, fmt.Errorf("%w: %v takes %v, got %v", ErrWrongArity, base, want, len(args))
		}
		res := make([]ir.ParameterType, len(args))
		for i, a := range args {
			t, err := ResolveAnnotation(a)
			if err != nil {
				return nil, err
			}
			res[i] = t
		}
		return res, nil
	}

	switch base {
	case "list", "List":
		ts, err := resolveArgs(1)
		if err != nil {
			return ir.ParameterType{}, err
		}
		return ir.List(ts[0]), nil
	case "dict", "Dict", "Mapping":
		ts, err := resolveArgs(2)
		if err != nil {
			return ir.ParameterType{}, err
		}
		return ir.Map(ts[0], ts[1]), nil
	case "tuple", "Tuple":
		ts, err := resolveArgs(-1)
		if err != nil {
			return ir.ParameterType{}, err
		}
		return ir.Tuple(ts...), nil
	case "Optional":
		ts, err := resolveArgs(1)
		if err != nil {
			return ir.ParameterType{}, err
		}
		return ir.Optional(ts[0]), nil
	default:
		return ir.Any(), nil
	}
}
