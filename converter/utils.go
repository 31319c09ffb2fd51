package converter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/py2gomod/py2gomod/ir"
)

// uniqueName returns a snake_case name identifying t. Tuples carry
// their arity so that nested names cannot collide.
func uniqueName(t ir.ParameterType) string {
	switch t.Kind {
	case ir.KindString:
		return "str"
	case ir.KindInteger:
		return "int"
	case ir.KindFloat:
		return "float"
	case ir.KindBoolean:
		return "bool"
	case ir.KindNone:
		return "none"
	case ir.KindAny:
		return "any"
	case ir.KindList:
		return "list_" + uniqueName(*t.Elem)
	case ir.KindOptional:
		return "opt_" + uniqueName(*t.Elem)
	case ir.KindMap:
		return "dict_" + uniqueName(*t.Key) + "_" + uniqueName(*t.Value)
	case ir.KindTuple:
		parts := []string{"tuple" + strconv.Itoa(len(t.Items))}
		for _, it := range t.Items {
			parts = append(parts, uniqueName(it))
		}
		return strings.Join(parts, "_")
	default:
		panic(fmt.Sprintf("programmer error: unhandled kind %v", t.Kind))
	}
}

// CodecName returns the name of the codec variable for t.
func CodecName(t ir.ParameterType) string {
	return "codec_" + uniqueName(t)
}

// TupleTypeName returns the name of the struct generated for a
// non-empty tuple type, e.g. "Tuple2StrInt" for tuple[str, int].
func TupleTypeName(t ir.ParameterType) string {
	return strcase.ToCamel(uniqueName(t))
}

// GoType returns the Go type expression used for t in generated code.
func GoType(t ir.ParameterType) string {
	switch t.Kind {
	case ir.KindString:
		return "string"
	case ir.KindInteger:
		return "int64"
	case ir.KindFloat:
		return "float64"
	case ir.KindBoolean:
		return "bool"
	case ir.KindNone:
		return "struct{}"
	case ir.KindAny:
		return "any"
	case ir.KindList:
		return "[]" + GoType(*t.Elem)
	case ir.KindOptional:
		return "*" + GoType(*t.Elem)
	case ir.KindMap:
		return "map[" + GoType(*t.Key) + "]" + GoType(*t.Value)
	case ir.KindTuple:
		if len(t.Items) == 0 {
			return "struct{}"
		}
		return TupleTypeName(t)
	default:
		panic(fmt.Sprintf("programmer error: unhandled kind %v", t.Kind))
	}
}

// TupleTypes returns the names of all struct types declared for t and
// its nested types.
func TupleTypes(t ir.ParameterType) []string {
	var res []string
	if t.Kind == ir.KindTuple && len(t.Items) > 0 {
		res = append(res, TupleTypeName(t))
	}
	for _, c := range t.Children() {
		res = append(res, TupleTypes(c)...)
	}
	return res
}
