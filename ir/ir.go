// Package ir holds the intermediate representation produced by project
// analysis and consumed by code generation.
//
// All values are built in a single pass and are treated as read-only
// afterwards.
package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Kind tags the variant of a [ParameterType].
type Kind uint8

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindList
	KindTuple
	KindMap
	KindOptional
	KindNone
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	case KindList:
		return "List"
	case KindTuple:
		return "Tuple"
	case KindMap:
		return "Map"
	case KindOptional:
		return "Optional"
	case KindNone:
		return "None"
	case KindAny:
		return "Any"
	default:
		panic(fmt.Sprintf("invalid parameter type kind %d", uint8(k)))
	}
}

// ParameterType is the closed, recursive type grammar recovered from
// annotations.
//
// Which fields are set depends on Kind:
//   - KindList, KindOptional: Elem
//   - KindMap: Key, Value
//   - KindTuple: Items (possibly empty)
//
// Use the constructor functions instead of building values by hand.
type ParameterType struct {
	Kind  Kind
	Elem  *ParameterType
	Key   *ParameterType
	Value *ParameterType
	Items []ParameterType
}

func String() ParameterType  { return ParameterType{Kind: KindString} }
func Integer() ParameterType { return ParameterType{Kind: KindInteger} }
func Float() ParameterType   { return ParameterType{Kind: KindFloat} }
func Boolean() ParameterType { return ParameterType{Kind: KindBoolean} }
func None() ParameterType    { return ParameterType{Kind: KindNone} }
func Any() ParameterType     { return ParameterType{Kind: KindAny} }

func List(elem ParameterType) ParameterType {
	return ParameterType{Kind: KindList, Elem: &elem}
}

func Optional(elem ParameterType) ParameterType {
	return ParameterType{Kind: KindOptional, Elem: &elem}
}

func Map(key, value ParameterType) ParameterType {
	return ParameterType{Kind: KindMap, Key: &key, Value: &value}
}

func Tuple(items ...ParameterType) ParameterType {
	return ParameterType{Kind: KindTuple, Items: slices.Clone(items)}
}

// Equal reports structural equality.
func (t ParameterType) Equal(o ParameterType) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindString, KindInteger, KindFloat, KindBoolean, KindNone, KindAny:
		return true
	case KindList, KindOptional:
		return t.Elem.Equal(*o.Elem)
	case KindMap:
		return t.Key.Equal(*o.Key) && t.Value.Equal(*o.Value)
	case KindTuple:
		return slices.EqualFunc(t.Items, o.Items, ParameterType.Equal)
	default:
		panic(fmt.Sprintf("programmer error: unhandled kind %v", t.Kind))
	}
}

// Children returns the directly nested types in declaration order.
func (t ParameterType) Children() []ParameterType {
	switch t.Kind {
	case KindString, KindInteger, KindFloat, KindBoolean, KindNone, KindAny:
		return nil
	case KindList, KindOptional:
		return []ParameterType{*t.Elem}
	case KindMap:
		return []ParameterType{*t.Key, *t.Value}
	case KindTuple:
		return t.Items
	default:
		panic(fmt.Sprintf("programmer error: unhandled kind %v", t.Kind))
	}
}

// String returns the Python spelling of the type, e.g. "dict[str, int | None]".
func (t ParameterType) String() string {
	switch t.Kind {
	case KindString:
		return "str"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "bool"
	case KindNone:
		return "None"
	case KindAny:
		return "Any"
	case KindList:
		return "list[" + t.Elem.String() + "]"
	case KindOptional:
		return t.Elem.String() + " | None"
	case KindMap:
		return "dict[" + t.Key.String() + ", " + t.Value.String() + "]"
	case KindTuple:
		if len(t.Items) == 0 {
			return "tuple[()]"
		}
		items := make([]string, len(t.Items))
		for i, it := range t.Items {
			items[i] = it.String()
		}
		return "tuple[" + strings.Join(items, ", ") + "]"
	default:
		panic(fmt.Sprintf("programmer error: unhandled kind %v", t.Kind))
	}
}

// ParamKind describes how a parameter may be passed.
type ParamKind uint8

const (
	PositionalOrKeyword ParamKind = iota
	PositionalOnly
	KeywordOnly
)

type Parameter struct {
	Name string
	Type ParameterType
	Kind ParamKind
}

// Function is a typed signature extracted from a marked declaration.
type Function struct {
	Name   string
	Doc    string // empty if the function has no docstring
	Params []Parameter
	Return ParameterType
}

// ModuleFunction is a Python function callable from Go.
type ModuleFunction = Function

// HostFunction is a Go primitive callable from inside the interpreter.
type HostFunction = Function

// DefaultNamespace is used for host registration when no host class
// declares one.
const DefaultNamespace = "env"

type HostFunctions struct {
	Namespace string
	Functions []HostFunction
}

// Module is the extracted content of one source file.
type Module struct {
	Name      string // file stem
	Path      string // absolute source path
	Functions []ModuleFunction
	Host      *HostFunctions // nil if the file declares no host class
}

// Empty reports whether the module contributes nothing.
func (m *Module) Empty() bool {
	return len(m.Functions) == 0 && (m.Host == nil || len(m.Host.Functions) == 0)
}
