// Package bridge is the runtime support library of generated modules.
//
// Values cross the boundary between Go and the embedded interpreter in
// an intermediate form, [Value]. Typed [Codec] values convert Go data to
// and from it; the generated code converts it to and from interpreter
// objects. The package only depends on the standard library, as its
// sources are copied into every generated module.
package bridge

import (
	"cmp"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant of a [Value].
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindList
	KindTuple
	KindMap
)

var kindNames = [...]string{
	KindNone:  "None",
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindStr:   "str",
	KindList:  "list",
	KindTuple: "tuple",
	KindMap:   "dict",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Entry is a key/value pair of a map value.
type Entry struct {
	Key   Value
	Value Value
}

// Value is an interpreter-neutral value. The zero Value is None.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	s       string
	items   []Value
	entries []Entry
}

func None() Value               { return Value{} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Int(i int64) Value         { return Value{kind: KindInt, i: i} }
func Float(f float64) Value     { return Value{kind: KindFloat, f: f} }
func Str(s string) Value        { return Value{kind: KindStr, s: s} }
func List(items ...Value) Value { return Value{kind: KindList, items: items} }

func Tuple(items ...Value) Value {
	return Value{kind: KindTuple, items: items}
}

// Map returns a map value with entries in the given order.
func Map(entries ...Entry) Value {
	return Value{kind: KindMap, entries: entries}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }

// AsBool, AsInt, AsFloat and AsStr return the payload of the
// corresponding kind, or the zero value for any other kind.
func (v Value) AsBool() bool     { return v.b }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsStr() string    { return v.s }

// Items returns the elements of a list or tuple.
func (v Value) Items() []Value { return v.items }

// Entries returns the entries of a map.
func (v Value) Entries() []Entry { return v.entries }

// Equal reports deep equality. Map entries are compared in order. Ints
// and floats never compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || math.IsNaN(v.f) && math.IsNaN(o.f)
	case KindStr:
		return v.s == o.s
	case KindList, KindTuple:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for i := range v.entries {
			if !v.entries[i].Key.Equal(o.entries[i].Key) || !v.entries[i].Value.Equal(o.entries[i].Value) {
				return false
			}
		}
		return true
	default:
		panic("bridge: invalid value kind " + v.kind.String())
	}
}

// Compare orders values, first by kind, then by payload. It is used to
// sort map keys into a deterministic order.
func Compare(a, b Value) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	switch a.kind {
	case KindNone:
		return 0
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindInt:
		return cmp.Compare(a.i, b.i)
	case KindFloat:
		return cmp.Compare(a.f, b.f)
	case KindStr:
		return strings.Compare(a.s, b.s)
	case KindList, KindTuple:
		for i := 0; i < len(a.items) && i < len(b.items); i++ {
			if c := Compare(a.items[i], b.items[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.items), len(b.items))
	case KindMap:
		for i := 0; i < len(a.entries) && i < len(b.entries); i++ {
			if c := Compare(a.entries[i].Key, b.entries[i].Key); c != 0 {
				return c
			}
			if c := Compare(a.entries[i].Value, b.entries[i].Value); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.entries), len(b.entries))
	default:
		panic("bridge: invalid value kind " + a.kind.String())
	}
}

// String renders v in Python syntax.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindNone:
		b.WriteString("None")
	case KindBool:
		if v.b {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		switch {
		case math.IsInf(v.f, 1):
			b.WriteString("inf")
		case math.IsInf(v.f, -1):
			b.WriteString("-inf")
		case math.IsNaN(v.f):
			b.WriteString("nan")
		default:
			s := strconv.FormatFloat(v.f, 'g', -1, 64)
			if !strings.ContainsAny(s, ".e") {
				s += ".0"
			}
			b.WriteString(s)
		}
	case KindStr:
		b.WriteString(strconv.Quote(v.s))
	case KindList, KindTuple:
		open, close := "[", "]"
		if v.kind == KindTuple {
			open, close = "(", ")"
		}
		b.WriteString(open)
		for i, it := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			it.write(b)
		}
		if v.kind == KindTuple && len(v.items) == 1 {
			b.WriteString(",")
		}
		b.WriteString(close)
	case KindMap:
		b.WriteString("{")
		for i, e := range v.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			e.Key.write(b)
			b.WriteString(": ")
			e.Value.write(b)
		}
		b.WriteString("}")
	default:
		panic("bridge: invalid value kind " + v.kind.String())
	}
}
