package bridge

import (
	"slices"
)

// Codec converts between a Go type and [Value]. Encode failures are
// serialization errors, Decode failures deserialization errors.
type Codec[T any] struct {
	Encode func(T) (Value, error)
	Decode func(Value) (T, error)
}

func mismatch(want string, got Value) *Error {
	return Errorf(DeserializationError, "expected %v, got %v", want, got.Kind())
}

var StrCodec = Codec[string]{
	Encode: func(s string) (Value, error) { return Str(s), nil },
	Decode: func(v Value) (string, error) {
		if v.Kind() != KindStr {
			return "", mismatch("str", v)
		}
		return v.AsStr(), nil
	},
}

var IntCodec = Codec[int64]{
	Encode: func(i int64) (Value, error) { return Int(i), nil },
	Decode: func(v Value) (int64, error) {
		if v.Kind() != KindInt {
			return 0, mismatch("int", v)
		}
		return v.AsInt(), nil
	},
}

// FloatCodec also accepts ints, mirroring Python's numeric tower.
var FloatCodec = Codec[float64]{
	Encode: func(f float64) (Value, error) { return Float(f), nil },
	Decode: func(v Value) (float64, error) {
		switch v.Kind() {
		case KindFloat:
			return v.AsFloat(), nil
		case KindInt:
			return float64(v.AsInt()), nil
		default:
			return 0, mismatch("float", v)
		}
	},
}

var BoolCodec = Codec[bool]{
	Encode: func(b bool) (Value, error) { return Bool(b), nil },
	Decode: func(v Value) (bool, error) {
		if v.Kind() != KindBool {
			return false, mismatch("bool", v)
		}
		return v.AsBool(), nil
	},
}

// UnitCodec maps None to the empty struct.
var UnitCodec = Codec[struct{}]{
	Encode: func(struct{}) (Value, error) { return None(), nil },
	Decode: func(v Value) (struct{}, error) {
		if !v.IsNone() {
			return struct{}{}, mismatch("None", v)
		}
		return struct{}{}, nil
	},
}

// ValueCodec passes values through unchanged.
var ValueCodec = Codec[Value]{
	Encode: func(v Value) (Value, error) { return v, nil },
	Decode: func(v Value) (Value, error) { return v, nil },
}

// ListCodec encodes slices as lists. Decoding accepts lists and tuples.
func ListCodec[T any](elem Codec[T]) Codec[[]T] {
	return Codec[[]T]{
		Encode: func(s []T) (Value, error) {
			items := make([]Value, len(s))
			for i, x := range s {
				v, err := elem.Encode(x)
				if err != nil {
					return Value{}, err
				}
				items[i] = v
			}
			return List(items...), nil
		},
		Decode: func(v Value) ([]T, error) {
			if v.Kind() != KindList && v.Kind() != KindTuple {
				return nil, mismatch("list", v)
			}
			res := make([]T, len(v.Items()))
			for i, it := range v.Items() {
				x, err := elem.Decode(it)
				if err != nil {
					return nil, err
				}
				res[i] = x
			}
			return res, nil
		},
	}
}

// MapCodec encodes maps with entries sorted by key. When decoding, a
// later entry overwrites an earlier one with an equal key.
func MapCodec[K comparable, V any](key Codec[K], val Codec[V]) Codec[map[K]V] {
	return Codec[map[K]V]{
		Encode: func(m map[K]V) (Value, error) {
			entries := make([]Entry, 0, len(m))
			for k, x := range m {
				kv, err := key.Encode(k)
				if err != nil {
					return Value{}, err
				}
				vv, err := val.Encode(x)
				if err != nil {
					return Value{}, err
				}
				entries = append(entries, Entry{Key: kv, Value: vv})
			}
			slices.SortFunc(entries, func(a, b Entry) int {
				return Compare(a.Key, b.Key)
			})
			return Map(entries...), nil
		},
		Decode: func(v Value) (map[K]V, error) {
			if v.Kind() != KindMap {
				return nil, mismatch("dict", v)
			}
			res := make(map[K]V, len(v.Entries()))
			for _, e := range v.Entries() {
				k, err := key.Decode(e.Key)
				if err != nil {
					return nil, err
				}
				x, err := val.Decode(e.Value)
				if err != nil {
					return nil, err
				}
				res[k] = x
			}
			return res, nil
		},
	}
}

// OptionalCodec maps nil to None.
func OptionalCodec[T any](elem Codec[T]) Codec[*T] {
	return Codec[*T]{
		Encode: func(p *T) (Value, error) {
			if p == nil {
				return None(), nil
			}
			return elem.Encode(*p)
		},
		Decode: func(v Value) (*T, error) {
			if v.IsNone() {
				return nil, nil
			}
			x, err := elem.Decode(v)
			if err != nil {
				return nil, err
			}
			return &x, nil
		},
	}
}

// TupleCodec builds a codec for a fixed-size tuple from functions
// converting a T to and from its n elements. Decoding accepts lists of
// the right length too.
func TupleCodec[T any](n int, encode func(T) ([]Value, error), decode func([]Value) (T, error)) Codec[T] {
	return Codec[T]{
		Encode: func(x T) (Value, error) {
			items, err := encode(x)
			if err != nil {
				return Value{}, err
			}
			if len(items) != n {
				return Value{}, Errorf(SerializationError, "expected %d tuple items, got %d", n, len(items))
			}
			return Tuple(items...), nil
		},
		Decode: func(v Value) (T, error) {
			var zero T
			if v.Kind() != KindTuple && v.Kind() != KindList {
				return zero, mismatch("tuple", v)
			}
			if len(v.Items()) != n {
				return zero, Errorf(DeserializationError, "expected tuple of length %d, got length %d", n, len(v.Items()))
			}
			return decode(v.Items())
		},
	}
}
