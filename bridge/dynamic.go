package bridge

import (
	"math"
	"reflect"
	"slices"
)

// DynamicCodec converts untyped Go data. Decoding produces nil, bool,
// int64, float64, string, []any (for lists and tuples) and either
// map[string]any, when all keys are strings, or map[any]any.
var DynamicCodec = Codec[any]{
	Encode: encodeDynamic,
	Decode: decodeDynamic,
}

func encodeDynamic(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return None(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return Str(x), nil
	case int64:
		return Int(x), nil
	case float64:
		return Float(x), nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return Str(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, Errorf(SerializationError, "integer %d overflows int64", u)
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return None(), nil
		}
		return encodeDynamic(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List(), nil
		}
		items := make([]Value, rv.Len())
		for i := range items {
			v, err := encodeDynamic(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case reflect.Map:
		entries := make([]Entry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := encodeDynamic(iter.Key().Interface())
			if err != nil {
				return Value{}, err
			}
			v, err := encodeDynamic(iter.Value().Interface())
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: k, Value: v})
		}
		slices.SortFunc(entries, func(a, b Entry) int {
			return Compare(a.Key, b.Key)
		})
		return Map(entries...), nil
	default:
		return Value{}, Errorf(SerializationError, "unsupported type %T", x)
	}
}

func decodeDynamic(v Value) (any, error) {
	switch v.Kind() {
	case KindNone:
		return nil, nil
	case KindBool:
		return v.AsBool(), nil
	case KindInt:
		return v.AsInt(), nil
	case KindFloat:
		return v.AsFloat(), nil
	case KindStr:
		return v.AsStr(), nil
	case KindList, KindTuple:
		res := make([]any, len(v.Items()))
		for i, it := range v.Items() {
			x, err := decodeDynamic(it)
			if err != nil {
				return nil, err
			}
			res[i] = x
		}
		return res, nil
	case KindMap:
		allStr := true
		for _, e := range v.Entries() {
			if e.Key.Kind() != KindStr {
				allStr = false
				break
			}
		}
		if allStr {
			res := make(map[string]any, len(v.Entries()))
			for _, e := range v.Entries() {
				x, err := decodeDynamic(e.Value)
				if err != nil {
					return nil, err
				}
				res[e.Key.AsStr()] = x
			}
			return res, nil
		}
		res := make(map[any]any, len(v.Entries()))
		for _, e := range v.Entries() {
			switch e.Key.Kind() {
			case KindList, KindTuple, KindMap:
				return nil, Errorf(DeserializationError, "unhashable dict key of type %v", e.Key.Kind())
			}
			k, _ := decodeDynamic(e.Key)
			x, err := decodeDynamic(e.Value)
			if err != nil {
				return nil, err
			}
			res[k] = x
		}
		return res, nil
	default:
		return nil, Errorf(DeserializationError, "invalid value kind %v", v.Kind())
	}
}
