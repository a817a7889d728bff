package value

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// FromGo converts common Go values into a Value.
//
//	nil                       -> null
//	bool                      -> bool
//	int*, uint* (<= MaxInt64) -> int
//	float32, float64          -> float
//	string                    -> string
//	[]byte                    -> bytes
//	[]any, other slices       -> array
//	map[K]V                   -> map (entries sorted by key for determinism)
//	Value                     -> itself
//
// Unsigned integers above math.MaxInt64 and unsupported types are errors;
// nothing is truncated.
func FromGo(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint:
		return fromUint(uint64(t))
	case uint64:
		return fromUint(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []byte:
		return Bytes(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			v, err := FromGo(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Value{kind: KindArray, items: items}, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			v, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Value{kind: KindArray, items: items}, nil
	case reflect.Map:
		pairs := make([]Pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := FromGo(iter.Key().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("map key: %w", err)
			}
			v, err := FromGo(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("map value %s: %w", k, err)
			}
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
		sort.Slice(pairs, func(i, j int) bool {
			return pairs[i].Key.String() < pairs[j].Key.String()
		})
		return Value{kind: KindMap, pairs: pairs}, nil
	}

	return Value{}, fmt.Errorf("unsupported Go type %T", x)
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("unsigned value %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// Interface converts v back into plain Go values: maps whose keys are all
// strings become map[string]any, other maps become map[any]any when every key
// is hashable and []Pair otherwise.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return v.bytes
	case KindArray:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case KindMap:
		return mapInterface(v.pairs)
	}
	return nil
}

func mapInterface(pairs []Pair) any {
	allStrings := true
	hashable := true
	for _, p := range pairs {
		switch p.Key.kind {
		case KindString:
		case KindBytes, KindArray, KindMap:
			allStrings = false
			hashable = false
		default:
			allStrings = false
		}
	}

	if allStrings {
		out := make(map[string]any, len(pairs))
		for _, p := range pairs {
			out[p.Key.s] = p.Value.Interface()
		}
		return out
	}
	if hashable {
		out := make(map[any]any, len(pairs))
		for _, p := range pairs {
			out[p.Key.Interface()] = p.Value.Interface()
		}
		return out
	}
	return append([]Pair(nil), pairs...)
}
