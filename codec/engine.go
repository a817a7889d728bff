package codec

import (
	"math"
	"strconv"

	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
	"github.com/wippyai/windowless/value"
)

// ToEngine converts a neutral value into the engine's native form. Integers
// that fit 32 bits become engine Int, wider ones BigInt. The conversion
// fails only when nesting exceeds engine.MaxDepth.
func ToEngine(v value.Value) (engine.Value, error) {
	return toEngine(v, nil, 0)
}

func toEngine(v value.Value, path []string, depth int) (engine.Value, error) {
	switch v.Kind() {
	case value.KindNull:
		return engine.Value{Type: engine.TypeNull}, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return engine.Value{Type: engine.TypeBool, Bool: b}, nil
	case value.KindInt:
		i, _ := v.AsInt()
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return engine.Value{Type: engine.TypeInt, Int: i}, nil
		}
		return engine.Value{Type: engine.TypeBigInt, Int: i}, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return engine.Value{Type: engine.TypeFloat, Float: f}, nil
	case value.KindString:
		s, _ := v.AsString()
		return engine.Value{Type: engine.TypeString, Str: s}, nil
	case value.KindBytes:
		b, _ := v.AsBytes()
		cp := make([]byte, len(b))
		copy(cp, b)
		return engine.Value{Type: engine.TypeBytes, Bytes: cp}, nil
	case value.KindArray:
		if depth >= engine.MaxDepth {
			return engine.Value{}, errors.DepthExceeded(errors.PhaseConvert, path, engine.MaxDepth)
		}
		src := v.Items()
		items := make([]engine.Value, len(src))
		for i, it := range src {
			ev, err := toEngine(it, appendPath(path, indexSegment(i)), depth+1)
			if err != nil {
				return engine.Value{}, err
			}
			items[i] = ev
		}
		return engine.Value{Type: engine.TypeArray, Items: items}, nil
	case value.KindMap:
		if depth >= engine.MaxDepth {
			return engine.Value{}, errors.DepthExceeded(errors.PhaseConvert, path, engine.MaxDepth)
		}
		src := v.Pairs()
		entries := make([]engine.Entry, len(src))
		for i, p := range src {
			seg := keySegment(p.Key)
			k, err := toEngine(p.Key, appendPath(path, "key("+seg+")"), depth+1)
			if err != nil {
				return engine.Value{}, err
			}
			ev, err := toEngine(p.Value, appendPath(path, seg), depth+1)
			if err != nil {
				return engine.Value{}, err
			}
			entries[i] = engine.Entry{Key: k, Val: ev}
		}
		return engine.Value{Type: engine.TypeMap, Entries: entries}, nil
	}
	return engine.Value{}, errors.Unsupported(errors.PhaseConvert, path, v.Kind().String())
}

// FromEngine converts an engine value into the neutral form. Engine-only
// types (dates, lengths, colors, script objects and so on) and undefined
// have no neutral counterpart and fail with a conversion error naming the
// offending path.
func FromEngine(v engine.Value) (value.Value, error) {
	return fromEngine(v, nil, 0)
}

func fromEngine(v engine.Value, path []string, depth int) (value.Value, error) {
	switch v.Type {
	case engine.TypeNull:
		return value.Null(), nil
	case engine.TypeBool:
		return value.Bool(v.Bool), nil
	case engine.TypeInt:
		if v.Int < math.MinInt32 || v.Int > math.MaxInt32 {
			return value.Value{}, errors.Overflow(errors.PhaseConvert, path, v.Int, "int32")
		}
		return value.Int(v.Int), nil
	case engine.TypeBigInt:
		return value.Int(v.Int), nil
	case engine.TypeFloat:
		return value.Float(v.Float), nil
	case engine.TypeString:
		return value.String(v.Str), nil
	case engine.TypeBytes:
		return value.Bytes(v.Bytes), nil
	case engine.TypeArray:
		if depth >= engine.MaxDepth {
			return value.Value{}, errors.DepthExceeded(errors.PhaseConvert, path, engine.MaxDepth)
		}
		items := make([]value.Value, len(v.Items))
		for i, it := range v.Items {
			nv, err := fromEngine(it, appendPath(path, indexSegment(i)), depth+1)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = nv
		}
		return value.Array(items...), nil
	case engine.TypeMap:
		if depth >= engine.MaxDepth {
			return value.Value{}, errors.DepthExceeded(errors.PhaseConvert, path, engine.MaxDepth)
		}
		pairs := make([]value.Pair, len(v.Entries))
		for i, e := range v.Entries {
			k, err := fromEngine(e.Key, appendPath(path, "key#"+strconv.Itoa(i)), depth+1)
			if err != nil {
				return value.Value{}, err
			}
			nv, err := fromEngine(e.Val, appendPath(path, keySegment(k)), depth+1)
			if err != nil {
				return value.Value{}, err
			}
			pairs[i] = value.KV(k, nv)
		}
		return value.Map(pairs...), nil
	}
	return value.Value{}, errors.Unsupported(errors.PhaseConvert, path, v.Type.String())
}

// WireToEngine decodes wire bytes straight into an engine value. Decode and
// conversion failures stay distinguishable through errors.IsDeserialize and
// errors.IsConversion.
func WireToEngine(data []byte) (engine.Value, error) {
	v, err := Unmarshal(data)
	if err != nil {
		return engine.Value{}, err
	}
	return ToEngine(v)
}

// EngineToWire encodes an engine value as wire bytes.
func EngineToWire(v engine.Value) ([]byte, error) {
	nv, err := FromEngine(v)
	if err != nil {
		return nil, err
	}
	return Marshal(nv)
}

// ArgsToWire encodes a script argument list as one CBOR array.
func ArgsToWire(args []engine.Value) ([]byte, error) {
	return EngineToWire(engine.Value{Type: engine.TypeArray, Items: args})
}

// WireToArgs decodes an argument list written by ArgsToWire. Anything other
// than a top-level array is a conversion error.
func WireToArgs(data []byte) ([]engine.Value, error) {
	v, err := WireToEngine(data)
	if err != nil {
		return nil, err
	}
	if v.Type != engine.TypeArray {
		return nil, errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
			Type(v.Type.String()).
			Detail("argument list must be an array").
			Build()
	}
	return v.Items, nil
}
