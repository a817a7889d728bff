package codec

import (
	"math"
	"strings"
	"testing"

	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
	"github.com/wippyai/windowless/value"
)

func TestEngineRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"null", value.Null()},
		{"bool", value.Bool(true)},
		{"int32", value.Int(math.MaxInt32)},
		{"bigint", value.Int(math.MaxInt32 + 1)},
		{"negative bigint", value.Int(math.MinInt64)},
		{"float", value.Float(-2.5)},
		{"string", value.String("x")},
		{"empty bytes", value.Bytes(nil)},
		{"array", value.Array(value.Int(10), value.Int(10))},
		{"map with array key", value.Map(
			value.KV(value.Array(value.String("k")), value.Bytes([]byte{1})),
		)},
		{"deep", nest(engine.MaxDepth)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ToEngine(tt.v)
			if err != nil {
				t.Fatalf("ToEngine: %v", err)
			}
			got, err := FromEngine(ev)
			if err != nil {
				t.Fatalf("FromEngine: %v", err)
			}
			if !value.Equal(got, tt.v) {
				t.Errorf("round trip = %s, want %s", got, tt.v)
			}
		})
	}
}

func TestToEngineIntWidth(t *testing.T) {
	tests := []struct {
		in   int64
		want engine.ValueType
	}{
		{0, engine.TypeInt},
		{math.MinInt32, engine.TypeInt},
		{math.MaxInt32, engine.TypeInt},
		{math.MaxInt32 + 1, engine.TypeBigInt},
		{math.MinInt32 - 1, engine.TypeBigInt},
	}
	for _, tt := range tests {
		ev, err := ToEngine(value.Int(tt.in))
		if err != nil {
			t.Fatalf("ToEngine(%d): %v", tt.in, err)
		}
		if ev.Type != tt.want || ev.Int != tt.in {
			t.Errorf("ToEngine(%d) = %v/%d, want %v", tt.in, ev.Type, ev.Int, tt.want)
		}
	}
}

func TestToEngineCopiesBytes(t *testing.T) {
	src := value.Bytes([]byte{1, 2, 3})
	ev, err := ToEngine(src)
	if err != nil {
		t.Fatal(err)
	}
	ev.Bytes[0] = 9
	if b, _ := src.AsBytes(); b[0] != 1 {
		t.Error("engine value aliases neutral bytes")
	}
}

func TestFromEngineUnsupported(t *testing.T) {
	tests := []struct {
		name string
		v    engine.Value
		path string
	}{
		{"undefined", engine.Undefined, ""},
		{"date", engine.Value{Type: engine.TypeDate, Int: 1700000000000}, ""},
		{"nested color", engine.Value{Type: engine.TypeArray, Items: []engine.Value{
			{Type: engine.TypeInt, Int: 1},
			{Type: engine.TypeColor, Int: 0xff0000ff},
		}}, "[1]"},
		{"map value function", engine.Value{Type: engine.TypeArray, Items: []engine.Value{
			{Type: engine.TypeMap, Entries: []engine.Entry{{
				Key: engine.Value{Type: engine.TypeString, Str: "items"},
				Val: engine.Value{Type: engine.TypeArray, Items: []engine.Value{
					{Type: engine.TypeNull}, {Type: engine.TypeNull}, {Type: engine.TypeFunction, Str: "cb"},
				}},
			}}},
		}}, "[0].items.[2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEngine(tt.v)
			if !errors.IsConversion(err) {
				t.Fatalf("FromEngine error = %v, want conversion error", err)
			}
			var e *errors.Error
			if !errors.As(err, &e) {
				t.Fatal("not a structured error")
			}
			if e.Kind != errors.KindUnsupported {
				t.Errorf("kind = %s", e.Kind)
			}
			if got := strings.Join(e.Path, "."); got != tt.path {
				t.Errorf("path = %q, want %q", got, tt.path)
			}
		})
	}
}

func TestFromEngineIntOutOfRange(t *testing.T) {
	_, err := FromEngine(engine.Value{Type: engine.TypeInt, Int: math.MaxInt32 + 1})
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseConvert, Kind: errors.KindOverflow}) {
		t.Errorf("err = %v", err)
	}
}

func TestToEngineDepth(t *testing.T) {
	_, err := ToEngine(nest(engine.MaxDepth + 1))
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseConvert, Kind: errors.KindDepthExceeded}) {
		t.Errorf("err = %v", err)
	}
}

func TestWireErrorsAreDistinct(t *testing.T) {
	_, err := WireToEngine([]byte{0x82, 0x01})
	if !errors.IsDeserialize(err) || errors.IsConversion(err) {
		t.Errorf("malformed bytes: %v", err)
	}

	_, err = EngineToWire(engine.Value{Type: engine.TypeAngle, Float: 1})
	if !errors.IsConversion(err) || errors.IsDeserialize(err) {
		t.Errorf("engine-only value: %v", err)
	}
}

func TestArgs(t *testing.T) {
	args := []engine.Value{
		{Type: engine.TypeInt, Int: 10},
		{Type: engine.TypeInt, Int: 10},
	}
	data, err := ArgsToWire(args)
	if err != nil {
		t.Fatalf("ArgsToWire: %v", err)
	}
	if string(data) != "\x82\x0a\x0a" {
		t.Errorf("ArgsToWire = %x", data)
	}

	got, err := WireToArgs(data)
	if err != nil {
		t.Fatalf("WireToArgs: %v", err)
	}
	if len(got) != 2 || got[0].Type != engine.TypeInt || got[1].Int != 10 {
		t.Errorf("WireToArgs = %+v", got)
	}

	empty, err := ArgsToWire(nil)
	if err != nil || string(empty) != "\x80" {
		t.Errorf("ArgsToWire(nil) = %x, %v", empty, err)
	}

	_, err = WireToArgs([]byte{0x01})
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseConvert, Kind: errors.KindTypeMismatch}) {
		t.Errorf("non-array args: %v", err)
	}
}
