package codec

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/wippyai/windowless/errors"
	"github.com/wippyai/windowless/value"
)

func nest(depth int) value.Value {
	v := value.Int(1)
	for i := 0; i < depth; i++ {
		v = value.Array(v)
	}
	return v
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"null", value.Null()},
		{"true", value.Bool(true)},
		{"false", value.Bool(false)},
		{"zero", value.Int(0)},
		{"small", value.Int(23)},
		{"negative", value.Int(-500)},
		{"max int64", value.Int(math.MaxInt64)},
		{"min int64", value.Int(math.MinInt64)},
		{"float", value.Float(3.25)},
		{"integral float", value.Float(10)},
		{"negative zero", value.Float(math.Copysign(0, -1))},
		{"inf", value.Float(math.Inf(-1))},
		{"string", value.String("héllo")},
		{"empty string", value.String("")},
		{"bytes", value.Bytes([]byte{0, 1, 0xfe, 0xff})},
		{"empty bytes", value.Bytes(nil)},
		{"empty array", value.Array()},
		{"empty map", value.Map()},
		{"int pair", value.Array(value.Int(10), value.Int(10))},
		{"mixed array", value.Array(value.Int(1), value.Float(1), value.String("1"), value.Bytes([]byte("1")))},
		{"string keys", value.Map(
			value.KV(value.String("b"), value.Int(2)),
			value.KV(value.String("a"), value.Int(1)),
		)},
		{"array key", value.Map(
			value.KV(value.Array(value.Int(1), value.Int(2)), value.String("pair")),
			value.KV(value.Int(7), value.Null()),
		)},
		{"bytes key", value.Map(value.KV(value.Bytes([]byte{9}), value.Bool(true)))},
		{"nested", value.Map(
			value.KV(value.String("items"), value.Array(
				value.Map(value.KV(value.String("id"), value.Int(1))),
				value.Map(),
			)),
		)},
		{"max depth", nest(MaxDepth)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal(%s): %v", tt.v, err)
			}
			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal(%x): %v", data, err)
			}
			if !value.Equal(got, tt.v) {
				t.Errorf("round trip = %s, want %s", got, tt.v)
			}
		})
	}
}

func TestMarshalDeterministic(t *testing.T) {
	a := value.Map(
		value.KV(value.String("z"), value.Int(1)),
		value.KV(value.Int(5), value.Int(2)),
		value.KV(value.String("a"), value.Int(3)),
	)
	b := value.Map(
		value.KV(value.String("a"), value.Int(3)),
		value.KV(value.String("z"), value.Int(1)),
		value.KV(value.Int(5), value.Int(2)),
	)
	da, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	db, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(da, db) {
		t.Errorf("entry order changed encoding: %x != %x", da, db)
	}
}

func TestMarshalKnownBytes(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want []byte
	}{
		{"int pair", value.Array(value.Int(10), value.Int(10)), []byte{0x82, 0x0a, 0x0a}},
		{"empty bytes", value.Bytes(nil), []byte{0x40}},
		{"empty map", value.Map(), []byte{0xa0}},
		{"minus one", value.Int(-1), []byte{0x20}},
		{"uint16", value.Int(1000), []byte{0x19, 0x03, 0xe8}},
		{"null", value.Null(), []byte{0xf6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Marshal = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestUnmarshalAcceptsNonPreferred(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want value.Value
	}{
		{"wide int", []byte{0x1b, 0, 0, 0, 0, 0, 0, 0, 10}, value.Int(10)},
		{"indefinite array", []byte{0x9f, 0x01, 0x02, 0xff}, value.Array(value.Int(1), value.Int(2))},
		{"indefinite map", []byte{0xbf, 0x61, 'a', 0x01, 0xff}, value.Map(value.KV(value.String("a"), value.Int(1)))},
		{"chunked bytes", []byte{0x5f, 0x41, 0x01, 0x41, 0x02, 0xff}, value.Bytes([]byte{1, 2})},
		{"half float", []byte{0xf9, 0x49, 0x00}, value.Float(10)},
		{"double float", []byte{0xfb, 0x40, 0x24, 0, 0, 0, 0, 0, 0}, value.Float(10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal(tt.data)
			if err != nil {
				t.Fatalf("Unmarshal(%x): %v", tt.data, err)
			}
			if !value.Equal(got, tt.want) {
				t.Errorf("Unmarshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind errors.Kind
	}{
		{"empty", nil, errors.KindInvalidData},
		{"truncated", []byte{0x82, 0x01}, errors.KindInvalidData},
		{"trailing", []byte{0x01, 0x02}, errors.KindInvalidData},
		{"uint overflow", []byte{0x1b, 0x80, 0, 0, 0, 0, 0, 0, 0}, errors.KindOverflow},
		{"negint overflow", []byte{0x3b, 0x80, 0, 0, 0, 0, 0, 0, 0}, errors.KindOverflow},
		{"tag", []byte{0xc1, 0x01}, errors.KindUnsupported},
		{"undefined", []byte{0xf7}, errors.KindUnsupported},
		{"simple", []byte{0xe0}, errors.KindUnsupported},
		{"invalid utf8", []byte{0x62, 0xff, 0xfe}, errors.KindInvalidData},
		{"duplicate key", []byte{0xa2, 0x01, 0x01, 0x01, 0x02}, errors.KindInvalidData},
		{"duplicate key widths", []byte{0xa2, 0x01, 0x01, 0x18, 0x01, 0x02}, errors.KindInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			if err == nil {
				t.Fatalf("Unmarshal(%x) succeeded", tt.data)
			}
			if !errors.IsDeserialize(err) {
				t.Errorf("error %v is not a deserialize error", err)
			}
			if !errors.Is(err, &errors.Error{Kind: tt.kind}) {
				t.Errorf("error %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestDepthLimit(t *testing.T) {
	_, err := Marshal(nest(MaxDepth + 1))
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseSerialize, Kind: errors.KindDepthExceeded}) {
		t.Errorf("Marshal deep value: %v", err)
	}

	data := bytes.Repeat([]byte{0x81}, MaxDepth+1)
	data = append(data, 0x01)
	_, err = Unmarshal(data)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseDeserialize, Kind: errors.KindDepthExceeded}) {
		t.Errorf("Unmarshal deep value: %v", err)
	}
}

func TestMarshalDuplicateKeys(t *testing.T) {
	v := value.Map(
		value.KV(value.String("a"), value.Int(1)),
		value.KV(value.String("a"), value.Int(2)),
	)
	_, err := Marshal(v)
	if err == nil || !errors.Is(err, &errors.Error{Phase: errors.PhaseSerialize, Kind: errors.KindInvalidData}) {
		t.Errorf("Marshal duplicate keys: %v", err)
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(value.Array(value.Int(10), value.Float(10), value.Bytes([]byte{0xde, 0xad})))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.HasPrefix(got, "[10, 10.0") || !strings.Contains(got, "h'dead'") {
		t.Errorf("Diagnose = %q", got)
	}

	first, rest, err := DiagnoseFirst(append([]byte{0x01}, 0x02))
	if err != nil {
		t.Fatalf("DiagnoseFirst: %v", err)
	}
	if first != "1" || !bytes.Equal(rest, []byte{0x02}) {
		t.Errorf("DiagnoseFirst = %q, %x", first, rest)
	}

	if _, err := Diagnose([]byte{0x82}); !errors.IsDeserialize(err) {
		t.Errorf("Diagnose truncated: %v", err)
	}
}
