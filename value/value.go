package value

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindBytes:  "bytes",
	KindArray:  "array",
	KindMap:    "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is the neutral, self-describing representation of data crossing the
// engine/host boundary. The zero Value is null.
//
// Values are immutable once built: constructors copy byte slices and
// container contents, accessors return the stored slices which callers must
// not modify.
type Value struct {
	s     string
	bytes []byte
	items []Value
	pairs []Pair
	i     int64
	f     float64
	kind  Kind
	b     bool
}

// Pair is one map entry. Map keys may be any Value.
type Pair struct {
	Key   Value
	Value Value
}

// KV is shorthand for building a Pair.
func KV(key, val Value) Pair {
	return Pair{Key: key, Value: val}
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes returns a binary blob value. A nil slice yields a zero-length blob,
// not null.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bytes: cp}
}

func Array(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, items: cp}
}

func Map(pairs ...Pair) Value {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	return Value{kind: KindMap, pairs: cp}
}

// Kind returns the type tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsBytes() ([]byte, bool) { return v.bytes, v.kind == KindBytes }

// Items returns array elements, or nil for non-arrays.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Pairs returns map entries in insertion order, or nil for non-maps.
func (v Value) Pairs() []Pair {
	if v.kind != KindMap {
		return nil
	}
	return v.pairs
}

// Len returns the element count of arrays and maps, the byte length of
// strings and blobs, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindMap:
		return len(v.pairs)
	case KindString:
		return len(v.s)
	case KindBytes:
		return len(v.bytes)
	}
	return 0
}

// Get looks up key in a map value.
func (v Value) Get(key Value) (Value, bool) {
	for _, p := range v.Pairs() {
		if Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Equal reports whether a and b hold the same data. Map entry order is
// ignored. Floats compare by bit pattern, so NaN equals an identical NaN and
// 0.0 differs from -0.0. An Int never equals a Float.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return math.Float64bits(a.f) == math.Float64bits(b.f)
	case KindString:
		return a.s == b.s
	case KindBytes:
		return bytes.Equal(a.bytes, b.bytes)
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return equalPairs(a.pairs, b.pairs)
	}
	return false
}

func equalPairs(a, b []Pair) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, pa := range a {
		for j, pb := range b {
			if used[j] || !Equal(pa.Key, pb.Key) {
				continue
			}
			if !Equal(pa.Value, pb.Value) {
				return false
			}
			used[j] = true
			continue outer
		}
		return false
	}
	return true
}

// String renders v in a compact diagnostic form: ints without a decimal
// point, floats always with one, blobs as h'..'.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		b.WriteString(s)
	case KindString:
		b.WriteString(strconv.Quote(v.s))
	case KindBytes:
		fmt.Fprintf(b, "h'%x'", v.bytes)
	case KindArray:
		b.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			it.write(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			p.Key.write(b)
			b.WriteString(": ")
			p.Value.write(b)
		}
		b.WriteByte('}')
	}
}

// SortedPairs returns a copy of the map entries ordered by the string form
// of their keys, for stable display.
func (v Value) SortedPairs() []Pair {
	pairs := append([]Pair(nil), v.Pairs()...)
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Key.String() < pairs[j].Key.String()
	})
	return pairs
}
