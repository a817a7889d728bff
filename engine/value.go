package engine

import "strconv"

// MaxDepth is the deepest container nesting the engine accepts.
const MaxDepth = 64

// ValueType is the engine's native value tag.
type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBool
	TypeInt    // 32-bit integer, stored in Value.Int
	TypeBigInt // 64-bit integer
	TypeFloat
	TypeString
	TypeBytes
	TypeArray
	TypeMap
	TypeDate     // milliseconds since epoch, Value.Int
	TypeCurrency // fixed point, Value.Int
	TypeLength   // Value.Float with Value.Str unit
	TypeColor    // packed RGBA, Value.Int
	TypeAngle    // radians, Value.Float
	TypeDuration // seconds, Value.Float
	TypeFunction // script function, Value.Str name
	TypeObject   // script object reference
	TypeResource // native resource reference
	TypeAsset    // native asset reference
)

var typeNames = [...]string{
	TypeUndefined: "undefined",
	TypeNull:      "null",
	TypeBool:      "bool",
	TypeInt:       "int",
	TypeBigInt:    "bigint",
	TypeFloat:     "float",
	TypeString:    "string",
	TypeBytes:     "bytes",
	TypeArray:     "array",
	TypeMap:       "map",
	TypeDate:      "date",
	TypeCurrency:  "currency",
	TypeLength:    "length",
	TypeColor:     "color",
	TypeAngle:     "angle",
	TypeDuration:  "duration",
	TypeFunction:  "function",
	TypeObject:    "object",
	TypeResource:  "resource",
	TypeAsset:     "asset",
}

func (t ValueType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// Value mirrors the engine's native value layout. Which payload field is
// meaningful depends on Type.
type Value struct {
	Str     string
	Bytes   []byte
	Items   []Value
	Entries []Entry
	Int     int64
	Float   float64
	Type    ValueType
	Bool    bool
}

// Entry is one key/value slot of an engine map.
type Entry struct {
	Key Value
	Val Value
}

// Undefined is the engine's "no value".
var Undefined = Value{Type: TypeUndefined}
