// Package value defines the neutral data representation used for everything
// that crosses the engine/host boundary.
//
// A Value is one of:
//
//	null, bool, int (int64), float (float64), string, bytes,
//	array of Value, map of Value -> Value
//
// Ints and floats are distinct kinds: 10 and 10.0 are different values.
// Map keys may be any Value, including arrays and blobs, and keep their exact
// representation. Key order carries no meaning for Equal.
//
// Values are built with constructors and compared with Equal:
//
//	v := value.Map(
//	    value.KV(value.String("pos"), value.Array(value.Int(10), value.Int(10))),
//	    value.KV(value.Bytes([]byte{0, 1}), value.Null()),
//	)
//	value.Equal(v, other)
//
// Package codec converts Values to and from CBOR and the engine's native
// value type.
package value
