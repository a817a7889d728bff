// Package codec moves values across the engine boundary.
//
// Three representations are involved:
//
//	wire bytes (CBOR)  <->  value.Value  <->  engine.Value
//
// Marshal and Unmarshal cover the first edge, ToEngine and FromEngine the
// second. WireToEngine, EngineToWire, ArgsToWire and WireToArgs compose
// both for the callback bridge.
//
// # Wire format
//
// Values are encoded as RFC 8949 CBOR. Scalars use Core Deterministic
// Encoding; containers are definite-length with map entries sorted by
// encoded key, so a value always encodes to the same bytes. Decoding also
// accepts indefinite-length containers and non-preferred argument widths.
// Map keys may be any value, including arrays and byte strings. Floats keep
// their float type on the wire even when integral, so 10.0 never comes back
// as the integer 10.
//
// # Errors
//
// Malformed or unsupported wire data fails in errors.PhaseDeserialize,
// encoding failures in errors.PhaseSerialize and representation gaps
// between neutral and engine values in errors.PhaseConvert:
//
//	v, err := codec.WireToEngine(data)
//	switch {
//	case errors.IsDeserialize(err):
//		// bad bytes
//	case errors.IsConversion(err):
//		// valid bytes, no engine representation
//	}
package codec
