// Package engine defines the boundary to the windowless rendering engine.
//
// The engine is an external collaborator: it receives wire messages, owns the
// document, and calls back into the host while it processes a message. This
// package describes that protocol in Go terms and contains no behaviour of
// its own.
//
// # Architecture
//
//	Engine          - host -> engine calls (messages, loading, script calls)
//	HostCallbacks   - engine -> host calls issued while the engine works
//	BehaviorHandler - engine -> host custom draw for a registered behavior
//	Value           - the engine's native value type
//	WireMessage     - one windowless message in engine form
//
// # Message Codes
//
//	Code            Payload
//	────────────────────────────────────────────────────
//	MsgCreate       Backend, Transparent
//	MsgDestroy      -
//	MsgSize         Width, Height
//	MsgPaint        Element, Foreground
//	MsgResolution   PPI
//	MsgHeartbeat    Milliseconds
//	MsgMouse        Mouse, Button, Modifiers, Pos
//	MsgKey          Key, KeyCode, Modifiers
//	MsgFocus        Enter
//	MsgRedraw       -
//
// Engine implementations live in subpackages: enginetest provides a scripted
// in-memory engine, wasmguest runs an engine compiled to WebAssembly.
package engine
