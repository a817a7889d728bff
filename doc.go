// Package windowless embeds a windowless (offscreen) rendering engine in a Go
// host and bridges its message, paint and scripting surface.
//
// The engine itself is an external collaborator reached only through the
// [engine.Engine] interface. This module provides the bridge around it:
// translating host events into engine wire messages, and engine callbacks
// (resource loads, script-to-native calls, custom draw) back into host
// handlers.
//
// # Architecture Overview
//
//	windowless/          Root package with the Handle and RequestID identifiers
//	├── value/           Neutral recursive value representation
//	├── codec/           CBOR wire ⇄ neutral ⇄ engine-native value conversion
//	├── message/         Host messages and their pure translation to wire form
//	├── engine/          Engine interface, engine values, wire messages
//	│   ├── enginetest/  Scripted in-memory engine for tests
//	│   └── wasmguest/   Engine implementation for WebAssembly-compiled engines
//	├── bridge/          Result futures, handler registry, deferred requests
//	├── runtime/         Process-wide engine initialization
//	├── session/         Window session lifecycle and public operations
//	└── errors/          Structured error types
//
// # Quick Start
//
//	if err := runtime.Initialize(eng, runtime.DefaultOptions()); err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := session.Create(eng, hwnd, message.BackendSkiaOpenGL, false,
//	    session.WithInitialSize(800, 600))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	s.OnNativeInvocation(bridge.NativeInvocationFunc(
//	    func(name string, args []byte, ret *bridge.Future) (bool, error) {
//	        return true, ret.CompleteValue(value.String("pong"))
//	    }))
//
//	s.LoadHTML([]byte(`<html>...</html>`), "app://index.html")
//	s.Dispatch(message.MouseDown(10, 10))
//
// # Callback Resolution
//
// Engine callbacks are synchronous: the engine waits for an answer before it
// continues. Native invocations and custom draw are resolved before the
// handler returns. Resource loads may instead answer OutcomeHandleLater and
// deliver bytes afterwards through Session.Complete, keyed by request id.
//
// # Thread Safety
//
// A Session is bound to one logical thread. Dispatch, loading and calls must
// be serialized by the caller. Handler registration and Complete may be
// called from any goroutine.
package windowless
