// Package runtime holds the process-wide engine state.
//
// A windowless engine is configured once per process, before its first
// window exists. Initialize applies Options to the engine and records that
// this happened; session.Create refuses to run until it has:
//
//	eng := wasmguest.New(...)
//	if err := runtime.Initialize(eng, runtime.DefaultOptions()); err != nil {
//		log.Fatal(err)
//	}
//	s, err := session.Create(eng, hwnd, message.BackendAuto, false)
//
// Initialize is idempotent. Only the first successful call reaches the
// engine, so libraries embedding the bridge may call it freely.
package runtime
