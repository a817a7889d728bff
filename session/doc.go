// Package session is the host-facing API of windowless: one Session per
// engine window.
//
// A session attaches a callback bridge to the engine, feeds it messages in
// call order and exposes document loading, script calls and deferred
// resource completion. Callbacks the engine makes while handling a call run
// before that call returns, on the caller's goroutine.
//
//	s, err := session.Create(eng, hwnd, message.BackendAuto, false,
//		session.WithInitialSize(800, 600))
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	s.OnNativeInvocation(bridge.NativeInvocationFunc(handle))
//	s.LoadHTML(page, "app://index.html")
//	s.Dispatch(message.LeftClick(10, 10))
//
// Lifecycle: Uninitialized, Created (attached), Active (Create handled),
// Destroyed. Destroy is refused while a callback is running; after it,
// every call fails with a use-after-destroy error.
package session
