package enginetest

import (
	"slices"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/engine"
)

func (e *Engine) callbacks(hwnd windowless.Handle) (engine.HostCallbacks, *window, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.lookup(hwnd)
	if err != nil {
		return nil, nil, err
	}
	return w.cb, w, nil
}

// RequestData issues a resource request with a fresh request id, as the
// engine does while loading a document.
func (e *Engine) RequestData(hwnd windowless.Handle, uri string, typ engine.ResourceType) (windowless.RequestID, engine.LoadResult, bool, error) {
	cb, _, err := e.callbacks(hwnd)
	if err != nil {
		return 0, 0, false, err
	}
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.mu.Unlock()

	res, ok := cb.OnDataLoad(engine.LoadRequest{URI: uri, Hwnd: hwnd, RequestID: id, Type: typ})
	return id, res, ok, nil
}

// ScriptCall calls a native function from script on the document root.
func (e *Engine) ScriptCall(hwnd windowless.Handle, name string, args ...engine.Value) (engine.Value, bool, error) {
	cb, w, err := e.callbacks(hwnd)
	if err != nil {
		return engine.Value{}, false, err
	}
	e.mu.Lock()
	root := w.root
	e.mu.Unlock()

	v, ok := cb.OnScriptCall(root, name, args)
	return v, ok, nil
}

// Draw asks the behavior registered under name to paint area. It returns
// the handler's answer and the graphics context it was given.
func (e *Engine) Draw(hwnd windowless.Handle, name string, area engine.Rect, layer engine.DrawLayer) (bool, *Graphics, error) {
	_, w, err := e.callbacks(hwnd)
	if err != nil {
		return false, nil, err
	}
	e.mu.Lock()
	h, ok := w.behaviors[name]
	e.mu.Unlock()
	if !ok {
		return false, nil, nil
	}
	gfx := &Graphics{}
	return h.OnDraw(gfx, area, layer), gfx, nil
}

// DrawWith is Draw with a caller-supplied graphics context.
func (e *Engine) DrawWith(hwnd windowless.Handle, name string, gfx engine.Graphics, area engine.Rect, layer engine.DrawLayer) (bool, error) {
	_, w, err := e.callbacks(hwnd)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	h, ok := w.behaviors[name]
	e.mu.Unlock()
	if !ok {
		return false, nil
	}
	return h.OnDraw(gfx, area, layer), nil
}

// Invalidate reports a dirty area to the host.
func (e *Engine) Invalidate(hwnd windowless.Handle, area engine.Rect) error {
	cb, _, err := e.callbacks(hwnd)
	if err != nil {
		return err
	}
	cb.OnInvalidate(area)
	return nil
}

// DebugOutput forwards a diagnostic line to the host.
func (e *Engine) DebugOutput(hwnd windowless.Handle, sub engine.OutputSubsystem, sev engine.OutputSeverity, msg string) error {
	cb, _, err := e.callbacks(hwnd)
	if err != nil {
		return err
	}
	cb.OnDebugOutput(sub, sev, msg)
	return nil
}

// Attached reports whether hwnd has attached callbacks.
func (e *Engine) Attached(hwnd windowless.Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.windows[hwnd]
	return ok
}

// Messages returns the messages handled for hwnd so far.
func (e *Engine) Messages(hwnd windowless.Handle) []engine.WireMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w, ok := e.windows[hwnd]; ok {
		return slices.Clone(w.messages)
	}
	return nil
}

// Documents returns the documents loaded into hwnd so far.
func (e *Engine) Documents(hwnd windowless.Handle) []Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w, ok := e.windows[hwnd]; ok {
		return slices.Clone(w.documents)
	}
	return nil
}

// Deliveries returns the resource bytes delivered to hwnd so far.
func (e *Engine) Deliveries(hwnd windowless.Handle) []Delivery {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w, ok := e.windows[hwnd]; ok {
		return slices.Clone(w.deliveries)
	}
	return nil
}

// Behaviors returns the behavior names registered for hwnd.
func (e *Engine) Behaviors(hwnd windowless.Handle) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.windows[hwnd]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(w.behaviors))
	for name := range w.behaviors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Graphics is a recording engine.Graphics.
type Graphics struct {
	// Err, when set, is returned by Flush.
	Err     error
	Flushes int
}

// Flush implements engine.Graphics.
func (g *Graphics) Flush() error {
	g.Flushes++
	return g.Err
}

// Value helpers for scripted calls.

func Int(i int32) engine.Value { return engine.Value{Type: engine.TypeInt, Int: int64(i)} }

func Float(f float64) engine.Value { return engine.Value{Type: engine.TypeFloat, Float: f} }

func String(s string) engine.Value { return engine.Value{Type: engine.TypeString, Str: s} }

func Bytes(b []byte) engine.Value { return engine.Value{Type: engine.TypeBytes, Bytes: b} }

func Array(items ...engine.Value) engine.Value {
	return engine.Value{Type: engine.TypeArray, Items: items}
}
