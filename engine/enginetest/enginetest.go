// Package enginetest provides a scripted in-memory engine.Engine for tests
// and examples.
//
// The engine records every host call and lets the test play the engine's
// part: issuing resource requests, calling native functions from "script",
// drawing behaviors and reporting invalidation. Scripted calls run the
// attached engine.HostCallbacks synchronously, exactly as a real engine
// would from inside its own call stack.
//
//	eng := enginetest.New()
//	eng.OnMessage(func(hwnd windowless.Handle, msg engine.WireMessage) error {
//		if msg.Code == engine.MsgMouse {
//			_, _, err := eng.ScriptCall(hwnd, "clicked", enginetest.Int(msg.Pos.X))
//			return err
//		}
//		return nil
//	})
package enginetest

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/engine"
)

// Function is a script function defined on the document root.
type Function func(args []engine.Value) (engine.Value, error)

// MessageHook runs inside HandleMessage after the message is recorded.
// It may call scripted methods, which re-enter the host.
type MessageHook func(hwnd windowless.Handle, msg engine.WireMessage) error

// Document is a loaded document.
type Document struct {
	URI  string
	HTML []byte
	// FromFile is set for LoadFile, HTML holds the inline bytes otherwise.
	FromFile bool
}

// Delivery is a DataReady or DataReadyAsync call.
type Delivery struct {
	URI   string
	Data  []byte
	ID    windowless.RequestID
	Async bool
}

type window struct {
	cb         engine.HostCallbacks
	behaviors  map[string]engine.BehaviorHandler
	messages   []engine.WireMessage
	documents  []Document
	deliveries []Delivery
	root       engine.Element
}

// Engine is a scripted engine. It is safe for concurrent use, though
// callbacks are always run on the calling goroutine.
type Engine struct {
	windows   map[windowless.Handle]*window
	functions map[string]Function
	options   map[engine.Option]any
	hook      MessageHook
	// LoadFileRequests makes LoadFile request the document bytes from the
	// host through OnDataLoad, like a real engine resolving a URI.
	LoadFileRequests bool
	nextID           windowless.RequestID
	nextRoot         engine.Element
	mu               sync.Mutex
}

var (
	_ engine.Engine     = (*Engine)(nil)
	_ engine.Configurer = (*Engine)(nil)
)

// ErrNoDocument is returned by scripted calls on a window with no document.
var ErrNoDocument = errors.New("enginetest: no document loaded")

// New returns an engine with no windows.
func New() *Engine {
	return &Engine{
		windows:   make(map[windowless.Handle]*window),
		functions: make(map[string]Function),
		options:   make(map[engine.Option]any),
	}
}

// Define makes fn callable through CallFunction on every document.
func (e *Engine) Define(name string, fn Function) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.functions[name] = fn
}

// OnMessage installs a hook run for every handled message.
func (e *Engine) OnMessage(hook MessageHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hook = hook
}

func (e *Engine) lookup(hwnd windowless.Handle) (*window, error) {
	w, ok := e.windows[hwnd]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrNotAttached, hwnd)
	}
	return w, nil
}

// Attach implements engine.Engine.
func (e *Engine) Attach(hwnd windowless.Handle, cb engine.HostCallbacks) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.windows[hwnd]; ok {
		return fmt.Errorf("enginetest: window %s already attached", hwnd)
	}
	e.windows[hwnd] = &window{cb: cb, behaviors: make(map[string]engine.BehaviorHandler)}
	return nil
}

// Detach implements engine.Engine.
func (e *Engine) Detach(hwnd windowless.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.lookup(hwnd); err != nil {
		return err
	}
	delete(e.windows, hwnd)
	return nil
}

// HandleMessage implements engine.Engine.
func (e *Engine) HandleMessage(hwnd windowless.Handle, msg engine.WireMessage) error {
	e.mu.Lock()
	w, err := e.lookup(hwnd)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	w.messages = append(w.messages, msg)
	hook := e.hook
	e.mu.Unlock()

	if hook != nil {
		return hook(hwnd, msg)
	}
	return nil
}

// LoadHTML implements engine.Engine.
func (e *Engine) LoadHTML(hwnd windowless.Handle, html []byte, uri string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.lookup(hwnd)
	if err != nil {
		return err
	}
	w.documents = append(w.documents, Document{URI: uri, HTML: slices.Clone(html)})
	e.nextRoot++
	w.root = e.nextRoot
	return nil
}

// LoadFile implements engine.Engine.
func (e *Engine) LoadFile(hwnd windowless.Handle, uri string) error {
	e.mu.Lock()
	w, err := e.lookup(hwnd)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	w.documents = append(w.documents, Document{URI: uri, FromFile: true})
	e.nextRoot++
	w.root = e.nextRoot
	request := e.LoadFileRequests
	e.mu.Unlock()

	if request {
		_, _, _, err = e.RequestData(hwnd, uri, engine.ResourceHTML)
	}
	return err
}

// DataReady implements engine.Engine.
func (e *Engine) DataReady(hwnd windowless.Handle, uri string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.lookup(hwnd)
	if err != nil {
		return err
	}
	w.deliveries = append(w.deliveries, Delivery{URI: uri, Data: slices.Clone(data)})
	return nil
}

// DataReadyAsync implements engine.Engine.
func (e *Engine) DataReadyAsync(hwnd windowless.Handle, uri string, data []byte, id windowless.RequestID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.lookup(hwnd)
	if err != nil {
		return err
	}
	w.deliveries = append(w.deliveries, Delivery{URI: uri, Data: slices.Clone(data), ID: id, Async: true})
	return nil
}

// Root implements engine.Engine.
func (e *Engine) Root(hwnd windowless.Handle) (engine.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.lookup(hwnd)
	if err != nil || w.root == 0 {
		return 0, false
	}
	return w.root, true
}

// CallFunction implements engine.Engine.
func (e *Engine) CallFunction(hwnd windowless.Handle, el engine.Element, name string, args []engine.Value) (engine.Value, error) {
	e.mu.Lock()
	w, err := e.lookup(hwnd)
	if err != nil {
		e.mu.Unlock()
		return engine.Value{}, err
	}
	if w.root == 0 || el != w.root {
		e.mu.Unlock()
		return engine.Value{}, ErrNoDocument
	}
	fn, ok := e.functions[name]
	e.mu.Unlock()
	if !ok {
		return engine.Value{}, fmt.Errorf("%w: %s", engine.ErrFunctionNotFound, name)
	}
	return fn(args)
}

// RegisterBehavior implements engine.Engine.
func (e *Engine) RegisterBehavior(hwnd windowless.Handle, name string, h engine.BehaviorHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.lookup(hwnd)
	if err != nil {
		return err
	}
	w.behaviors[name] = h
	return nil
}

// SetOption implements engine.Configurer.
func (e *Engine) SetOption(opt engine.Option, v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.options[opt] = v
	return nil
}

// Option returns the value recorded by SetOption.
func (e *Engine) Option(opt engine.Option) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.options[opt]
	return v, ok
}
