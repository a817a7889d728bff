package wasmguest

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/codec"
	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
	"github.com/wippyai/windowless/value"
)

// Guest exports.
const (
	exportAlloc            = "wl_alloc"
	exportAttach           = "wl_attach"
	exportDetach           = "wl_detach"
	exportHandleMessage    = "wl_handle_message"
	exportLoadHTML         = "wl_load_html"
	exportLoadFile         = "wl_load_file"
	exportDataReady        = "wl_data_ready"
	exportRoot             = "wl_root"
	exportCall             = "wl_call"
	exportRegisterBehavior = "wl_register_behavior"
	exportGfxFlush         = "wl_gfx_flush"
	exportSetOption        = "wl_set_option"
)

var requiredExports = []string{exportAlloc, exportAttach, exportHandleMessage}

// wl_call results with the sign bit set are failures.
const (
	callNotFound = ^uint64(0)     // -1
	callFailed   = ^uint64(0) - 1 // -2
)

// ErrMissingExport is returned for operations the guest does not export.
var ErrMissingExport = stderrors.New("wasmguest: guest does not export function")

type window struct {
	cb        engine.HostCallbacks
	behaviors map[string]engine.BehaviorHandler
}

type delivery struct {
	uri  string
	data []byte
	hwnd windowless.Handle
	id   windowless.RequestID
}

// Engine runs a windowless engine compiled to WebAssembly. It implements
// engine.Engine and engine.Configurer.
//
// Calls for all windows are serialized on the guest. Callbacks run on the
// calling goroutine and may call back into the Engine for the window of the
// call in progress or of the callback; calls for other windows wait for the
// guest. DataReadyAsync may be called from any goroutine: if the guest is
// busy the delivery is queued and made before the busy call returns.
type Engine struct {
	loader  *Loader
	mod     api.Module
	mem     api.Memory
	log     *zap.Logger
	windows map[windowless.Handle]*window
	// held counts, per window, guest calls and callbacks in progress under
	// mu. engine.Engine callers serialize calls per window, so a call for a
	// held window comes from inside that chain.
	held  map[windowless.Handle]int
	ctx   context.Context
	name  string
	queue []delivery
	mu    sync.Mutex
	qmu   sync.Mutex
	hmu   sync.Mutex
}

// noWindow keys calls that are not made for a window.
const noWindow windowless.Handle = 0

var (
	_ engine.Engine     = (*Engine)(nil)
	_ engine.Configurer = (*Engine)(nil)
)

func newEngine(l *Loader, name string) *Engine {
	return &Engine{
		loader:  l,
		log:     l.log.With(zap.String("guest", name)),
		windows: make(map[windowless.Handle]*window),
		held:    make(map[windowless.Handle]int),
		ctx:     context.Background(),
		name:    name,
	}
}

func (e *Engine) bind(mod api.Module) {
	e.mod = mod
	e.mem = mod.Memory()
}

// Name returns the guest instance name.
func (e *Engine) Name() string { return e.name }

// run executes fn for hwnd with exclusive use of the guest. Calls for a
// window already held by the call in progress are made from inside it and
// run directly. noWindow calls always wait for the guest.
func (e *Engine) run(hwnd windowless.Handle, fn func(ctx context.Context) error) error {
	if hwnd != noWindow && e.reenter(hwnd) {
		defer e.release(hwnd)
		return fn(e.ctx)
	}

	e.mu.Lock()
	e.hold(hwnd)
	err := fn(e.ctx)
	e.release(hwnd)
	e.drain()
	e.mu.Unlock()

	e.flushQueued()
	return err
}

// reenter holds hwnd again if it is already held.
func (e *Engine) reenter(hwnd windowless.Handle) bool {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	if e.held[hwnd] == 0 {
		return false
	}
	e.held[hwnd]++
	return true
}

func (e *Engine) hold(hwnd windowless.Handle) {
	e.hmu.Lock()
	e.held[hwnd]++
	e.hmu.Unlock()
}

func (e *Engine) release(hwnd windowless.Handle) {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	if n := e.held[hwnd] - 1; n > 0 {
		e.held[hwnd] = n
	} else {
		delete(e.held, hwnd)
	}
}

func (e *Engine) queued() bool {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	return len(e.queue) > 0
}

// drain delivers queued async data. The caller holds mu.
func (e *Engine) drain() {
	for {
		e.qmu.Lock()
		batch := e.queue
		e.queue = nil
		e.qmu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, d := range batch {
			if err := e.deliver(d); err != nil {
				e.log.Warn("queued data delivery failed",
					zap.String("uri", d.uri),
					zap.Uint64("request_id", uint64(d.id)),
					zap.Error(err))
			}
		}
	}
}

// flushQueued picks up deliveries queued while mu was being released.
func (e *Engine) flushQueued() {
	for e.queued() && e.mu.TryLock() {
		e.drain()
		e.mu.Unlock()
	}
}

func (e *Engine) lookup(hwnd windowless.Handle) (*window, error) {
	w, ok := e.windows[hwnd]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrNotAttached, hwnd)
	}
	return w, nil
}

func (e *Engine) export(name string) (api.Function, error) {
	fn := e.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingExport, name)
	}
	return fn, nil
}

// status calls a guest export returning an i32 status; non-zero is failure.
func (e *Engine) status(ctx context.Context, name string, params ...uint64) error {
	fn, err := e.export(name)
	if err != nil {
		return err
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return errors.Wrap(errors.PhaseGuest, errors.KindEngine, err, name)
	}
	if len(res) > 0 && int32(res[0]) != 0 {
		return errors.New(errors.PhaseGuest, errors.KindEngine).
			Value(int32(res[0])).
			Detail("%s returned status %d", name, int32(res[0])).
			Build()
	}
	return nil
}

// Attach implements engine.Engine.
func (e *Engine) Attach(hwnd windowless.Handle, cb engine.HostCallbacks) error {
	return e.run(hwnd, func(ctx context.Context) error {
		if _, ok := e.windows[hwnd]; ok {
			return fmt.Errorf("wasmguest: window %s already attached", hwnd)
		}
		e.windows[hwnd] = &window{cb: cb, behaviors: make(map[string]engine.BehaviorHandler)}
		if err := e.status(ctx, exportAttach, uint64(hwnd)); err != nil {
			delete(e.windows, hwnd)
			return err
		}
		return nil
	})
}

// Detach implements engine.Engine. Guests without wl_detach only lose
// the host binding.
func (e *Engine) Detach(hwnd windowless.Handle) error {
	return e.run(hwnd, func(ctx context.Context) error {
		if _, err := e.lookup(hwnd); err != nil {
			return err
		}
		defer delete(e.windows, hwnd)
		err := e.status(ctx, exportDetach, uint64(hwnd))
		if stderrors.Is(err, ErrMissingExport) {
			return nil
		}
		return err
	})
}

// HandleMessage implements engine.Engine.
func (e *Engine) HandleMessage(hwnd windowless.Handle, msg engine.WireMessage) error {
	data, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	return e.run(hwnd, func(ctx context.Context) error {
		if _, err := e.lookup(hwnd); err != nil {
			return err
		}
		ptr, n, err := e.write(ctx, data)
		if err != nil {
			return err
		}
		return e.status(ctx, exportHandleMessage, uint64(hwnd), uint64(ptr), uint64(n))
	})
}

// LoadHTML implements engine.Engine.
func (e *Engine) LoadHTML(hwnd windowless.Handle, html []byte, uri string) error {
	return e.run(hwnd, func(ctx context.Context) error {
		if _, err := e.lookup(hwnd); err != nil {
			return err
		}
		hp, hn, err := e.write(ctx, html)
		if err != nil {
			return err
		}
		up, un, err := e.write(ctx, []byte(uri))
		if err != nil {
			return err
		}
		return e.status(ctx, exportLoadHTML, uint64(hwnd), uint64(hp), uint64(hn), uint64(up), uint64(un))
	})
}

// LoadFile implements engine.Engine.
func (e *Engine) LoadFile(hwnd windowless.Handle, uri string) error {
	return e.run(hwnd, func(ctx context.Context) error {
		if _, err := e.lookup(hwnd); err != nil {
			return err
		}
		up, un, err := e.write(ctx, []byte(uri))
		if err != nil {
			return err
		}
		return e.status(ctx, exportLoadFile, uint64(hwnd), uint64(up), uint64(un))
	})
}

// DataReady implements engine.Engine.
func (e *Engine) DataReady(hwnd windowless.Handle, uri string, data []byte) error {
	return e.run(hwnd, func(ctx context.Context) error {
		return e.dataReady(ctx, delivery{hwnd: hwnd, uri: uri, data: data})
	})
}

// DataReadyAsync implements engine.Engine. It delivers immediately when the
// guest is idle and queues otherwise; queued failures are logged.
func (e *Engine) DataReadyAsync(hwnd windowless.Handle, uri string, data []byte, id windowless.RequestID) error {
	d := delivery{hwnd: hwnd, uri: uri, data: append([]byte(nil), data...), id: id}
	if !e.mu.TryLock() {
		e.qmu.Lock()
		e.queue = append(e.queue, d)
		e.qmu.Unlock()
		e.flushQueued()
		return nil
	}
	err := e.deliver(d)
	e.drain()
	e.mu.Unlock()
	e.flushQueued()
	return err
}

// deliver makes one async delivery. The caller holds mu.
func (e *Engine) deliver(d delivery) error {
	e.hold(d.hwnd)
	defer e.release(d.hwnd)
	return e.dataReady(e.ctx, d)
}

func (e *Engine) dataReady(ctx context.Context, d delivery) error {
	if _, err := e.lookup(d.hwnd); err != nil {
		return err
	}
	up, un, err := e.write(ctx, []byte(d.uri))
	if err != nil {
		return err
	}
	dp, dn, err := e.write(ctx, d.data)
	if err != nil {
		return err
	}
	return e.status(ctx, exportDataReady,
		uint64(d.hwnd), uint64(up), uint64(un), uint64(dp), uint64(dn), uint64(d.id))
}

// Root implements engine.Engine.
func (e *Engine) Root(hwnd windowless.Handle) (engine.Element, bool) {
	var root engine.Element
	err := e.run(hwnd, func(ctx context.Context) error {
		if _, err := e.lookup(hwnd); err != nil {
			return err
		}
		fn, err := e.export(exportRoot)
		if err != nil {
			return err
		}
		res, err := fn.Call(ctx, uint64(hwnd))
		if err != nil {
			return err
		}
		root = engine.Element(res[0])
		return nil
	})
	if err != nil {
		e.log.Debug("root unavailable", zap.Stringer("hwnd", hwnd), zap.Error(err))
		return 0, false
	}
	return root, root != 0
}

// CallFunction implements engine.Engine. Arguments and result cross as
// CBOR.
func (e *Engine) CallFunction(hwnd windowless.Handle, el engine.Element, name string, args []engine.Value) (engine.Value, error) {
	wire, err := codec.ArgsToWire(args)
	if err != nil {
		return engine.Value{}, err
	}
	var out []byte
	err = e.run(hwnd, func(ctx context.Context) error {
		if _, err := e.lookup(hwnd); err != nil {
			return err
		}
		fn, err := e.export(exportCall)
		if err != nil {
			return err
		}
		np, nn, err := e.write(ctx, []byte(name))
		if err != nil {
			return err
		}
		ap, an, err := e.write(ctx, wire)
		if err != nil {
			return err
		}
		res, err := fn.Call(ctx, uint64(hwnd), uint64(el), uint64(np), uint64(nn), uint64(ap), uint64(an))
		if err != nil {
			return errors.Wrap(errors.PhaseGuest, errors.KindEngine, err, exportCall)
		}
		switch res[0] {
		case callNotFound:
			return fmt.Errorf("%w: %s", engine.ErrFunctionNotFound, name)
		case callFailed:
			return errors.New(errors.PhaseGuest, errors.KindEngine).Detail("script function %q failed", name).Build()
		}
		ptr, n := unpack(res[0])
		out, err = e.read(ptr, n)
		return err
	})
	if err != nil {
		return engine.Value{}, err
	}
	return codec.WireToEngine(out)
}

// RegisterBehavior implements engine.Engine.
func (e *Engine) RegisterBehavior(hwnd windowless.Handle, name string, h engine.BehaviorHandler) error {
	return e.run(hwnd, func(ctx context.Context) error {
		w, err := e.lookup(hwnd)
		if err != nil {
			return err
		}
		w.behaviors[name] = h
		np, nn, err := e.write(ctx, []byte(name))
		if err != nil {
			return err
		}
		err = e.status(ctx, exportRegisterBehavior, uint64(hwnd), uint64(np), uint64(nn))
		if stderrors.Is(err, ErrMissingExport) {
			return nil
		}
		return err
	})
}

// SetOption implements engine.Configurer. Values cross as CBOR. Guests
// without wl_set_option accept no options; they are logged and ignored.
// It waits for the guest and must not be called from a callback.
func (e *Engine) SetOption(opt engine.Option, v any) error {
	var val value.Value
	switch x := v.(type) {
	case engine.GfxLayer:
		val = value.Int(int64(x))
	case bool:
		val = value.Bool(x)
	case uint8:
		val = value.Int(int64(x))
	case string:
		val = value.String(x)
	default:
		return errors.New(errors.PhaseSetup, errors.KindTypeMismatch).
			Type(fmt.Sprintf("%T", v)).
			Detail("option %s", opt).
			Build()
	}
	data, err := codec.Marshal(val)
	if err != nil {
		return err
	}
	return e.run(noWindow, func(ctx context.Context) error {
		if e.mod.ExportedFunction(exportSetOption) == nil {
			e.log.Debug("guest ignores runtime options", zap.Stringer("option", opt))
			return nil
		}
		ptr, n, err := e.write(ctx, data)
		if err != nil {
			return err
		}
		return e.status(ctx, exportSetOption, uint64(opt), uint64(ptr), uint64(n))
	})
}

// Close closes the guest instance. Attached windows are dropped.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loader.forget(e.name)
	clear(e.windows)
	if e.mod == nil {
		return nil
	}
	return e.mod.Close(ctx)
}

type graphics struct {
	e    *Engine
	ctx  context.Context
	hwnd windowless.Handle
}

// Flush implements engine.Graphics by calling wl_gfx_flush, if exported.
func (g graphics) Flush() error {
	err := g.e.status(g.ctx, exportGfxFlush, uint64(g.hwnd))
	if stderrors.Is(err, ErrMissingExport) {
		return nil
	}
	return err
}
