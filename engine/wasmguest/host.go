package wasmguest

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/codec"
	"github.com/wippyai/windowless/engine"
)

// HostModule is the import module name guests call the host through.
const HostModule = "windowless"

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// instantiateHost exports the callback functions:
//
//	data_load(hwnd i64, uri i32, uri_len i32, id i64, type i32) -> i32
//	    0 for no answer, LoadResult+1 otherwise
//	script_call(hwnd i64, root i64, name i32, name_len i32, args i32, args_len i32) -> i64
//	    packed CBOR result in guest memory, 0 for no result
//	draw(hwnd i64, name i32, name_len i32, left i32, top i32, right i32, bottom i32, layer i32) -> i32
//	invalidate(hwnd i64, left i32, top i32, right i32, bottom i32)
//	debug_output(hwnd i64, subsystem i32, severity i32, msg i32, msg_len i32)
//	graphics_failure(hwnd i64)
func (l *Loader) instantiateHost(ctx context.Context) error {
	builder := l.runtime.NewHostModuleBuilder(HostModule)

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(l.hostDataLoad),
			[]api.ValueType{i64, i32, i32, i64, i32}, []api.ValueType{i32}).
		Export("data_load")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(l.hostScriptCall),
			[]api.ValueType{i64, i64, i32, i32, i32, i32}, []api.ValueType{i64}).
		Export("script_call")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(l.hostDraw),
			[]api.ValueType{i64, i32, i32, i32, i32, i32, i32, i32}, []api.ValueType{i32}).
		Export("draw")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(l.hostInvalidate),
			[]api.ValueType{i64, i32, i32, i32, i32}, nil).
		Export("invalidate")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(l.hostDebugOutput),
			[]api.ValueType{i64, i32, i32, i32, i32}, nil).
		Export("debug_output")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(l.hostGraphicsFailure),
			[]api.ValueType{i64}, nil).
		Export("graphics_failure")

	if _, err := builder.Instantiate(ctx); err != nil {
		return err
	}
	return nil
}

// caller resolves the engine and window a host call is made for and holds
// the window until done is called. Host calls run inside a guest call, so
// the engine is already exclusive.
func (l *Loader) caller(mod api.Module, hwnd uint64) (e *Engine, w *window, done func(), ok bool) {
	e, ok = l.engine(mod)
	if !ok || e.mod == nil {
		l.log.Warn("host call from unknown guest", zap.String("module", mod.Name()))
		return nil, nil, nil, false
	}
	w, err := e.lookup(windowless.Handle(hwnd))
	if err != nil {
		e.log.Warn("host call for unattached window", zap.Error(err))
		return nil, nil, nil, false
	}
	h := windowless.Handle(hwnd)
	e.hold(h)
	return e, w, func() { e.release(h) }, true
}

func (l *Loader) hostDataLoad(_ context.Context, mod api.Module, stack []uint64) {
	hwnd := windowless.Handle(stack[0])
	e, w, done, ok := l.caller(mod, stack[0])
	stack[0] = 0
	if !ok {
		return
	}
	defer done()
	uri, err := e.readString(uint32(stack[1]), uint32(stack[2]))
	if err != nil {
		e.log.Warn("data_load: bad uri", zap.Error(err))
		return
	}
	res, ok := w.cb.OnDataLoad(engine.LoadRequest{
		URI:       uri,
		Hwnd:      hwnd,
		RequestID: windowless.RequestID(stack[3]),
		Type:      engine.ResourceType(uint32(stack[4])),
	})
	if ok {
		stack[0] = uint64(res) + 1
	}
}

func (l *Loader) hostScriptCall(ctx context.Context, mod api.Module, stack []uint64) {
	hwnd := stack[0]
	root := engine.Element(stack[1])
	np, nn, ap, an := uint32(stack[2]), uint32(stack[3]), uint32(stack[4]), uint32(stack[5])
	e, w, done, ok := l.caller(mod, hwnd)
	stack[0] = 0
	if !ok {
		return
	}
	defer done()
	log := e.log.With(zap.Uint64("hwnd", hwnd))

	name, err := e.readString(np, nn)
	if err != nil {
		log.Warn("script_call: bad name", zap.Error(err))
		return
	}
	var args []engine.Value
	if an > 0 {
		raw, err := e.read(ap, an)
		if err != nil {
			log.Warn("script_call: bad arguments", zap.String("fn", name), zap.Error(err))
			return
		}
		if args, err = codec.WireToArgs(raw); err != nil {
			log.Warn("script_call: undecodable arguments", zap.String("fn", name), zap.Error(err))
			return
		}
	}

	res, ok := w.cb.OnScriptCall(root, name, args)
	if !ok {
		return
	}
	out, err := codec.EngineToWire(res)
	if err != nil {
		log.Warn("script_call: result not representable", zap.String("fn", name), zap.Error(err))
		return
	}
	ptr, n, err := e.write(ctx, out)
	if err != nil {
		log.Warn("script_call: cannot pass result", zap.String("fn", name), zap.Error(err))
		return
	}
	stack[0] = pack(ptr, n)
}

func (l *Loader) hostDraw(ctx context.Context, mod api.Module, stack []uint64) {
	hwnd := windowless.Handle(stack[0])
	e, w, done, ok := l.caller(mod, stack[0])
	stack[0] = 0
	if !ok {
		return
	}
	defer done()
	name, err := e.readString(uint32(stack[1]), uint32(stack[2]))
	if err != nil {
		e.log.Warn("draw: bad behavior name", zap.Error(err))
		return
	}
	h, ok := w.behaviors[name]
	if !ok {
		return
	}
	area := engine.Rect{
		Left:   int32(stack[3]),
		Top:    int32(stack[4]),
		Right:  int32(stack[5]),
		Bottom: int32(stack[6]),
	}
	if h.OnDraw(graphics{e: e, ctx: ctx, hwnd: hwnd}, area, engine.DrawLayer(uint32(stack[7]))) {
		stack[0] = 1
	}
}

func (l *Loader) hostInvalidate(_ context.Context, mod api.Module, stack []uint64) {
	_, w, done, ok := l.caller(mod, stack[0])
	if !ok {
		return
	}
	defer done()
	w.cb.OnInvalidate(engine.Rect{
		Left:   int32(stack[1]),
		Top:    int32(stack[2]),
		Right:  int32(stack[3]),
		Bottom: int32(stack[4]),
	})
}

func (l *Loader) hostDebugOutput(_ context.Context, mod api.Module, stack []uint64) {
	e, w, done, ok := l.caller(mod, stack[0])
	if !ok {
		return
	}
	defer done()
	msg, err := e.readString(uint32(stack[3]), uint32(stack[4]))
	if err != nil {
		e.log.Warn("debug_output: bad message", zap.Error(err))
		return
	}
	w.cb.OnDebugOutput(engine.OutputSubsystem(uint32(stack[1])), engine.OutputSeverity(uint32(stack[2])), msg)
}

func (l *Loader) hostGraphicsFailure(_ context.Context, mod api.Module, stack []uint64) {
	if _, w, done, ok := l.caller(mod, stack[0]); ok {
		defer done()
		w.cb.OnGraphicsCriticalFailure()
	}
}
