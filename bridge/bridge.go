package bridge

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/codec"
	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
)

// Config configures a Bridge.
type Config struct {
	Engine   engine.Engine
	Registry *Registry
	Pending  *PendingTable
	Logger   *zap.Logger

	// OnDefect is told about handler defects: a future left unwritten where
	// a result was promised, or inline bytes mixed with a deferred answer.
	OnDefect func(error)

	Hwnd windowless.Handle

	// StrictFutures panics on defects instead of answering "no result".
	StrictFutures bool
}

// Bridge answers engine callbacks for one window by dispatching them to the
// handlers in its Registry. It implements engine.HostCallbacks.
//
// Resolution per callback kind:
//
//   - resource load: blocking, except OutcomeHandleLater which defers the
//     answer to a request-id keyed completion (see PendingTable)
//   - native invocation: blocking; a produced result must be written to the
//     future before the handler returns
//   - custom draw: synchronous boolean, after flushing engine graphics
//
// Whatever a handler does, including failing or panicking, the engine gets
// a well-defined answer.
type Bridge struct {
	eng      engine.Engine
	reg      *Registry
	pending  *PendingTable
	log      *zap.Logger
	onDefect func(error)
	hwnd     windowless.Handle
	strict   bool
}

var _ engine.HostCallbacks = (*Bridge)(nil)

// New creates a bridge. Registry and Pending are created when nil.
func New(cfg Config) *Bridge {
	b := &Bridge{
		eng:      cfg.Engine,
		reg:      cfg.Registry,
		pending:  cfg.Pending,
		log:      cfg.Logger,
		onDefect: cfg.OnDefect,
		hwnd:     cfg.Hwnd,
		strict:   cfg.StrictFutures,
	}
	if b.reg == nil {
		b.reg = NewRegistry()
	}
	if b.pending == nil {
		b.pending = NewPendingTable()
	}
	if b.log == nil {
		b.log = Logger()
	}
	b.log = b.log.With(zap.Stringer("hwnd", cfg.Hwnd))
	return b
}

// Registry returns the handler registry.
func (b *Bridge) Registry() *Registry { return b.reg }

// Pending returns the deferred request table.
func (b *Bridge) Pending() *PendingTable { return b.pending }

// OnDataLoad implements engine.HostCallbacks.
func (b *Bridge) OnDataLoad(req engine.LoadRequest) (engine.LoadResult, bool) {
	h := b.reg.Snapshot().DataLoad
	if h == nil {
		return 0, false
	}
	log := b.log.With(zap.String("uri", req.URI), zap.Uint64("request_id", uint64(req.RequestID)))

	inline := &Future{}
	var outcome LoadOutcome
	err := guard(func() error {
		var err error
		outcome, err = h.OnDataLoad(LoadRequest{
			URI:  req.URI,
			Hwnd: req.Hwnd,
			ID:   req.RequestID,
			Type: req.Type,
		}, inline)
		return err
	})
	if err != nil {
		log.Warn("data load handler failed", zap.Error(err))
		return 0, false
	}

	switch outcome {
	case OutcomeNone:
		if inline.Written() {
			b.defect(log, mixed("inline bytes written with no outcome"))
		}
		return 0, false

	case OutcomeDiscard:
		if inline.Written() {
			b.defect(log, mixed("inline bytes written for a discarded request"))
			return 0, false
		}
		return engine.LoadDiscard, true

	case OutcomeHandleLater:
		if inline.Written() {
			b.defect(log, mixed("inline bytes written for a deferred request"))
			return 0, false
		}
		if err := b.pending.Track(req.RequestID, req.URI); err != nil {
			log.Warn("cannot defer request", zap.Error(err))
			return 0, false
		}
		log.Debug("request deferred")
		return engine.LoadDelayed, true

	case OutcomeDefault:
		if inline.Written() && !b.deliver(log, req.URI, inline) {
			return 0, false
		}
		return engine.LoadDefault, true

	case OutcomeHandleMyself:
		if !inline.Written() {
			b.defect(log, errors.Misuse(errors.PhaseCallback, errors.KindUnwrittenFuture,
				"handle-myself answered without inline bytes for %s", req.URI))
			return 0, false
		}
		if !b.deliver(log, req.URI, inline) {
			return 0, false
		}
		return engine.LoadMyself, true
	}

	log.Warn("data load handler returned unknown outcome", zap.Stringer("outcome", outcome))
	return 0, false
}

func (b *Bridge) deliver(log *zap.Logger, uri string, inline *Future) bool {
	data, err := inline.take()
	if err != nil {
		log.Warn("inline bytes unavailable", zap.Error(err))
		return false
	}
	if err := b.eng.DataReady(b.hwnd, uri, data); err != nil {
		log.Warn("engine rejected inline bytes", zap.Error(err))
		return false
	}
	return true
}

// OnScriptCall implements engine.HostCallbacks.
func (b *Bridge) OnScriptCall(root engine.Element, name string, args []engine.Value) (engine.Value, bool) {
	h := b.reg.Snapshot().Native
	if h == nil {
		return engine.Value{}, false
	}
	log := b.log.With(zap.String("fn", name))

	wire, err := codec.ArgsToWire(args)
	if err != nil {
		log.Warn("script call arguments not representable", zap.Error(err))
		return engine.Value{}, false
	}

	ret := &Future{}
	var produced bool
	err = guard(func() error {
		var err error
		produced, err = h.OnNativeInvocation(name, wire, ret)
		return err
	})
	if err != nil {
		log.Warn("native invocation handler failed", zap.Error(err))
		return engine.Value{}, false
	}
	if !produced {
		if ret.Written() {
			log.Debug("handler declined but wrote a result; ignoring it")
		}
		return engine.Value{}, false
	}

	data, err := ret.take()
	if err != nil {
		b.defect(log, err)
		return engine.Value{}, false
	}
	v, err := codec.WireToEngine(data)
	if err != nil {
		log.Warn("native invocation result not decodable", zap.Error(err))
		return engine.Value{}, false
	}
	return v, true
}

// OnInvalidate implements engine.HostCallbacks.
func (b *Bridge) OnInvalidate(area engine.Rect) {
	h := b.reg.Snapshot().Invalidate
	if h == nil {
		return
	}
	if err := guard(func() error { h.OnInvalidate(area); return nil }); err != nil {
		b.log.Warn("invalidate handler failed", zap.Error(err))
	}
}

// OnDebugOutput implements engine.HostCallbacks by logging engine
// diagnostics at the matching level.
func (b *Bridge) OnDebugOutput(subsystem engine.OutputSubsystem, severity engine.OutputSeverity, msg string) {
	fields := []zap.Field{zap.Stringer("subsystem", subsystem)}
	switch severity {
	case engine.SeverityError:
		b.log.Error(msg, fields...)
	case engine.SeverityWarning:
		b.log.Warn(msg, fields...)
	default:
		b.log.Info(msg, fields...)
	}
}

// OnGraphicsCriticalFailure implements engine.HostCallbacks.
func (b *Bridge) OnGraphicsCriticalFailure() {
	b.log.Error("engine graphics backend failed")
}

// Behavior returns the engine-side handler for a named behavior. It looks
// the DrawHandler up in the registry on every draw, so rebinding the name
// takes effect without re-registering with the engine.
func (b *Bridge) Behavior(name string) engine.BehaviorHandler {
	return behavior{b: b, name: name}
}

type behavior struct {
	b    *Bridge
	name string
}

func (bh behavior) OnDraw(gfx engine.Graphics, area engine.Rect, layer engine.DrawLayer) bool {
	h, ok := bh.b.reg.Draw(bh.name)
	if !ok {
		return false
	}
	log := bh.b.log.With(zap.String("behavior", bh.name), zap.Stringer("layer", layer))

	if err := gfx.Flush(); err != nil {
		log.Warn("graphics flush failed; skipping draw handler", zap.Error(err))
		return false
	}

	var handled bool
	err := guard(func() error {
		var err error
		handled, err = h.OnDraw(area, layer)
		return err
	})
	if err != nil {
		log.Warn("draw handler failed", zap.Error(err))
		return false
	}
	return handled
}

func (b *Bridge) defect(log *zap.Logger, err error) {
	log.Error("callback handler defect", zap.Error(err))
	if b.onDefect != nil {
		b.onDefect(err)
	}
	if b.strict {
		panic(err)
	}
}

func mixed(detail string) error {
	return errors.Misuse(errors.PhaseCallback, errors.KindMixedResolution, "%s", detail)
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseCallback, errors.KindHandlerFailed).
				Value(r).
				Detail("handler panicked: %v", r).
				Build()
		}
	}()
	if err := fn(); err != nil {
		return errors.New(errors.PhaseCallback, errors.KindHandlerFailed).Cause(err).Build()
	}
	return nil
}

// String identifies the bridge in logs.
func (b *Bridge) String() string {
	return fmt.Sprintf("bridge(%s)", b.hwnd)
}
