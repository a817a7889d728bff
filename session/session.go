package session

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/bridge"
	"github.com/wippyai/windowless/codec"
	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
	"github.com/wippyai/windowless/message"
	"github.com/wippyai/windowless/runtime"
	"github.com/wippyai/windowless/value"
)

// State is a session lifecycle state.
type State uint32

const (
	StateUninitialized State = iota
	// StateCreated: the bridge is attached, Create not yet handled.
	StateCreated
	// StateActive accepts every message.
	StateActive
	// StateDestroyed is terminal.
	StateDestroyed
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateCreated:       "created",
	StateActive:        "active",
	StateDestroyed:     "destroyed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Handles attached anywhere in the process. An engine window belongs to
// exactly one session.
var (
	attachedMu sync.Mutex
	attached   = make(map[windowless.Handle]struct{})
)

func claim(hwnd windowless.Handle) bool {
	attachedMu.Lock()
	defer attachedMu.Unlock()
	if _, ok := attached[hwnd]; ok {
		return false
	}
	attached[hwnd] = struct{}{}
	return true
}

func release(hwnd windowless.Handle) {
	attachedMu.Lock()
	defer attachedMu.Unlock()
	delete(attached, hwnd)
}

// Session drives one engine window.
//
// Dispatch, the Load and Call methods and handler registration must be
// called from one goroutine at a time. Complete, Cancel, Pending and State
// may be called from any goroutine.
type Session struct {
	eng     engine.Engine
	bridge  *bridge.Bridge
	log     *zap.Logger
	created time.Time
	hwnd    windowless.Handle
	state   atomic.Uint32
	// behaviors holds the names the engine has been told about. Unbinding
	// a name does not remove it.
	behaviors map[string]struct{}
	// depth counts engine calls in progress on the session goroutine.
	// Callbacks run inside them.
	depth int
}

// Create attaches a new session to hwnd and dispatches Create to the
// engine. runtime.Initialize must have succeeded first.
func Create(eng engine.Engine, hwnd windowless.Handle, backend message.Backend, transparent bool, opts ...Option) (*Session, error) {
	if !runtime.IsInitialized() {
		return nil, errors.NotInitialized(errors.PhaseSetup, "runtime")
	}
	if eng == nil {
		return nil, errors.InvalidInput(errors.PhaseSetup, "nil engine")
	}
	if !hwnd.Valid() {
		return nil, errors.New(errors.PhaseSetup, errors.KindInvalidHandle).
			Value(hwnd).
			Detail("window handle %s is not valid", hwnd).
			Build()
	}

	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = Logger()
	}
	log = log.With(zap.Stringer("hwnd", hwnd))

	if !claim(hwnd) {
		return nil, errors.Misuse(errors.PhaseSetup, errors.KindAlreadyAttached,
			"window %s already has a session", hwnd)
	}

	reg := bridge.NewRegistry()
	reg.SetDataLoad(cfg.dataLoad)
	reg.SetNativeInvocation(cfg.native)
	reg.SetInvalidate(cfg.invalidate)

	s := &Session{
		eng:     eng,
		log:     log,
		created:   time.Now(),
		hwnd:      hwnd,
		behaviors: make(map[string]struct{}),
	}
	s.bridge = bridge.New(bridge.Config{
		Engine:        eng,
		Registry:      reg,
		Logger:        cfg.logger,
		OnDefect:      cfg.onDefect,
		Hwnd:          hwnd,
		StrictFutures: cfg.strict,
	})

	if err := eng.Attach(hwnd, s.bridge); err != nil {
		release(hwnd)
		return nil, errors.Engine(errors.PhaseSetup, "attach", err)
	}
	s.state.Store(uint32(StateCreated))

	initial := []message.Message{message.Create{Backend: backend, Transparent: transparent}}
	if cfg.ppi != 0 {
		initial = append(initial, message.Resolution{PPI: cfg.ppi})
	}
	if cfg.sized {
		initial = append(initial, message.Size{Width: cfg.width, Height: cfg.height})
	}
	for _, msg := range initial {
		if err := s.send(msg); err != nil {
			_ = s.teardown()
			return nil, err
		}
		if msg.Code() == engine.MsgCreate {
			s.state.Store(uint32(StateActive))
		}
	}

	log.Debug("session created", zap.Stringer("backend", backend), zap.Bool("transparent", transparent))
	return s, nil
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Handle returns the window handle. It stays readable after destruction.
func (s *Session) Handle() windowless.Handle {
	return s.hwnd
}

func (s *Session) live(phase errors.Phase) error {
	if s.State() == StateDestroyed {
		return errors.Misuse(phase, errors.KindUseAfterDestroy, "session for %s is destroyed", s.hwnd)
	}
	return nil
}

// enter marks an engine call in progress; callbacks the engine makes
// before the returned func runs are reentrant.
func (s *Session) enter() func() {
	s.depth++
	return func() { s.depth-- }
}

// Dispatch delivers msg to the engine and returns once the engine and
// every callback it made have finished. Destroy ends the session; any call
// after it fails with a use-after-destroy error.
func (s *Session) Dispatch(msg message.Message) error {
	if err := s.live(errors.PhaseDispatch); err != nil {
		return err
	}
	if _, ok := msg.(message.Destroy); ok {
		return s.destroy()
	}
	return s.send(msg)
}

func (s *Session) send(msg message.Message) error {
	wire, err := message.Translate(msg)
	if err != nil {
		return err
	}
	defer s.enter()()
	if err := s.eng.HandleMessage(s.hwnd, wire); err != nil {
		return errors.Engine(errors.PhaseDispatch, "handle "+wire.Code.String(), err)
	}
	return nil
}

func (s *Session) destroy() error {
	if s.depth > 0 {
		return errors.Misuse(errors.PhaseDispatch, errors.KindReentrantTeardown,
			"destroy of %s requested from inside a callback", s.hwnd)
	}
	err := s.send(message.Destroy{})
	if terr := s.teardown(); err == nil {
		err = terr
	}
	return err
}

// teardown detaches the bridge and releases the handle. Deferred requests
// still pending are cancelled.
func (s *Session) teardown() error {
	s.state.Store(uint32(StateDestroyed))
	if n := s.bridge.Pending().Len(); n > 0 {
		s.log.Debug("cancelling pending requests", zap.Int("count", n))
	}
	s.bridge.Pending().Clear()

	var err error
	if derr := s.eng.Detach(s.hwnd); derr != nil {
		err = errors.Engine(errors.PhaseDispatch, "detach", derr)
	}
	release(s.hwnd)
	s.log.Debug("session destroyed")
	return err
}

// Close destroys the session if it is still alive.
func (s *Session) Close() error {
	if s.State() == StateDestroyed {
		return nil
	}
	return s.Dispatch(message.Destroy{})
}

// OnDataLoad replaces the resource request handler. nil removes it.
func (s *Session) OnDataLoad(h bridge.DataLoadHandler) error {
	if err := s.live(errors.PhaseSetup); err != nil {
		return err
	}
	s.bridge.Registry().SetDataLoad(h)
	return nil
}

// OnNativeInvocation replaces the script-to-host call handler. nil removes
// it.
func (s *Session) OnNativeInvocation(h bridge.NativeInvocationHandler) error {
	if err := s.live(errors.PhaseSetup); err != nil {
		return err
	}
	s.bridge.Registry().SetNativeInvocation(h)
	return nil
}

// OnInvalidate replaces the repaint notification handler. nil removes it.
func (s *Session) OnInvalidate(h bridge.InvalidateHandler) error {
	if err := s.live(errors.PhaseSetup); err != nil {
		return err
	}
	s.bridge.Registry().SetInvalidate(h)
	return nil
}

// RegisterBehavior binds a draw handler to a behavior name. Rebinding a
// name replaces the handler; nil unbinds it. The engine learns about a name
// once, the first time it is bound; later bindings, including after an
// unbind, only swap the handler.
func (s *Session) RegisterBehavior(name string, h bridge.DrawHandler) error {
	if err := s.live(errors.PhaseSetup); err != nil {
		return err
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseSetup, "empty behavior name")
	}
	reg := s.bridge.Registry()
	reg.SetDraw(name, h)
	if _, known := s.behaviors[name]; known || h == nil {
		return nil
	}
	if err := s.eng.RegisterBehavior(s.hwnd, name, s.bridge.Behavior(name)); err != nil {
		reg.SetDraw(name, nil)
		return errors.Engine(errors.PhaseSetup, "register behavior "+name, err)
	}
	s.behaviors[name] = struct{}{}
	s.log.Debug("behavior registered", zap.String("behavior", name))
	return nil
}

// LoadHTML replaces the current document with html. baseURI resolves
// relative references in it.
func (s *Session) LoadHTML(html []byte, baseURI string) error {
	if err := s.live(errors.PhaseLoad); err != nil {
		return err
	}
	defer s.enter()()
	if err := s.eng.LoadHTML(s.hwnd, html, baseURI); err != nil {
		return errors.Engine(errors.PhaseLoad, "load html", err)
	}
	return nil
}

// LoadFile replaces the current document with the resource at uri. The
// engine usually requests it back through the data load handler.
func (s *Session) LoadFile(uri string) error {
	if err := s.live(errors.PhaseLoad); err != nil {
		return err
	}
	defer s.enter()()
	if err := s.eng.LoadFile(s.hwnd, uri); err != nil {
		return errors.Engine(errors.PhaseLoad, "load "+uri, err)
	}
	return nil
}

// Root returns the document root element.
func (s *Session) Root() (engine.Element, error) {
	if err := s.live(errors.PhaseScript); err != nil {
		return 0, err
	}
	root, ok := s.eng.Root(s.hwnd)
	if !ok {
		return 0, errors.New(errors.PhaseScript, errors.KindNotFound).
			Detail("no document loaded in %s", s.hwnd).
			Build()
	}
	return root, nil
}

// Call invokes a script function on the document root.
func (s *Session) Call(name string, args ...value.Value) (value.Value, error) {
	root, err := s.Root()
	if err != nil {
		return value.Null(), err
	}
	eargs := make([]engine.Value, len(args))
	for i, arg := range args {
		if eargs[i], err = codec.ToEngine(arg); err != nil {
			return value.Null(), err
		}
	}
	res, err := s.call(root, name, eargs)
	if err != nil {
		return value.Null(), err
	}
	return codec.FromEngine(res)
}

// CallWire is Call with the arguments given as one CBOR array and the
// result returned as CBOR.
func (s *Session) CallWire(name string, args []byte) ([]byte, error) {
	root, err := s.Root()
	if err != nil {
		return nil, err
	}
	eargs, err := codec.WireToArgs(args)
	if err != nil {
		return nil, err
	}
	res, err := s.call(root, name, eargs)
	if err != nil {
		return nil, err
	}
	return codec.EngineToWire(res)
}

func (s *Session) call(root engine.Element, name string, args []engine.Value) (engine.Value, error) {
	defer s.enter()()
	res, err := s.eng.CallFunction(s.hwnd, root, name, args)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, engine.ErrFunctionNotFound):
		return engine.Value{}, errors.New(errors.PhaseScript, errors.KindNotFound).
			Detail("function %q not defined", name).
			Cause(err).
			Build()
	default:
		return engine.Value{}, errors.Engine(errors.PhaseScript, "call "+name, err)
	}
}

// Complete answers a request deferred with bridge.OutcomeHandleLater. The
// request is settled even if the engine then rejects the bytes; a second
// Complete or a Cancel for the same id fails with an unknown-request error.
func (s *Session) Complete(id windowless.RequestID, data []byte) error {
	if err := s.live(errors.PhaseComplete); err != nil {
		return err
	}
	req, err := s.bridge.Pending().Resolve(id)
	if err != nil {
		return err
	}
	if err := s.eng.DataReadyAsync(s.hwnd, req.URI, data, id); err != nil {
		return errors.Engine(errors.PhaseComplete, "deliver "+req.URI, err)
	}
	s.log.Debug("deferred request completed",
		zap.Uint64("request_id", uint64(id)),
		zap.String("uri", req.URI),
		zap.Duration("waited", time.Since(req.Issued)))
	return nil
}

// Cancel forgets a deferred request without answering it.
func (s *Session) Cancel(id windowless.RequestID) error {
	if err := s.live(errors.PhaseComplete); err != nil {
		return err
	}
	_, err := s.bridge.Pending().Cancel(id)
	return err
}

// Pending lists the deferred request ids awaiting Complete, in order.
func (s *Session) Pending() []windowless.RequestID {
	return s.bridge.Pending().IDs()
}

// Subscribe observes deferred request lifecycle events.
func (s *Session) Subscribe(o bridge.Observer) {
	s.bridge.Pending().Subscribe(o)
}

// Heartbeat dispatches a Heartbeat carrying the time since Create.
func (s *Session) Heartbeat() error {
	return s.Dispatch(message.Heartbeat{Milliseconds: ticks(time.Since(s.created))})
}

// ticks is the engine's 32-bit millisecond clock for d. It wraps to zero
// every 2^32 ms (about 49.7 days).
func ticks(d time.Duration) uint32 {
	return uint32(uint64(d.Milliseconds()) % (1 << 32))
}

// Render paints the document root as the foreground layer.
func (s *Session) Render() error {
	root, err := s.Root()
	if err != nil {
		return err
	}
	return s.Dispatch(message.Paint{Layer: message.PaintLayer{Element: root, IsForeground: true}})
}
