package main

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/bridge"
	"github.com/wippyai/windowless/codec"
	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/runtime"
	"github.com/wippyai/windowless/session"
	"github.com/wippyai/windowless/value"
)

// Entry is one traced callback or step result.
type Entry struct {
	Kind   string
	Detail string
}

func (e Entry) String() string { return e.Kind + ": " + e.Detail }

// Player replays a Scenario against one session and answers the
// engine's callbacks the way the scenario describes.
type Player struct {
	sc    *Scenario
	sess  *session.Session
	log   *zap.Logger
	later map[string]windowless.RequestID
	trace []Entry
	mu    sync.Mutex
}

// NewPlayer initializes the runtime with the scenario options and creates
// the scenario window on eng.
func NewPlayer(eng engine.Engine, sc *Scenario, log *zap.Logger) (*Player, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Player{
		sc:    sc,
		log:   log,
		later: make(map[string]windowless.RequestID),
	}

	if err := runtime.Initialize(eng, sc.RuntimeOptions()); err != nil {
		return nil, fmt.Errorf("initialize runtime: %w", err)
	}

	opts := []session.Option{
		session.WithLogger(log),
		session.WithDataLoadHandler(bridge.DataLoadFunc(p.dataLoad)),
		session.WithNativeInvocationHandler(bridge.NativeInvocationFunc(p.native)),
		session.WithInvalidateHandler(bridge.InvalidateFunc(p.invalidate)),
		session.WithDefectHandler(p.defect),
	}
	if sc.Window.Width > 0 && sc.Window.Height > 0 {
		opts = append(opts, session.WithInitialSize(sc.Window.Width, sc.Window.Height))
	}
	if sc.Window.PPI > 0 {
		opts = append(opts, session.WithResolution(sc.Window.PPI))
	}

	sess, err := session.Create(eng, windowless.Handle(sc.Handle()), sc.backend(), sc.Window.Transparent, opts...)
	if err != nil {
		return nil, err
	}
	p.sess = sess
	sess.Subscribe(bridge.ObserverFunc(p.pending))

	for _, name := range sc.Behaviors {
		if err := sess.RegisterBehavior(name, p.drawer(name)); err != nil {
			_ = sess.Close()
			return nil, fmt.Errorf("register behavior %s: %w", name, err)
		}
	}
	return p, nil
}

// Session returns the replayed session.
func (p *Player) Session() *session.Session { return p.sess }

// Close destroys the session if it is still live.
func (p *Player) Close() error { return p.sess.Close() }

func (p *Player) record(kind, format string, args ...any) {
	e := Entry{Kind: kind, Detail: fmt.Sprintf(format, args...)}
	p.mu.Lock()
	p.trace = append(p.trace, e)
	p.mu.Unlock()
	p.log.Debug(e.Detail, zap.String("kind", kind))
}

// Drain returns and forgets the entries recorded so far.
func (p *Player) Drain() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.trace
	p.trace = nil
	return out
}

// Run plays every scenario step in order and stops at the first failure.
// each, when set, receives every step's trace.
func (p *Player) Run(each func(i int, st Step, trace []Entry)) error {
	for i, st := range p.sc.Steps {
		err := p.Play(st)
		if each != nil {
			each(i, st, p.Drain())
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, st, err)
		}
	}
	return nil
}

// Play performs one step.
func (p *Player) Play(st Step) error {
	if err := st.validate(); err != nil {
		return err
	}
	s := p.sess
	switch {
	case st.Message != nil:
		msg, _ := st.Message.Message()
		return s.Dispatch(msg)
	case st.HTML != "":
		return s.LoadHTML([]byte(st.HTML), st.BaseURI)
	case st.File != "":
		return s.LoadFile(st.File)
	case st.Call != nil:
		args, _ := st.Call.values()
		res, err := s.Call(st.Call.Name, args...)
		if err != nil {
			return err
		}
		p.record("result", "%s = %s", st.Call.Name, res)
		return nil
	case st.Complete != nil:
		return p.complete(st.Complete)
	case st.Cancel != "":
		id, err := p.takeLater(st.Cancel)
		if err != nil {
			return err
		}
		return s.Cancel(id)
	case st.Heartbeat:
		return s.Heartbeat()
	case st.Render:
		return s.Render()
	}
	return nil
}

func (p *Player) takeLater(uri string) (windowless.RequestID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.later[uri]
	if !ok {
		return 0, fmt.Errorf("no deferred load for %s", uri)
	}
	delete(p.later, uri)
	return id, nil
}

func (p *Player) complete(c *CompleteSpec) error {
	var data []byte
	if c.Data != nil {
		data = []byte(*c.Data)
	} else {
		r, ok := p.sc.resource(c.URI)
		if !ok {
			return fmt.Errorf("complete %s: no data and no matching resource", c.URI)
		}
		var err error
		if data, err = p.sc.resourceData(r); err != nil {
			return err
		}
	}
	id, err := p.takeLater(c.URI)
	if err != nil {
		return err
	}
	return p.sess.Complete(id, data)
}

func (p *Player) dataLoad(req bridge.LoadRequest, inline *bridge.Future) (bridge.LoadOutcome, error) {
	r, ok := p.sc.resource(req.URI)
	if !ok {
		p.record("load", "%s -> none", req.URI)
		return bridge.OutcomeNone, nil
	}
	outcome, err := parseOutcome(r.Outcome)
	if err != nil {
		return bridge.OutcomeNone, err
	}

	switch outcome {
	case bridge.OutcomeHandleLater:
		p.mu.Lock()
		p.later[req.URI] = req.ID
		p.mu.Unlock()
	case bridge.OutcomeDefault, bridge.OutcomeHandleMyself:
		if outcome == bridge.OutcomeDefault && r.Data == "" && r.File == "" {
			break
		}
		data, err := p.sc.resourceData(r)
		if err != nil {
			return bridge.OutcomeNone, err
		}
		if err := inline.Complete(data); err != nil {
			return bridge.OutcomeNone, err
		}
		p.record("load", "%s -> %s (%d bytes)", req.URI, outcome, len(data))
		return outcome, nil
	}
	p.record("load", "%s -> %s", req.URI, outcome)
	return outcome, nil
}

func (p *Player) native(name string, args []byte, ret *bridge.Future) (bool, error) {
	diag, err := codec.Diagnose(args)
	if err != nil {
		diag = fmt.Sprintf("<%d bytes>", len(args))
	}
	spec, ok := p.sc.Natives[name]
	if !ok || spec.Decline {
		p.record("native", "%s%s declined", name, diag)
		return false, nil
	}
	v, err := value.FromGo(spec.Result)
	if err != nil {
		return false, err
	}
	if err := ret.CompleteValue(v); err != nil {
		return false, err
	}
	p.record("native", "%s%s -> %s", name, diag, v)
	return true, nil
}

func (p *Player) invalidate(area engine.Rect) {
	p.record("invalidate", "(%d,%d)-(%d,%d)", area.Left, area.Top, area.Right, area.Bottom)
}

func (p *Player) defect(err error) {
	p.record("defect", "%v", err)
}

func (p *Player) pending(e bridge.Event) {
	p.record("pending", "%s %s #%d", e.Type, e.Request.URI, e.Request.ID)
}

func (p *Player) drawer(name string) bridge.DrawHandler {
	return bridge.DrawFunc(func(area engine.Rect, layer engine.DrawLayer) (bool, error) {
		p.record("draw", "%s %dx%d %s", name, area.Width(), area.Height(), layer)
		return true, nil
	})
}
