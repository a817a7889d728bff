package main

import (
	"strings"
	"testing"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/engine/enginetest"
)

const playerYAML = `
window:
  handle: 81
  width: 800
  height: 600
resources:
  - match: "app://styles/"
    outcome: handle-myself
    data: "body {}"
  - match: "https://"
    outcome: handle-later
    data: "remote"
  - match: "app://skip"
    outcome: discard
natives:
  add:
    result: 3
  quiet:
    decline: true
behaviors: [chart]
steps:
  - html: "<html/>"
    base_uri: app://index.html
  - message: {type: mouse, event: down, button: left, x: 10, y: 10}
  - call: {name: sum, args: [1, 2]}
`

func newPlayer(t *testing.T, doc string) (*Player, *enginetest.Engine) {
	t.Helper()
	sc, err := ParseScenario([]byte(doc), "test.yaml")
	if err != nil {
		t.Fatal(err)
	}
	eng := enginetest.New()
	eng.Define("sum", func(args []engine.Value) (engine.Value, error) {
		var total int32
		for _, a := range args {
			total += int32(a.Int)
		}
		return enginetest.Int(total), nil
	})
	p, err := NewPlayer(eng, sc, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, eng
}

func hasEntry(trace []Entry, kind, detail string) bool {
	for _, e := range trace {
		if e.Kind == kind && strings.Contains(e.Detail, detail) {
			return true
		}
	}
	return false
}

func TestPlayerRun(t *testing.T) {
	p, eng := newPlayer(t, playerYAML)
	hwnd := windowless.Handle(81)

	var played []string
	var traces [][]Entry
	err := p.Run(func(i int, st Step, trace []Entry) {
		played = append(played, st.String())
		traces = append(traces, trace)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(played) != 3 {
		t.Fatalf("played %v", played)
	}
	if !hasEntry(traces[2], "result", "sum = 3") {
		t.Errorf("call trace = %v", traces[2])
	}

	msgs := eng.Messages(hwnd)
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want create, size and mouse", len(msgs))
	}
	if msgs[1].Code != engine.MsgSize || msgs[1].Width != 800 {
		t.Errorf("size message = %+v", msgs[1])
	}
	if last := msgs[2]; last.Code != engine.MsgMouse || last.Pos.X != 10 || last.Pos.Y != 10 {
		t.Errorf("mouse message = %+v", last)
	}
	if docs := eng.Documents(hwnd); len(docs) != 1 || docs[0].URI != "app://index.html" {
		t.Errorf("documents = %+v", docs)
	}
	if got := eng.Behaviors(hwnd); len(got) != 1 || got[0] != "chart" {
		t.Errorf("behaviors = %v", got)
	}
}

func TestPlayerCallbacks(t *testing.T) {
	p, eng := newPlayer(t, strings.Replace(playerYAML, "handle: 81", "handle: 82", 1))
	hwnd := windowless.Handle(82)

	t.Run("inline load", func(t *testing.T) {
		_, res, ok, err := eng.RequestData(hwnd, "app://styles/main.css", engine.ResourceStyle)
		if err != nil || !ok || res != engine.LoadMyself {
			t.Fatalf("RequestData = %s, %t, %v", res, ok, err)
		}
		d := eng.Deliveries(hwnd)
		if len(d) != 1 || string(d[0].Data) != "body {}" || d[0].Async {
			t.Errorf("deliveries = %+v", d)
		}
	})

	t.Run("unmatched load", func(t *testing.T) {
		_, _, ok, err := eng.RequestData(hwnd, "file:///etc/hosts", engine.ResourceHTML)
		if err != nil || ok {
			t.Errorf("RequestData answered: %t, %v", ok, err)
		}
	})

	t.Run("discard", func(t *testing.T) {
		_, res, ok, err := eng.RequestData(hwnd, "app://skip/a.png", engine.ResourceImage)
		if err != nil || !ok || res != engine.LoadDiscard {
			t.Errorf("RequestData = %s, %t, %v", res, ok, err)
		}
	})

	t.Run("deferred load", func(t *testing.T) {
		id, res, ok, err := eng.RequestData(hwnd, "https://cdn/x.js", engine.ResourceScript)
		if err != nil || !ok || res != engine.LoadDelayed {
			t.Fatalf("RequestData = %s, %t, %v", res, ok, err)
		}
		if pending := p.Session().Pending(); len(pending) != 1 || pending[0] != id {
			t.Fatalf("pending = %v", pending)
		}
		if err := p.Play(Step{Complete: &CompleteSpec{URI: "https://cdn/x.js"}}); err != nil {
			t.Fatal(err)
		}
		if pending := p.Session().Pending(); len(pending) != 0 {
			t.Errorf("still pending: %v", pending)
		}
		d := eng.Deliveries(hwnd)
		last := d[len(d)-1]
		if !last.Async || last.ID != id || string(last.Data) != "remote" {
			t.Errorf("delivery = %+v", last)
		}
		if err := p.Play(Step{Complete: &CompleteSpec{URI: "https://cdn/x.js"}}); err == nil {
			t.Error("second completion accepted")
		}
	})

	t.Run("cancel", func(t *testing.T) {
		if _, _, _, err := eng.RequestData(hwnd, "https://cdn/y.js", engine.ResourceScript); err != nil {
			t.Fatal(err)
		}
		if err := p.Play(Step{Cancel: "https://cdn/y.js"}); err != nil {
			t.Fatal(err)
		}
		if pending := p.Session().Pending(); len(pending) != 0 {
			t.Errorf("still pending: %v", pending)
		}
	})

	t.Run("natives", func(t *testing.T) {
		v, ok, err := eng.ScriptCall(hwnd, "add", enginetest.Int(1), enginetest.Int(2))
		if err != nil || !ok || v.Type != engine.TypeInt || v.Int != 3 {
			t.Errorf("add = %+v, %t, %v", v, ok, err)
		}
		if _, ok, _ := eng.ScriptCall(hwnd, "quiet"); ok {
			t.Error("quiet produced a value")
		}
		if _, ok, _ := eng.ScriptCall(hwnd, "missing"); ok {
			t.Error("missing produced a value")
		}
	})

	t.Run("draw", func(t *testing.T) {
		handled, gfx, err := eng.Draw(hwnd, "chart", engine.Rect{Right: 100, Bottom: 20}, engine.DrawContent)
		if err != nil || !handled {
			t.Fatalf("Draw = %t, %v", handled, err)
		}
		if gfx.Flushes != 1 {
			t.Errorf("flushes = %d", gfx.Flushes)
		}
	})

	t.Run("invalidate", func(t *testing.T) {
		if err := eng.Invalidate(hwnd, engine.Rect{Left: 1, Top: 2, Right: 3, Bottom: 4}); err != nil {
			t.Fatal(err)
		}
	})

	trace := p.Drain()
	for _, want := range []struct{ kind, detail string }{
		{"load", "app://styles/main.css -> handle-myself (7 bytes)"},
		{"load", "file:///etc/hosts -> none"},
		{"load", "app://skip/a.png -> discard"},
		{"pending", "tracked https://cdn/x.js"},
		{"pending", "completed https://cdn/x.js"},
		{"pending", "cancelled https://cdn/y.js"},
		{"native", "add[1, 2] -> 3"},
		{"native", "quiet[] declined"},
		{"native", "missing[] declined"},
		{"draw", "chart 100x20 content"},
		{"invalidate", "(1,2)-(3,4)"},
	} {
		if !hasEntry(trace, want.kind, want.detail) {
			t.Errorf("trace lacks %s %q", want.kind, want.detail)
		}
	}
	if len(p.Drain()) != 0 {
		t.Error("Drain did not reset the trace")
	}
}

func TestPlayerErrors(t *testing.T) {
	p, _ := newPlayer(t, strings.Replace(playerYAML, "handle: 81", "handle: 83", 1))

	tests := []struct {
		name string
		step Step
	}{
		{"invalid step", Step{}},
		{"unknown completion", Step{Complete: &CompleteSpec{URI: "https://never"}}},
		{"no data", Step{Complete: &CompleteSpec{URI: "ftp://x"}}},
		{"unknown cancel", Step{Cancel: "https://never"}},
		{"call without document", Step{Call: &CallSpec{Name: "sum"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Play(tt.step); err == nil {
				t.Error("expected error")
			}
		})
	}

	if err := p.Play(Step{Message: &MessageSpec{Type: "destroy"}}); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(Step{Render: true}); err == nil {
		t.Error("render after destroy accepted")
	}
}

func TestPlayerNativeResultTypes(t *testing.T) {
	doc := `
window: {handle: 84}
natives:
  info:
    result: {name: chart, sizes: [1, 2.5], ok: true}
  nothing: {}
`
	_, eng := newPlayer(t, doc)
	hwnd := windowless.Handle(84)

	v, ok, err := eng.ScriptCall(hwnd, "info")
	if err != nil || !ok {
		t.Fatalf("info: %t, %v", ok, err)
	}
	if v.Type != engine.TypeMap || len(v.Entries) != 3 {
		t.Errorf("info = %+v", v)
	}

	v, ok, err = eng.ScriptCall(hwnd, "nothing")
	if err != nil || !ok || v.Type != engine.TypeNull {
		t.Errorf("nothing = %+v, %t, %v", v, ok, err)
	}
}
