package message

import (
	"testing"

	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
)

// allVariants holds at least one instance of every message variant plus
// near-duplicates that must still translate differently.
func allVariants() []Message {
	return []Message{
		Create{Backend: BackendAuto},
		Create{Backend: BackendAuto, Transparent: true},
		Create{Backend: BackendSkiaOpenGL},
		Destroy{},
		Size{Width: 800, Height: 600},
		Size{Width: 600, Height: 800},
		Resolution{PPI: 96},
		Focus{Enter: true},
		Focus{Enter: false},
		Heartbeat{Milliseconds: 16},
		Redraw{},
		Paint{Layer: PaintLayer{Element: 1, IsForeground: true}},
		Paint{Layer: PaintLayer{Element: 1}},
		Mouse{Event: MouseDown, Button: ButtonLeft, Modifiers: ModNone, Pos: Point{X: 10, Y: 10}},
		Mouse{Event: MouseDown, Button: ButtonNone, Modifiers: ModNone, Pos: Point{X: 10, Y: 10}},
		Mouse{Event: MouseDown, Button: ButtonLeft, Modifiers: ModShift, Pos: Point{X: 10, Y: 10}},
		Mouse{Event: MouseUp, Button: ButtonLeft, Pos: Point{X: 10, Y: 10}},
		Mouse{Event: MouseClick, Button: ButtonRight, Pos: Point{X: 10, Y: 11}},
		Keyboard{Event: KeyDown, KeyCode: 65, Modifiers: ModNone},
		Keyboard{Event: KeyChar, KeyCode: 65, Modifiers: ModControl | ModAlt},
	}
}

func TestTranslateDeterministic(t *testing.T) {
	for _, m := range allVariants() {
		a, err := Translate(m)
		if err != nil {
			t.Fatalf("Translate(%#v): %v", m, err)
		}
		b, err := Translate(m)
		if err != nil {
			t.Fatalf("Translate(%#v): %v", m, err)
		}
		if a != b {
			t.Errorf("Translate(%#v) not deterministic: %+v vs %+v", m, a, b)
		}
		if a.Code != m.Code() {
			t.Errorf("Translate(%#v).Code = %s, want %s", m, a.Code, m.Code())
		}
	}
}

func TestTranslateInjective(t *testing.T) {
	msgs := allVariants()
	wires := make([]engine.WireMessage, len(msgs))
	for i, m := range msgs {
		w, err := Translate(m)
		if err != nil {
			t.Fatalf("Translate(%#v): %v", m, err)
		}
		wires[i] = w
	}
	for i := range wires {
		for j := i + 1; j < len(wires); j++ {
			if wires[i] == wires[j] {
				t.Errorf("%#v and %#v collide on %+v", msgs[i], msgs[j], wires[i])
			}
		}
	}
}

func TestTranslateMouse(t *testing.T) {
	got, err := Translate(Mouse{Event: MouseDown, Button: ButtonLeft, Modifiers: ModNone, Pos: Point{X: 10, Y: 10}})
	if err != nil {
		t.Fatal(err)
	}
	want := engine.WireMessage{
		Code:   engine.MsgMouse,
		Mouse:  engine.MouseDown,
		Button: engine.ButtonMain,
		Pos:    engine.Point{X: 10, Y: 10},
	}
	if got != want {
		t.Errorf("Translate = %+v, want %+v", got, want)
	}
	if got.Modifiers != 0 {
		t.Errorf("no modifiers translated to %d", got.Modifiers)
	}
}

func TestTranslateModifiers(t *testing.T) {
	tests := []struct {
		mods Modifiers
		want engine.KeyboardState
	}{
		{ModNone, 0},
		{ModControl, engine.ControlKeyPressed},
		{ModShift, engine.ShiftKeyPressed},
		{ModAlt, engine.AltKeyPressed},
		{ModControl | ModShift | ModAlt, engine.ControlKeyPressed | engine.ShiftKeyPressed | engine.AltKeyPressed},
	}
	for _, tt := range tests {
		t.Run(tt.mods.String(), func(t *testing.T) {
			w, err := Translate(Keyboard{Event: KeyDown, KeyCode: 1, Modifiers: tt.mods})
			if err != nil {
				t.Fatal(err)
			}
			if w.Modifiers != tt.want {
				t.Errorf("modifiers = %d, want %d", w.Modifiers, tt.want)
			}
		})
	}
}

func TestTranslateInvalidEnums(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"unspecified backend", Create{}},
		{"backend out of range", Create{Backend: Backend(200)}},
		{"unspecified mouse event", Mouse{Button: ButtonLeft}},
		{"mouse event out of range", Mouse{Event: MouseEvent(99), Button: ButtonLeft}},
		{"unspecified button", Mouse{Event: MouseMove}},
		{"button out of range", Mouse{Event: MouseMove, Button: MouseButton(9)}},
		{"unknown modifier bits", Mouse{Event: MouseMove, Button: ButtonNone, Modifiers: 0x80}},
		{"unspecified key event", Keyboard{KeyCode: 1}},
		{"key event out of range", Keyboard{Event: KeyEvent(4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.msg)
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseTranslate, Kind: errors.KindInvalidEnum}) {
				t.Errorf("Translate error = %v, want invalid enum", err)
			}
		})
	}

	if _, err := Translate(nil); err == nil {
		t.Error("Translate(nil) succeeded")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		msg    Mouse
		event  engine.MouseEvent
		button engine.MouseButton
	}{
		{"down", LeftDown(1, 2), engine.MouseDown, engine.ButtonMain},
		{"up", LeftUp(1, 2), engine.MouseUp, engine.ButtonMain},
		{"move", MoveTo(1, 2), engine.MouseMove, engine.ButtonNone},
		{"click", LeftClick(1, 2), engine.MouseClick, engine.ButtonMain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Translate(tt.msg)
			if err != nil {
				t.Fatal(err)
			}
			if w.Mouse != tt.event || w.Button != tt.button || w.Pos != (engine.Point{X: 1, Y: 2}) || w.Modifiers != 0 {
				t.Errorf("Translate = %+v", w)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if b, err := ParseBackend("skia-opengl"); err != nil || b != BackendSkiaOpenGL {
		t.Errorf("ParseBackend = %v, %v", b, err)
	}
	if _, err := ParseBackend("unspecified"); err == nil {
		t.Error("ParseBackend accepted unspecified")
	}
	if e, err := ParseMouseEvent("Down"); err != nil || e != MouseDown {
		t.Errorf("ParseMouseEvent = %v, %v", e, err)
	}
	if b, err := ParseMouseButton("none"); err != nil || b != ButtonNone {
		t.Errorf("ParseMouseButton = %v, %v", b, err)
	}
	if k, err := ParseKeyEvent("char"); err != nil || k != KeyChar {
		t.Errorf("ParseKeyEvent = %v, %v", k, err)
	}
	if m, err := ParseModifiers("ctrl+shift"); err != nil || m != ModControl|ModShift {
		t.Errorf("ParseModifiers = %v, %v", m, err)
	}
	if m, err := ParseModifiers("none"); err != nil || m != ModNone {
		t.Errorf("ParseModifiers(none) = %v, %v", m, err)
	}
	if _, err := ParseModifiers("hyper"); err == nil {
		t.Error("ParseModifiers accepted unknown modifier")
	}
	if s := (ModControl | ModAlt).String(); s != "ctrl+alt" {
		t.Errorf("Modifiers.String = %q", s)
	}
}
