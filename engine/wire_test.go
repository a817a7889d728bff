package engine

import (
	"bytes"
	"testing"
)

func TestWireMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  WireMessage
		size int
	}{
		{"create", WireMessage{Code: MsgCreate, Backend: GfxSkiaOpenGL, Transparent: true}, 9},
		{"destroy", WireMessage{Code: MsgDestroy}, 4},
		{"size", WireMessage{Code: MsgSize, Width: 800, Height: 600}, 12},
		{"paint", WireMessage{Code: MsgPaint, Element: 0xdeadbeef01, Foreground: true}, 13},
		{"resolution", WireMessage{Code: MsgResolution, PPI: 96}, 8},
		{"heartbeat", WireMessage{Code: MsgHeartbeat, Milliseconds: 16}, 8},
		{"mouse", WireMessage{
			Code: MsgMouse, Mouse: MouseDown, Button: ButtonMain,
			Modifiers: ShiftKeyPressed, Pos: Point{X: -5, Y: 120},
		}, 24},
		{"key", WireMessage{Code: MsgKey, Key: KeyChar, KeyCode: 'a', Modifiers: ControlKeyPressed | AltKeyPressed}, 16},
		{"focus", WireMessage{Code: MsgFocus, Enter: true}, 5},
		{"redraw", WireMessage{Code: MsgRedraw}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.msg.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary: %v", err)
			}
			if len(data) != tt.size {
				t.Errorf("encoded size = %d, want %d", len(data), tt.size)
			}
			var got WireMessage
			if err := got.UnmarshalBinary(data); err != nil {
				t.Fatalf("UnmarshalBinary: %v", err)
			}
			if got != tt.msg {
				t.Errorf("round trip = %+v, want %+v", got, tt.msg)
			}
		})
	}
}

func TestWireMessageDistinctBytes(t *testing.T) {
	msgs := []WireMessage{
		{Code: MsgFocus, Enter: true},
		{Code: MsgFocus, Enter: false},
		{Code: MsgMouse, Mouse: MouseDown, Button: ButtonMain},
		{Code: MsgMouse, Mouse: MouseUp, Button: ButtonMain},
		{Code: MsgMouse, Mouse: MouseDown, Button: ButtonProp},
		{Code: MsgSize, Width: 1, Height: 2},
		{Code: MsgSize, Width: 2, Height: 1},
	}
	seen := make([][]byte, 0, len(msgs))
	for _, m := range msgs {
		data, err := m.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary(%+v): %v", m, err)
		}
		for _, prev := range seen {
			if bytes.Equal(prev, data) {
				t.Fatalf("%+v encodes to the same bytes as an earlier message", m)
			}
		}
		seen = append(seen, data)
	}
}

func TestWireMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short code", []byte{1, 0}},
		{"unknown code", []byte{42, 0, 0, 0}},
		{"truncated size", []byte{2, 0, 0, 0, 1, 0, 0, 0}},
		{"trailing", []byte{1, 0, 0, 0, 0}},
		{"bad bool", []byte{8, 0, 0, 0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m WireMessage
			if err := m.UnmarshalBinary(tt.data); err == nil {
				t.Errorf("UnmarshalBinary(%x) succeeded with %+v", tt.data, m)
			}
		})
	}

	if _, err := (WireMessage{Code: 99}).MarshalBinary(); err == nil {
		t.Error("MarshalBinary accepted unknown code")
	}
}

func TestStringers(t *testing.T) {
	if MsgPaint.String() != "paint" {
		t.Errorf("MsgPaint = %q", MsgPaint.String())
	}
	if MessageCode(77).String() != "msg(77)" {
		t.Errorf("MessageCode(77) = %q", MessageCode(77).String())
	}
	if TypeBigInt.String() != "bigint" {
		t.Errorf("TypeBigInt = %q", TypeBigInt.String())
	}
	if LoadDelayed.String() != "delayed" {
		t.Errorf("LoadDelayed = %q", LoadDelayed.String())
	}
	if OptionInitScript.String() != "init-script" {
		t.Errorf("OptionInitScript = %q", OptionInitScript.String())
	}
	if (Rect{Left: 10, Top: 5, Right: 30, Bottom: 45}).Width() != 20 {
		t.Error("Rect.Width")
	}
}
