package message

import (
	"fmt"

	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
)

// Message is one windowless host message. The set of implementations is
// closed; each variant is an immutable value type.
type Message interface {
	// Code returns the engine message code the variant translates to.
	Code() engine.MessageCode
	isMessage()
}

// Point is a position in window pixels.
type Point struct {
	X int32
	Y int32
}

// PaintLayer names the element a Paint message renders.
type PaintLayer struct {
	Element      engine.Element
	IsForeground bool
}

type (
	// Create initializes the engine window.
	Create struct {
		Backend     Backend
		Transparent bool
	}

	// Destroy tears the engine window down. Nothing may follow it.
	Destroy struct{}

	// Size sets the surface size in pixels.
	Size struct {
		Width  uint32
		Height uint32
	}

	// Resolution sets pixels per inch.
	Resolution struct {
		PPI uint32
	}

	// Focus reports the window gaining (Enter) or losing focus.
	Focus struct {
		Enter bool
	}

	// Heartbeat advances engine timers to Milliseconds since start.
	Heartbeat struct {
		Milliseconds uint32
	}

	// Redraw asks the engine to render a frame.
	Redraw struct{}

	// Paint renders one element layer.
	Paint struct {
		Layer PaintLayer
	}

	// Mouse is a pointer event.
	Mouse struct {
		Event     MouseEvent
		Button    MouseButton
		Modifiers Modifiers
		Pos       Point
	}

	// Keyboard is a key event. KeyCode is the platform key code, or the
	// character for KeyChar.
	Keyboard struct {
		Event     KeyEvent
		KeyCode   uint32
		Modifiers Modifiers
	}
)

func (Create) Code() engine.MessageCode     { return engine.MsgCreate }
func (Destroy) Code() engine.MessageCode    { return engine.MsgDestroy }
func (Size) Code() engine.MessageCode       { return engine.MsgSize }
func (Resolution) Code() engine.MessageCode { return engine.MsgResolution }
func (Focus) Code() engine.MessageCode      { return engine.MsgFocus }
func (Heartbeat) Code() engine.MessageCode  { return engine.MsgHeartbeat }
func (Redraw) Code() engine.MessageCode     { return engine.MsgRedraw }
func (Paint) Code() engine.MessageCode      { return engine.MsgPaint }
func (Mouse) Code() engine.MessageCode      { return engine.MsgMouse }
func (Keyboard) Code() engine.MessageCode   { return engine.MsgKey }

func (Create) isMessage()     {}
func (Destroy) isMessage()    {}
func (Size) isMessage()       {}
func (Resolution) isMessage() {}
func (Focus) isMessage()      {}
func (Heartbeat) isMessage()  {}
func (Redraw) isMessage()     {}
func (Paint) isMessage()      {}
func (Mouse) isMessage()      {}
func (Keyboard) isMessage()   {}

func (m Mouse) String() string {
	return fmt.Sprintf("mouse %s %s %s (%d,%d)", m.Event, m.Button, m.Modifiers, m.Pos.X, m.Pos.Y)
}

func (m Keyboard) String() string {
	return fmt.Sprintf("key %s %d %s", m.Event, m.KeyCode, m.Modifiers)
}

// LeftDown presses the left button at (x, y).
func LeftDown(x, y int32) Mouse {
	return Mouse{Event: MouseDown, Button: ButtonLeft, Pos: Point{X: x, Y: y}}
}

// LeftUp releases the left button at (x, y).
func LeftUp(x, y int32) Mouse {
	return Mouse{Event: MouseUp, Button: ButtonLeft, Pos: Point{X: x, Y: y}}
}

// MoveTo moves the pointer to (x, y) with no button held.
func MoveTo(x, y int32) Mouse {
	return Mouse{Event: MouseMove, Button: ButtonNone, Pos: Point{X: x, Y: y}}
}

// LeftClick is a complete left click at (x, y).
func LeftClick(x, y int32) Mouse {
	return Mouse{Event: MouseClick, Button: ButtonLeft, Pos: Point{X: x, Y: y}}
}

// Translate renders m in engine wire form. It has no side effects, and
// distinct messages always produce distinct wire messages. Fields not used
// by the variant are left zero.
func Translate(m Message) (engine.WireMessage, error) {
	switch m := m.(type) {
	case Create:
		layer, err := m.Backend.Wire()
		if err != nil {
			return engine.WireMessage{}, err
		}
		return engine.WireMessage{Code: engine.MsgCreate, Backend: layer, Transparent: m.Transparent}, nil
	case Destroy:
		return engine.WireMessage{Code: engine.MsgDestroy}, nil
	case Size:
		return engine.WireMessage{Code: engine.MsgSize, Width: m.Width, Height: m.Height}, nil
	case Resolution:
		return engine.WireMessage{Code: engine.MsgResolution, PPI: m.PPI}, nil
	case Focus:
		return engine.WireMessage{Code: engine.MsgFocus, Enter: m.Enter}, nil
	case Heartbeat:
		return engine.WireMessage{Code: engine.MsgHeartbeat, Milliseconds: m.Milliseconds}, nil
	case Redraw:
		return engine.WireMessage{Code: engine.MsgRedraw}, nil
	case Paint:
		return engine.WireMessage{
			Code:       engine.MsgPaint,
			Element:    m.Layer.Element,
			Foreground: m.Layer.IsForeground,
		}, nil
	case Mouse:
		return translateMouse(m)
	case Keyboard:
		return translateKeyboard(m)
	case nil:
		return engine.WireMessage{}, errors.InvalidInput(errors.PhaseTranslate, "nil message")
	}
	return engine.WireMessage{}, errors.New(errors.PhaseTranslate, errors.KindUnsupported).
		Type(fmt.Sprintf("%T", m)).
		Build()
}

func translateMouse(m Mouse) (engine.WireMessage, error) {
	ev, err := m.Event.wire()
	if err != nil {
		return engine.WireMessage{}, err
	}
	btn, err := m.Button.wire()
	if err != nil {
		return engine.WireMessage{}, err
	}
	mods, err := m.Modifiers.wire()
	if err != nil {
		return engine.WireMessage{}, err
	}
	return engine.WireMessage{
		Code:      engine.MsgMouse,
		Mouse:     ev,
		Button:    btn,
		Modifiers: mods,
		Pos:       engine.Point{X: m.Pos.X, Y: m.Pos.Y},
	}, nil
}

func translateKeyboard(m Keyboard) (engine.WireMessage, error) {
	ev, err := m.Event.wire()
	if err != nil {
		return engine.WireMessage{}, err
	}
	mods, err := m.Modifiers.wire()
	if err != nil {
		return engine.WireMessage{}, err
	}
	return engine.WireMessage{
		Code:      engine.MsgKey,
		Key:       ev,
		KeyCode:   m.KeyCode,
		Modifiers: mods,
	}, nil
}
