package engine

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// MessageCode is the windowless message discriminator.
type MessageCode uint32

const (
	MsgCreate     MessageCode = 0
	MsgDestroy    MessageCode = 1
	MsgSize       MessageCode = 2
	MsgPaint      MessageCode = 3
	MsgResolution MessageCode = 4
	MsgHeartbeat  MessageCode = 5
	MsgMouse      MessageCode = 6
	MsgKey        MessageCode = 7
	MsgFocus      MessageCode = 8
	MsgRedraw     MessageCode = 9
)

var codeNames = [...]string{
	MsgCreate:     "create",
	MsgDestroy:    "destroy",
	MsgSize:       "size",
	MsgPaint:      "paint",
	MsgResolution: "resolution",
	MsgHeartbeat:  "heartbeat",
	MsgMouse:      "mouse",
	MsgKey:        "key",
	MsgFocus:      "focus",
	MsgRedraw:     "redraw",
}

func (c MessageCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "msg(" + strconv.FormatUint(uint64(c), 10) + ")"
}

// WireMessage is one windowless message in engine form. Only the fields
// belonging to Code are meaningful; the rest stay zero so that two messages
// are equal exactly when they mean the same thing.
type WireMessage struct {
	Pos          Point
	Element      Element
	Code         MessageCode
	Backend      GfxLayer
	Width        uint32
	Height       uint32
	PPI          uint32
	Milliseconds uint32
	Mouse        MouseEvent
	Button       MouseButton
	Modifiers    KeyboardState
	Key          KeyEvent
	KeyCode      uint32
	Transparent  bool
	Enter        bool
	Foreground   bool
}

// Binary layout: little-endian u32 code followed by the code's payload.
//
//	create      u32 backend, u8 transparent
//	size        u32 width, u32 height
//	paint       u64 element, u8 foreground
//	resolution  u32 ppi
//	heartbeat   u32 milliseconds
//	mouse       u32 event, u32 button, u32 modifiers, i32 x, i32 y
//	key         u32 event, u32 code, u32 modifiers
//	focus       u8 enter
//	destroy, redraw: no payload

// MarshalBinary encodes m in the fixed wire layout.
func (m WireMessage) MarshalBinary() ([]byte, error) {
	b := binary.LittleEndian.AppendUint32(make([]byte, 0, 24), uint32(m.Code))
	switch m.Code {
	case MsgCreate:
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Backend))
		b = appendBool(b, m.Transparent)
	case MsgDestroy, MsgRedraw:
	case MsgSize:
		b = binary.LittleEndian.AppendUint32(b, m.Width)
		b = binary.LittleEndian.AppendUint32(b, m.Height)
	case MsgPaint:
		b = binary.LittleEndian.AppendUint64(b, uint64(m.Element))
		b = appendBool(b, m.Foreground)
	case MsgResolution:
		b = binary.LittleEndian.AppendUint32(b, m.PPI)
	case MsgHeartbeat:
		b = binary.LittleEndian.AppendUint32(b, m.Milliseconds)
	case MsgMouse:
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Mouse))
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Button))
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Modifiers))
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Pos.X))
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Pos.Y))
	case MsgKey:
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Key))
		b = binary.LittleEndian.AppendUint32(b, m.KeyCode)
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Modifiers))
	case MsgFocus:
		b = appendBool(b, m.Enter)
	default:
		return nil, fmt.Errorf("engine: unknown message code %d", m.Code)
	}
	return b, nil
}

// UnmarshalBinary decodes the fixed wire layout.
func (m *WireMessage) UnmarshalBinary(data []byte) error {
	r := wireReader{data: data}
	out := WireMessage{Code: MessageCode(r.u32())}
	switch out.Code {
	case MsgCreate:
		out.Backend = GfxLayer(r.u32())
		out.Transparent = r.bool()
	case MsgDestroy, MsgRedraw:
	case MsgSize:
		out.Width = r.u32()
		out.Height = r.u32()
	case MsgPaint:
		out.Element = Element(r.u64())
		out.Foreground = r.bool()
	case MsgResolution:
		out.PPI = r.u32()
	case MsgHeartbeat:
		out.Milliseconds = r.u32()
	case MsgMouse:
		out.Mouse = MouseEvent(r.u32())
		out.Button = MouseButton(r.u32())
		out.Modifiers = KeyboardState(r.u32())
		out.Pos.X = int32(r.u32())
		out.Pos.Y = int32(r.u32())
	case MsgKey:
		out.Key = KeyEvent(r.u32())
		out.KeyCode = r.u32()
		out.Modifiers = KeyboardState(r.u32())
	case MsgFocus:
		out.Enter = r.bool()
	default:
		if r.err == nil {
			return fmt.Errorf("engine: unknown message code %d", out.Code)
		}
	}
	if r.err != nil {
		return r.err
	}
	if r.off != len(data) {
		return fmt.Errorf("engine: %d trailing bytes after %s message", len(data)-r.off, out.Code)
	}
	*m = out
	return nil
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

type wireReader struct {
	err  error
	data []byte
	off  int
}

func (r *wireReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if len(r.data)-r.off < n {
		r.err = fmt.Errorf("engine: wire message truncated at byte %d", r.off)
		return false
	}
	return true
}

func (r *wireReader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *wireReader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

func (r *wireReader) bool() bool {
	if !r.need(1) {
		return false
	}
	v := r.data[r.off]
	r.off++
	if v > 1 {
		r.err = fmt.Errorf("engine: invalid bool byte %d at %d", v, r.off-1)
		return false
	}
	return v == 1
}
