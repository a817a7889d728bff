package message

import (
	"strconv"
	"strings"

	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
)

// Backend selects the rendering backend for a new window.
type Backend uint8

const (
	BackendUnspecified Backend = iota
	BackendAuto
	BackendCPU
	BackendWARP
	BackendD2D
	BackendSkiaCPU
	BackendSkiaOpenGL
	BackendSkiaVulkan
	BackendSkiaMetal
	BackendSkiaDX12
)

var backendNames = []string{
	BackendUnspecified: "unspecified",
	BackendAuto:        "auto",
	BackendCPU:         "cpu",
	BackendWARP:        "warp",
	BackendD2D:         "d2d",
	BackendSkiaCPU:     "skia-cpu",
	BackendSkiaOpenGL:  "skia-opengl",
	BackendSkiaVulkan:  "skia-vulkan",
	BackendSkiaMetal:   "skia-metal",
	BackendSkiaDX12:    "skia-dx12",
}

var backendWire = []engine.GfxLayer{
	BackendAuto:       engine.GfxAuto,
	BackendCPU:        engine.GfxCPU,
	BackendWARP:       engine.GfxWARP,
	BackendD2D:        engine.GfxD2D,
	BackendSkiaCPU:    engine.GfxSkiaCPU,
	BackendSkiaOpenGL: engine.GfxSkiaOpenGL,
	BackendSkiaVulkan: engine.GfxSkiaVulkan,
	BackendSkiaMetal:  engine.GfxSkiaMetal,
	BackendSkiaDX12:   engine.GfxSkiaDX12,
}

func (b Backend) String() string { return enumName(backendNames, int(b)) }

// Wire returns the engine layer code for b.
func (b Backend) Wire() (engine.GfxLayer, error) {
	if b == BackendUnspecified || int(b) >= len(backendWire) {
		return 0, errors.InvalidEnum(errors.PhaseTranslate, []string{"backend"}, uint8(b), "Backend")
	}
	return backendWire[b], nil
}

// ParseBackend accepts the names printed by Backend.String.
func ParseBackend(s string) (Backend, error) {
	i, err := parseEnum(backendNames, s, "Backend")
	return Backend(i), err
}

// MouseEvent is the kind of a mouse message.
type MouseEvent uint8

const (
	MouseUnspecified MouseEvent = iota
	MouseEnter
	MouseLeave
	MouseMove
	MouseUp
	MouseDown
	MouseDoubleClick
	MouseWheel
	MouseTick
	MouseIdle
	MouseDrop
	MouseDragEnter
	MouseDragLeave
	MouseDragRequest
	MouseClick
)

var mouseEventNames = []string{
	MouseUnspecified: "unspecified",
	MouseEnter:       "enter",
	MouseLeave:       "leave",
	MouseMove:        "move",
	MouseUp:          "up",
	MouseDown:        "down",
	MouseDoubleClick: "double-click",
	MouseWheel:       "wheel",
	MouseTick:        "tick",
	MouseIdle:        "idle",
	MouseDrop:        "drop",
	MouseDragEnter:   "drag-enter",
	MouseDragLeave:   "drag-leave",
	MouseDragRequest: "drag-request",
	MouseClick:       "click",
}

var mouseEventWire = []engine.MouseEvent{
	MouseEnter:       engine.MouseEnter,
	MouseLeave:       engine.MouseLeave,
	MouseMove:        engine.MouseMove,
	MouseUp:          engine.MouseUp,
	MouseDown:        engine.MouseDown,
	MouseDoubleClick: engine.MouseDoubleClick,
	MouseWheel:       engine.MouseWheel,
	MouseTick:        engine.MouseTick,
	MouseIdle:        engine.MouseIdle,
	MouseDrop:        engine.MouseDrop,
	MouseDragEnter:   engine.MouseDragEnter,
	MouseDragLeave:   engine.MouseDragLeave,
	MouseDragRequest: engine.MouseDragRequest,
	MouseClick:       engine.MouseClick,
}

func (e MouseEvent) String() string { return enumName(mouseEventNames, int(e)) }

func (e MouseEvent) wire() (engine.MouseEvent, error) {
	if e == MouseUnspecified || int(e) >= len(mouseEventWire) {
		return 0, errors.InvalidEnum(errors.PhaseTranslate, []string{"event"}, uint8(e), "MouseEvent")
	}
	return mouseEventWire[e], nil
}

// ParseMouseEvent accepts the names printed by MouseEvent.String.
func ParseMouseEvent(s string) (MouseEvent, error) {
	i, err := parseEnum(mouseEventNames, s, "MouseEvent")
	return MouseEvent(i), err
}

// MouseButton identifies the button of a mouse message. ButtonNone is a
// real value (no button held); ButtonUnspecified is a construction mistake.
type MouseButton uint8

const (
	ButtonUnspecified MouseButton = iota
	ButtonNone
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

var buttonNames = []string{
	ButtonUnspecified: "unspecified",
	ButtonNone:        "none",
	ButtonLeft:        "left",
	ButtonRight:       "right",
	ButtonMiddle:      "middle",
}

var buttonWire = []engine.MouseButton{
	ButtonNone:   engine.ButtonNone,
	ButtonLeft:   engine.ButtonMain,
	ButtonRight:  engine.ButtonProp,
	ButtonMiddle: engine.ButtonMiddle,
}

func (b MouseButton) String() string { return enumName(buttonNames, int(b)) }

func (b MouseButton) wire() (engine.MouseButton, error) {
	if b == ButtonUnspecified || int(b) >= len(buttonWire) {
		return 0, errors.InvalidEnum(errors.PhaseTranslate, []string{"button"}, uint8(b), "MouseButton")
	}
	return buttonWire[b], nil
}

// ParseMouseButton accepts the names printed by MouseButton.String.
func ParseMouseButton(s string) (MouseButton, error) {
	i, err := parseEnum(buttonNames, s, "MouseButton")
	return MouseButton(i), err
}

// KeyEvent is the kind of a keyboard message.
type KeyEvent uint8

const (
	KeyUnspecified KeyEvent = iota
	KeyDown
	KeyUp
	KeyChar
)

var keyEventNames = []string{
	KeyUnspecified: "unspecified",
	KeyDown:        "down",
	KeyUp:          "up",
	KeyChar:        "char",
}

var keyEventWire = []engine.KeyEvent{
	KeyDown: engine.KeyDown,
	KeyUp:   engine.KeyUp,
	KeyChar: engine.KeyChar,
}

func (e KeyEvent) String() string { return enumName(keyEventNames, int(e)) }

func (e KeyEvent) wire() (engine.KeyEvent, error) {
	if e == KeyUnspecified || int(e) >= len(keyEventWire) {
		return 0, errors.InvalidEnum(errors.PhaseTranslate, []string{"event"}, uint8(e), "KeyEvent")
	}
	return keyEventWire[e], nil
}

// ParseKeyEvent accepts the names printed by KeyEvent.String.
func ParseKeyEvent(s string) (KeyEvent, error) {
	i, err := parseEnum(keyEventNames, s, "KeyEvent")
	return KeyEvent(i), err
}

// Modifiers is the set of keyboard modifiers held during an input message.
// The zero value is ModNone.
type Modifiers uint8

const (
	ModControl Modifiers = 1 << iota
	ModShift
	ModAlt

	ModNone Modifiers = 0
	modAll            = ModControl | ModShift | ModAlt
)

func (m Modifiers) String() string {
	if m == ModNone {
		return "none"
	}
	var parts []string
	if m&ModControl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if rest := m &^ modAll; rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(parts, "+")
}

func (m Modifiers) wire() (engine.KeyboardState, error) {
	if m&^modAll != 0 {
		return 0, errors.InvalidEnum(errors.PhaseTranslate, []string{"modifiers"}, uint8(m), "Modifiers")
	}
	var ks engine.KeyboardState
	if m&ModControl != 0 {
		ks |= engine.ControlKeyPressed
	}
	if m&ModShift != 0 {
		ks |= engine.ShiftKeyPressed
	}
	if m&ModAlt != 0 {
		ks |= engine.AltKeyPressed
	}
	return ks, nil
}

// ParseModifiers accepts "none" or names joined with '+', e.g. "ctrl+shift".
func ParseModifiers(s string) (Modifiers, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return ModNone, nil
	}
	var m Modifiers
	for _, part := range strings.Split(s, "+") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "ctrl", "control":
			m |= ModControl
		case "shift":
			m |= ModShift
		case "alt":
			m |= ModAlt
		default:
			return 0, errors.InvalidInput(errors.PhaseTranslate, "unknown modifier "+strconv.Quote(part))
		}
	}
	return m, nil
}

func enumName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return strconv.Itoa(i)
}

func parseEnum(names []string, s, enumType string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if i > 0 && n == s {
			return i, nil
		}
	}
	return 0, errors.InvalidEnum(errors.PhaseTranslate, nil, s, enumType)
}
