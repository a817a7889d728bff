package engine

import "strconv"

// Element is an engine-owned DOM element reference. 0 is no element.
type Element uint64

// Point is a position in window pixels.
type Point struct {
	X int32
	Y int32
}

// Rect is an area in window pixels.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

func (r Rect) Width() int32  { return r.Right - r.Left }
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// GfxLayer selects the rendering backend.
type GfxLayer uint32

const (
	GfxCPU        GfxLayer = 1
	GfxWARP       GfxLayer = 2
	GfxD2D        GfxLayer = 3
	GfxSkiaCPU    GfxLayer = 4
	GfxSkiaOpenGL GfxLayer = 5
	GfxSkiaVulkan GfxLayer = 6
	GfxSkiaMetal  GfxLayer = 7
	GfxSkiaDX12   GfxLayer = 8
	GfxAuto       GfxLayer = 0xFFFF
)

// MouseEvent is the wire mouse event code.
type MouseEvent uint32

const (
	MouseEnter       MouseEvent = 0
	MouseLeave       MouseEvent = 1
	MouseMove        MouseEvent = 2
	MouseUp          MouseEvent = 3
	MouseDown        MouseEvent = 4
	MouseDoubleClick MouseEvent = 5
	MouseWheel       MouseEvent = 6
	MouseTick        MouseEvent = 7
	MouseIdle        MouseEvent = 8
	MouseDrop        MouseEvent = 9
	MouseDragEnter   MouseEvent = 0xA
	MouseDragLeave   MouseEvent = 0xB
	MouseDragRequest MouseEvent = 0xC
	MouseClick       MouseEvent = 0xFF
)

// MouseButton is the wire mouse button code.
type MouseButton uint32

const (
	ButtonNone   MouseButton = 0
	ButtonMain   MouseButton = 1
	ButtonProp   MouseButton = 2
	ButtonMiddle MouseButton = 4
)

// KeyEvent is the wire keyboard event code.
type KeyEvent uint32

const (
	KeyDown KeyEvent = 0
	KeyUp   KeyEvent = 1
	KeyChar KeyEvent = 2
)

// KeyboardState is the wire modifier bitset.
type KeyboardState uint32

const (
	ControlKeyPressed KeyboardState = 0x1
	ShiftKeyPressed   KeyboardState = 0x2
	AltKeyPressed     KeyboardState = 0x4
)

// DrawLayer identifies which layer of an element a behavior is asked to paint.
type DrawLayer uint32

const (
	DrawBackground DrawLayer = 0
	DrawContent    DrawLayer = 1
	DrawForeground DrawLayer = 2
	DrawOutline    DrawLayer = 3
)

func (l DrawLayer) String() string {
	switch l {
	case DrawBackground:
		return "background"
	case DrawContent:
		return "content"
	case DrawForeground:
		return "foreground"
	case DrawOutline:
		return "outline"
	}
	return "layer(" + strconv.FormatUint(uint64(l), 10) + ")"
}

// LoadResult is the engine's answer code for a resource request.
type LoadResult int32

const (
	LoadDefault LoadResult = 0 // engine loads the resource itself
	LoadDiscard LoadResult = 1 // request is dropped
	LoadDelayed LoadResult = 2 // data arrives later through DataReadyAsync
	LoadMyself  LoadResult = 3 // host supplied the data through DataReady
)

func (r LoadResult) String() string {
	switch r {
	case LoadDefault:
		return "default"
	case LoadDiscard:
		return "discard"
	case LoadDelayed:
		return "delayed"
	case LoadMyself:
		return "myself"
	}
	return "load-result(" + strconv.Itoa(int(r)) + ")"
}

// ResourceType classifies a resource request.
type ResourceType uint32

const (
	ResourceHTML   ResourceType = 0
	ResourceImage  ResourceType = 1
	ResourceStyle  ResourceType = 2
	ResourceCursor ResourceType = 3
	ResourceScript ResourceType = 4
	ResourceRaw    ResourceType = 5
	ResourceFont   ResourceType = 6
	ResourceSound  ResourceType = 7
)

// OutputSubsystem identifies the origin of a debug message.
type OutputSubsystem uint32

const (
	SubsystemDOM OutputSubsystem = iota
	SubsystemCSSS
	SubsystemCSS
	SubsystemScript
)

func (s OutputSubsystem) String() string {
	switch s {
	case SubsystemDOM:
		return "dom"
	case SubsystemCSSS:
		return "csss"
	case SubsystemCSS:
		return "css"
	case SubsystemScript:
		return "script"
	}
	return "subsystem(" + strconv.FormatUint(uint64(s), 10) + ")"
}

// OutputSeverity ranks a debug message.
type OutputSeverity uint32

const (
	SeverityInfo OutputSeverity = iota
	SeverityWarning
	SeverityError
)
