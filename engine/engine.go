package engine

import (
	"errors"

	"github.com/wippyai/windowless"
)

// ErrFunctionNotFound is returned (possibly wrapped) by CallFunction when the
// document does not define the named function.
var ErrFunctionNotFound = errors.New("engine: function not found")

// ErrNotAttached is returned by engines for calls on a window that has no
// attached host.
var ErrNotAttached = errors.New("engine: window not attached")

// Engine is the host-side view of a windowless engine. All calls for one
// window must come from one goroutine at a time; the engine may call back
// into the attached HostCallbacks before any call returns.
type Engine interface {
	// Attach binds callbacks to hwnd. Attaching an already attached window
	// fails.
	Attach(hwnd windowless.Handle, cb HostCallbacks) error

	// Detach releases the binding created by Attach.
	Detach(hwnd windowless.Handle) error

	// HandleMessage delivers one windowless message.
	HandleMessage(hwnd windowless.Handle, msg WireMessage) error

	// LoadHTML replaces the current document with inline markup.
	LoadHTML(hwnd windowless.Handle, html []byte, uri string) error

	// LoadFile replaces the current document with the resource at uri.
	LoadFile(hwnd windowless.Handle, uri string) error

	// DataReady supplies resource bytes while the engine is still inside
	// the OnDataLoad callback that requested them.
	DataReady(hwnd windowless.Handle, uri string, data []byte) error

	// DataReadyAsync supplies bytes for a request previously answered with
	// LoadDelayed. Safe to call from any goroutine.
	DataReadyAsync(hwnd windowless.Handle, uri string, data []byte, id windowless.RequestID) error

	// Root returns the document root element, if a document is loaded.
	Root(hwnd windowless.Handle) (Element, bool)

	// CallFunction invokes a script function defined on el.
	CallFunction(hwnd windowless.Handle, el Element, name string, args []Value) (Value, error)

	// RegisterBehavior makes h available to the document under name.
	RegisterBehavior(hwnd windowless.Handle, name string, h BehaviorHandler) error
}

// Option names a process-wide engine runtime option.
type Option uint32

const (
	OptionGfxLayer Option = iota + 1
	OptionUxTheming
	OptionDebugMode
	OptionScriptFeatures
	OptionInitScript
	OptionLogicalPixels
)

var optionNames = map[Option]string{
	OptionGfxLayer:       "gfx-layer",
	OptionUxTheming:      "ux-theming",
	OptionDebugMode:      "debug-mode",
	OptionScriptFeatures: "script-features",
	OptionInitScript:     "init-script",
	OptionLogicalPixels:  "logical-pixels",
}

func (o Option) String() string {
	if n, ok := optionNames[o]; ok {
		return n
	}
	return "option(?)"
}

// Configurer is implemented by engines that accept runtime options.
// Values are GfxLayer for OptionGfxLayer, uint8 for OptionScriptFeatures,
// string for OptionInitScript and bool otherwise.
type Configurer interface {
	SetOption(opt Option, value any) error
}

// LoadRequest describes a resource the engine wants.
type LoadRequest struct {
	URI       string
	Hwnd      windowless.Handle
	RequestID windowless.RequestID
	Type      ResourceType
}

// HostCallbacks receives engine-initiated calls for one window.
type HostCallbacks interface {
	// OnDataLoad answers a resource request. ok=false means no answer and
	// the engine applies its default handling.
	OnDataLoad(req LoadRequest) (result LoadResult, ok bool)

	// OnScriptCall handles a script-to-native call. ok=false means the
	// host produced no value.
	OnScriptCall(root Element, name string, args []Value) (result Value, ok bool)

	// OnInvalidate reports that area needs repainting.
	OnInvalidate(area Rect)

	// OnDebugOutput forwards engine diagnostics.
	OnDebugOutput(subsystem OutputSubsystem, severity OutputSeverity, msg string)

	// OnGraphicsCriticalFailure reports an unrecoverable backend failure.
	OnGraphicsCriticalFailure()
}

// Graphics is the engine-owned drawing context handed to a behavior.
type Graphics interface {
	// Flush commits any engine-internal draw state.
	Flush() error
}

// BehaviorHandler paints a custom region of a registered behavior.
type BehaviorHandler interface {
	OnDraw(gfx Graphics, area Rect, layer DrawLayer) bool
}
