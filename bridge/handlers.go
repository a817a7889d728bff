package bridge

import (
	"strconv"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/engine"
)

// LoadRequest is a resource request passed to a DataLoadHandler.
type LoadRequest struct {
	URI  string
	Hwnd windowless.Handle
	ID   windowless.RequestID
	Type engine.ResourceType
}

// LoadOutcome is a DataLoadHandler's answer.
type LoadOutcome uint8

const (
	// OutcomeNone gives the engine no answer; it applies its own default.
	OutcomeNone LoadOutcome = iota
	// OutcomeDefault lets the engine load the resource. Inline bytes, if
	// written, are delivered first.
	OutcomeDefault
	// OutcomeDiscard drops the request. Inline bytes are not allowed.
	OutcomeDiscard
	// OutcomeHandleLater defers the answer. The request id stays pending
	// until Session.Complete or Session.Cancel. Inline bytes are not allowed.
	OutcomeHandleLater
	// OutcomeHandleMyself answers with the inline bytes, which must be
	// written.
	OutcomeHandleMyself
)

var outcomeNames = [...]string{
	OutcomeNone:         "none",
	OutcomeDefault:      "default",
	OutcomeDiscard:      "discard",
	OutcomeHandleLater:  "handle-later",
	OutcomeHandleMyself: "handle-myself",
}

func (o LoadOutcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "outcome(" + strconv.Itoa(int(o)) + ")"
}

// DataLoadHandler answers engine resource requests. It runs synchronously
// inside the engine call; work that cannot finish before it returns must
// use OutcomeHandleLater.
type DataLoadHandler interface {
	OnDataLoad(req LoadRequest, inline *Future) (LoadOutcome, error)
}

// DataLoadFunc adapts a function to DataLoadHandler.
type DataLoadFunc func(req LoadRequest, inline *Future) (LoadOutcome, error)

func (f DataLoadFunc) OnDataLoad(req LoadRequest, inline *Future) (LoadOutcome, error) {
	return f(req, inline)
}

// NativeInvocationHandler serves script calls into the host. args is the
// CBOR-encoded argument array. Returning produced=true requires ret to be
// completed with a CBOR value before returning; produced=false answers the
// script with no value.
type NativeInvocationHandler interface {
	OnNativeInvocation(name string, args []byte, ret *Future) (produced bool, err error)
}

// NativeInvocationFunc adapts a function to NativeInvocationHandler.
type NativeInvocationFunc func(name string, args []byte, ret *Future) (bool, error)

func (f NativeInvocationFunc) OnNativeInvocation(name string, args []byte, ret *Future) (bool, error) {
	return f(name, args, ret)
}

// DrawHandler paints a registered behavior. The engine's graphics context
// has been flushed when it runs.
type DrawHandler interface {
	OnDraw(area engine.Rect, layer engine.DrawLayer) (handled bool, err error)
}

// DrawFunc adapts a function to DrawHandler.
type DrawFunc func(area engine.Rect, layer engine.DrawLayer) (bool, error)

func (f DrawFunc) OnDraw(area engine.Rect, layer engine.DrawLayer) (bool, error) {
	return f(area, layer)
}

// InvalidateHandler is told when an area of the surface needs repainting.
type InvalidateHandler interface {
	OnInvalidate(area engine.Rect)
}

// InvalidateFunc adapts a function to InvalidateHandler.
type InvalidateFunc func(area engine.Rect)

func (f InvalidateFunc) OnInvalidate(area engine.Rect) {
	f(area)
}
