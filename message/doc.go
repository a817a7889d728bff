// Package message defines the host-side windowless messages and their
// translation into engine wire form.
//
// Messages are plain value types:
//
//	session.Dispatch(message.Size{Width: 800, Height: 600})
//	session.Dispatch(message.LeftDown(10, 10))
//
// Translate is pure: it never touches an engine and always renders equal
// messages to equal wire messages and distinct ones to distinct wire
// messages.
//
// Every enumeration reserves its zero value as Unspecified, which is never
// valid on the wire. This keeps a forgotten field from silently meaning
// "left button" or "CPU backend". Where "nothing" is a meaningful input it
// has its own value (ButtonNone, ModNone).
package message
