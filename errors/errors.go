package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in the bridge the error occurred
type Phase string

const (
	PhaseSetup       Phase = "setup"       // session creation, engine attachment
	PhaseSerialize   Phase = "serialize"   // neutral value to wire bytes
	PhaseDeserialize Phase = "deserialize" // wire bytes to neutral value
	PhaseConvert     Phase = "convert"     // neutral value <-> engine value
	PhaseTranslate   Phase = "translate"   // message to engine wire form
	PhaseDispatch    Phase = "dispatch"    // message delivery
	PhaseCallback    Phase = "callback"    // engine-driven handler invocation
	PhaseComplete    Phase = "complete"    // deferred resolution
	PhaseLoad        Phase = "load"        // document loading
	PhaseScript      Phase = "script"      // script function invocation
	PhaseGuest       Phase = "guest"       // wasm guest ABI
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch      Kind = "type_mismatch"
	KindInvalidData       Kind = "invalid_data"
	KindUnsupported       Kind = "unsupported"
	KindOverflow          Kind = "overflow"
	KindDepthExceeded     Kind = "depth_exceeded"
	KindInvalidEnum       Kind = "invalid_enum"
	KindNotFound          Kind = "not_found"
	KindNotInitialized    Kind = "not_initialized"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidHandle     Kind = "invalid_handle"
	KindEngine            Kind = "engine"
	KindHandlerFailed     Kind = "handler_failed"
	KindInstantiation     Kind = "instantiation"
	KindUseAfterDestroy   Kind = "use_after_destroy"
	KindAlreadyAttached   Kind = "already_attached"
	KindUnknownRequest    Kind = "unknown_request"
	KindReentrantTeardown Kind = "reentrant_teardown"
	KindFutureReused      Kind = "future_reused"
	KindMixedResolution   Kind = "mixed_resolution"
	KindUnwrittenFuture   Kind = "unwritten_future"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches any phase with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the offending type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unsupported creates an unsupported conversion error
func Unsupported(phase Phase, path []string, typeName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Path:   path,
		Type:   typeName,
		Detail: "no representation on the other side of the boundary",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Type:   targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// DepthExceeded creates a nesting limit error
func DepthExceeded(phase Phase, path []string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDepthExceeded,
		Path:   path,
		Detail: fmt.Sprintf("nesting deeper than %d levels", limit),
		Value:  limit,
	}
}

// InvalidEnum creates an invalid enumeration value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Path:   path,
		Type:   enumType,
		Detail: fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Engine wraps a failure reported by the engine
func Engine(phase Phase, op string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEngine,
		Detail: op,
		Cause:  cause,
	}
}

// Misuse creates a protocol misuse error
func Misuse(phase Phase, kind Kind, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
	}
}

// Classification helpers

var misuseKinds = map[Kind]bool{
	KindUseAfterDestroy:   true,
	KindAlreadyAttached:   true,
	KindUnknownRequest:    true,
	KindReentrantTeardown: true,
	KindFutureReused:      true,
	KindMixedResolution:   true,
}

func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsMisuse reports whether err is a caller programming error against the
// bridge protocol (use after destroy, double attach, unknown request id, ...).
func IsMisuse(err error) bool {
	e, ok := asError(err)
	return ok && misuseKinds[e.Kind]
}

// IsDefect reports whether err is a handler that returned without writing
// its result future.
func IsDefect(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindUnwrittenFuture
}

// IsDeserialize reports whether err came from decoding wire bytes.
func IsDeserialize(err error) bool {
	e, ok := asError(err)
	return ok && e.Phase == PhaseDeserialize
}

// IsConversion reports whether err came from a semantic conversion between
// neutral and engine values.
func IsConversion(err error) bool {
	e, ok := asError(err)
	return ok && e.Phase == PhaseConvert
}

// IsCodec reports whether err came from any stage of the value codec.
func IsCodec(err error) bool {
	e, ok := asError(err)
	if !ok {
		return false
	}
	switch e.Phase {
	case PhaseSerialize, PhaseDeserialize, PhaseConvert:
		return true
	}
	return false
}

// IsSetup reports whether err is a setup failure.
func IsSetup(err error) bool {
	e, ok := asError(err)
	return ok && e.Phase == PhaseSetup
}

// Is reports whether any error in err's chain matches target. It is the
// standard library errors.Is, re-exported so callers need one import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
