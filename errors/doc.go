// Package errors provides structured error types for the windowless bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the value path, the offending type name, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConvert, errors.KindOverflow).
//		Path("[0]", "width").
//		Type("int32").
//		Detail("value does not fit").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(errors.PhaseConvert, path, "function")
//	err := errors.Misuse(errors.PhaseComplete, errors.KindUnknownRequest, "request %d", id)
//
// The bridge sorts failures into four groups that callers handle differently:
//
//	setup     IsSetup        invalid handle, engine not initialized, attach failure
//	codec     IsCodec        IsDeserialize (bad wire bytes) vs IsConversion (unrepresentable value)
//	misuse    IsMisuse       dispatch after destroy, double attach, unknown request id
//	defect    IsDefect       handler returned without writing its result future
//
// All errors implement the standard error interface and support errors.Is/As.
// errors.Is matches on Phase and Kind; a target with an empty Phase matches
// any phase.
package errors
