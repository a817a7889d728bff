package bridge

import (
	"github.com/wippyai/windowless/codec"
	"github.com/wippyai/windowless/errors"
	"github.com/wippyai/windowless/value"
)

// Future is the write-once, read-once result slot handed to a handler for
// one callback. A handler that wants to answer writes it exactly once
// before returning; the bridge reads it once after the handler returns.
//
// A zero-length write is a present, empty result. Declining is signalled
// through the handler's return value, never through the future.
//
// Futures are not safe for concurrent use. They belong to a single
// callback invocation and must not be retained after the handler returns.
type Future struct {
	data    []byte
	written bool
	taken   bool
}

// Complete stores data. The slice is copied. A second call fails with
// errors.KindFutureReused and leaves the first result in place.
func (f *Future) Complete(data []byte) error {
	if f.written {
		return errors.Misuse(errors.PhaseCallback, errors.KindFutureReused, "future already completed")
	}
	f.data = make([]byte, len(data))
	copy(f.data, data)
	f.written = true
	return nil
}

// CompleteValue encodes v with the wire codec and stores the result.
func (f *Future) CompleteValue(v value.Value) error {
	if f.written {
		return errors.Misuse(errors.PhaseCallback, errors.KindFutureReused, "future already completed")
	}
	data, err := codec.Marshal(v)
	if err != nil {
		return err
	}
	return f.Complete(data)
}

// Written reports whether Complete has succeeded.
func (f *Future) Written() bool {
	return f.written
}

// take returns the stored bytes once.
func (f *Future) take() ([]byte, error) {
	if !f.written {
		return nil, errors.Misuse(errors.PhaseCallback, errors.KindUnwrittenFuture, "handler returned without completing its future")
	}
	if f.taken {
		return nil, errors.Misuse(errors.PhaseCallback, errors.KindFutureReused, "future already read")
	}
	f.taken = true
	data := f.data
	f.data = nil
	return data, nil
}
