package wasmguest

import (
	"context"

	"github.com/wippyai/windowless/errors"
)

// Buffers returned across the ABI are packed as ptr<<32 | len.
func pack(ptr, n uint32) uint64 {
	return uint64(ptr)<<32 | uint64(n)
}

func unpack(v uint64) (ptr, n uint32) {
	return uint32(v >> 32), uint32(v)
}

// write copies data into guest memory allocated with wl_alloc. The guest
// owns the buffer afterwards. Empty data is passed as (0, 0) without
// allocating.
func (e *Engine) write(ctx context.Context, data []byte) (uint32, uint32, error) {
	if len(data) == 0 {
		return 0, 0, nil
	}
	alloc, err := e.export(exportAlloc)
	if err != nil {
		return 0, 0, err
	}
	res, err := alloc.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, 0, errors.Wrap(errors.PhaseGuest, errors.KindEngine, err, exportAlloc)
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, 0, errors.New(errors.PhaseGuest, errors.KindEngine).
			Detail("%s(%d) returned null", exportAlloc, len(data)).
			Build()
	}
	if !e.mem.Write(ptr, data) {
		return 0, 0, errors.New(errors.PhaseGuest, errors.KindInvalidData).
			Detail("write out of bounds: offset=%d, length=%d", ptr, len(data)).
			Build()
	}
	return ptr, uint32(len(data)), nil
}

// read copies n bytes at ptr out of guest memory.
func (e *Engine) read(ptr, n uint32) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	data, ok := e.mem.Read(ptr, n)
	if !ok {
		return nil, errors.New(errors.PhaseGuest, errors.KindInvalidData).
			Detail("read out of bounds: offset=%d, length=%d", ptr, n).
			Build()
	}
	return append([]byte(nil), data...), nil
}

func (e *Engine) readString(ptr, n uint32) (string, error) {
	b, err := e.read(ptr, n)
	return string(b), err
}
