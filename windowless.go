package windowless

import "strconv"

// Handle identifies an engine window. The embedding application owns the
// underlying native window; the bridge treats the value as opaque.
// Handle 0 is reserved and always invalid.
type Handle uint64

// Valid reports whether h can be attached to an engine.
func (h Handle) Valid() bool {
	return h != 0
}

func (h Handle) String() string {
	return "0x" + strconv.FormatUint(uint64(h), 16)
}

// RequestID correlates a deferred resource load with its completion call.
// IDs are issued by the engine.
type RequestID uint64
