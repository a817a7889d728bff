package wasmguest

import (
	"io"

	"go.uber.org/zap"
)

// Config holds configuration for a Loader.
type Config struct {
	// Stdout and Stderr receive the guest's WASI output. Discarded when nil.
	Stdout io.Writer
	Stderr io.Writer

	// Logger overrides the package Logger for this loader and its engines.
	Logger *zap.Logger

	// CacheDir persists compiled guests across processes. Empty keeps the
	// cache in memory.
	CacheDir string

	// MemoryLimitPages sets the maximum memory per guest in pages (64KB
	// each). 0 means the wazero default.
	MemoryLimitPages uint32

	// WASI instantiates wasi_snapshot_preview1 for guests built with a
	// WASI toolchain.
	WASI bool
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}
