package session

import (
	"go.uber.org/zap"

	"github.com/wippyai/windowless/bridge"
)

// Option configures Create.
type Option func(*config)

type config struct {
	logger     *zap.Logger
	dataLoad   bridge.DataLoadHandler
	native     bridge.NativeInvocationHandler
	invalidate bridge.InvalidateHandler
	onDefect   func(error)
	width      uint32
	height     uint32
	ppi        uint32
	sized      bool
	strict     bool
}

// WithLogger sets the session logger. The package Logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithInitialSize dispatches a Size message right after Create.
func WithInitialSize(width, height uint32) Option {
	return func(c *config) {
		c.width, c.height = width, height
		c.sized = true
	}
}

// WithResolution dispatches a Resolution message right after Create,
// before any initial Size.
func WithResolution(ppi uint32) Option {
	return func(c *config) { c.ppi = ppi }
}

// WithDataLoadHandler installs h before the engine window is created, so it
// sees requests issued while handling Create.
func WithDataLoadHandler(h bridge.DataLoadHandler) Option {
	return func(c *config) { c.dataLoad = h }
}

// WithNativeInvocationHandler installs h before the engine window is
// created.
func WithNativeInvocationHandler(h bridge.NativeInvocationHandler) Option {
	return func(c *config) { c.native = h }
}

// WithInvalidateHandler installs h before the engine window is created.
func WithInvalidateHandler(h bridge.InvalidateHandler) Option {
	return func(c *config) { c.invalidate = h }
}

// WithDefectHandler reports handler defects to fn: unwritten futures and
// mixed inline/deferred answers.
func WithDefectHandler(fn func(error)) Option {
	return func(c *config) { c.onDefect = fn }
}

// WithStrictFutures makes handler defects panic. Meant for tests.
func WithStrictFutures() Option {
	return func(c *config) { c.strict = true }
}
