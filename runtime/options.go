package runtime

import (
	"github.com/wippyai/windowless/message"
)

// Script feature flags for Options.ScriptFeatures.
const (
	FeatureSysInfo  uint8 = 1 << iota // system information queries
	FeatureFileIO                     // file read/write from script
	FeatureSocketIO                   // network sockets from script
	FeatureEval                       // eval and dynamic code
	FeatureAll      uint8 = 0xFF
)

// Options are process-wide engine runtime settings applied once by
// Initialize.
type Options struct {
	// InitScript runs in every new document before its own scripts.
	// Empty means none.
	InitScript string

	// Backend is the default rendering backend. Unspecified leaves the
	// engine's choice.
	Backend message.Backend

	// ScriptFeatures is a FeatureXxx bitmask.
	ScriptFeatures uint8

	UxTheming     bool
	DebugMode     bool
	LogicalPixels bool
}

// DefaultOptions returns the settings a windowless host normally wants:
// themed controls, engine diagnostics enabled and every script feature
// granted.
func DefaultOptions() Options {
	return Options{
		Backend:        message.BackendAuto,
		UxTheming:      true,
		DebugMode:      true,
		ScriptFeatures: FeatureAll,
	}
}
