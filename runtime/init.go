package runtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/errors"
	"github.com/wippyai/windowless/message"
)

var (
	initMu      sync.Mutex
	initialized bool
	applied     Options
)

// Initialize applies opts to eng once per process. The first successful
// call wins; later calls return nil without touching the engine, whatever
// their arguments. Engines that do not implement engine.Configurer accept
// no options and are initialized as is.
//
// Initialize must succeed before session.Create.
func Initialize(eng engine.Engine, opts Options) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		Logger().Debug("runtime already initialized")
		return nil
	}
	if eng == nil {
		return errors.InvalidInput(errors.PhaseSetup, "nil engine")
	}

	if cfg, ok := eng.(engine.Configurer); ok {
		if err := apply(cfg, opts); err != nil {
			return err
		}
	} else {
		Logger().Debug("engine accepts no runtime options")
	}

	initialized = true
	applied = opts
	Logger().Info("runtime initialized",
		zap.Stringer("backend", opts.Backend),
		zap.Bool("debug_mode", opts.DebugMode),
		zap.Uint8("script_features", opts.ScriptFeatures))
	return nil
}

// IsInitialized reports whether Initialize has succeeded.
func IsInitialized() bool {
	initMu.Lock()
	defer initMu.Unlock()
	return initialized
}

// Applied returns the options of the successful Initialize call.
func Applied() (Options, bool) {
	initMu.Lock()
	defer initMu.Unlock()
	return applied, initialized
}

type setting struct {
	value any
	opt   engine.Option
}

func apply(cfg engine.Configurer, opts Options) error {
	settings := make([]setting, 0, 6)
	if opts.Backend != message.BackendUnspecified {
		layer, err := opts.Backend.Wire()
		if err != nil {
			return errors.New(errors.PhaseSetup, errors.KindInvalidInput).
				Detail("runtime backend").
				Cause(err).
				Build()
		}
		settings = append(settings, setting{opt: engine.OptionGfxLayer, value: layer})
	}
	settings = append(settings,
		setting{opt: engine.OptionUxTheming, value: opts.UxTheming},
		setting{opt: engine.OptionDebugMode, value: opts.DebugMode},
		setting{opt: engine.OptionScriptFeatures, value: opts.ScriptFeatures},
		setting{opt: engine.OptionLogicalPixels, value: opts.LogicalPixels},
	)
	if opts.InitScript != "" {
		settings = append(settings, setting{opt: engine.OptionInitScript, value: opts.InitScript})
	}

	for _, s := range settings {
		if err := cfg.SetOption(s.opt, s.value); err != nil {
			return errors.Engine(errors.PhaseSetup, "set option "+s.opt.String(), err)
		}
	}
	return nil
}

// Reset forgets a previous Initialize so the next call applies its
// options again. It exists for tests and for hosts that unload and reload
// the engine; live sessions are not affected.
func Reset() {
	initMu.Lock()
	defer initMu.Unlock()
	initialized = false
	applied = Options{}
}
