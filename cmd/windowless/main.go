// Command windowless drives an engine guest through scripted or
// interactive sessions and inspects CBOR values.
//
//	windowless run --engine engine.wasm.zst --scenario demo.yaml
//	windowless run --engine engine.wasm -i
//	windowless cbor diag --hex a16161820102
//	echo '{"a": [1, 2]}' | windowless cbor encode --hex
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/windowless/bridge"
	"github.com/wippyai/windowless/engine/wasmguest"
	"github.com/wippyai/windowless/runtime"
	"github.com/wippyai/windowless/session"
)

const usage = `Usage: windowless <command> [flags]

Commands:
  run    replay a scenario against an engine guest (-i for interactive mode)
  cbor   diag | encode CBOR values

Run "windowless <command> --help" for command flags.
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "run":
		return runCommand(args[1:], stdout, stderr)
	case "cbor":
		return cborCommand(args[1:], stdin, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", args[0])
}

type runFlags struct {
	engine      string
	scenario    string
	logLevel    string
	logFile     string
	cacheDir    string
	memoryPages uint32
	wasi        bool
	interactive bool
}

func runCommand(args []string, stdout, stderr io.Writer) error {
	var f runFlags
	fs := pflag.NewFlagSet("windowless run", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.engine, "engine", "", "engine guest (.wasm or .wasm.zst)")
	fs.StringVarP(&f.scenario, "scenario", "s", "", "scenario file (.yaml, .json or .jsonc)")
	fs.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&f.logFile, "log-file", "", "write logs to this file instead of stderr")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "persist compiled guests in this directory")
	fs.Uint32Var(&f.memoryPages, "memory-pages", 0, "guest memory limit in 64KiB pages")
	fs.BoolVar(&f.wasi, "wasi", false, "provide wasi_snapshot_preview1 to the guest")
	fs.BoolVarP(&f.interactive, "interactive", "i", false, "interactive mode with TUI")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if f.engine == "" {
		fs.Usage()
		return fmt.Errorf("--engine is required")
	}
	if f.scenario == "" && !f.interactive {
		fs.Usage()
		return fmt.Errorf("--scenario is required without -i")
	}
	if f.interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	// The TUI owns the screen, so logs only go to a file there.
	logOut := f.logFile
	if logOut == "" && !f.interactive {
		logOut = "stderr"
	}
	log, err := newLogger(f.logLevel, logOut)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	setLoggers(log)

	sc := &Scenario{}
	if f.scenario != "" {
		if sc, err = ReadScenario(f.scenario); err != nil {
			return err
		}
	}

	ctx := context.Background()
	cfg := wasmguest.Config{
		Logger:           log,
		CacheDir:         f.cacheDir,
		MemoryLimitPages: f.memoryPages,
		WASI:             f.wasi,
	}
	if !f.interactive {
		cfg.Stdout, cfg.Stderr = stderr, stderr
	}
	loader, err := wasmguest.NewLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer loader.Close(ctx)

	data, err := os.ReadFile(f.engine)
	if err != nil {
		return fmt.Errorf("read engine: %w", err)
	}
	guest, err := loader.Compile(ctx, data)
	if err != nil {
		return fmt.Errorf("compile engine: %w", err)
	}
	eng, err := loader.Instantiate(ctx, guest)
	if err != nil {
		return fmt.Errorf("instantiate engine: %w", err)
	}

	player, err := NewPlayer(eng, sc, log)
	if err != nil {
		return err
	}
	defer player.Close()

	if f.interactive {
		return runInteractive(player, sc, f.engine)
	}

	fmt.Fprintf(stdout, "Engine: %s\n", f.engine)
	fmt.Fprintf(stdout, "Digest: %s (%d bytes)\n", guest.Digest, guest.Size)
	fmt.Fprintf(stdout, "Window: %s, %d steps\n\n", player.Session().Handle(), len(sc.Steps))

	err = player.Run(func(i int, st Step, trace []Entry) {
		fmt.Fprintf(stdout, "[%d] %s\n", i, st)
		for _, e := range trace {
			fmt.Fprintf(stdout, "    %s\n", e)
		}
	})
	if err != nil {
		return err
	}
	if pending := player.Session().Pending(); len(pending) > 0 {
		fmt.Fprintf(stdout, "\n%d loads still pending\n", len(pending))
	}
	return nil
}

// newLogger builds a console logger when out is a terminal and a JSON
// logger otherwise. out is "stderr", "stdout" or a file path; empty
// disables logging.
func newLogger(level, out string) (*zap.Logger, error) {
	if out == "" {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var cfg zap.Config
	if out == "stderr" && term.IsTerminal(int(os.Stderr.Fd())) {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func setLoggers(log *zap.Logger) {
	runtime.SetLogger(log.Named("runtime"))
	session.SetLogger(log.Named("session"))
	bridge.SetLogger(log.Named("bridge"))
	wasmguest.SetLogger(log.Named("wasmguest"))
}
