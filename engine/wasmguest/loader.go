package wasmguest

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/wippyai/windowless/errors"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Shared decoder; zstd.Decoder is safe for concurrent DecodeAll.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("wasmguest: zstd decoder initialization failed: " + err.Error())
	}
}

// Decompress returns data unpacked when it is a zstd frame and unchanged
// otherwise. Engine guests usually ship as .wasm.zst.
func Decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.New(errors.PhaseGuest, errors.KindInvalidData).
			Detail("zstd decompress").
			Cause(err).
			Build()
	}
	return out, nil
}

// Digest is the BLAKE3 hash of a guest's uncompressed wasm bytes.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Guest is a compiled engine guest, ready to instantiate.
type Guest struct {
	compiled wazero.CompiledModule
	Digest   Digest
	Size     int
}

// Loader compiles engine guests and instantiates them as Engines. Guests
// are compiled once per digest. A Loader owns one wazero runtime; Close
// releases every engine it created.
type Loader struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	log     *zap.Logger
	guests  map[Digest]*Guest
	engines map[string]*Engine
	cfg     Config
	nextID  uint64
	mu      sync.Mutex
}

// NewLoader creates a loader and instantiates the host module guests
// import from.
func NewLoader(ctx context.Context, cfg Config) (*Loader, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	var cache wazero.CompilationCache
	if cfg.CacheDir != "" {
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseGuest, errors.KindInvalidInput, err, "compilation cache "+cfg.CacheDir)
		}
		runtimeCfg = runtimeCfg.WithCompilationCache(cache)
	}

	l := &Loader{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cache:   cache,
		log:     cfg.logger(),
		guests:  make(map[Digest]*Guest),
		engines: make(map[string]*Engine),
		cfg:     cfg,
	}

	if cfg.WASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, l.runtime); err != nil {
			_ = l.Close(ctx)
			return nil, errors.Wrap(errors.PhaseGuest, errors.KindInstantiation, err, "instantiate WASI")
		}
	}
	if err := l.instantiateHost(ctx); err != nil {
		_ = l.Close(ctx)
		return nil, err
	}
	return l, nil
}

// Compile compiles wasm, which may be zstd-compressed. Compiling the same
// bytes twice returns the same Guest.
func (l *Loader) Compile(ctx context.Context, wasm []byte) (*Guest, error) {
	raw, err := Decompress(wasm)
	if err != nil {
		return nil, err
	}
	digest := Digest(blake3.Sum256(raw))

	l.mu.Lock()
	defer l.mu.Unlock()
	if g, ok := l.guests[digest]; ok {
		return g, nil
	}

	compiled, err := l.runtime.CompileModule(ctx, raw)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGuest, errors.KindInvalidData, err, "compile guest")
	}
	for _, name := range requiredExports {
		if _, ok := compiled.ExportedFunctions()[name]; !ok {
			_ = compiled.Close(ctx)
			return nil, errors.New(errors.PhaseGuest, errors.KindNotFound).
				Detail("guest does not export %s", name).
				Build()
		}
	}
	if _, ok := compiled.ExportedMemories()["memory"]; !ok {
		_ = compiled.Close(ctx)
		return nil, errors.New(errors.PhaseGuest, errors.KindNotFound).
			Detail("guest does not export memory").
			Build()
	}

	g := &Guest{compiled: compiled, Digest: digest, Size: len(raw)}
	l.guests[digest] = g
	l.log.Debug("guest compiled", zap.Stringer("digest", digest), zap.Int("size", len(raw)))
	return g, nil
}

// LoadFile reads, compiles and instantiates the guest at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGuest, errors.KindNotFound, err, "read guest "+path)
	}
	g, err := l.Compile(ctx, data)
	if err != nil {
		return nil, err
	}
	return l.Instantiate(ctx, g)
}

// Instantiate starts a new engine from g. Each engine is an independent
// guest instance that may host many windows.
func (l *Loader) Instantiate(ctx context.Context, g *Guest) (*Engine, error) {
	l.mu.Lock()
	l.nextID++
	name := "guest-" + strconv.FormatUint(l.nextID, 10)
	l.mu.Unlock()

	modCfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize")
	if l.cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(l.cfg.Stdout)
	}
	if l.cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(l.cfg.Stderr)
	}

	// Register before instantiating so host calls made by start functions
	// find their engine.
	e := newEngine(l, name)
	l.mu.Lock()
	l.engines[name] = e
	l.mu.Unlock()

	mod, err := l.runtime.InstantiateModule(ctx, g.compiled, modCfg)
	if err != nil {
		l.forget(name)
		return nil, errors.Wrap(errors.PhaseGuest, errors.KindInstantiation, err, "instantiate guest")
	}
	e.bind(mod)
	e.log.Debug("guest instantiated", zap.Stringer("digest", g.Digest))
	return e, nil
}

func (l *Loader) engine(mod api.Module) (*Engine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.engines[mod.Name()]
	return e, ok
}

func (l *Loader) forget(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.engines, name)
}

// Close closes every engine and compiled guest and the runtime.
func (l *Loader) Close(ctx context.Context) error {
	l.mu.Lock()
	l.engines = make(map[string]*Engine)
	l.guests = make(map[Digest]*Guest)
	l.mu.Unlock()

	err := l.runtime.Close(ctx)
	if l.cache != nil {
		if cerr := l.cache.Close(ctx); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("close loader: %w", err)
	}
	return nil
}
