package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsljs/dsl/internal/types"
	"github.com/dsljs/dsl/macro"
	"go.uber.org/zap"
)

const (
	DefaultSourceExt = ".dsl.js"
	DefaultOutputExt = ".js"
)

// EngineConfig holds the settings the engine needs from the project config.
type EngineConfig struct {
	Marker    string
	MaxPasses int
	SourceExt string
	OutputExt string
	// Libraries are YAML macro library files applied before a file's own macros.
	Libraries []string
	// CacheDir enables the compile cache when set.
	CacheDir string
}

// Engine compiles macro sources into plain output.
// It is safe for concurrent use.
type Engine struct {
	cfg     EngineConfig
	library []*macro.Definition
	cache   *Cache
	logger  *zap.Logger
}

// NewEngine loads the configured libraries and opens the cache.
func NewEngine(cfg EngineConfig, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Marker == "" {
		cfg.Marker = macro.DefaultMarker
	}
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = macro.DefaultMaxPasses
	}
	if cfg.SourceExt == "" {
		cfg.SourceExt = DefaultSourceExt
	}
	if cfg.OutputExt == "" {
		cfg.OutputExt = DefaultOutputExt
	}

	engine := &Engine{cfg: cfg, logger: logger}
	for _, path := range cfg.Libraries {
		defs, err := LoadLibrary(path)
		if err != nil {
			return nil, fmt.Errorf("error loading library %s: %w", path, err)
		}
		logger.Debug("library loaded", zap.String("path", path), zap.Int("macros", len(defs)))
		engine.library = append(engine.library, defs...)
	}

	if cfg.CacheDir != "" {
		cache, err := NewCache(cfg.CacheDir, CacheKey{
			Marker:    cfg.Marker,
			MaxPasses: cfg.MaxPasses,
			Libraries: cfg.Libraries,
		})
		if err != nil {
			return nil, err
		}
		engine.cache = cache
	}

	return engine, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() EngineConfig { return e.cfg }

// CompileSource expands src using its own macro block and the libraries.
func (e *Engine) CompileSource(src string) (*types.Result, error) {
	return e.compile("", src)
}

// Compile reads and expands filename, consulting the cache when enabled.
func (e *Engine) Compile(filename string) (*types.Result, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading source file: %w", err)
	}

	if e.cache != nil {
		if res, ok := e.cache.Get(filename, content); ok {
			e.logger.Debug("cache hit", zap.String("file", filename))
			return res, nil
		}
	}

	res, err := e.compile(filename, string(content))
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(filename, content, res); err != nil {
			e.logger.Warn("cache write failed", zap.String("file", filename), zap.Error(err))
		}
	}
	return res, nil
}

// CompileFile expands in and writes the output to out, creating parent
// directories as needed.
func (e *Engine) CompileFile(in, out string) error {
	res, err := e.Compile(in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(res.Output), 0o644); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	e.logger.Info("compiled",
		zap.String("in", in),
		zap.String("out", out),
		zap.Int("passes", res.Passes),
		zap.Bool("cached", res.Cached),
	)
	return nil
}

func (e *Engine) compile(filename, src string) (*types.Result, error) {
	own, rest, err := macro.ParseSource(src, e.cfg.Marker)
	if err != nil {
		return nil, diagnose(filename, src, err)
	}

	defs := make([]*macro.Definition, 0, len(e.library)+len(own))
	defs = append(defs, e.library...)
	defs = append(defs, own...)

	run, err := macro.NewDriver(defs, e.cfg.MaxPasses).Run(rest)
	if err != nil {
		return nil, diagnose(filename, src, err)
	}

	return &types.Result{
		Filename:     filename,
		Output:       run.Text,
		Definitions:  len(defs),
		Passes:       run.Passes,
		Replacements: run.Replacements,
	}, nil
}

// diagnose attaches a file position to engine errors that carry an offset.
func diagnose(filename, src string, err error) error {
	d := &types.Diagnostic{Filename: filename, Message: err.Error(), Err: err, Offset: -1}

	var mbe *macro.MalformedBlockError
	if errors.As(err, &mbe) {
		d.Offset = mbe.Offset
		d.Message = mbe.Msg
		if mbe.Err != nil {
			d.Message += ": " + mbe.Err.Error()
		}
	}
	if d.Offset >= 0 {
		d.Line, d.Column = types.Position(src, d.Offset)
	}
	return d
}

// IsSource reports whether path carries the source extension.
func (e *Engine) IsSource(path string) bool {
	return strings.HasSuffix(path, e.cfg.SourceExt)
}

// OutputPath maps a source file under srcDir to its mirrored output path
// under outDir, swapping the source extension for the output extension.
func (e *Engine) OutputPath(srcDir, outDir, file string) (string, error) {
	rel, err := filepath.Rel(srcDir, file)
	if err != nil {
		return "", fmt.Errorf("error computing relative path: %w", err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", file, srcDir)
	}
	return filepath.Join(outDir, e.OutputName(rel)), nil
}

// OutputName swaps the source extension of name for the output extension.
func (e *Engine) OutputName(name string) string {
	if strings.HasSuffix(name, e.cfg.SourceExt) {
		return strings.TrimSuffix(name, e.cfg.SourceExt) + e.cfg.OutputExt
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + e.cfg.OutputExt
}
