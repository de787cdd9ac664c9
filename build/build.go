// Package build drives whole-project compilation: configuration loading and
// batch builds of a source tree into a mirrored output tree.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/dsljs/dsl/internal"
	"github.com/dsljs/dsl/scanner"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Compiler compiles one source file into its output path.
type Compiler interface {
	CompileFile(in, out string) error
	OutputPath(srcDir, outDir, file string) (string, error)
}

// New builds an engine from the configuration.
func New(config Config, logger *zap.Logger) (*internal.Engine, error) {
	return internal.NewEngine(config.EngineConfig(), logger)
}

// Options tune a batch build.
type Options struct {
	SourceExt string
	// Workers bounds concurrent compilations; zero means one per CPU.
	Workers int
	// Progress renders a progress bar on Output.
	Progress bool
	Output   io.Writer
}

// ProcessPath compiles every source file under srcDir into outDir and
// returns the written output paths. Files that fail do not stop the
// others; their errors are joined into the returned error.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	compiler Compiler,
	srcDir, outDir string,
	opts Options,
) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SourceExt == "" {
		opts.SourceExt = internal.DefaultSourceExt
	}

	info, err := os.Stat(srcDir)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", srcDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", srcDir)
	}

	files, err := scanner.New(srcDir, opts.SourceExt).Exclude(outDir).Scan()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", srcDir, err)
	}

	maxWorkers := opts.Workers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	sem := make(chan struct{}, maxWorkers)

	bar := newProgressBar(len(files), srcDir, opts)

	results := make([]fileResult, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return collect(results), err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return collect(results), ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := compiler.OutputPath(srcDir, outDir, fp)
			if err == nil {
				err = compiler.CompileFile(fp, out)
			}
			if err != nil {
				logger.Error("Error compiling file", zap.String("file", fp), zap.Error(err))
				results[i] = fileResult{err: err}
			} else {
				results[i] = fileResult{out: out}
			}
			_ = bar.Add(1)
		}(i, file.Path)
	}
	wg.Wait()
	_ = bar.Finish()

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return collect(results), errors.Join(errs...)
}

type fileResult struct {
	out string
	err error
}

func collect(results []fileResult) []string {
	outputs := make([]string, 0, len(results))
	for _, r := range results {
		if r.out != "" {
			outputs = append(outputs, r.out)
		}
	}
	return outputs
}

func newProgressBar(total int, description string, opts Options) *progressbar.ProgressBar {
	w := opts.Output
	if !opts.Progress || w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
