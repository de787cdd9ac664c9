// Package runner executes expanded sources with an external interpreter.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dsljs/dsl/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compiler turns a source file into expanded output.
type Compiler interface {
	Compile(filename string) (*types.Result, error)
}

// Runner starts interpreter processes for compiled sources.
type Runner struct {
	compiler    Compiler
	interpreter []string
	logger      *zap.Logger

	// Ext is the extension of the temporary script, ".js" by default.
	Ext    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Runner that executes scripts with interpreter, whose first
// element is the program and the rest leading arguments.
func New(c Compiler, interpreter []string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(interpreter) == 0 {
		interpreter = []string{"node"}
	}
	return &Runner{
		compiler:    c,
		interpreter: interpreter,
		logger:      logger,
		Ext:         ".js",
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// Handle is one running script.
type Handle struct {
	ID     uuid.UUID
	File   string
	Script string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed once the process has exited and its script is removed.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the process exits and returns its exit error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Start compiles file, writes the output to a temporary script next to it
// and launches the interpreter on that script with args.
func (r *Runner) Start(ctx context.Context, file string, args []string) (*Handle, error) {
	res, err := r.compiler.Compile(file)
	if err != nil {
		return nil, err
	}

	script, err := r.writeScript(file, res.Output)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	argv := make([]string, 0, len(r.interpreter)+len(args))
	argv = append(argv, r.interpreter[1:]...)
	argv = append(argv, script)
	argv = append(argv, args...)

	cmd := exec.CommandContext(runCtx, r.interpreter[0], argv...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		_ = os.Remove(script)
		return nil, fmt.Errorf("error starting %s: %w", r.interpreter[0], err)
	}

	h := &Handle{
		ID:     uuid.New(),
		File:   file,
		Script: script,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.logger.Debug("process started",
		zap.String("id", h.ID.String()),
		zap.String("file", file),
		zap.Int("pid", cmd.Process.Pid),
	)

	go func() {
		h.err = cmd.Wait()
		cancel()
		if err := os.Remove(script); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("cannot remove script", zap.String("script", script), zap.Error(err))
		}
		r.logger.Debug("process exited", zap.String("id", h.ID.String()), zap.Error(h.err))
		close(h.done)
	}()

	return h, nil
}

// Stop kills the process of h and waits for its cleanup. A nil handle is
// a no-op.
func (r *Runner) Stop(h *Handle) {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

// Restart stops prev, if any, and starts file again.
func (r *Runner) Restart(ctx context.Context, prev *Handle, file string, args []string) (*Handle, error) {
	r.Stop(prev)
	return r.Start(ctx, file, args)
}

// Run compiles and executes file, waiting for the process to exit.
func (r *Runner) Run(ctx context.Context, file string, args []string) error {
	h, err := r.Start(ctx, file, args)
	if err != nil {
		return err
	}
	return h.Wait()
}

func (r *Runner) writeScript(file, output string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(file), ".dsl_run_*"+r.Ext)
	if err != nil {
		return "", fmt.Errorf("error creating temp file: %w", err)
	}

	if _, err := tmp.WriteString(output); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("error writing to temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("error closing temp file: %w", err)
	}

	return tmp.Name(), nil
}
