package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dsljs/dsl/build"
	"github.com/dsljs/dsl/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch <src> <out>",
	Short: "Compile a file or directory and recompile on every change",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		config, engine := loadProject()
		src, out := args[0], args[1]

		info, err := os.Stat(src)
		if err != nil {
			logger.Error("Error accessing source", zap.String("path", src), zap.Error(err))
			os.Exit(1)
		}

		ctx, cancel := signalContext()
		defer cancel()

		var onChange func(string)
		if info.IsDir() {
			_, err := build.ProcessPath(ctx, logger, engine, src, out, build.Options{
				SourceExt: config.SourceExt,
				Workers:   config.Workers,
			})
			if err != nil {
				reportJoined(err)
			}
			onChange = func(file string) {
				target, err := engine.OutputPath(src, out, file)
				if err != nil {
					logger.Error("Error mapping output path", zap.String("file", file), zap.Error(err))
					return
				}
				compileAndReport(engine, file, target)
			}
		} else {
			compileAndReport(engine, src, out)
			onChange = func(string) { compileAndReport(engine, src, out) }
		}

		if err := watch(ctx, engine, config, src, onChange); err != nil {
			logger.Error("Watch failed", zap.Error(err))
			os.Exit(1)
		}
	},
}

// watch blocks until ctx is cancelled, calling onChange for changed sources.
func watch(ctx context.Context, engine *internal.Engine, config build.Config, path string, onChange func(string)) error {
	w, err := internal.NewWatcher(logger, config.Debounce.Duration, engine.IsSource, onChange)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return fmt.Errorf("error watching %s: %w", path, err)
	}
	logger.Info("Watching for changes", zap.String("path", path))
	return w.Run(ctx)
}
