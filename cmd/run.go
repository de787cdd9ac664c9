package cmd

import (
	"errors"
	"os"
	"os/exec"

	"github.com/dsljs/dsl/internal/runner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run <file> [args...]",
	Short: "Compile a file and execute it with the configured interpreter",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, engine := loadProject()

		ctx, cancel := signalContext()
		defer cancel()

		r := runner.New(engine, config.Interpreter, logger)
		r.Ext = config.OutputExt
		if err := r.Run(ctx, args[0], args[1:]); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				os.Exit(exitErr.ExitCode())
			}
			reportError(args[0], err)
			os.Exit(1)
		}
	},
}

var watchRunCmd = &cobra.Command{
	Use:   "watch-run <file> [args...]",
	Short: "Run a file and restart it whenever it changes",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, engine := loadProject()
		file, scriptArgs := args[0], args[1:]

		ctx, cancel := signalContext()
		defer cancel()

		r := runner.New(engine, config.Interpreter, logger)
		r.Ext = config.OutputExt

		current, err := r.Start(ctx, file, scriptArgs)
		if err != nil {
			reportError(file, err)
		}

		restart := func(string) {
			next, err := r.Restart(ctx, current, file, scriptArgs)
			current = next
			if err != nil {
				reportError(file, err)
				return
			}
			logger.Info("Restarted", zap.String("file", file), zap.String("id", next.ID.String()))
		}

		err = watch(ctx, engine, config, file, restart)
		r.Stop(current)
		if err != nil {
			logger.Error("Watch failed", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	// arguments after the file belong to the script
	runCmd.Flags().SetInterspersed(false)
	watchRunCmd.Flags().SetInterspersed(false)
}
