package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dsljs/dsl/build"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	distWorkers int
	noProgress  bool
)

var distCmd = &cobra.Command{
	Use:   "dist <srcDir> <outDir>",
	Short: "Compile every source under srcDir into a mirrored tree under outDir",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		config, engine := loadProject()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		workers := config.Workers
		if distWorkers > 0 {
			workers = distWorkers
		}

		outputs, err := build.ProcessPath(ctx, logger, engine, args[0], args[1], build.Options{
			SourceExt: config.SourceExt,
			Workers:   workers,
			Progress:  !noProgress,
			Output:    os.Stderr,
		})
		fmt.Fprintln(os.Stderr)
		for _, out := range outputs {
			fmt.Fprintf(cmd.OutOrStdout(), "✔ %s\n", out)
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Error("Build timed out", zap.Duration("timeout", timeout))
			} else {
				reportJoined(err)
			}
			os.Exit(1)
		}
	},
}

func init() {
	distCmd.Flags().IntVarP(&distWorkers, "workers", "j", 0, "Number of concurrent compilations (default from config, then one per CPU)")
	distCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")
}

// reportJoined prints each error of an errors.Join result.
func reportJoined(err error) {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		logger.Error("Build failed", zap.Error(err))
		return
	}
	for _, e := range joined.Unwrap() {
		reportError(fileOf(e), e)
	}
}
