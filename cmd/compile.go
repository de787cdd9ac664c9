package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dsljs/dsl/formatter"
	"github.com/dsljs/dsl/internal"
	"github.com/dsljs/dsl/internal/types"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <input> [output]",
	Short: "Expand one source file, printing to stdout when no output is given",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		_, engine := loadProject()

		in := args[0]
		if len(args) == 1 {
			res, err := engine.Compile(in)
			if err != nil {
				reportError(in, err)
				os.Exit(1)
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Output)
			return
		}

		if err := engine.CompileFile(in, args[1]); err != nil {
			reportError(in, err)
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✔ %s → %s\n", in, args[1])
	},
}

// reportError prints a compile failure with the offending source line.
func reportError(file string, err error) {
	source, _ := os.ReadFile(file)
	fmt.Fprint(os.Stderr, formatter.FormatError(err, string(source)))
}

// fileOf returns the source file a diagnostic points at, if any.
func fileOf(err error) string {
	var d *types.Diagnostic
	if errors.As(err, &d) {
		return d.Filename
	}
	return ""
}

// compileAndReport compiles one file for the long-running modes, which log
// failures instead of exiting.
func compileAndReport(engine *internal.Engine, in, out string) bool {
	if err := engine.CompileFile(in, out); err != nil {
		reportError(in, err)
		return false
	}
	fmt.Printf("✔ %s → %s\n", in, out)
	return true
}
