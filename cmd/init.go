package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dsljs/dsl/build"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var forceInit bool

// initCmd: dsl init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default project configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := initConfigurationFile(cfgFile, forceInit); err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", cfgFile)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing configuration file")
}

func initConfigurationFile(configurationPath string, force bool) error {
	if configurationPath == "" {
		configurationPath = build.DefaultConfigFile
	}
	if !force {
		if _, err := os.Stat(configurationPath); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", configurationPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return build.WriteDefault(configurationPath)
}
