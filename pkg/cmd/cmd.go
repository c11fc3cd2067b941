// Package cmd contains the command line of filevault: the server, its
// maintenance commands and an HTTP client.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "filevault",
		Short:         "A small authenticated file storage service",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       configs.AppVersion,
	}
)

// Execute runs the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose output")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerBlobCommands()
	registerKVCommands()
	registerMQCommands()
	registerClientCommands()

	return rootCmd.Execute()
}

// loadConfig initializes the global configuration from --config.
func loadConfig() (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, err
	}

	cfg := configs.GetConfig()
	if debug {
		cfg.Server.Debug = true
	}

	return cfg, nil
}
