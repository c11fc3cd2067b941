package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/app"
	"github.com/yeisme/filevault/pkg/configs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// app.New loads the config itself; --debug reaches it as an env override.
		if debug {
			_ = os.Setenv(configs.EnvPrefix+"_SERVER_DEBUG", "true")
		}

		a, err := app.New(cmd.Context(), configPath)
		if err != nil {
			return err
		}

		return a.Run(cmd.Context())
	},
}

func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
