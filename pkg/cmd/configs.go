package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/configs"
)

// secretKeys are masked by "config debug".
var secretKeys = []string{"password", "secret", "secret_access_key"}

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the config file in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			used := configs.GetViper().ConfigFileUsed()
			if used == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and environment only)")

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), used)

			return nil
		},
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			v := configs.GetViper()
			if debug {
				v.Debug()
			}

			settings := v.AllSettings()
			maskSecrets(settings)

			b, err := sonic.ConfigStd.MarshalIndent(settings, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}

	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "list every config key with its environment variable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			keys := configs.GetViper().AllKeys()
			sort.Strings(keys)

			for _, k := range keys {
				env := configs.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(k, ".", "_"))
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", k, env)
			}

			return nil
		},
	}
)

func maskSecrets(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			maskSecrets(val)
		case string:
			for _, s := range secretKeys {
				if k == s && val != "" {
					m[k] = "******"
				}
			}
		}
	}
}

func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd)
	configCmd.AddCommand(debugCmd)
	configCmd.AddCommand(keysCmd)

	rootCmd.AddCommand(configCmd)
}
