// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/hawkmon/hawkmon/internal/config"
)

var (
	cfg config.Config
	err error

	configPath string // Path to the configuration file
)

var rootCmd = &cobra.Command{
	Use:   "hawkmon",
	Short: "Hawkmon is a multi-user infrastructure monitoring service",
	Long: `Hawkmon is a multi-user infrastructure monitoring service.
This binary serves the JSON API, authenticates users against the local
store or external directories, and provisions directory users just in time.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "etc/main.toml", "Path to the configuration file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
