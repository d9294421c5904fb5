package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"inventory.GO/config"
)

var apiURL string

var rootCmd = &cobra.Command{
	Use:          "inventory",
	Short:        "Inventory tracker: HTTP service and terminal console",
	SilenceUsage: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		if err := config.LoadAppConfig(); err != nil {
			return err
		}
		cfg := config.App()
		if apiURL != "" {
			cfg.APIURL = apiURL
		}
		_, err := config.NewLogger(cfg)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "inventory service base URL (overrides API_URL)")
}

// Execute attaches the registered commands and runs the root command.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
