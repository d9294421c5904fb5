package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inventory.GO/client"
	"inventory.GO/config"
	"inventory.GO/console"
)

func newClient() *client.Client {
	return client.NewFromConfig(config.App(), client.WithLogger(zap.L()))
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive inventory console (dashboard, list, add, scan, upload)",
	RunE: func(c *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		figure.NewFigure("Inventory", "small", true).Print()
		fmt.Printf("\nconnected to %s, type help for commands\n\n", config.App().APIURL)

		sh := console.NewShell(ctx, newClient())
		defer sh.Close()
		return sh.Run(os.Stdin, os.Stdout)
	},
}

func init() {
	Register(shellCmd)
}
