// Package custom holds project extensions that plug into the command and
// route registries from init(). Import it for its side effects.
package custom

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"inventory.GO/api"
	"inventory.GO/cmd"
	"inventory.GO/config"
)

// Version is set at build time with -ldflags "-X inventory.GO/custom.Version=...".
var Version = "dev"

func init() {
	cmd.Register(&cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintf(c.OutOrStdout(), "%s %s\n", config.App().AppName, Version)
		},
	})

	api.RegisterGET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"name": config.App().AppName, "version": Version})
	})
}
