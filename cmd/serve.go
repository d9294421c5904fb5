package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inventory.GO/config"
	"inventory.GO/cron"
	"inventory.GO/server"
)

var noSeed bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the inventory HTTP service",
	RunE: func(c *cobra.Command, args []string) error {
		if err := config.LoadAppConfig(); err != nil {
			return err
		}
		cfg := config.App()
		log := zap.L()

		figure.NewFigure("Inventory", "standard", true).Print()
		fmt.Println()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, svc, err := openService(ctx, cfg, log)
		if err != nil {
			return err
		}

		if cfg.SeedData && !noSeed {
			n, err := svc.Seed(ctx)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			if n > 0 {
				log.Info("sample data loaded", zap.Int("items", n))
			}
		}

		cron.RegisterInventoryJobs(svc, cfg.LowStockReportSchedule, log)
		sched, err := cron.StartCron()
		if err != nil {
			return err
		}
		defer sched.Stop()

		e := server.New(cfg, db, svc)
		errc := make(chan error, 1)
		go func() {
			log.Info("server running", zap.String("port", cfg.Port), zap.String("auth", cfg.AuthType))
			errc <- e.Start(":" + cfg.Port)
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			log.Info("shutting down")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&noSeed, "no-seed", false, "do not load sample items into an empty database")
	Register(serveCmd)
}
