package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inventory.GO/config"
	"inventory.GO/cron"
)

var jobName string

var cronStartCmd = &cobra.Command{
	Use:   "cron:start",
	Short: "Start the cron scheduler or run a single job by name",
	RunE: func(c *cobra.Command, args []string) error {
		cfg := config.App()
		log := zap.L()
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, svc, err := openService(ctx, cfg, log)
		if err != nil {
			return err
		}
		cron.RegisterInventoryJobs(svc, cfg.LowStockReportSchedule, log)

		if jobName != "" {
			name := strings.ToLower(jobName)
			j, ok := cron.Jobs()[name]
			if !ok {
				return fmt.Errorf("unknown job: %s", jobName)
			}
			fmt.Printf("Running cron job: %s\n", name)
			j.Run(args...)
			return nil
		}

		sched, err := cron.StartCron()
		if err != nil {
			return err
		}
		defer sched.Stop()
		fmt.Println("Cron scheduler started. Press Ctrl+C to exit.")
		<-ctx.Done()
		return nil
	},
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run a single cron job by name and exit")
	Register(cronStartCmd)
}
