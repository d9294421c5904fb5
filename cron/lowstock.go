package cron

import (
	"context"
	"time"

	"go.uber.org/zap"

	inventoryService "inventory.GO/service/inventory"
)

// LowStockJobName is the name used by cron:start --job.
const LowStockJobName = "lowstock:report"

// ReindexJobName rebuilds the name search index so a stale index recovers.
const ReindexJobName = "search:reindex"

// LowStockReport logs one line per item at or below its threshold, flagging
// items that ran out entirely.
func LowStockReport(svc *inventoryService.InventoryService, log *zap.Logger) func(...string) {
	return func(...string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		items, err := svc.ListLowStock(ctx)
		if err != nil {
			log.Error("low stock report failed", zap.Error(err))
			return
		}
		for _, it := range items {
			status := "low stock"
			if it.Quantity == 0 {
				status = "out of stock"
			}
			log.Warn(status,
				zap.Int64("id", it.ID),
				zap.String("name", it.Name),
				zap.Int("quantity", it.Quantity),
				zap.Int("threshold", it.LowStockThreshold),
			)
		}
		log.Info("low stock report", zap.Int("items", len(items)))
	}
}

// Reindex copies all items into the search index. Name search stays on SQL
// until a run succeeds.
func Reindex(svc *inventoryService.InventoryService, log *zap.Logger) func(...string) {
	return func(...string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := svc.Reindex(ctx); err != nil {
			log.Error("search reindex failed", zap.Error(err))
		}
	}
}

// RegisterInventoryJobs adds the jobs that need the inventory service.
func RegisterInventoryJobs(svc *inventoryService.InventoryService, schedule string, log *zap.Logger) {
	if schedule == "" {
		schedule = "@every 1h"
	}
	Register(LowStockJobName, schedule, LowStockReport(svc, log))
	Register(ReindexJobName, "@every 6h", Reindex(svc, log))
}
