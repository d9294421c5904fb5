package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory.GO/config"
	"inventory.GO/core/cache"
	"inventory.GO/migrations"
	inventoryRepo "inventory.GO/model/repository/inventory"
	inventoryService "inventory.GO/service/inventory"
	"inventory.GO/service/search"
)

// openService connects the database, brings the schema up to date and
// builds the inventory service with the optional cache and search index.
func openService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, *inventoryService.InventoryService, error) {
	db, err := config.NewDB()
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if config.DBDriver() == "mysql" {
		err = migrations.Up(sqlDB)
	} else {
		err = inventoryRepo.AutoMigrate(db)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	opts := []inventoryService.Option{
		inventoryService.WithLogger(log),
		inventoryService.WithDefaultThreshold(cfg.LowStockThreshold),
	}

	config.InitRedis()
	if config.RedisClient != nil {
		log.Info("redis connected, caching dashboard stats in redis")
		opts = append(opts, inventoryService.WithCache(cache.NewRedisStore(config.RedisClient, "inventory:")))
	} else {
		opts = append(opts, inventoryService.WithCache(cache.NewMemoryStore(cache.GetInstance())))
	}

	idx, err := search.NewFromEnv()
	switch {
	case err != nil:
		log.Warn("elasticsearch unavailable, using SQL name search", zap.Error(err))
	case idx != nil:
		if err := idx.EnsureIndex(ctx); err != nil {
			log.Warn("elasticsearch index not ready, using SQL name search", zap.Error(err))
		} else {
			opts = append(opts, inventoryService.WithIndexer(idx))
		}
	}

	svc, err := inventoryService.NewInventoryService(db, opts...)
	if err != nil {
		return nil, nil, err
	}
	if n, err := svc.Reindex(ctx); err != nil {
		log.Warn("search index backfill failed, using SQL name search", zap.Error(err))
	} else if svc.IndexFresh() {
		log.Info("search index ready", zap.Int("items", n))
	}
	return db, svc, nil
}
