// Standalone read-only GraphQL server: go run ./cmd/graphql
package main

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory.GO/api"
	_ "inventory.GO/api/graphql"
	_ "inventory.GO/api/health"
	"inventory.GO/config"
	inventoryRepo "inventory.GO/model/repository/inventory"
	inventoryService "inventory.GO/service/inventory"
)

func main() {
	_ = godotenv.Load()
	if err := config.LoadAppConfig(); err != nil {
		log.Fatal(err)
	}
	cfg := config.App()
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatal("logger:", err)
	}
	defer logger.Sync()

	db, err := config.NewDB()
	if err != nil {
		log.Fatal("db:", err)
	}
	if config.DBDriver() != "mysql" {
		if err := inventoryRepo.AutoMigrate(db); err != nil {
			log.Fatal("migrate:", err)
		}
	}
	svc, err := inventoryService.NewInventoryService(db,
		inventoryService.WithLogger(logger),
		inventoryService.WithDefaultThreshold(cfg.LowStockThreshold),
	)
	if err != nil {
		log.Fatal("service:", err)
	}

	e := echo.New()
	e.HideBanner = true
	api.ApplyRoutes(e, &api.Services{DB: db, Inventory: svc, MaxUploadBytes: cfg.MaxUploadBytes})

	fonts := []string{"banner", "big", "block", "slant", "standard", "small", "shadow", "speed", "doom", "larry3d", "puffy"}
	figure.NewFigure("Inventory GQL", fonts[rand.Intn(len(fonts))], true).Print()
	fmt.Println("Standalone GraphQL server")

	logger.Info("graphql ready",
		zap.String("graphql", "http://localhost:"+cfg.Port+"/graphql"),
		zap.String("playground", "http://localhost:"+cfg.Port+"/playground"),
	)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
