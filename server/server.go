package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory.GO/api"
	_ "inventory.GO/api/barcode"
	_ "inventory.GO/api/graphql"
	_ "inventory.GO/api/health"
	_ "inventory.GO/api/items"
	_ "inventory.GO/api/realtime"
	_ "inventory.GO/api/stock"
	"inventory.GO/config"
	"inventory.GO/core/auth"
	_ "inventory.GO/html"
	inventoryService "inventory.GO/service/inventory"
)

// New wires the middleware chain and every registered route module.
func New(cfg *config.Config, db *gorm.DB, svc *inventoryService.InventoryService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.Decompress())
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))
	e.Use(requestLogger())

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Before(func() {
				duration := time.Since(start).Milliseconds()
				c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
			})
			return next(c)
		}
	})

	if mw := auth.Middleware(cfg); mw != nil {
		e.Use(mw)
	}

	services := &api.Services{
		DB:             db,
		Inventory:      svc,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	apiGroup := e.Group("/api")
	api.ApplyModules(apiGroup, services)
	api.ApplyRoutes(e, services)
	return e
}

// bodyLimit leaves room for multipart framing around the largest upload.
func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return strconv.FormatInt(maxUpload+(1<<20), 10)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				zap.L().Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			zap.L().Info("request", fields...)
			return nil
		},
	})
}
