package stock

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"inventory.GO/api"
	inventoryService "inventory.GO/service/inventory"
)

func init() {
	api.RegisterModule(RegisterStockRoutes)
}

func RegisterStockRoutes(apiGroup *echo.Group, s *api.Services) {
	svc := s.Inventory
	g := apiGroup.Group("/stock")

	// POST /api/stock/import: bulk quantity update by barcode
	g.POST("/import", func(c echo.Context) error {
		start := time.Now()

		var body struct {
			Items     []inventoryService.StockInput `json:"items"`
			BatchSize int                           `json:"batch_size"`
		}
		if err := c.Bind(&body); err != nil {
			return api.BadRequest(c, "invalid JSON body")
		}
		if len(body.Items) == 0 {
			return api.BadRequest(c, "items array is required and must not be empty")
		}

		res, err := svc.ImportStock(c.Request().Context(), body.Items, body.BatchSize)
		if err != nil {
			return api.Error(c, err)
		}

		duration := time.Since(start).Milliseconds()
		c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
		return c.JSON(http.StatusOK, echo.Map{
			"imported":            res.Imported,
			"skipped":             res.Skipped,
			"warnings":            res.Warnings,
			"request_duration_ms": duration,
		})
	})

	// POST /api/stock/import/csv: multipart "file" with item rows
	g.POST("/import/csv", func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return api.BadRequest(c, "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return api.BadRequest(c, "unreadable upload")
		}
		defer f.Close()

		update, _ := strconv.ParseBool(c.FormValue("update_existing"))
		res, err := svc.ImportCSV(c.Request().Context(), f, inventoryService.ImportOptions{UpdateExisting: update})
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, res)
	})
}
