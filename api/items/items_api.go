package items

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"inventory.GO/api"
	inventoryService "inventory.GO/service/inventory"
)

func init() {
	api.RegisterModule(RegisterItemRoutes)
}

func RegisterItemRoutes(apiGroup *echo.Group, s *api.Services) {
	svc := s.Inventory
	g := apiGroup.Group("/items")

	// GET /api/items
	g.GET("", func(c echo.Context) error {
		items, err := svc.List(c.Request().Context())
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, items)
	})

	// POST /api/items
	g.POST("", func(c echo.Context) error {
		var in inventoryService.ItemInput
		if err := c.Bind(&in); err != nil {
			return api.BadRequest(c, "invalid JSON body")
		}
		item, err := svc.Create(c.Request().Context(), in)
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusCreated, item)
	})

	// GET /api/items/search?name=
	g.GET("/search", func(c echo.Context) error {
		items, err := svc.SearchByName(c.Request().Context(), c.QueryParam("name"))
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, items)
	})

	// GET /api/items/dashboard/stats
	g.GET("/dashboard/stats", func(c echo.Context) error {
		stats, err := svc.DashboardStats(c.Request().Context())
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, stats)
	})

	// GET /api/items/low-stock
	g.GET("/low-stock", func(c echo.Context) error {
		items, err := svc.ListLowStock(c.Request().Context())
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, items)
	})

	// GET /api/items/low-stock/:threshold
	g.GET("/low-stock/:threshold", func(c echo.Context) error {
		threshold, err := strconv.Atoi(c.Param("threshold"))
		if err != nil {
			return api.BadRequest(c, "threshold must be an integer")
		}
		items, err := svc.ListLowStockBelow(c.Request().Context(), threshold)
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, items)
	})

	// GET /api/items/category/:category
	g.GET("/category/:category", func(c echo.Context) error {
		items, err := svc.ListByCategory(c.Request().Context(), pathParam(c, "category"))
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, items)
	})

	// GET /api/items/barcode/:code
	g.GET("/barcode/:code", func(c echo.Context) error {
		item, err := svc.GetByBarcode(c.Request().Context(), pathParam(c, "code"))
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, item)
	})

	// GET /api/items/qr/:code
	g.GET("/qr/:code", func(c echo.Context) error {
		item, err := svc.GetByQRCode(c.Request().Context(), pathParam(c, "code"))
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, item)
	})

	// GET /api/items/:id
	g.GET("/:id", func(c echo.Context) error {
		id, ok := idParam(c)
		if !ok {
			return api.BadRequest(c, "id must be an integer")
		}
		item, err := svc.Get(c.Request().Context(), id)
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, item)
	})

	// PUT /api/items/:id
	g.PUT("/:id", func(c echo.Context) error {
		id, ok := idParam(c)
		if !ok {
			return api.BadRequest(c, "id must be an integer")
		}
		var in inventoryService.ItemInput
		if err := c.Bind(&in); err != nil {
			return api.BadRequest(c, "invalid JSON body")
		}
		item, err := svc.Update(c.Request().Context(), id, in)
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, item)
	})

	// PATCH /api/items/:id/quantity?quantity=
	g.PATCH("/:id/quantity", func(c echo.Context) error {
		id, ok := idParam(c)
		if !ok {
			return api.BadRequest(c, "id must be an integer")
		}
		quantity, err := strconv.Atoi(c.QueryParam("quantity"))
		if err != nil {
			return api.BadRequest(c, "quantity must be an integer")
		}
		item, err := svc.UpdateQuantity(c.Request().Context(), id, quantity)
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, item)
	})

	// DELETE /api/items/:id
	g.DELETE("/:id", func(c echo.Context) error {
		id, ok := idParam(c)
		if !ok {
			return api.BadRequest(c, "id must be an integer")
		}
		if err := svc.Delete(c.Request().Context(), id); err != nil {
			return api.Error(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

func idParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

// pathParam returns the decoded value of a path parameter. Echo matches on the
// decoded path unless the request kept a distinct RawPath (codes holding an
// escaped "/"), in which case the parameter is still escaped.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
