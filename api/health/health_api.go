package health

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inventory.GO/api"
)

func init() {
	api.RegisterRoute(RegisterHealthRoutes)
}

// RegisterHealthRoutes serves GET /health outside the /api auth group.
func RegisterHealthRoutes(e *echo.Echo, s *api.Services) {
	e.GET("/health", func(c echo.Context) error {
		if s != nil && s.DB != nil {
			sqlDB, err := s.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request().Context())
			}
			if err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "down", "error": "database unreachable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
}
