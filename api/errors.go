package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	inventoryService "inventory.GO/service/inventory"
)

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, inventoryService.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, inventoryService.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventoryService.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"error": "..."} with the mapped status. Internal errors
// are logged and not echoed to the caller.
func Error(c echo.Context, err error) error {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// BadRequest writes a 400 with msg.
func BadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
