package auth

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"inventory.GO/config"
)

// Middleware returns the auth middleware selected by cfg.AuthType, or nil when
// the service runs open ("none" or unset).
func Middleware(cfg *config.Config) echo.MiddlewareFunc {
	skipper := buildSkipper()
	switch cfg.AuthType {
	case "key":
		return keyAuth(cfg.APIKey, skipper)
	case "basic":
		return basicAuth(cfg.APIUser, cfg.APIPass, skipper)
	default:
		return nil
	}
}

func buildSkipper() middleware.Skipper {
	skipPaths := config.GetAuthSkipperPaths()
	return func(c echo.Context) bool {
		path := c.Path()
		for _, skip := range skipPaths {
			if path == skip {
				return true
			}
		}
		return false
	}
}

func basicAuth(user, pass string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Validator: func(username, password string, c echo.Context) (bool, error) {
			return equal(username, user) && equal(password, pass), nil
		},
		Skipper: skipper,
	})
}

// keyAuth reads the key from the X-API-Key header.
func keyAuth(apiKey string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:X-API-Key",
		Validator: func(key string, c echo.Context) (bool, error) {
			return apiKey != "" && equal(key, apiKey), nil
		},
		Skipper: skipper,
	})
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
