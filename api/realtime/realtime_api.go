package realtime

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"inventory.GO/api"
	"inventory.GO/config"
	inventoryService "inventory.GO/service/inventory"
)

// MaxCodes bounds one stock lookup request.
const MaxCodes = 100

func init() {
	api.RegisterModule(RegisterRealtimeRoutes)
}

// StockLevel is the answer for one scanned code.
type StockLevel struct {
	Code     string `json:"code"`
	Found    bool   `json:"found"`
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
	LowStock bool   `json:"lowStock"`
}

func signingKey() string {
	return config.GetEnv("SCANNER_SIGNING_KEY", "")
}

// verifySignature checks a hex HMAC-SHA256 of the raw codes parameter.
func verifySignature(payload, signature, key string) bool {
	if key == "" || payload == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(payload))
	expected := mac.Sum(nil)
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, sig)
}

func splitCodes(raw string) []string {
	var codes []string
	seen := make(map[string]bool)
	for _, c := range strings.Split(raw, ",") {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		codes = append(codes, c)
	}
	return codes
}

// RegisterRealtimeRoutes serves quick stock checks for handheld scanners.
func RegisterRealtimeRoutes(apiGroup *echo.Group, s *api.Services) {
	svc := s.Inventory
	g := apiGroup.Group("/realtime")

	// GET /api/realtime/stock?codes=ITEM000001,INV:2:Mouse
	g.GET("/stock", func(c echo.Context) error {
		start := time.Now()

		raw := c.QueryParam("codes")
		if key := signingKey(); key != "" && !verifySignature(raw, c.Request().Header.Get("X-Scanner-Sig"), key) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		}

		codes := splitCodes(raw)
		if len(codes) == 0 {
			return api.BadRequest(c, "codes required")
		}
		if len(codes) > MaxCodes {
			return api.BadRequest(c, "at most "+strconv.Itoa(MaxCodes)+" codes per request")
		}

		levels := make([]StockLevel, len(codes))
		eg, ctx := errgroup.WithContext(c.Request().Context())
		eg.SetLimit(8)
		for i, code := range codes {
			i, code := i, code
			eg.Go(func() error {
				levels[i].Code = code
				item, err := svc.FindByCode(ctx, code)
				if errors.Is(err, inventoryService.ErrNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				levels[i] = StockLevel{
					Code:     code,
					Found:    true,
					ID:       item.ID,
					Name:     item.Name,
					Quantity: item.Quantity,
					LowStock: item.LowStock,
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return api.Error(c, err)
		}

		duration := time.Since(start).Milliseconds()
		c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
		return c.JSON(http.StatusOK, levels)
	})
}
