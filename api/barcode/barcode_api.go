package barcode

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"inventory.GO/api"
	barcodeService "inventory.GO/service/barcode"
	inventoryService "inventory.GO/service/inventory"
)

func init() {
	api.RegisterModule(RegisterBarcodeRoutes)
}

type textRequest struct {
	Text string `json:"text"`
}

// DecodeResponse is returned by both decode endpoints. A readable image
// without a symbol is success=false with a 200 status.
type DecodeResponse struct {
	Success       bool                   `json:"success"`
	DecodedText   *string                `json:"decodedText"`
	Format        string                 `json:"format,omitempty"`
	InventoryItem *inventoryService.Item `json:"inventoryItem,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

func RegisterBarcodeRoutes(apiGroup *echo.Group, s *api.Services) {
	svc := s.Inventory
	maxUpload := s.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	g := apiGroup.Group("/barcode")

	// POST /api/barcode/generate {text}
	g.POST("/generate", func(c echo.Context) error {
		var body textRequest
		if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Text) == "" {
			return api.BadRequest(c, "text is required")
		}
		png, err := barcodeService.GenerateBarcode(body.Text, barcodeService.BarcodeWidth, barcodeService.BarcodeHeight)
		if err != nil {
			return api.BadRequest(c, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{
			"barcode": base64.StdEncoding.EncodeToString(png),
			"text":    body.Text,
		})
	})

	// POST /api/barcode/qr/generate {text}
	g.POST("/qr/generate", func(c echo.Context) error {
		var body textRequest
		if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Text) == "" {
			return api.BadRequest(c, "text is required")
		}
		png, err := barcodeService.GenerateQRCode(body.Text, barcodeService.QRSize)
		if err != nil {
			return api.BadRequest(c, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{
			"qrCode": base64.StdEncoding.EncodeToString(png),
			"text":   body.Text,
		})
	})

	// POST /api/barcode/decode (multipart field "image")
	g.POST("/decode", func(c echo.Context) error {
		fh, err := c.FormFile("image")
		if err != nil {
			return api.BadRequest(c, "image file is required")
		}
		if fh.Size > maxUpload {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "image exceeds " + strconv.FormatInt(maxUpload, 10) + " bytes"})
		}
		f, err := fh.Open()
		if err != nil {
			return api.BadRequest(c, "image file is unreadable")
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
		if err != nil {
			return api.BadRequest(c, "image file is unreadable")
		}
		if len(data) == 0 {
			return api.BadRequest(c, "image file is empty")
		}
		return decode(c, svc, data)
	})

	// POST /api/barcode/decode/base64 {image}
	g.POST("/decode/base64", func(c echo.Context) error {
		var body struct {
			Image string `json:"image"`
		}
		if err := c.Bind(&body); err != nil || body.Image == "" {
			return api.BadRequest(c, "image is required")
		}
		data, err := decodeBase64(body.Image)
		if err != nil {
			return api.BadRequest(c, "image is not valid base64")
		}
		return decode(c, svc, data)
	})

	// GET /api/barcode/items/:id/qr-label
	g.GET("/items/:id/qr-label", func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return api.BadRequest(c, "id must be an integer")
		}
		item, err := svc.Get(c.Request().Context(), id)
		if err != nil {
			return api.Error(c, err)
		}
		payload := inventoryService.QRPayloadFor(item.ID, item.Name)
		if item.QRCode != nil {
			payload = *item.QRCode
		}
		png, err := barcodeService.GenerateLabel(payload)
		if err != nil {
			return api.Error(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"qrCode":   base64.StdEncoding.EncodeToString(png),
			"itemName": item.Name,
			"itemId":   item.ID,
			"barcode":  item.Barcode,
		})
	})

	// POST /api/barcode/validate {barcode}
	g.POST("/validate", func(c echo.Context) error {
		var body struct {
			Barcode string `json:"barcode"`
		}
		if err := c.Bind(&body); err != nil {
			return api.BadRequest(c, "invalid JSON body")
		}
		resp := echo.Map{
			"valid":   barcodeService.Validate(body.Barcode),
			"barcode": body.Barcode,
			"exists":  false,
		}
		if body.Barcode != "" {
			item, err := svc.GetByBarcode(c.Request().Context(), body.Barcode)
			switch {
			case err == nil:
				resp["exists"] = true
				resp["existingItem"] = item
			case !errors.Is(err, inventoryService.ErrNotFound):
				return api.Error(c, err)
			}
		}
		return c.JSON(http.StatusOK, resp)
	})
}

func decode(c echo.Context, svc *inventoryService.InventoryService, data []byte) error {
	res, err := barcodeService.Decode(data)
	if err != nil {
		return api.BadRequest(c, err.Error())
	}
	if !res.Found() {
		return c.JSON(http.StatusOK, DecodeResponse{Success: false, Error: "no barcode found"})
	}
	text := res.Text
	out := DecodeResponse{Success: true, DecodedText: &text, Format: string(res.Format)}
	item, err := svc.FindByCode(c.Request().Context(), text)
	if err != nil && !errors.Is(err, inventoryService.ErrNotFound) {
		return api.Error(c, err)
	}
	if err == nil {
		out.InventoryItem = &item
	}
	return c.JSON(http.StatusOK, out)
}

// decodeBase64 accepts raw base64 or a data URL such as "data:image/png;base64,...".
func decodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
