package html

import (
	"encoding/base64"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory.GO/api"
	parts "inventory.GO/html/parts"
	barcodeService "inventory.GO/service/barcode"
	inventoryService "inventory.GO/service/inventory"
)

const labelHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Item.Name}} label</title>
<style>{{.CSS}}</style>
</head>
<body>
<div class="label">
  <img class="qr" src="{{.QR}}" alt="{{.Payload}}">
  {{if .Bar}}<img class="bar" src="{{.Bar}}" alt="{{.Barcode}}">{{end}}
  <h1>{{.Item.Name}}</h1>
  <p>{{.Item.Category}}</p>
  <p>{{.Payload}}</p>
</div>
<button class="noprint" onclick="window.print()">Print</button>
</body>
</html>
`

type Template struct {
	Templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.Templates.ExecuteTemplate(w, name, data)
}

// NewTemplate parses every page this package serves.
func NewTemplate() *Template {
	return &Template{Templates: template.Must(template.New("label.html").Parse(labelHTML))}
}

func init() {
	api.RegisterRoute(RegisterLabelHTMLRoutes)
}

func dataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

// RegisterLabelHTMLRoutes serves GET /items/:id/label, a printable QR label.
func RegisterLabelHTMLRoutes(e *echo.Echo, s *api.Services) {
	if s == nil || s.Inventory == nil {
		return
	}
	e.Renderer = NewTemplate()
	svc := s.Inventory

	e.GET("/items/:id/label", func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			return c.String(http.StatusBadRequest, "Invalid item ID")
		}
		item, err := svc.Get(c.Request().Context(), id)
		if errors.Is(err, inventoryService.ErrNotFound) {
			return c.String(http.StatusNotFound, "Item not found")
		}
		if err != nil {
			zap.L().Error("label lookup failed", zap.Int64("id", id), zap.Error(err))
			return c.String(http.StatusInternalServerError, "Error fetching item")
		}

		payload := inventoryService.QRPayloadFor(item.ID, item.Name)
		if item.QRCode != nil && *item.QRCode != "" {
			payload = *item.QRCode
		}
		qr, err := barcodeService.GenerateLabel(payload)
		if err != nil {
			return c.String(http.StatusInternalServerError, "Error rendering label")
		}
		data := map[string]interface{}{
			"CSS":     parts.LabelCSS,
			"Item":    item,
			"Payload": payload,
			"QR":      dataURI(qr),
		}
		if item.Barcode != nil && *item.Barcode != "" {
			if bar, err := barcodeService.GenerateBarcode(*item.Barcode, 300, 80); err == nil {
				data["Bar"] = dataURI(bar)
				data["Barcode"] = *item.Barcode
			}
		}
		return c.Render(http.StatusOK, "label.html", data)
	})
}
