package console

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

// DefaultFormThreshold is the low stock threshold a fresh form starts with.
const DefaultFormThreshold = 10

// Form is the state of the add item form.
type Form struct {
	Name              string
	Category          string
	Quantity          int
	LowStockThreshold int
	Barcode           string
	QRCode            string
	Image             string
}

func emptyForm() Form {
	return Form{LowStockThreshold: DefaultFormThreshold}
}

// Draft converts the form into a create request.
func (f Form) Draft() client.Draft {
	t := f.LowStockThreshold
	return client.Draft{
		Name:              strings.TrimSpace(f.Name),
		Category:          strings.TrimSpace(f.Category),
		Quantity:          f.Quantity,
		LowStockThreshold: &t,
		Barcode:           strings.TrimSpace(f.Barcode),
		QRCode:            strings.TrimSpace(f.QRCode),
		Image:             strings.TrimSpace(f.Image),
	}
}

type PreviewKind string

const (
	BarcodePreview PreviewKind = "barcode"
	QRPreview      PreviewKind = "qr"
)

type AddItem struct {
	page
	api       API
	form      Form
	previews  map[PreviewKind][]byte
	created   *client.Item
	createdQR []byte
	now       func() time.Time
}

func NewAddItem(ctx context.Context, api API, notes *notify.Center) *AddItem {
	a := &AddItem{api: api, form: emptyForm(), previews: make(map[PreviewKind][]byte), now: time.Now}
	a.init(ctx, notes)
	a.ready()
	return a
}

// Set assigns one form field by its wire name. Quantities that do not parse
// become 0.
func (a *AddItem) Set(field, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch field {
	case "name":
		a.form.Name = value
	case "category":
		a.form.Category = value
	case "quantity":
		a.form.Quantity = atoiOrZero(value)
	case "lowStockThreshold":
		a.form.LowStockThreshold = atoiOrZero(value)
	case "barcode":
		a.form.Barcode = value
	case "qrCode":
		a.form.QRCode = value
	case "image":
		a.form.Image = value
	default:
		return fmt.Errorf("console: unknown field %q", field)
	}
	delete(a.fields, field)
	return nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func (a *AddItem) Form() Form {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form
}

// Created is the item of the last successful submit and its QR image.
func (a *AddItem) Created() (*client.Item, []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.created, a.createdQR
}

func (a *AddItem) Preview(kind PreviewKind) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.previews[kind]
}

// Submit creates the item. Missing name or category are reported inline
// and nothing is sent. On success the QR image of the new item is fetched
// and the form is reset.
func (a *AddItem) Submit() (client.Item, error) {
	form := a.Form()
	if err := a.require(form); err != nil {
		return client.Item{}, err
	}

	ctx, gen, err := a.beginWrite()
	if err != nil {
		return client.Item{}, err
	}
	item, err := a.api.CreateItem(ctx, form.Draft())
	if err != nil {
		if a.rollback(gen, err) {
			a.report("Failed to add item", err)
		}
		return client.Item{}, err
	}

	var qr []byte
	if item.QRCode != nil && *item.QRCode != "" {
		if qr, err = a.api.GenerateQRCodeImage(ctx, *item.QRCode); err != nil {
			zap.L().Warn("qr image for new item failed", zap.Int64("id", item.ID), zap.Error(err))
			qr = nil
		}
	}

	if !a.settle(gen, nil, func() {
		a.created = &item
		a.createdQR = qr
		a.form = emptyForm()
		a.fields = make(map[string]string)
	}) {
		return item, ErrSuperseded
	}
	a.notes.Success("Item added successfully!")
	return item, nil
}

func (a *AddItem) require(form Form) error {
	a.clearFields()
	var missing []string
	if strings.TrimSpace(form.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(form.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) == 0 {
		return nil
	}
	for _, f := range missing {
		a.setField(f, "is required")
	}
	a.notes.Error("Please fill in all required fields")
	return &client.ValidationError{Field: missing[0], Message: "is required"}
}

// GenerateBarcodePreview renders the barcode field of the form.
func (a *AddItem) GenerateBarcodePreview() ([]byte, error) {
	code := strings.TrimSpace(a.Form().Barcode)
	if code == "" {
		a.setField("barcode", "is required")
		a.notes.Error("Please enter a barcode value first")
		return nil, &client.ValidationError{Field: "barcode", Message: "is required"}
	}
	return a.preview(BarcodePreview, "Failed to generate barcode", "Barcode generated successfully!", func(ctx context.Context) ([]byte, error) {
		return a.api.GenerateBarcodeImage(ctx, code)
	})
}

// GenerateQRPreview renders a QR code for INV:<unix millis>:<name> and keeps
// that payload as the draft's qrCode.
func (a *AddItem) GenerateQRPreview() ([]byte, error) {
	name := strings.TrimSpace(a.Form().Name)
	if name == "" {
		a.setField("name", "is required")
		a.notes.Error("Please enter an item name first")
		return nil, &client.ValidationError{Field: "name", Message: "is required"}
	}
	payload := fmt.Sprintf("INV:%d:%s", a.now().UnixMilli(), name)
	img, err := a.preview(QRPreview, "Failed to generate QR code", "QR code generated successfully!", func(ctx context.Context) ([]byte, error) {
		return a.api.GenerateQRCodeImage(ctx, payload)
	})
	if err == nil {
		a.mu.Lock()
		a.form.QRCode = payload
		a.mu.Unlock()
	}
	return img, err
}

func (a *AddItem) preview(kind PreviewKind, failMsg, okMsg string, call func(context.Context) ([]byte, error)) ([]byte, error) {
	ctx, gen, err := a.beginWrite()
	if err != nil {
		return nil, err
	}
	img, err := call(ctx)
	if err != nil {
		if a.rollback(gen, err) {
			a.report(failMsg, err)
		}
		return nil, err
	}
	if !a.settle(gen, nil, func() { a.previews[kind] = img }) {
		return nil, ErrSuperseded
	}
	a.notes.Success(okMsg)
	return img, nil
}

// SavePreview writes a generated preview PNG to path.
func (a *AddItem) SavePreview(kind PreviewKind, path string) error {
	img := a.Preview(kind)
	if kind == QRPreview && img == nil {
		_, img = a.Created()
	}
	if len(img) == 0 {
		return fmt.Errorf("console: no %s preview to save", kind)
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		a.notes.Error(fmt.Sprintf("Failed to save %s: %v", kind, err))
		return err
	}
	a.notes.Info("Saved " + path)
	return nil
}

// Reset clears the form and the previews.
func (a *AddItem) Reset() {
	a.mu.Lock()
	a.form = emptyForm()
	a.previews = make(map[PreviewKind][]byte)
	a.fields = make(map[string]string)
	a.mu.Unlock()
}
