package barcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
)

// Default image sizes in pixels.
const (
	BarcodeWidth  = 300
	BarcodeHeight = 100
	QRSize        = 300
	LabelSize     = 400

	quietZone = 10
)

// ErrEmptyText is returned when there is nothing to encode.
var ErrEmptyText = errors.New("text is required")

// GenerateBarcode renders text as a Code128 PNG of roughly width x height.
// Bars are scaled by a whole factor so every module keeps the same width.
func GenerateBarcode(text string, width, height int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	bc, err := code128.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encode code128: %w", err)
	}
	modules := bc.Bounds().Dx()
	factor := (width - 2*quietZone) / modules
	if factor < 1 {
		factor = 1
	}
	barHeight := height - 2*quietZone
	if barHeight < 1 {
		barHeight = height
	}
	scaled, err := barcode.Scale(bc, modules*factor, barHeight)
	if err != nil {
		return nil, fmt.Errorf("scale code128: %w", err)
	}
	return encodePNG(withQuietZone(scaled, width, height))
}

// GenerateQRCode renders text as a square QR PNG of size x size.
func GenerateQRCode(text string, size int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	code, err := qr.Encode(text, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	modules := code.Bounds().Dx()
	factor := (size - 2*quietZone) / modules
	if factor < 1 {
		factor = 1
	}
	scaled, err := barcode.Scale(code, modules*factor, modules*factor)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}
	return encodePNG(withQuietZone(scaled, size, size))
}

// GenerateLabel is the printable QR label of an item.
func GenerateLabel(payload string) ([]byte, error) {
	return GenerateQRCode(payload, LabelSize)
}

// withQuietZone centres img on a white canvas that is at least width x height
// and leaves a margin around the symbol.
func withQuietZone(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if w := b.Dx() + 2*quietZone; w > width {
		width = w
	}
	if h := b.Dy() + 2*quietZone; h > height {
		height = h
	}
	canvas := imaging.New(width, height, color.White)
	return imaging.PasteCenter(canvas, img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
