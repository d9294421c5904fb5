package barcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// maxDecodeEdge bounds the longest side handed to the readers.
const maxDecodeEdge = 1600

// ErrInvalidImage is returned when the upload is not a decodable image.
var ErrInvalidImage = errors.New("invalid image data")

// Symbology names the symbol family that produced a decoded text.
type Symbology string

const (
	QRCode  Symbology = "QR_CODE"
	Code128 Symbology = "CODE_128"
	EAN13   Symbology = "EAN_13"
)

// Decoded is a successful read. A zero value (empty Text) means no symbol was found.
type Decoded struct {
	Text   string
	Format Symbology
}

// Found reports whether a symbol was read.
func (d Decoded) Found() bool {
	return d.Text != ""
}

type namedReader struct {
	format Symbology
	reader gozxing.Reader
}

// Decode reads the first QR, Code128 or EAN-13 symbol in data. PNG, JPEG, GIF
// and WebP are accepted. An image without a symbol yields a zero Decoded and
// a nil error; only undecodable image data is an error.
func Decode(data []byte) (Decoded, error) {
	img, err := loadImage(data)
	if err != nil {
		return Decoded{}, err
	}
	img = preprocess(img)

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	readers := []namedReader{
		{QRCode, qrcode.NewQRCodeReader()},
		{Code128, oned.NewCode128Reader()},
		{EAN13, oned.NewEAN13Reader()},
	}
	for _, r := range readers {
		res, err := r.reader.Decode(bmp, hints)
		if err != nil || res == nil {
			continue
		}
		if text := res.GetText(); text != "" {
			return Decoded{Text: text, Format: r.format}, nil
		}
	}
	return Decoded{}, nil
}

func loadImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	if isWebP(data) {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

// preprocess converts to grayscale and shrinks camera sized photos.
func preprocess(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() > maxDecodeEdge || b.Dy() > maxDecodeEdge {
		img = imaging.Fit(img, maxDecodeEdge, maxDecodeEdge, imaging.Lanczos)
	}
	return imaging.Grayscale(img)
}
