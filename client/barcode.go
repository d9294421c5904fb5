package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type generated struct {
	Barcode string `json:"barcode"`
	QRCode  string `json:"qrCode"`
	Text    string `json:"text"`
}

// GenerateBarcodeImage returns a Code128 PNG for text.
func (c *Client) GenerateBarcodeImage(ctx context.Context, text string) ([]byte, error) {
	const op = "GenerateBarcodeImage"
	out, err := c.generate(ctx, op, "/barcode/generate", text)
	if err != nil {
		return nil, err
	}
	return c.decodeImage(op, out.Barcode)
}

// GenerateQRCodeImage returns a QR PNG for text.
func (c *Client) GenerateQRCodeImage(ctx context.Context, text string) ([]byte, error) {
	const op = "GenerateQRCodeImage"
	out, err := c.generate(ctx, op, "/barcode/qr/generate", text)
	if err != nil {
		return nil, err
	}
	return c.decodeImage(op, out.QRCode)
}

func (c *Client) generate(ctx context.Context, op, path, text string) (generated, error) {
	var out generated
	if strings.TrimSpace(text) == "" {
		return out, c.invalid(op, "text", "is required")
	}
	r, err := c.jsonRequest(op, http.MethodPost, path, map[string]string{"text": text})
	if err != nil {
		return out, c.invalid(op, "text", err.Error())
	}
	err = c.do(ctx, r, &out)
	return out, err
}

func (c *Client) decodeImage(op, b64 string) ([]byte, error) {
	img, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(img) == 0 {
		c.log.Error("api response malformed", zap.String("op", op), zap.String("reason", "no image payload"))
		return nil, &ServiceError{Status: http.StatusOK, Message: "response carried no image"}
	}
	return img, nil
}

type decodeResponse struct {
	Success       bool    `json:"success"`
	DecodedText   *string `json:"decodedText"`
	InventoryItem *Item   `json:"inventoryItem"`
	Error         string  `json:"error"`
}

func (r decodeResponse) result() DecodeResult {
	if !r.Success || r.DecodedText == nil {
		return DecodeResult{}
	}
	return DecodeResult{DecodedText: r.DecodedText, MatchedItem: r.InventoryItem}
}

// DecodeBarcodeFromImage uploads image for server side decoding. An image
// without a readable symbol yields an empty result and a nil error.
func (c *Client) DecodeBarcodeFromImage(ctx context.Context, image []byte) (DecodeResult, error) {
	const op = "DecodeBarcodeFromImage"
	if len(image) == 0 {
		return DecodeResult{}, c.invalid(op, "image", "is empty")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
	h.Set("Content-Type", http.DetectContentType(image))
	part, err := mw.CreatePart(h)
	if err == nil {
		_, err = part.Write(image)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		return DecodeResult{}, c.invalid(op, "image", err.Error())
	}

	var out decodeResponse
	r := request{op: op, method: http.MethodPost, path: "/barcode/decode", body: &body, contentType: mw.FormDataContentType()}
	if err := c.do(ctx, r, &out); err != nil {
		return DecodeResult{}, err
	}
	return out.result(), nil
}

// DecodeBarcodeFromBase64 is DecodeBarcodeFromImage for an already encoded
// image; data URLs are accepted.
func (c *Client) DecodeBarcodeFromBase64(ctx context.Context, b64 string) (DecodeResult, error) {
	const op = "DecodeBarcodeFromBase64"
	if strings.TrimSpace(b64) == "" {
		return DecodeResult{}, c.invalid(op, "image", "is empty")
	}
	r, err := c.jsonRequest(op, http.MethodPost, "/barcode/decode/base64", map[string]string{"image": b64})
	if err != nil {
		return DecodeResult{}, c.invalid(op, "image", err.Error())
	}
	var out decodeResponse
	if err := c.do(ctx, r, &out); err != nil {
		return DecodeResult{}, err
	}
	return out.result(), nil
}

// GetPrintableQRLabel fetches the 400x400 label of item id.
func (c *Client) GetPrintableQRLabel(ctx context.Context, id int64) (QRLabel, error) {
	const op = "GetPrintableQRLabel"
	var out struct {
		QRCode   string  `json:"qrCode"`
		ItemName string  `json:"itemName"`
		ItemID   int64   `json:"itemId"`
		Barcode  *string `json:"barcode"`
	}
	path := "/barcode/items/" + strconv.FormatInt(id, 10) + "/qr-label"
	if err := c.do(ctx, request{op: op, method: http.MethodGet, path: path}, &out); err != nil {
		return QRLabel{}, err
	}
	img, err := c.decodeImage(op, out.QRCode)
	if err != nil {
		return QRLabel{}, err
	}
	return QRLabel{Image: img, ItemID: out.ItemID, ItemName: out.ItemName, Barcode: out.Barcode}, nil
}

// ValidateBarcode checks the format of code and whether an item already uses it.
func (c *Client) ValidateBarcode(ctx context.Context, code string) (BarcodeValidation, error) {
	const op = "ValidateBarcode"
	r, err := c.jsonRequest(op, http.MethodPost, "/barcode/validate", map[string]string{"barcode": code})
	if err != nil {
		return BarcodeValidation{}, c.invalid(op, "barcode", err.Error())
	}
	var out BarcodeValidation
	err = c.do(ctx, r, &out)
	return out, err
}
