package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// Item is an inventory item as reported by the service.
type Item struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Quantity          int       `json:"quantity"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	LowStock          bool      `json:"lowStock"`
	Barcode           *string   `json:"barcode"`
	QRCode            *string   `json:"qrCode"`
	Image             *string   `json:"image"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Fields copies the mutable fields of it, ready for UpdateItem.
func (it Item) Fields() ItemFields {
	threshold := it.LowStockThreshold
	return ItemFields{
		Name:              it.Name,
		Category:          it.Category,
		Quantity:          it.Quantity,
		LowStockThreshold: &threshold,
		Barcode:           it.Barcode,
		QRCode:            it.QRCode,
		Image:             it.Image,
	}
}

// Draft holds the fields of an item that has not been created yet.
// A nil LowStockThreshold lets the service apply its default.
type Draft struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	Quantity          int    `json:"quantity"`
	LowStockThreshold *int   `json:"lowStockThreshold,omitempty"`
	Barcode           string `json:"barcode,omitempty"`
	QRCode            string `json:"qrCode,omitempty"`
	Image             string `json:"image,omitempty"`
}

// ItemFields is the body of a full update. Nil codes keep the stored value;
// a pointer to "" clears it.
type ItemFields struct {
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Quantity          int     `json:"quantity"`
	LowStockThreshold *int    `json:"lowStockThreshold,omitempty"`
	Barcode           *string `json:"barcode,omitempty"`
	QRCode            *string `json:"qrCode,omitempty"`
	Image             *string `json:"image,omitempty"`
}

// CategoryCount travels as a two element array: ["Electronics", 8].
type CategoryCount struct {
	Category string
	Count    int64
}

func (c CategoryCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Category, c.Count})
}

func (c *CategoryCount) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("category count: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Category); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &c.Count)
}

type DashboardStats struct {
	TotalItems     int64           `json:"totalItems"`
	TotalQuantity  int64           `json:"totalQuantity"`
	LowStockItems  int64           `json:"lowStockItems"`
	CategoryCounts []CategoryCount `json:"categoryCounts"`
}

// DecodeResult is the outcome of an image decode. Both fields are nil when
// the image held no recognizable symbol.
type DecodeResult struct {
	DecodedText *string
	MatchedItem *Item
}

// Empty reports whether nothing was decoded.
func (r DecodeResult) Empty() bool {
	return r.DecodedText == nil
}

// QRLabel is a printable QR code for one item.
type QRLabel struct {
	Image    []byte
	ItemID   int64
	ItemName string
	Barcode  *string
}

// BarcodeValidation reports whether a code is well formed and already in use.
type BarcodeValidation struct {
	Valid        bool   `json:"valid"`
	Barcode      string `json:"barcode"`
	Exists       bool   `json:"exists"`
	ExistingItem *Item  `json:"existingItem"`
}
