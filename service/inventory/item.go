package inventory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	inventoryEntity "inventory.GO/model/entity/inventory"
)

// Item is the wire shape of an inventory item.
type Item struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Quantity          int       `json:"quantity"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	Barcode           *string   `json:"barcode"`
	QRCode            *string   `json:"qrCode"`
	Image             *string   `json:"image"`
	LowStock          bool      `json:"lowStock"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ItemInput is the body of create and full update requests. Pointer fields
// distinguish "omitted" from a zero value.
type ItemInput struct {
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Quantity          *int    `json:"quantity"`
	LowStockThreshold *int    `json:"lowStockThreshold"`
	Barcode           *string `json:"barcode"`
	QRCode            *string `json:"qrCode"`
	Image             *string `json:"image"`
}

// CategoryCount is serialized as a two element array: ["Electronics", 8].
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

// DashboardStats aggregates the whole inventory.
type DashboardStats struct {
	TotalItems     int64           `json:"totalItems"`
	TotalQuantity  int64           `json:"totalQuantity"`
	LowStockItems  int64           `json:"lowStockItems"`
	CategoryCounts []CategoryCount `json:"categoryCounts"`
}

func toItem(e *inventoryEntity.InventoryItem) Item {
	return Item{
		ID:                e.ID,
		Name:              e.Name,
		Category:          e.Category,
		Quantity:          e.Quantity,
		LowStockThreshold: e.LowStockThreshold,
		Barcode:           e.Barcode,
		QRCode:            e.QRCode,
		Image:             e.Image,
		LowStock:          e.IsLowStock(),
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func toItems(rows []inventoryEntity.InventoryItem) []Item {
	out := make([]Item, 0, len(rows))
	for i := range rows {
		out = append(out, toItem(&rows[i]))
	}
	return out
}

// optional trims s and turns blank values into nil so the unique indexes
// never see an empty string.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// BarcodeFor is the generated barcode of an item that was created without one.
func BarcodeFor(id int64) string {
	return fmt.Sprintf("ITEM%06d", id)
}

// QRPayloadFor is the generated QR payload of an item that was created without one.
func QRPayloadFor(id int64, name string) string {
	return fmt.Sprintf("INV:%d:%s", id, name)
}
