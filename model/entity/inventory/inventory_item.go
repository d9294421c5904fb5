package inventory

import "time"

// InventoryItem represents the inventory_item table
type InventoryItem struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"column:name;type:varchar(255);not null;index" json:"name"`
	Category          string    `gorm:"column:category;type:varchar(255);not null;index" json:"category"`
	Quantity          int       `gorm:"column:quantity;not null;default:0" json:"quantity"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null" json:"low_stock_threshold"`
	Barcode           *string   `gorm:"column:barcode;type:varchar(128);uniqueIndex" json:"barcode,omitempty"`
	QRCode            *string   `gorm:"column:qr_code;type:varchar(512);uniqueIndex" json:"qr_code,omitempty"`
	Image             *string   `gorm:"column:image;type:varchar(1024)" json:"image,omitempty"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (InventoryItem) TableName() string {
	return "inventory_item"
}

// IsLowStock reports whether the quantity does not exceed the item's threshold.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}
