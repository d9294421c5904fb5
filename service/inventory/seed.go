package inventory

import (
	"context"

	"go.uber.org/zap"

	inventoryEntity "inventory.GO/model/entity/inventory"
)

type sampleItem struct {
	name     string
	quantity int
	category string
	barcode  string
	image    string
}

var sampleItems = []sampleItem{
	{"Laptop", 15, "Electronics", "ITEM000001", "Laptop"},
	{"Mouse", 50, "Electronics", "ITEM000002", "Mouse"},
	{"Keyboard", 25, "Electronics", "ITEM000003", "Keyboard"},
	{"Monitor", 8, "Electronics", "ITEM000004", "Monitor"},
	{"Desk Chair", 12, "Furniture", "ITEM000005", "Chair"},
	{"Office Desk", 5, "Furniture", "ITEM000006", "Desk"},
	{"Printer Paper", 200, "Office Supplies", "ITEM000007", "Paper"},
	{"Pens", 150, "Office Supplies", "ITEM000008", "Pens"},
	{"Notebooks", 75, "Office Supplies", "ITEM000009", "Notebooks"},
	{"Coffee Mug", 30, "Kitchen", "ITEM000010", "Mug"},
	{"Water Bottle", 45, "Kitchen", "ITEM000011", "Bottle"},
	{"USB Cable", 100, "Electronics", "ITEM000012", "Cable"},
	{"Headphones", 20, "Electronics", "ITEM000013", "Headphones"},
	{"Webcam", 10, "Electronics", "ITEM000014", "Webcam"},
	{"Stapler", 25, "Office Supplies", "ITEM000015", "Stapler"},
}

// Seed loads the sample catalogue into an empty table and returns how many
// rows it inserted. A table that already holds items is left alone.
func (s *InventoryService) Seed(ctx context.Context) (int, error) {
	n, err := s.repo.TotalCount(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	rows := make([]inventoryEntity.InventoryItem, 0, len(sampleItems))
	for _, si := range sampleItems {
		barcode := si.barcode
		image := "https://via.placeholder.com/150x150?text=" + si.image
		rows = append(rows, inventoryEntity.InventoryItem{
			Name:              si.name,
			Category:          si.category,
			Quantity:          si.quantity,
			LowStockThreshold: DefaultLowStockThreshold,
			Barcode:           &barcode,
			Image:             &image,
		})
	}
	if err := s.repo.DB().WithContext(ctx).CreateInBatches(&rows, 100).Error; err != nil {
		return 0, err
	}

	for i := range rows {
		item := toItem(&rows[i])
		s.afterWrite(ctx, &item, 0)
	}
	s.log.Info("sample data loaded", zap.Int("items", len(rows)))
	return len(rows), nil
}
