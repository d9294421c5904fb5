package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"

	inventoryEntity "inventory.GO/model/entity/inventory"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("inventory item not found")

// CategoryCount is one row of the per-category aggregate.
type CategoryCount struct {
	Category string
	Count    int64
}

type InventoryRepository struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

func NewInventoryRepository(db *gorm.DB) (*InventoryRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &InventoryRepository{db: db, sqlDB: sqlDB}, nil
}

// AutoMigrate creates or updates the inventory_item table. MySQL deployments
// use the SQL files under migrations/ instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&inventoryEntity.InventoryItem{})
}

// DB exposes the underlying handle for transactions that span repository calls.
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}

// WithTx returns a repository bound to tx. Raw SQL aggregates keep using the pool.
func (r *InventoryRepository) WithTx(tx *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: tx, sqlDB: r.sqlDB}
}

func (r *InventoryRepository) FindAll(ctx context.Context) ([]inventoryEntity.InventoryItem, error) {
	var items []inventoryEntity.InventoryItem
	err := r.db.WithContext(ctx).Order("id").Find(&items).Error
	return items, err
}

// FindPage returns up to limit rows with id greater than afterID, in id order.
func (r *InventoryRepository) FindPage(ctx context.Context, afterID int64, limit int) ([]inventoryEntity.InventoryItem, error) {
	var items []inventoryEntity.InventoryItem
	err := r.db.WithContext(ctx).Where("id > ?", afterID).Order("id").Limit(limit).Find(&items).Error
	return items, err
}

func (r *InventoryRepository) FindByID(ctx context.Context, id int64) (*inventoryEntity.InventoryItem, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *InventoryRepository) FindByBarcode(ctx context.Context, barcode string) (*inventoryEntity.InventoryItem, error) {
	return r.first(ctx, "barcode = ?", barcode)
}

func (r *InventoryRepository) FindByQRCode(ctx context.Context, qrCode string) (*inventoryEntity.InventoryItem, error) {
	return r.first(ctx, "qr_code = ?", qrCode)
}

func (r *InventoryRepository) first(ctx context.Context, query string, arg interface{}) (*inventoryEntity.InventoryItem, error) {
	var item inventoryEntity.InventoryItem
	err := r.db.WithContext(ctx).Where(query, arg).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SearchByName matches name substrings case-insensitively.
func (r *InventoryRepository) SearchByName(ctx context.Context, term string) ([]inventoryEntity.InventoryItem, error) {
	var items []inventoryEntity.InventoryItem
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).
		Order("id").
		Find(&items).Error
	return items, err
}

// FindByIDs returns the rows for ids in the given order, skipping ids that no longer exist.
func (r *InventoryRepository) FindByIDs(ctx context.Context, ids []int64) ([]inventoryEntity.InventoryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []inventoryEntity.InventoryItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]inventoryEntity.InventoryItem, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	items := make([]inventoryEntity.InventoryItem, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			items = append(items, row)
		}
	}
	return items, nil
}

// IDsByBarcode maps existing barcodes to item ids, querying in chunks of batchSize.
func (r *InventoryRepository) IDsByBarcode(ctx context.Context, barcodes []string, batchSize int) (map[string]int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	type codeRow struct {
		ID      int64
		Barcode string
	}
	m := make(map[string]int64, len(barcodes))
	for i := 0; i < len(barcodes); i += batchSize {
		end := i + batchSize
		if end > len(barcodes) {
			end = len(barcodes)
		}
		var chunk []codeRow
		err := r.db.WithContext(ctx).Model(&inventoryEntity.InventoryItem{}).
			Select("id, barcode").Where("barcode IN ?", barcodes[i:end]).Scan(&chunk).Error
		if err != nil {
			return nil, err
		}
		for _, row := range chunk {
			m[row.Barcode] = row.ID
		}
	}
	return m, nil
}

func (r *InventoryRepository) FindByCategory(ctx context.Context, category string) ([]inventoryEntity.InventoryItem, error) {
	var items []inventoryEntity.InventoryItem
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("id").Find(&items).Error
	return items, err
}

// FindLowStock returns items at or below their own threshold.
func (r *InventoryRepository) FindLowStock(ctx context.Context) ([]inventoryEntity.InventoryItem, error) {
	var items []inventoryEntity.InventoryItem
	err := r.db.WithContext(ctx).Where("quantity <= low_stock_threshold").Order("id").Find(&items).Error
	return items, err
}

// FindLowStockByThreshold returns items whose quantity does not exceed threshold.
func (r *InventoryRepository) FindLowStockByThreshold(ctx context.Context, threshold int) ([]inventoryEntity.InventoryItem, error) {
	var items []inventoryEntity.InventoryItem
	err := r.db.WithContext(ctx).Where("quantity <= ?", threshold).Order("id").Find(&items).Error
	return items, err
}

// CountByCategory groups items per category, ordered by category name.
func (r *InventoryRepository) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&inventoryEntity.InventoryItem{}).
		Select("category, COUNT(*)").
		Group("category").
		Order("category").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *InventoryRepository) TotalCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&inventoryEntity.InventoryItem{}).Count(&n).Error
	return n, err
}

// TotalQuantity sums quantity over all items
// Uses raw SQL for minimal overhead
func (r *InventoryRepository) TotalQuantity(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(SUM(quantity), 0) FROM inventory_item`
	var total int64
	err := r.sqlDB.QueryRowContext(ctx, query).Scan(&total)
	return total, err
}

// CountLowStock counts items at or below their own threshold.
func (r *InventoryRepository) CountLowStock(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM inventory_item WHERE quantity <= low_stock_threshold`
	var n int64
	err := r.sqlDB.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

func (r *InventoryRepository) Create(ctx context.Context, item *inventoryEntity.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Save writes every column of item, including nil codes.
func (r *InventoryRepository) Save(ctx context.Context, item *inventoryEntity.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// UpdateQuantity sets only the quantity column.
func (r *InventoryRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&inventoryEntity.InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL counts changed rows, not matched ones
		found, err := r.exists(ctx, "id = ?", id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&inventoryEntity.InventoryItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByBarcode reports whether another item (not exceptID) already uses barcode.
func (r *InventoryRepository) ExistsByBarcode(ctx context.Context, barcode string, exceptID int64) (bool, error) {
	return r.exists(ctx, "barcode = ? AND id <> ?", barcode, exceptID)
}

// ExistsByQRCode reports whether another item (not exceptID) already uses qrCode.
func (r *InventoryRepository) ExistsByQRCode(ctx context.Context, qrCode string, exceptID int64) (bool, error) {
	return r.exists(ctx, "qr_code = ? AND id <> ?", qrCode, exceptID)
}

func (r *InventoryRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&inventoryEntity.InventoryItem{}).Where(query, args...).Count(&n).Error
	return n > 0, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(s)
}
