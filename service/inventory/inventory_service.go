package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory.GO/core/cache"
	inventoryEntity "inventory.GO/model/entity/inventory"
	inventoryRepo "inventory.GO/model/repository/inventory"
)

const (
	statsCacheKey = "inventory:dashboard:stats"
	statsCacheTTL = 5 * time.Minute
	// CacheTag groups every cached value derived from the item table.
	CacheTag = "items"
	// DefaultLowStockThreshold applies when neither the request nor the config sets one.
	DefaultLowStockThreshold = 10
)

// Indexer mirrors items into a full text index. Search returns matching ids, best first.
type Indexer interface {
	Index(ctx context.Context, item Item) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, term string) ([]int64, error)
}

type InventoryService struct {
	repo             *inventoryRepo.InventoryRepository
	store            cache.Store
	index            Indexer
	defaultThreshold int
	log              *zap.Logger
	statsGen         atomic.Uint64
	indexFresh       atomic.Bool
}

type Option func(*InventoryService)

// WithCache sets the store used for dashboard stats.
func WithCache(store cache.Store) Option {
	return func(s *InventoryService) { s.store = store }
}

// BulkIndexer is implemented by indexes that can take many items per request.
type BulkIndexer interface {
	IndexAll(ctx context.Context, items []Item) error
}

// WithIndexer attaches a full text index. Name search uses it only after
// Reindex has filled it; until then, and after any failed index update, the
// SQL search answers. A nil indexer keeps the SQL search.
func WithIndexer(idx Indexer) Option {
	return func(s *InventoryService) { s.index = idx }
}

func WithDefaultThreshold(n int) Option {
	return func(s *InventoryService) {
		if n >= 0 {
			s.defaultThreshold = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *InventoryService) {
		if l != nil {
			s.log = l
		}
	}
}

func NewInventoryService(db *gorm.DB, opts ...Option) (*InventoryService, error) {
	repo, err := inventoryRepo.NewInventoryRepository(db)
	if err != nil {
		return nil, err
	}
	s := &InventoryService{
		repo:             repo,
		store:            cache.NewMemoryStore(cache.NewCache()),
		defaultThreshold: DefaultLowStockThreshold,
		log:              zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *InventoryService) List(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

func (s *InventoryService) Get(ctx context.Context, id int64) (Item, error) {
	return s.one(s.repo.FindByID(ctx, id))
}

func (s *InventoryService) GetByBarcode(ctx context.Context, code string) (Item, error) {
	return s.one(s.repo.FindByBarcode(ctx, code))
}

func (s *InventoryService) GetByQRCode(ctx context.Context, code string) (Item, error) {
	return s.one(s.repo.FindByQRCode(ctx, code))
}

func (s *InventoryService) one(row *inventoryEntity.InventoryItem, err error) (Item, error) {
	if err != nil {
		return Item{}, err
	}
	return toItem(row), nil
}

// FindByCode resolves a scanned payload: barcode first, then QR payload.
func (s *InventoryService) FindByCode(ctx context.Context, code string) (Item, error) {
	item, err := s.GetByBarcode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return s.GetByQRCode(ctx, code)
	}
	return item, err
}

// Create stores a new item. Missing codes are generated from the assigned id:
// ITEM000042 for the barcode and INV:42:<name> for the QR payload.
func (s *InventoryService) Create(ctx context.Context, in ItemInput) (Item, error) {
	if err := validate(in); err != nil {
		return Item{}, err
	}
	threshold := s.defaultThreshold
	if in.LowStockThreshold != nil {
		threshold = *in.LowStockThreshold
	}
	row := &inventoryEntity.InventoryItem{
		Name:              strings.TrimSpace(in.Name),
		Category:          strings.TrimSpace(in.Category),
		Quantity:          *in.Quantity,
		LowStockThreshold: threshold,
		Barcode:           optional(in.Barcode),
		QRCode:            optional(in.QRCode),
		Image:             optional(in.Image),
	}

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := checkUnique(ctx, repo, row); err != nil {
			return err
		}
		if err := repo.Create(ctx, row); err != nil {
			return translate(err)
		}
		generated := false
		if row.Barcode == nil {
			code := BarcodeFor(row.ID)
			row.Barcode = &code
			generated = true
		}
		if row.QRCode == nil {
			payload := QRPayloadFor(row.ID, row.Name)
			row.QRCode = &payload
			generated = true
		}
		if !generated {
			return nil
		}
		if err := checkUnique(ctx, repo, row); err != nil {
			return err
		}
		return translate(repo.Save(ctx, row))
	})
	if err != nil {
		return Item{}, err
	}

	item := toItem(row)
	s.afterWrite(ctx, &item, 0)
	return item, nil
}

// Update replaces name, category, quantity and image. Threshold, barcode and
// QR code are replaced only when present; an empty code clears it.
func (s *InventoryService) Update(ctx context.Context, id int64, in ItemInput) (Item, error) {
	if err := validate(in); err != nil {
		return Item{}, err
	}
	var row *inventoryEntity.InventoryItem
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		row, err = repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		row.Name = strings.TrimSpace(in.Name)
		row.Category = strings.TrimSpace(in.Category)
		row.Quantity = *in.Quantity
		row.Image = optional(in.Image)
		if in.LowStockThreshold != nil {
			row.LowStockThreshold = *in.LowStockThreshold
		}
		if in.Barcode != nil {
			row.Barcode = optional(in.Barcode)
		}
		if in.QRCode != nil {
			row.QRCode = optional(in.QRCode)
		}
		if err := checkUnique(ctx, repo, row); err != nil {
			return err
		}
		return translate(repo.Save(ctx, row))
	})
	if err != nil {
		return Item{}, err
	}

	item := toItem(row)
	s.afterWrite(ctx, &item, 0)
	return item, nil
}

// UpdateQuantity changes only the quantity of an item.
func (s *InventoryService) UpdateQuantity(ctx context.Context, id int64, quantity int) (Item, error) {
	if quantity < 0 {
		return Item{}, &ValidationError{Field: "quantity", Message: "must be non-negative"}
	}
	if err := s.repo.UpdateQuantity(ctx, id, quantity); err != nil {
		return Item{}, err
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	s.afterWrite(ctx, &item, 0)
	return item, nil
}

func (s *InventoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, nil, id)
	return nil
}

// SearchByName returns items whose name contains term, ignoring case. A blank
// term matches everything.
func (s *InventoryService) SearchByName(ctx context.Context, term string) ([]Item, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	if s.index != nil && s.indexFresh.Load() {
		ids, err := s.index.Search(ctx, term)
		if err == nil {
			rows, err := s.repo.FindByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			return toItems(rows), nil
		}
		s.log.Warn("search index unavailable, falling back to SQL", zap.String("term", term), zap.Error(err))
	}
	rows, err := s.repo.SearchByName(ctx, term)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// reindexPage is how many rows Reindex reads and sends per round.
const reindexPage = 500

// Reindex copies every stored item into the attached index and marks it
// usable for search. It returns the number of items sent.
func (s *InventoryService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	bulk, _ := s.index.(BulkIndexer)
	var afterID int64
	total := 0
	for {
		rows, err := s.repo.FindPage(ctx, afterID, reindexPage)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			break
		}
		items := toItems(rows)
		if bulk != nil {
			err = bulk.IndexAll(ctx, items)
		} else {
			for _, it := range items {
				if err = s.index.Index(ctx, it); err != nil {
					break
				}
			}
		}
		if err != nil {
			s.indexFresh.Store(false)
			return total, fmt.Errorf("reindex after id %d: %w", afterID, err)
		}
		total += len(items)
		afterID = rows[len(rows)-1].ID
	}
	s.indexFresh.Store(true)
	s.log.Info("search index rebuilt", zap.Int("items", total))
	return total, nil
}

// IndexFresh reports whether name search is currently served by the index.
func (s *InventoryService) IndexFresh() bool {
	return s.index != nil && s.indexFresh.Load()
}

func (s *InventoryService) ListByCategory(ctx context.Context, category string) ([]Item, error) {
	rows, err := s.repo.FindByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// ListLowStock returns items at or below their own threshold.
func (s *InventoryService) ListLowStock(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.FindLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// ListLowStockBelow returns items whose quantity is at most threshold.
func (s *InventoryService) ListLowStockBelow(ctx context.Context, threshold int) ([]Item, error) {
	if threshold < 0 {
		return nil, &ValidationError{Field: "threshold", Message: "must be non-negative"}
	}
	rows, err := s.repo.FindLowStockByThreshold(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// DashboardStats is served from the cache until the next write.
func (s *InventoryService) DashboardStats(ctx context.Context) (DashboardStats, error) {
	key := statsCacheKey + ":" + strconv.FormatUint(s.statsGen.Load(), 10)
	if b, ok, err := s.store.Get(ctx, key); err == nil && ok {
		var stats DashboardStats
		if json.Unmarshal(b, &stats) == nil {
			return stats, nil
		}
	} else if err != nil {
		s.log.Warn("stats cache read failed", zap.Error(err))
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	if b, err := json.Marshal(stats); err == nil {
		if err := s.store.Set(ctx, key, b, statsCacheTTL, CacheTag); err != nil {
			s.log.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *InventoryService) computeStats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	var err error
	if stats.TotalItems, err = s.repo.TotalCount(ctx); err != nil {
		return stats, err
	}
	if stats.TotalQuantity, err = s.repo.TotalQuantity(ctx); err != nil {
		return stats, err
	}
	if stats.LowStockItems, err = s.repo.CountLowStock(ctx); err != nil {
		return stats, err
	}
	counts, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return stats, err
	}
	stats.CategoryCounts = make([]CategoryCount, 0, len(counts))
	for _, c := range counts {
		stats.CategoryCounts = append(stats.CategoryCounts, CategoryCount{Category: c.Category, Count: c.Count})
	}
	return stats, nil
}

// invalidate runs after a committed write. Bumping the generation retires the
// stats key a concurrent read may still be filling with pre-write totals.
func (s *InventoryService) invalidate(ctx context.Context) {
	s.statsGen.Add(1)
	if err := s.store.InvalidateTag(ctx, CacheTag); err != nil {
		s.log.Warn("cache invalidation failed", zap.Error(err))
	}
}

// afterWrite drops derived caches and keeps the search index in step.
// item is nil for deletions, in which case deletedID names the removed row.
func (s *InventoryService) afterWrite(ctx context.Context, item *Item, deletedID int64) {
	s.invalidate(ctx)
	if s.index == nil {
		return
	}
	var err error
	if item != nil {
		err = s.index.Index(ctx, *item)
	} else {
		err = s.index.Delete(ctx, deletedID)
	}
	if err != nil {
		s.indexFresh.Store(false)
		s.log.Warn("search index update failed, SQL search until the next reindex", zap.Error(err))
	}
}

func validate(in ItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Field: "category", Message: "is required"}
	}
	if in.Quantity == nil {
		return &ValidationError{Field: "quantity", Message: "is required"}
	}
	if *in.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must be non-negative"}
	}
	if in.LowStockThreshold != nil && *in.LowStockThreshold < 0 {
		return &ValidationError{Field: "lowStockThreshold", Message: "must be non-negative"}
	}
	return nil
}

func checkUnique(ctx context.Context, repo *inventoryRepo.InventoryRepository, row *inventoryEntity.InventoryItem) error {
	if row.Barcode != nil {
		taken, err := repo.ExistsByBarcode(ctx, *row.Barcode, row.ID)
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Field: "barcode", Value: *row.Barcode}
		}
	}
	if row.QRCode != nil {
		taken, err := repo.ExistsByQRCode(ctx, *row.QRCode, row.ID)
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Field: "qrCode", Value: *row.QRCode}
		}
	}
	return nil
}

// translate maps unique index violations that slipped past checkUnique.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Field: "code", Value: "duplicate"}
	}
	return err
}
