package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	inventoryRepo "inventory.GO/model/repository/inventory"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("inventory_service_test_%d.db", time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(tmpFile) })
	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA busy_timeout=5000")
	if err := inventoryRepo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testService(t *testing.T, opts ...Option) *InventoryService {
	t.Helper()
	svc, err := NewInventoryService(testDB(t), opts...)
	if err != nil {
		t.Fatalf("NewInventoryService: %v", err)
	}
	return svc
}

func intp(n int) *int       { return &n }
func strp(s string) *string { return &s }

func TestCreate_GeneratesCodes(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, ItemInput{Name: "Laptop", Category: "Electronics", Quantity: intp(5)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("Create: id not assigned")
	}
	if item.Barcode == nil || *item.Barcode != BarcodeFor(item.ID) {
		t.Errorf("barcode = %v, want %s", item.Barcode, BarcodeFor(item.ID))
	}
	if item.QRCode == nil || *item.QRCode != QRPayloadFor(item.ID, "Laptop") {
		t.Errorf("qrCode = %v, want %s", item.QRCode, QRPayloadFor(item.ID, "Laptop"))
	}
	if item.LowStockThreshold != DefaultLowStockThreshold {
		t.Errorf("threshold = %d, want %d", item.LowStockThreshold, DefaultLowStockThreshold)
	}
	if !item.LowStock {
		t.Error("quantity 5 with threshold 10 should be low stock")
	}
}

func TestCreate_KeepsGivenCodes(t *testing.T) {
	svc := testService(t)
	item, err := svc.Create(context.Background(), ItemInput{
		Name: "Mouse", Category: "Electronics", Quantity: intp(50),
		LowStockThreshold: intp(3), Barcode: strp("123456"), QRCode: strp("INV:custom"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if *item.Barcode != "123456" || *item.QRCode != "INV:custom" {
		t.Errorf("codes = %s / %s", *item.Barcode, *item.QRCode)
	}
	if item.LowStockThreshold != 3 || item.LowStock {
		t.Errorf("threshold = %d lowStock = %v", item.LowStockThreshold, item.LowStock)
	}
}

func TestCreate_DefaultThresholdOption(t *testing.T) {
	svc := testService(t, WithDefaultThreshold(25))
	item, err := svc.Create(context.Background(), ItemInput{Name: "Pens", Category: "Office", Quantity: intp(20)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.LowStockThreshold != 25 {
		t.Errorf("threshold = %d, want 25", item.LowStockThreshold)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := testService(t)
	cases := []struct {
		name  string
		in    ItemInput
		field string
	}{
		{"empty name", ItemInput{Category: "A", Quantity: intp(1)}, "name"},
		{"blank category", ItemInput{Name: "x", Category: "  ", Quantity: intp(1)}, "category"},
		{"missing quantity", ItemInput{Name: "x", Category: "A"}, "quantity"},
		{"negative quantity", ItemInput{Name: "x", Category: "A", Quantity: intp(-1)}, "quantity"},
		{"negative threshold", ItemInput{Name: "x", Category: "A", Quantity: intp(1), LowStockThreshold: intp(-2)}, "lowStockThreshold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if ve.Field != tc.field {
				t.Errorf("field = %s, want %s", ve.Field, tc.field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("errors.Is(err, ErrValidation) = false")
			}
		})
	}
}

func TestCreate_DuplicateBarcodeConflicts(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, ItemInput{Name: "A", Category: "C", Quantity: intp(1), Barcode: strp("999")}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, ItemInput{Name: "B", Category: "C", Quantity: intp(1), Barcode: strp("999")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	items, _ := svc.List(ctx)
	if len(items) != 1 {
		t.Errorf("List = %d items, want 1 after rejected create", len(items))
	}
}

func TestGetByCodes(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, ItemInput{Name: "Webcam", Category: "Electronics", Quantity: intp(10)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	byBarcode, err := svc.GetByBarcode(ctx, *created.Barcode)
	if err != nil || byBarcode.ID != created.ID {
		t.Errorf("GetByBarcode = %v, %v", byBarcode.ID, err)
	}
	byQR, err := svc.GetByQRCode(ctx, *created.QRCode)
	if err != nil || byQR.ID != created.ID {
		t.Errorf("GetByQRCode = %v, %v", byQR.ID, err)
	}
	byCode, err := svc.FindByCode(ctx, *created.QRCode)
	if err != nil || byCode.ID != created.ID {
		t.Errorf("FindByCode(qr) = %v, %v", byCode.ID, err)
	}
	if _, err := svc.GetByBarcode(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByBarcode missing: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, 4242); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: err = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, ItemInput{Name: "Desk", Category: "Furniture", Quantity: intp(2)})

	updated, err := svc.Update(ctx, created.ID, ItemInput{Name: "Office Desk", Category: "Furniture", Quantity: intp(30)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Office Desk" || updated.Quantity != 30 || updated.LowStock {
		t.Errorf("Update = %+v", updated)
	}
	if updated.Barcode == nil || *updated.Barcode != *created.Barcode {
		t.Error("Update without barcode should keep the existing one")
	}

	if _, err := svc.Update(ctx, 9999, ItemInput{Name: "x", Category: "y", Quantity: intp(1)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing: err = %v, want ErrNotFound", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, ItemInput{Name: "Mug", Category: "Kitchen", Quantity: intp(30)})

	item, err := svc.UpdateQuantity(ctx, created.ID, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if item.Quantity != 0 || !item.LowStock {
		t.Errorf("UpdateQuantity = %+v", item)
	}
	if _, err := svc.UpdateQuantity(ctx, created.ID, -1); !errors.Is(err, ErrValidation) {
		t.Errorf("negative: err = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateQuantity(ctx, 9999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
}

func TestDelete_Twice(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, ItemInput{Name: "Stapler", Category: "Office", Quantity: intp(1)})
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func TestSearchAndFilters(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	found, err := svc.SearchByName(ctx, "MoU")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Mouse" {
		t.Errorf("SearchByName(MoU) = %+v", found)
	}
	if found, _ := svc.SearchByName(ctx, "100%"); len(found) != 0 {
		t.Errorf("SearchByName with wildcard = %d items, want 0", len(found))
	}
	if all, _ := svc.SearchByName(ctx, " "); len(all) != len(sampleItems) {
		t.Errorf("blank search = %d items, want %d", len(all), len(sampleItems))
	}

	kitchen, _ := svc.ListByCategory(ctx, "Kitchen")
	if len(kitchen) != 2 {
		t.Errorf("ListByCategory(Kitchen) = %d, want 2", len(kitchen))
	}

	low, _ := svc.ListLowStock(ctx)
	// Monitor 8, Office Desk 5, Webcam 10
	if len(low) != 3 {
		t.Errorf("ListLowStock = %d, want 3", len(low))
	}
	for _, it := range low {
		if !it.LowStock {
			t.Errorf("%s listed as low stock but lowStock = false", it.Name)
		}
	}
	below, _ := svc.ListLowStockBelow(ctx, 12)
	if len(below) != 4 {
		t.Errorf("ListLowStockBelow(12) = %d, want 4", len(below))
	}
	if _, err := svc.ListLowStockBelow(ctx, -1); !errors.Is(err, ErrValidation) {
		t.Errorf("negative threshold: err = %v", err)
	}
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	n, err := svc.Seed(ctx)
	if err != nil || n != 15 {
		t.Fatalf("Seed = %d, %v; want 15", n, err)
	}
	if n, _ := svc.Seed(ctx); n != 0 {
		t.Errorf("second Seed = %d, want 0", n)
	}
}

func TestDashboardStats_InvalidatedOnWrite(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	svc.Create(ctx, ItemInput{Name: "A", Category: "Tools", Quantity: intp(4)})
	svc.Create(ctx, ItemInput{Name: "B", Category: "Tools", Quantity: intp(40)})

	stats, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalItems != 2 || stats.TotalQuantity != 44 || stats.LowStockItems != 1 {
		t.Errorf("stats = %+v", stats)
	}

	svc.Create(ctx, ItemInput{Name: "C", Category: "Garden", Quantity: intp(1)})
	stats, _ = svc.DashboardStats(ctx)
	if stats.TotalItems != 3 {
		t.Errorf("TotalItems after create = %d, want 3 (stale cache?)", stats.TotalItems)
	}
	if len(stats.CategoryCounts) != 2 || stats.CategoryCounts[0].Category != "Garden" {
		t.Errorf("CategoryCounts = %+v", stats.CategoryCounts)
	}
}

func TestCategoryCount_JSON(t *testing.T) {
	b, err := json.Marshal(DashboardStats{CategoryCounts: []CategoryCount{{"Electronics", 8}}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"totalItems":0,"totalQuantity":0,"lowStockItems":0,"categoryCounts":[["Electronics",8]]}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
	var cc CategoryCount
	if err := json.Unmarshal([]byte(`["Kitchen"]`), &cc); err == nil {
		t.Error("single element pair should fail")
	}
}

type fakeIndex struct {
	ids     []int64
	err     error
	indexed map[int64]string
	deleted []int64

	indexErr error
}

func (f *fakeIndex) Index(_ context.Context, item Item) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	if f.indexed == nil {
		f.indexed = map[int64]string{}
	}
	f.indexed[item.ID] = item.Name
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string) ([]int64, error) {
	return f.ids, f.err
}

func TestSearchByName_UsesIndexer(t *testing.T) {
	idx := &fakeIndex{}
	svc := testService(t, WithIndexer(idx))
	ctx := context.Background()
	a, _ := svc.Create(ctx, ItemInput{Name: "Alpha", Category: "X", Quantity: intp(1)})
	b, _ := svc.Create(ctx, ItemInput{Name: "Beta", Category: "X", Quantity: intp(1)})
	if idx.indexed[a.ID] != "Alpha" || idx.indexed[b.ID] != "Beta" {
		t.Errorf("indexed = %v", idx.indexed)
	}

	if _, err := svc.Reindex(ctx); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	idx.ids = []int64{b.ID, a.ID}
	found, err := svc.SearchByName(ctx, "anything")
	if err != nil || len(found) != 2 || found[0].ID != b.ID {
		t.Errorf("indexed search = %+v, %v", found, err)
	}

	idx.err = errors.New("es down")
	found, err = svc.SearchByName(ctx, "alp")
	if err != nil || len(found) != 1 || found[0].ID != a.ID {
		t.Errorf("fallback search = %+v, %v", found, err)
	}

	svc.Delete(ctx, a.ID)
	if len(idx.deleted) != 1 || idx.deleted[0] != a.ID {
		t.Errorf("deleted = %v", idx.deleted)
	}
}

// bulkIndex answers searches from what it was sent, so a missed backfill shows.
type bulkIndex struct {
	fakeIndex
	batches int
}

func (b *bulkIndex) IndexAll(ctx context.Context, items []Item) error {
	b.batches++
	for _, it := range items {
		if err := b.Index(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (b *bulkIndex) Search(_ context.Context, term string) ([]int64, error) {
	var ids []int64
	for id, name := range b.indexed {
		if strings.Contains(strings.ToLower(name), strings.ToLower(term)) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func TestSearchByName_IndexNeedsBackfill(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	plain, err := NewInventoryService(db)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Cordless Drill", "Drill Bits", "Hammer"} {
		if _, err := plain.Create(ctx, ItemInput{Name: name, Category: "Tools", Quantity: intp(3)}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	idx := &bulkIndex{}
	svc, err := NewInventoryService(db, WithIndexer(idx))
	if err != nil {
		t.Fatal(err)
	}
	if svc.IndexFresh() {
		t.Error("IndexFresh before Reindex")
	}
	found, _ := svc.SearchByName(ctx, "drill")
	if len(found) != 2 {
		t.Errorf("search before backfill = %d items, want 2 from SQL", len(found))
	}

	n, err := svc.Reindex(ctx)
	if err != nil || n != 3 || idx.batches != 1 || len(idx.indexed) != 3 {
		t.Fatalf("Reindex = %d, %v; batches=%d indexed=%v", n, err, idx.batches, idx.indexed)
	}
	if !svc.IndexFresh() {
		t.Error("IndexFresh false after Reindex")
	}
	found, _ = svc.SearchByName(ctx, "drill")
	if len(found) != 2 {
		t.Errorf("indexed search = %d items, want 2", len(found))
	}
}

func TestSearchByName_FailedIndexWriteFallsBackToSQL(t *testing.T) {
	idx := &bulkIndex{}
	svc := testService(t, WithIndexer(idx))
	ctx := context.Background()
	if _, err := svc.Reindex(ctx); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	idx.indexErr = errors.New("es down")
	if _, err := svc.Create(ctx, ItemInput{Name: "Ladder", Category: "Tools", Quantity: intp(1)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if svc.IndexFresh() {
		t.Error("index still marked fresh after a failed write")
	}
	found, _ := svc.SearchByName(ctx, "ladder")
	if len(found) != 1 {
		t.Errorf("search = %d items, want 1 from SQL", len(found))
	}

	if _, err := svc.Reindex(ctx); err == nil || svc.IndexFresh() {
		t.Errorf("Reindex with failing index: err=%v fresh=%v", err, svc.IndexFresh())
	}
	idx.indexErr = nil
	if _, err := svc.Reindex(ctx); err != nil || !svc.IndexFresh() {
		t.Errorf("Reindex after recovery: err=%v fresh=%v", err, svc.IndexFresh())
	}
	if found, _ := svc.SearchByName(ctx, "ladder"); len(found) != 1 {
		t.Errorf("indexed search after recovery = %d items, want 1", len(found))
	}
}

func TestDashboardStats_LateFillOfOldSnapshotIsIgnored(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	svc.Create(ctx, ItemInput{Name: "A", Category: "Tools", Quantity: intp(4)})

	before, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	oldKey := statsCacheKey + ":" + strconv.FormatUint(svc.statsGen.Load(), 10)

	svc.Create(ctx, ItemInput{Name: "B", Category: "Tools", Quantity: intp(6)})

	// a reader that computed before the write stores its result afterwards
	stale, _ := json.Marshal(before)
	if err := svc.store.Set(ctx, oldKey, stale, time.Minute, CacheTag); err != nil {
		t.Fatalf("Set: %v", err)
	}

	after, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if after.TotalItems != 2 || after.TotalQuantity != 10 {
		t.Errorf("stats after write = %+v, want 2 items and quantity 10", after)
	}
}
