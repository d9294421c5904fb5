package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"inventory.GO/config"
	inventoryRepo "inventory.GO/model/repository/inventory"
	"inventory.GO/server"
	barcodeService "inventory.GO/service/barcode"
	inventoryService "inventory.GO/service/inventory"
)

// testService starts the inventory service on a temporary SQLite file and
// returns a client for it plus a counter of requests that reached it.
func testService(t *testing.T, mutate func(*config.Config), opts ...Option) (*Client, *int64) {
	t.Helper()
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("client_test_%d.db", time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(tmpFile) })
	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := inventoryRepo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := inventoryService.NewInventoryService(db)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	cfg := config.Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	e := server.New(&cfg, db, svc)

	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		e.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", opts...), &hits
}

func intp(n int) *int { return &n }

func TestCreateThenListContainsItemOnce(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()

	created, err := c.CreateItem(ctx, Draft{Name: "Widget", Category: "Tools", Quantity: 5})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	items, err := c.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	n := 0
	for _, it := range items {
		if it.ID == created.ID {
			n++
		}
	}
	if n != 1 {
		t.Errorf("created item listed %d times, want 1", n)
	}
}

func TestWidgetScenario(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()

	w, err := c.CreateItem(ctx, Draft{Name: "Widget", Category: "Tools", Quantity: 5, LowStockThreshold: intp(10)})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if !w.LowStock {
		t.Error("quantity 5 / threshold 10: want lowStock")
	}
	if _, err := c.UpdateItemQuantity(ctx, w.ID, 20); err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	got, err := c.GetItem(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Quantity != 20 || got.LowStock {
		t.Errorf("after patch: quantity=%d lowStock=%v, want 20 false", got.Quantity, got.LowStock)
	}
}

func TestUpdateItemQuantity_NegativeSendsNothing(t *testing.T) {
	c, hits := testService(t, nil)
	before := atomic.LoadInt64(hits)
	_, err := c.UpdateItemQuantity(context.Background(), 1, -1)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "quantity" {
		t.Fatalf("err = %v, want quantity ValidationError", err)
	}
	if atomic.LoadInt64(hits) != before {
		t.Error("a request reached the service")
	}
}

func TestCreateItem_ValidationSendsNothing(t *testing.T) {
	c, hits := testService(t, nil)
	ctx := context.Background()
	drafts := []Draft{
		{Category: "Tools", Quantity: 1},
		{Name: "Widget", Category: " ", Quantity: 1},
		{Name: "Widget", Category: "Tools", Quantity: -3},
		{Name: "Widget", Category: "Tools", LowStockThreshold: intp(-1)},
	}
	for _, d := range drafts {
		if _, err := c.CreateItem(ctx, d); !errors.Is(err, ErrValidation) {
			t.Errorf("CreateItem(%+v): err = %v, want ErrValidation", d, err)
		}
	}
	if atomic.LoadInt64(hits) != 0 {
		t.Errorf("%d requests reached the service", atomic.LoadInt64(hits))
	}
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()
	it, _ := c.CreateItem(ctx, Draft{Name: "Temp", Category: "Misc", Quantity: 1})

	if err := c.DeleteItem(ctx, it.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := c.GetItem(ctx, it.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetItem after delete: err = %v, want ErrNotFound", err)
	}
	err := c.DeleteItem(ctx, it.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeleteItem: err = %v, want ErrNotFound", err)
	}
	var se *ServiceError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound || se.Body == "" {
		t.Errorf("ServiceError = %+v", se)
	}
}

func TestListLowStockItems_FlagMatchesThreshold(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()
	c.CreateItem(ctx, Draft{Name: "A", Category: "X", Quantity: 0, LowStockThreshold: intp(0)})
	c.CreateItem(ctx, Draft{Name: "B", Category: "X", Quantity: 10, LowStockThreshold: intp(10)})
	c.CreateItem(ctx, Draft{Name: "C", Category: "X", Quantity: 11, LowStockThreshold: intp(10)})

	low, err := c.ListLowStockItems(ctx, nil)
	if err != nil {
		t.Fatalf("ListLowStockItems: %v", err)
	}
	if len(low) != 2 {
		t.Errorf("low stock = %d items, want 2", len(low))
	}
	for _, it := range low {
		if it.LowStock != (it.Quantity <= it.LowStockThreshold) || !it.LowStock {
			t.Errorf("%s: lowStock=%v quantity=%d threshold=%d", it.Name, it.LowStock, it.Quantity, it.LowStockThreshold)
		}
	}

	below, err := c.ListLowStockItems(ctx, intp(10))
	if err != nil || len(below) != 2 {
		t.Errorf("ListLowStockItems(10) = %d, %v", len(below), err)
	}
	if _, err := c.ListLowStockItems(ctx, intp(-1)); !errors.Is(err, ErrValidation) {
		t.Errorf("negative threshold: err = %v", err)
	}
}

func TestDashboardStats_CategoryCounts(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		c.CreateItem(ctx, Draft{Name: fmt.Sprintf("a%d", i), Category: "A", Quantity: 1})
	}
	c.CreateItem(ctx, Draft{Name: "b", Category: "B", Quantity: 1})

	stats, err := c.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}
	if stats.TotalItems != 4 {
		t.Errorf("TotalItems = %d, want 4", stats.TotalItems)
	}
	got := map[string]int64{}
	for _, cc := range stats.CategoryCounts {
		got[cc.Category] = cc.Count
	}
	if len(got) != 2 || got["A"] != 3 || got["B"] != 1 {
		t.Errorf("CategoryCounts = %+v", stats.CategoryCounts)
	}
}

func TestSearchCategoryAndCodeLookups(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()
	chair, _ := c.CreateItem(ctx, Draft{Name: "Desk Chair", Category: "Office Furniture", Quantity: 4})
	c.CreateItem(ctx, Draft{Name: "Mouse", Category: "Electronics", Quantity: 9, Barcode: "0042"})

	found, err := c.SearchItemsByName(ctx, "CHAIR")
	if err != nil || len(found) != 1 || found[0].ID != chair.ID {
		t.Errorf("SearchItemsByName = %+v, %v", found, err)
	}
	byCat, err := c.ListItemsByCategory(ctx, "Office Furniture")
	if err != nil || len(byCat) != 1 {
		t.Errorf("ListItemsByCategory = %+v, %v", byCat, err)
	}
	mouse, err := c.GetItemByBarcode(ctx, "0042")
	if err != nil || mouse.Name != "Mouse" {
		t.Errorf("GetItemByBarcode = %+v, %v", mouse, err)
	}
	viaQR, err := c.GetItemByQRCode(ctx, *chair.QRCode)
	if err != nil || viaQR.ID != chair.ID {
		t.Errorf("GetItemByQRCode(%q) = %+v, %v", *chair.QRCode, viaQR, err)
	}
	if _, err := c.GetItemByBarcode(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing barcode: err = %v", err)
	}
}

func TestCodeLookupsKeepPercentLiteral(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()
	pct, err := c.CreateItem(ctx, Draft{Name: "Sale Tag", Category: "Promo 100%", Quantity: 1, Barcode: "SALE%41", QRCode: "INV:x/y%20z"})
	if err != nil {
		t.Fatal(err)
	}
	plain, err := c.CreateItem(ctx, Draft{Name: "Sale A", Category: "Promo", Quantity: 1, Barcode: "SALEA", QRCode: "INV:x/y z"})
	if err != nil {
		t.Fatal(err)
	}

	if got, err := c.GetItemByBarcode(ctx, "SALE%41"); err != nil || got.ID != pct.ID {
		t.Errorf("GetItemByBarcode(SALE%%41) = %+v, %v; want id %d", got, err, pct.ID)
	}
	if got, err := c.GetItemByBarcode(ctx, "SALEA"); err != nil || got.ID != plain.ID {
		t.Errorf("GetItemByBarcode(SALEA) = %+v, %v", got, err)
	}
	// the slash forces an escaped raw path
	if got, err := c.GetItemByQRCode(ctx, "INV:x/y%20z"); err != nil || got.ID != pct.ID {
		t.Errorf("GetItemByQRCode(INV:x/y%%20z) = %+v, %v", got, err)
	}
	if got, err := c.GetItemByQRCode(ctx, "INV:x/y z"); err != nil || got.ID != plain.ID {
		t.Errorf("GetItemByQRCode(INV:x/y z) = %+v, %v", got, err)
	}
	byCat, err := c.ListItemsByCategory(ctx, "Promo 100%")
	if err != nil || len(byCat) != 1 || byCat[0].ID != pct.ID {
		t.Errorf("ListItemsByCategory = %+v, %v", byCat, err)
	}
}

func TestUpdateItem_FullReplaceAndConflict(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()
	a, _ := c.CreateItem(ctx, Draft{Name: "A", Category: "X", Quantity: 1, Barcode: "111"})
	b, _ := c.CreateItem(ctx, Draft{Name: "B", Category: "X", Quantity: 1})

	f := a.Fields()
	f.Name = "A2"
	f.Quantity = 7
	updated, err := c.UpdateItem(ctx, a.ID, f)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Name != "A2" || updated.Quantity != 7 || *updated.Barcode != "111" {
		t.Errorf("UpdateItem = %+v", updated)
	}

	taken := "111"
	fb := b.Fields()
	fb.Barcode = &taken
	if _, err := c.UpdateItem(ctx, b.ID, fb); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate barcode: err = %v, want ErrConflict", err)
	}
}

func TestGenerateAndDecodeImages(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()
	it, _ := c.CreateItem(ctx, Draft{Name: "Stapler", Category: "Office", Quantity: 25})

	qr, err := c.GenerateQRCodeImage(ctx, *it.QRCode)
	if err != nil {
		t.Fatalf("GenerateQRCodeImage: %v", err)
	}
	res, err := c.DecodeBarcodeFromImage(ctx, qr)
	if err != nil {
		t.Fatalf("DecodeBarcodeFromImage: %v", err)
	}
	if res.Empty() || *res.DecodedText != *it.QRCode {
		t.Fatalf("decoded = %+v", res)
	}
	if res.MatchedItem == nil || res.MatchedItem.ID != it.ID {
		t.Errorf("matched = %+v", res.MatchedItem)
	}

	bc, err := c.GenerateBarcodeImage(ctx, "ITEM000001")
	if err != nil || len(bc) == 0 {
		t.Fatalf("GenerateBarcodeImage: %d bytes, %v", len(bc), err)
	}
	if _, err := c.GenerateBarcodeImage(ctx, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty text: err = %v", err)
	}
}

func TestDecodeBarcodeFromImage_NoBarcodeIsEmpty(t *testing.T) {
	c, _ := testService(t, nil)
	var buf bytes.Buffer
	png.Encode(&buf, imaging.New(120, 120, color.White))

	res, err := c.DecodeBarcodeFromImage(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if res.DecodedText != nil || res.MatchedItem != nil {
		t.Errorf("result = %+v, want empty", res)
	}
}

func TestDecodeBarcodeFromImage_NotAnImage(t *testing.T) {
	c, _ := testService(t, nil)
	_, err := c.DecodeBarcodeFromImage(context.Background(), []byte("plain text"))
	var se *ServiceError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Errorf("err = %v, want 400 ServiceError", err)
	}
}

func TestQRLabelAndValidate(t *testing.T) {
	c, _ := testService(t, nil)
	ctx := context.Background()
	it, _ := c.CreateItem(ctx, Draft{Name: "Pens", Category: "Office", Quantity: 150, Barcode: "5901234123457"})

	label, err := c.GetPrintableQRLabel(ctx, it.ID)
	if err != nil {
		t.Fatalf("GetPrintableQRLabel: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(label.Image))
	if err != nil {
		t.Fatalf("label png: %v", err)
	}
	if img.Bounds().Dx() != barcodeService.LabelSize || label.ItemName != "Pens" {
		t.Errorf("label = %dpx %q", img.Bounds().Dx(), label.ItemName)
	}

	v, err := c.ValidateBarcode(ctx, "5901234123457")
	if err != nil || !v.Valid || !v.Exists || v.ExistingItem == nil || v.ExistingItem.ID != it.ID {
		t.Errorf("ValidateBarcode = %+v, %v", v, err)
	}
	v, _ = c.ValidateBarcode(ctx, "12AB")
	if v.Valid || v.Exists {
		t.Errorf("ValidateBarcode(12AB) = %+v", v)
	}
}

func TestNetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/api"
	srv.Close()

	c := New(base)
	_, err := c.ListItems(context.Background())
	if !errors.Is(err, ErrNetworkUnreachable) {
		t.Fatalf("err = %v, want ErrNetworkUnreachable", err)
	}
	var ne *NetworkError
	if !errors.As(err, &ne) || ne.Op != "ListItems" {
		t.Errorf("NetworkError = %+v", ne)
	}
}

func TestCancelledContext(t *testing.T) {
	c, _ := testService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListItems(ctx)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrNetworkUnreachable) {
		t.Errorf("err = %v, want a cancelled NetworkError", err)
	}
}

func TestHeadersAndAuth(t *testing.T) {
	var gotKey, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", WithAPIKey("k1"), WithTimeout(time.Second))
	if _, err := c.ListItems(context.Background()); err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if gotKey != "k1" {
		t.Errorf("X-API-Key = %q", gotKey)
	}
	if len(gotReqID) != 36 {
		t.Errorf("X-Request-ID = %q, want a uuid", gotReqID)
	}
	if c.BaseURL() != srv.URL+"/api" {
		t.Errorf("BaseURL = %s", c.BaseURL())
	}
}

func TestServiceRequiresKey(t *testing.T) {
	c, _ := testService(t, func(cfg *config.Config) {
		cfg.AuthType = "key"
		cfg.APIKey = "secret"
	})
	if _, err := c.ListItems(context.Background()); err == nil {
		t.Fatal("ListItems without key: want error")
	}
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health is public: %v", err)
	}
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()
	_, err := New(srv.URL).GetItem(context.Background(), 1)
	var se *ServiceError
	if !errors.As(err, &se) || se.Status != http.StatusOK {
		t.Errorf("err = %v, want ServiceError with status 200", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.APIURL = "http://inventory.local/api"
	cfg.APIUser = "u"
	cfg.APIPass = "p"
	cfg.APITimeout = 3 * time.Second
	c := NewFromConfig(&cfg)
	if c.BaseURL() != "http://inventory.local/api" || c.user != "u" || c.http.Timeout != 3*time.Second {
		t.Errorf("client = %+v", c)
	}
}

func TestNewFromConfig_TimeoutSurvivesHTTPClient(t *testing.T) {
	cfg := config.Defaults()
	cfg.APITimeout = 3 * time.Second

	c := NewFromConfig(&cfg, WithHTTPClient(&http.Client{}))
	if c.http.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want API_TIMEOUT kept", c.http.Timeout)
	}
	c = NewFromConfig(&cfg, WithTimeout(time.Second))
	if c.http.Timeout != time.Second {
		t.Errorf("timeout = %v, want explicit option", c.http.Timeout)
	}
}
