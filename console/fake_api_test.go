package console

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

// fakeAPI keeps items in memory and answers like the inventory service.
type fakeAPI struct {
	mu     sync.Mutex
	items  map[int64]client.Item
	nextID int64
	calls  []string

	failWith error                // returned by every call when set
	decoded  *client.DecodeResult // answer of DecodeBarcodeFromImage
	block    chan struct{}        // when set, calls wait for it or ctx
}

func newFakeAPI(items ...client.Item) *fakeAPI {
	f := &fakeAPI{items: make(map[int64]client.Item)}
	for _, it := range items {
		f.add(it)
	}
	return f
}

func (f *fakeAPI) add(it client.Item) client.Item {
	f.nextID++
	it.ID = f.nextID
	it.LowStock = it.Quantity <= it.LowStockThreshold
	it.UpdatedAt = time.Now()
	f.items[it.ID] = it
	return it
}

func (f *fakeAPI) enter(ctx context.Context, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	block, fail := f.block, f.failWith
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return &client.NetworkError{Op: call, Err: ctx.Err()}
		}
	}
	return fail
}

func (f *fakeAPI) called(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) sorted(keep func(client.Item) bool) []client.Item {
	var out []client.Item
	for _, it := range f.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func notFound() error {
	return &client.ServiceError{Status: 404, Body: `{"error":"not found"}`, Message: "not found"}
}

func (f *fakeAPI) ListItems(ctx context.Context) ([]client.Item, error) {
	if err := f.enter(ctx, "ListItems"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(client.Item) bool { return true }), nil
}

func (f *fakeAPI) GetItem(ctx context.Context, id int64) (client.Item, error) {
	if err := f.enter(ctx, "GetItem"); err != nil {
		return client.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return client.Item{}, notFound()
	}
	return it, nil
}

func (f *fakeAPI) GetItemByBarcode(ctx context.Context, code string) (client.Item, error) {
	if err := f.enter(ctx, "GetItemByBarcode"); err != nil {
		return client.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.Barcode != nil && *it.Barcode == code {
			return it, nil
		}
	}
	return client.Item{}, notFound()
}

func (f *fakeAPI) UpdateItem(ctx context.Context, id int64, in client.ItemFields) (client.Item, error) {
	if err := f.enter(ctx, "UpdateItem"); err != nil {
		return client.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return client.Item{}, notFound()
	}
	it.Name, it.Category, it.Quantity = in.Name, in.Category, in.Quantity
	if in.LowStockThreshold != nil {
		it.LowStockThreshold = *in.LowStockThreshold
	}
	if in.Barcode != nil {
		it.Barcode = in.Barcode
	}
	it.LowStock = it.Quantity <= it.LowStockThreshold
	f.items[id] = it
	return it, nil
}

func (f *fakeAPI) UpdateItemQuantity(ctx context.Context, id int64, q int) (client.Item, error) {
	if q < 0 {
		return client.Item{}, &client.ValidationError{Field: "quantity", Message: "must be non-negative"}
	}
	if err := f.enter(ctx, "UpdateItemQuantity"); err != nil {
		return client.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return client.Item{}, notFound()
	}
	it.Quantity = q
	it.LowStock = it.Quantity <= it.LowStockThreshold
	f.items[id] = it
	return it, nil
}

func (f *fakeAPI) CreateItem(ctx context.Context, d client.Draft) (client.Item, error) {
	if err := f.enter(ctx, "CreateItem"); err != nil {
		return client.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it := client.Item{Name: d.Name, Category: d.Category, Quantity: d.Quantity, LowStockThreshold: 10}
	if d.LowStockThreshold != nil {
		it.LowStockThreshold = *d.LowStockThreshold
	}
	it = f.add(it)
	qr := d.QRCode
	if qr == "" {
		qr = fmt.Sprintf("INV:%d:%s", it.ID, it.Name)
	}
	it.QRCode = &qr
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeAPI) DeleteItem(ctx context.Context, id int64) error {
	if err := f.enter(ctx, "DeleteItem"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return notFound()
	}
	delete(f.items, id)
	return nil
}

func (f *fakeAPI) SearchItemsByName(ctx context.Context, term string) ([]client.Item, error) {
	if err := f.enter(ctx, "SearchItemsByName"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	term = strings.ToLower(term)
	return f.sorted(func(it client.Item) bool { return strings.Contains(strings.ToLower(it.Name), term) }), nil
}

func (f *fakeAPI) ListItemsByCategory(ctx context.Context, category string) ([]client.Item, error) {
	if err := f.enter(ctx, "ListItemsByCategory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(it client.Item) bool { return it.Category == category }), nil
}

func (f *fakeAPI) ListLowStockItems(ctx context.Context, threshold *int) ([]client.Item, error) {
	if err := f.enter(ctx, "ListLowStockItems"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(it client.Item) bool { return it.LowStock }), nil
}

func (f *fakeAPI) GetDashboardStats(ctx context.Context) (client.DashboardStats, error) {
	if err := f.enter(ctx, "GetDashboardStats"); err != nil {
		return client.DashboardStats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var s client.DashboardStats
	counts := map[string]int64{}
	for _, it := range f.items {
		s.TotalItems++
		s.TotalQuantity += int64(it.Quantity)
		if it.LowStock {
			s.LowStockItems++
		}
		counts[it.Category]++
	}
	for c, n := range counts {
		s.CategoryCounts = append(s.CategoryCounts, client.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(s.CategoryCounts, func(i, j int) bool { return s.CategoryCounts[i].Category < s.CategoryCounts[j].Category })
	return s, nil
}

func (f *fakeAPI) GenerateBarcodeImage(ctx context.Context, text string) ([]byte, error) {
	if err := f.enter(ctx, "GenerateBarcodeImage"); err != nil {
		return nil, err
	}
	return []byte("barcode:" + text), nil
}

func (f *fakeAPI) GenerateQRCodeImage(ctx context.Context, text string) ([]byte, error) {
	if err := f.enter(ctx, "GenerateQRCodeImage"); err != nil {
		return nil, err
	}
	return []byte("qr:" + text), nil
}

func (f *fakeAPI) DecodeBarcodeFromImage(ctx context.Context, image []byte) (client.DecodeResult, error) {
	if err := f.enter(ctx, "DecodeBarcodeFromImage"); err != nil {
		return client.DecodeResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decoded == nil {
		return client.DecodeResult{}, nil
	}
	return *f.decoded, nil
}

func strp(s string) *string { return &s }

func sampleItems() []client.Item {
	return []client.Item{
		{Name: "Laptop", Category: "Electronics", Quantity: 25, LowStockThreshold: 5, Barcode: strp("ITEM000001")},
		{Name: "Mouse", Category: "Electronics", Quantity: 3, LowStockThreshold: 10, Barcode: strp("ITEM000002")},
		{Name: "Desk Chair", Category: "Furniture", Quantity: 0, LowStockThreshold: 2, Barcode: strp("ITEM000003")},
		{Name: "Stapler", Category: "Office Supplies", Quantity: 40, LowStockThreshold: 10},
	}
}

func testNotes() *notify.Center {
	return notify.New(notify.WithTTL(time.Hour))
}

func lastToast(c *notify.Center) notify.Toast {
	all := c.Active()
	if len(all) == 0 {
		return notify.Toast{}
	}
	return all[len(all)-1]
}
