// Package console holds the view-state controllers of the inventory console
// and the shell that navigates between them. Controllers talk to the
// inventory service only through the API interface.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

// API is the part of *client.Client the pages use.
type API interface {
	ListItems(ctx context.Context) ([]client.Item, error)
	GetItem(ctx context.Context, id int64) (client.Item, error)
	GetItemByBarcode(ctx context.Context, code string) (client.Item, error)
	UpdateItem(ctx context.Context, id int64, f client.ItemFields) (client.Item, error)
	UpdateItemQuantity(ctx context.Context, id int64, quantity int) (client.Item, error)
	CreateItem(ctx context.Context, d client.Draft) (client.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	SearchItemsByName(ctx context.Context, term string) ([]client.Item, error)
	ListItemsByCategory(ctx context.Context, category string) ([]client.Item, error)
	ListLowStockItems(ctx context.Context, threshold *int) ([]client.Item, error)
	GetDashboardStats(ctx context.Context) (client.DashboardStats, error)
	GenerateBarcodeImage(ctx context.Context, text string) ([]byte, error)
	GenerateQRCodeImage(ctx context.Context, text string) ([]byte, error)
	DecodeBarcodeFromImage(ctx context.Context, image []byte) (client.DecodeResult, error)
}

var _ API = (*client.Client)(nil)

type Status int

const (
	Idle Status = iota
	Loading
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

var (
	// ErrNotReady rejects a mutation while the page is not Loaded.
	ErrNotReady = errors.New("console: page is not ready")
	// ErrClosed is returned by pages that were torn down.
	ErrClosed = errors.New("console: page closed")
	// ErrSuperseded marks a result that arrived after a newer action or Close.
	ErrSuperseded = errors.New("console: result discarded")
)

// page is the state machine every controller embeds. Each action takes a
// generation number; results carrying an older number are dropped.
type page struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	status Status
	err    error
	gen    uint64
	closed bool
	fields map[string]string
	notes  *notify.Center
}

func (p *page) init(parent context.Context, notes *notify.Center) {
	if parent == nil {
		parent = context.Background()
	}
	p.ctx, p.cancel = context.WithCancel(parent)
	if notes == nil {
		notes = notify.Default()
	}
	p.notes = notes
	p.fields = make(map[string]string)
}

// begin moves the page to Loading.
func (p *page) begin() (context.Context, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, 0, ErrClosed
	}
	p.gen++
	p.status = Loading
	return p.ctx, p.gen, nil
}

// beginWrite is begin for mutations, which need a Loaded page.
func (p *page) beginWrite() (context.Context, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, 0, ErrClosed
	}
	if p.status != Loaded {
		return nil, 0, ErrNotReady
	}
	p.gen++
	p.status = Loading
	return p.ctx, p.gen, nil
}

// settle records the outcome of action gen and runs apply under the lock on
// success. It reports false when the result is stale.
func (p *page) settle(gen uint64, err error, apply func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return false
	}
	if err != nil {
		p.status = Failed
		p.err = err
		return true
	}
	p.status = Loaded
	p.err = nil
	if apply != nil {
		apply()
	}
	return true
}

// rollback returns a page whose write was rejected to Loaded. The snapshot
// is untouched.
func (p *page) rollback(gen uint64, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return false
	}
	p.status = Loaded
	p.err = err
	return true
}

// report turns err into an inline field error or a toast.
func (p *page) report(msg string, err error) {
	var ve *client.ValidationError
	if errors.As(err, &ve) {
		p.setField(ve.Field, ve.Message)
		return
	}
	p.notes.Error(fmt.Sprintf("%s: %v", msg, err))
}

func (p *page) setField(field, msg string) {
	p.mu.Lock()
	p.fields[field] = msg
	p.mu.Unlock()
}

func (p *page) clearFields() {
	p.mu.Lock()
	p.fields = make(map[string]string)
	p.mu.Unlock()
}

// FieldError returns the inline error shown next to field, if any.
func (p *page) FieldError(field string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fields[field]
}

func (p *page) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Err is the error behind the last failed action.
func (p *page) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close cancels in-flight requests. Results arriving afterwards are ignored.
func (p *page) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
}

// ready marks a page without an initial load as Loaded.
func (p *page) ready() {
	p.mu.Lock()
	p.status = Loaded
	p.mu.Unlock()
}
