package graphqlserver

import (
	"context"
	"errors"
	"strconv"
	"time"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"inventory.GO/graphql"
	inventoryService "inventory.GO/service/inventory"
)

// RootResolver is the root for graphql-go.
type RootResolver struct {
	svc *inventoryService.InventoryService
}

func (r *RootResolver) Items(ctx context.Context) ([]*ItemResolver, error) {
	items, err := r.svc.List(ctx)
	return wrap(items), err
}

type ItemArgs struct {
	ID gql.ID
}

// Item resolves to null when the id is unknown.
func (r *RootResolver) Item(ctx context.Context, args ItemArgs) (*ItemResolver, error) {
	id, err := strconv.ParseInt(string(args.ID), 10, 64)
	if err != nil {
		return nil, errors.New("id must be an integer")
	}
	return nullable(r.svc.Get(ctx, id))
}

type CodeArgs struct {
	Code string
}

func (r *RootResolver) ItemByCode(ctx context.Context, args CodeArgs) (*ItemResolver, error) {
	return nullable(r.svc.FindByCode(ctx, args.Code))
}

type SearchArgs struct {
	Name string
}

func (r *RootResolver) SearchItems(ctx context.Context, args SearchArgs) ([]*ItemResolver, error) {
	items, err := r.svc.SearchByName(ctx, args.Name)
	return wrap(items), err
}

type CategoryArgs struct {
	Category string
}

func (r *RootResolver) ItemsByCategory(ctx context.Context, args CategoryArgs) ([]*ItemResolver, error) {
	items, err := r.svc.ListByCategory(ctx, args.Category)
	return wrap(items), err
}

type LowStockArgs struct {
	Threshold *int32
}

func (r *RootResolver) LowStockItems(ctx context.Context, args LowStockArgs) ([]*ItemResolver, error) {
	var items []inventoryService.Item
	var err error
	if args.Threshold != nil {
		items, err = r.svc.ListLowStockBelow(ctx, int(*args.Threshold))
	} else {
		items, err = r.svc.ListLowStock(ctx)
	}
	return wrap(items), err
}

func (r *RootResolver) DashboardStats(ctx context.Context) (*StatsResolver, error) {
	stats, err := r.svc.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResolver{s: stats}, nil
}

// ItemResolver exposes an inventory item.
type ItemResolver struct {
	it inventoryService.Item
}

func (r *ItemResolver) ID() gql.ID               { return gql.ID(strconv.FormatInt(r.it.ID, 10)) }
func (r *ItemResolver) Name() string             { return r.it.Name }
func (r *ItemResolver) Category() string         { return r.it.Category }
func (r *ItemResolver) Quantity() int32          { return int32(r.it.Quantity) }
func (r *ItemResolver) LowStockThreshold() int32 { return int32(r.it.LowStockThreshold) }
func (r *ItemResolver) LowStock() bool           { return r.it.LowStock }
func (r *ItemResolver) Barcode() *string         { return r.it.Barcode }
func (r *ItemResolver) QRCode() *string          { return r.it.QRCode }
func (r *ItemResolver) Image() *string           { return r.it.Image }
func (r *ItemResolver) CreatedAt() string        { return r.it.CreatedAt.Format(time.RFC3339) }
func (r *ItemResolver) UpdatedAt() string        { return r.it.UpdatedAt.Format(time.RFC3339) }

type StatsResolver struct {
	s inventoryService.DashboardStats
}

func (r *StatsResolver) TotalItems() int32    { return int32(r.s.TotalItems) }
func (r *StatsResolver) TotalQuantity() int32 { return int32(r.s.TotalQuantity) }
func (r *StatsResolver) LowStockItems() int32 { return int32(r.s.LowStockItems) }

func (r *StatsResolver) CategoryCounts() []*CategoryCountResolver {
	out := make([]*CategoryCountResolver, 0, len(r.s.CategoryCounts))
	for _, cc := range r.s.CategoryCounts {
		out = append(out, &CategoryCountResolver{cc: cc})
	}
	return out
}

type CategoryCountResolver struct {
	cc inventoryService.CategoryCount
}

func (r *CategoryCountResolver) Category() string { return r.cc.Category }
func (r *CategoryCountResolver) Count() int32     { return int32(r.cc.Count) }

func wrap(items []inventoryService.Item) []*ItemResolver {
	out := make([]*ItemResolver, 0, len(items))
	for _, it := range items {
		out = append(out, &ItemResolver{it: it})
	}
	return out
}

func nullable(item inventoryService.Item, err error) (*ItemResolver, error) {
	if errors.Is(err, inventoryService.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ItemResolver{it: item}, nil
}

// NewSchema parses the schema and returns a graphql-go Schema.
func NewSchema(svc *inventoryService.InventoryService) (*gql.Schema, error) {
	return gql.ParseSchema(graphql.Schema(), &RootResolver{svc: svc})
}

// Handler returns an http.Handler for GraphQL (relay format).
func Handler(schema *gql.Schema) *relay.Handler {
	return &relay.Handler{Schema: schema}
}
