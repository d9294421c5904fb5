package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func itemPath(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var items []Item
	err := c.do(ctx, request{op: "ListItems", method: http.MethodGet, path: "/items"}, &items)
	return items, err
}

func (c *Client) GetItem(ctx context.Context, id int64) (Item, error) {
	var item Item
	err := c.do(ctx, request{op: "GetItem", method: http.MethodGet, path: itemPath(id)}, &item)
	return item, err
}

func (c *Client) GetItemByBarcode(ctx context.Context, code string) (Item, error) {
	if strings.TrimSpace(code) == "" {
		return Item{}, c.invalid("GetItemByBarcode", "barcode", "is required")
	}
	var item Item
	err := c.do(ctx, request{op: "GetItemByBarcode", method: http.MethodGet, path: "/items/barcode/" + url.PathEscape(code)}, &item)
	return item, err
}

func (c *Client) GetItemByQRCode(ctx context.Context, code string) (Item, error) {
	if strings.TrimSpace(code) == "" {
		return Item{}, c.invalid("GetItemByQRCode", "qrCode", "is required")
	}
	var item Item
	err := c.do(ctx, request{op: "GetItemByQRCode", method: http.MethodGet, path: "/items/qr/" + url.PathEscape(code)}, &item)
	return item, err
}

// CreateItem requires a name and a category; numbers must not be negative.
func (c *Client) CreateItem(ctx context.Context, d Draft) (Item, error) {
	const op = "CreateItem"
	if err := c.checkFields(op, d.Name, d.Category, d.Quantity, d.LowStockThreshold); err != nil {
		return Item{}, err
	}
	r, err := c.jsonRequest(op, http.MethodPost, "/items", d)
	if err != nil {
		return Item{}, c.invalid(op, "draft", err.Error())
	}
	var item Item
	err = c.do(ctx, r, &item)
	return item, err
}

// UpdateItem replaces the mutable fields of item id.
func (c *Client) UpdateItem(ctx context.Context, id int64, f ItemFields) (Item, error) {
	const op = "UpdateItem"
	if err := c.checkFields(op, f.Name, f.Category, f.Quantity, f.LowStockThreshold); err != nil {
		return Item{}, err
	}
	r, err := c.jsonRequest(op, http.MethodPut, itemPath(id), f)
	if err != nil {
		return Item{}, c.invalid(op, "fields", err.Error())
	}
	var item Item
	err = c.do(ctx, r, &item)
	return item, err
}

// UpdateItemQuantity patches only the quantity. A negative quantity is
// rejected without contacting the service.
func (c *Client) UpdateItemQuantity(ctx context.Context, id int64, quantity int) (Item, error) {
	const op = "UpdateItemQuantity"
	if quantity < 0 {
		return Item{}, c.invalid(op, "quantity", "must be non-negative")
	}
	q := url.Values{"quantity": {strconv.Itoa(quantity)}}
	var item Item
	err := c.do(ctx, request{op: op, method: http.MethodPatch, path: itemPath(id) + "/quantity", query: q}, &item)
	return item, err
}

// DeleteItem removes item id. Deleting a missing item yields ErrNotFound.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "DeleteItem", method: http.MethodDelete, path: itemPath(id)}, nil)
}

// SearchItemsByName matches name substrings without regard to case.
func (c *Client) SearchItemsByName(ctx context.Context, term string) ([]Item, error) {
	var items []Item
	q := url.Values{"name": {term}}
	err := c.do(ctx, request{op: "SearchItemsByName", method: http.MethodGet, path: "/items/search", query: q}, &items)
	return items, err
}

func (c *Client) ListItemsByCategory(ctx context.Context, category string) ([]Item, error) {
	if strings.TrimSpace(category) == "" {
		return nil, c.invalid("ListItemsByCategory", "category", "is required")
	}
	var items []Item
	err := c.do(ctx, request{op: "ListItemsByCategory", method: http.MethodGet, path: "/items/category/" + url.PathEscape(category)}, &items)
	return items, err
}

// ListLowStockItems uses each item's own threshold when threshold is nil,
// otherwise returns items whose quantity is at most *threshold.
func (c *Client) ListLowStockItems(ctx context.Context, threshold *int) ([]Item, error) {
	const op = "ListLowStockItems"
	path := "/items/low-stock"
	if threshold != nil {
		if *threshold < 0 {
			return nil, c.invalid(op, "threshold", "must be non-negative")
		}
		path += "/" + strconv.Itoa(*threshold)
	}
	var items []Item
	err := c.do(ctx, request{op: op, method: http.MethodGet, path: path}, &items)
	return items, err
}

func (c *Client) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	err := c.do(ctx, request{op: "GetDashboardStats", method: http.MethodGet, path: "/items/dashboard/stats"}, &stats)
	return stats, err
}

func (c *Client) checkFields(op, name, category string, quantity int, threshold *int) error {
	if strings.TrimSpace(name) == "" {
		return c.invalid(op, "name", "is required")
	}
	if strings.TrimSpace(category) == "" {
		return c.invalid(op, "category", "is required")
	}
	if quantity < 0 {
		return c.invalid(op, "quantity", "must be non-negative")
	}
	if threshold != nil && *threshold < 0 {
		return c.invalid(op, "lowStockThreshold", "must be non-negative")
	}
	return nil
}
