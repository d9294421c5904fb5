package console

import (
	"context"
	"errors"
	"sort"
	"strings"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

// InventoryList is the item table with search, category filter and the
// edit, quantity and delete actions.
type InventoryList struct {
	page
	api        API
	items      []client.Item
	categories []string
	term       string
	category   string
}

func NewInventoryList(ctx context.Context, api API, notes *notify.Center) *InventoryList {
	l := &InventoryList{api: api}
	l.init(ctx, notes)
	return l
}

// Load fetches every item and clears search and filter.
func (l *InventoryList) Load() error {
	l.mu.Lock()
	l.term, l.category = "", ""
	l.mu.Unlock()
	return l.fetch("Failed to load inventory items", func(ctx context.Context) ([]client.Item, error) {
		return l.api.ListItems(ctx)
	}, true)
}

// Search asks the service for items whose name contains term and drops the
// category filter. A blank term reloads the whole list.
func (l *InventoryList) Search(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return l.Load()
	}
	l.mu.Lock()
	l.term, l.category = term, ""
	l.mu.Unlock()
	return l.fetch("Failed to search items", func(ctx context.Context) ([]client.Item, error) {
		return l.api.SearchItemsByName(ctx, term)
	}, false)
}

// Filter shows one category. A blank category reloads the whole list.
func (l *InventoryList) Filter(category string) error {
	if strings.TrimSpace(category) == "" {
		return l.Load()
	}
	l.mu.Lock()
	l.term, l.category = "", category
	l.mu.Unlock()
	return l.fetch("Failed to filter by category", func(ctx context.Context) ([]client.Item, error) {
		return l.api.ListItemsByCategory(ctx, category)
	}, false)
}

// SetTerm changes the local search term without asking the service.
func (l *InventoryList) SetTerm(term string) {
	l.mu.Lock()
	l.term = term
	l.mu.Unlock()
}

// Refresh repeats the current query.
func (l *InventoryList) Refresh() error {
	l.mu.Lock()
	term, category := l.term, l.category
	l.mu.Unlock()
	switch {
	case category != "":
		return l.Filter(category)
	case term != "":
		return l.Search(term)
	default:
		return l.Load()
	}
}

func (l *InventoryList) fetch(msg string, call func(context.Context) ([]client.Item, error), full bool) error {
	ctx, gen, err := l.begin()
	if err != nil {
		return err
	}
	items, err := call(ctx)
	applied := l.settle(gen, err, func() {
		l.items = items
		if full {
			l.categories = distinctCategories(items)
		}
	})
	if !applied {
		return ErrSuperseded
	}
	if err != nil {
		l.report(msg, err)
	}
	return err
}

func distinctCategories(items []client.Item) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out
}

// Items is the snapshot last accepted from the service.
func (l *InventoryList) Items() []client.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]client.Item(nil), l.items...)
}

// Categories lists the categories of the last full load.
func (l *InventoryList) Categories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.categories...)
}

// Visible narrows the snapshot by the local term (name, barcode or category)
// and the selected category.
func (l *InventoryList) Visible() []client.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	term := strings.ToLower(strings.TrimSpace(l.term))
	var out []client.Item
	for _, it := range l.items {
		if l.category != "" && it.Category != l.category {
			continue
		}
		if term != "" && !matches(it, term) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matches(it client.Item, term string) bool {
	if strings.Contains(strings.ToLower(it.Name), term) || strings.Contains(strings.ToLower(it.Category), term) {
		return true
	}
	return it.Barcode != nil && strings.Contains(strings.ToLower(*it.Barcode), term)
}

func (l *InventoryList) find(id int64) (client.Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.ID == id {
			return it, true
		}
	}
	return client.Item{}, false
}

// Update replaces the fields of item id and reloads.
func (l *InventoryList) Update(id int64, f client.ItemFields) error {
	return l.write("Failed to update item", "Item updated successfully", func(ctx context.Context) error {
		_, err := l.api.UpdateItem(ctx, id, f)
		return err
	})
}

// UpdateQuantity patches the quantity of item id and reloads.
func (l *InventoryList) UpdateQuantity(id int64, quantity int) error {
	return l.write("Failed to update quantity", "Quantity updated successfully", func(ctx context.Context) error {
		_, err := l.api.UpdateItemQuantity(ctx, id, quantity)
		return err
	})
}

// Delete removes item id once confirm agrees. An item that is already gone
// counts as deleted.
func (l *InventoryList) Delete(id int64, confirm func(client.Item) bool) error {
	if confirm != nil {
		it, ok := l.find(id)
		if !ok {
			it = client.Item{ID: id}
		}
		if !confirm(it) {
			return nil
		}
	}
	return l.write("Failed to delete item", "Item deleted successfully", func(ctx context.Context) error {
		err := l.api.DeleteItem(ctx, id)
		if errors.Is(err, client.ErrNotFound) {
			return nil
		}
		return err
	})
}

// write runs a mutation, waits for the service to accept it and reloads the
// current query. The snapshot is never patched locally.
func (l *InventoryList) write(failMsg, okMsg string, call func(context.Context) error) error {
	ctx, gen, err := l.beginWrite()
	if err != nil {
		return err
	}
	l.clearFields()
	if err := call(ctx); err != nil {
		if l.rollback(gen, err) {
			l.report(failMsg, err)
		}
		return err
	}
	l.notes.Success(okMsg)
	return l.Refresh()
}
