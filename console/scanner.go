package console

import (
	"context"
	"errors"
	"strings"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

// Scanner looks items up by a typed code or by a captured image. A code
// equal to the last scanned one is ignored until Reset.
type Scanner struct {
	page
	api  API
	last string
	item *client.Item
}

func NewScanner(ctx context.Context, api API, notes *notify.Center) *Scanner {
	s := &Scanner{api: api}
	s.init(ctx, notes)
	s.ready()
	return s
}

// Lookup fetches the item with barcode code. A missing item is a warning,
// not a failure.
func (s *Scanner) Lookup(code string) (*client.Item, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		s.setField("barcode", "is required")
		return nil, &client.ValidationError{Field: "barcode", Message: "is required"}
	}
	ctx, gen, err := s.begin()
	if err != nil {
		return nil, err
	}
	item, err := s.api.GetItemByBarcode(ctx, code)
	if errors.Is(err, client.ErrNotFound) {
		if s.settle(gen, nil, func() { s.item = nil }) {
			s.notes.Warning("No item found for barcode: " + code)
		}
		return nil, nil
	}
	if !s.settle(gen, err, func() { s.item = &item }) {
		return nil, ErrSuperseded
	}
	if err != nil {
		s.report("Failed to look up barcode", err)
		return nil, err
	}
	s.notes.Success("Found item: " + item.Name)
	return &item, nil
}

// Scan decodes a captured frame through the service. It returns false when
// the frame held no code or repeated the last one.
func (s *Scanner) Scan(image []byte) (*client.Item, bool, error) {
	ctx, gen, err := s.begin()
	if err != nil {
		return nil, false, err
	}
	res, err := s.api.DecodeBarcodeFromImage(ctx, image)
	if err != nil {
		if s.settle(gen, err, nil) {
			s.report("Failed to process barcode image", err)
		}
		return nil, false, err
	}

	var fresh bool
	applied := s.settle(gen, nil, func() {
		if res.Empty() || *res.DecodedText == s.last {
			return
		}
		fresh = true
		s.last = *res.DecodedText
		s.item = res.MatchedItem
	})
	if !applied {
		return nil, false, ErrSuperseded
	}
	if !fresh {
		return nil, false, nil
	}
	if res.MatchedItem == nil {
		s.notes.Warning("No item found for barcode: " + *res.DecodedText)
		return nil, true, nil
	}
	s.notes.Success("Found item: " + res.MatchedItem.Name)
	return res.MatchedItem, true, nil
}

// Reset forgets the last scanned code, as when scanning restarts.
func (s *Scanner) Reset() {
	s.mu.Lock()
	s.last = ""
	s.item = nil
	s.mu.Unlock()
}

func (s *Scanner) Item() *client.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item
}

func (s *Scanner) LastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
