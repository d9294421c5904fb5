package console

import (
	"context"
	"errors"
	"testing"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

func TestScannerLookup(t *testing.T) {
	api := newFakeAPI(sampleItems()...)
	notes := testNotes()
	s := NewScanner(context.Background(), api, notes)

	it, err := s.Lookup(" ITEM000002 ")
	if err != nil || it == nil || it.Name != "Mouse" {
		t.Fatalf("Lookup = %+v, %v", it, err)
	}
	if s.Item() == nil || lastToast(notes).Message != "Found item: Mouse" {
		t.Errorf("item = %+v toast = %+v", s.Item(), lastToast(notes))
	}

	it, err = s.Lookup("nope")
	if err != nil || it != nil {
		t.Errorf("missing code: %+v, %v", it, err)
	}
	if got := lastToast(notes); got.Level != notify.Warning || s.Item() != nil {
		t.Errorf("toast = %+v item = %+v", got, s.Item())
	}

	if _, err := s.Lookup("  "); !errors.Is(err, client.ErrValidation) {
		t.Errorf("blank code: %v", err)
	}
}

func TestScannerIgnoresRepeatedCode(t *testing.T) {
	api := newFakeAPI(sampleItems()...)
	text := "ITEM000001"
	laptop := api.items[1]
	api.decoded = &client.DecodeResult{DecodedText: &text, MatchedItem: &laptop}
	notes := testNotes()
	s := NewScanner(context.Background(), api, notes)

	it, fresh, err := s.Scan([]byte("frame"))
	if err != nil || !fresh || it == nil || it.ID != 1 {
		t.Fatalf("first scan = %+v %v %v", it, fresh, err)
	}
	before := len(notes.Active())
	_, fresh, err = s.Scan([]byte("frame"))
	if err != nil || fresh {
		t.Errorf("repeated scan: fresh=%v err=%v", fresh, err)
	}
	if len(notes.Active()) != before {
		t.Error("repeated scan raised a toast")
	}

	s.Reset()
	if _, fresh, _ := s.Scan([]byte("frame")); !fresh {
		t.Error("scan after Reset was ignored")
	}
}

func TestScannerEmptyFrame(t *testing.T) {
	api := newFakeAPI()
	s := NewScanner(context.Background(), api, testNotes())
	it, fresh, err := s.Scan([]byte("frame"))
	if err != nil || fresh || it != nil {
		t.Errorf("empty frame = %+v %v %v", it, fresh, err)
	}
	if s.LastCode() != "" {
		t.Errorf("last code = %q", s.LastCode())
	}
}
