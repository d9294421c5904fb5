package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"inventory.GO/console/notify"
)

func TestShellNavigateClosesPreviousPage(t *testing.T) {
	api := newFakeAPI(sampleItems()...)
	s := NewShell(context.Background(), api)
	if notify.Default() != s.Notes() {
		t.Error("shell did not install its notification center")
	}

	p, err := s.Navigate(PathInventory)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	list := p.(*InventoryList)
	if list.Status() != Loaded {
		t.Errorf("inventory mounted as %s", list.Status())
	}

	if _, err := s.Navigate(PathAddItem); err != nil {
		t.Fatal(err)
	}
	if err := list.Load(); !errors.Is(err, ErrClosed) {
		t.Errorf("old page still alive: %v", err)
	}
	if path, cur := s.Current(); path != PathAddItem {
		t.Errorf("current = %s %T", path, cur)
	}

	if _, err := s.Navigate("/nowhere"); !errors.Is(err, ErrUnknownPath) {
		t.Errorf("unknown path: %v", err)
	}
	want := []string{"/", "/add", "/inventory", "/scan", "/upload"}
	if got := strings.Join(s.Paths(), " "); got != strings.Join(want, " ") {
		t.Errorf("paths = %s", got)
	}
}

func TestShellRun(t *testing.T) {
	api := newFakeAPI(sampleItems()...)
	s := NewShell(context.Background(), api)
	script := strings.Join([]string{
		"go /inventory",
		"search desk",
		"delete 3",
		"y",
		"go /add",
		"set name Desk Lamp",
		"set category Furniture",
		"submit",
		"bogus",
		"quit",
	}, "\n")

	var out bytes.Buffer
	if err := s.Run(strings.NewReader(script), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Total items: 4",
		"Desk Chair",
		"Delete Desk Chair? [y/N]",
		"[success] Item deleted successfully",
		"[success] Item added successfully!",
		`unknown command "bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q\n%s", want, got)
		}
	}
	if api.called("DeleteItem") != 1 || api.called("CreateItem") != 1 {
		t.Errorf("calls = %v", api.calls)
	}
	if strings.Count(got, "Item deleted successfully") != 1 {
		t.Error("toast printed more than once")
	}
}

func TestApplyEdits(t *testing.T) {
	it := sampleItems()[0]
	f, err := applyEdits(it.Fields(), strings.Fields("name=Desk Lamp Pro quantity=7 barcode="))
	if err != nil {
		t.Fatalf("applyEdits: %v", err)
	}
	if f.Name != "Desk Lamp Pro" || f.Quantity != 7 || f.Barcode == nil || *f.Barcode != "" {
		t.Errorf("fields = %+v", f)
	}
	if _, err := applyEdits(it.Fields(), []string{"quantity=x"}); err == nil {
		t.Error("bad quantity accepted")
	}
	if _, err := applyEdits(it.Fields(), []string{"loose"}); err == nil {
		t.Error("word without field accepted")
	}
}
