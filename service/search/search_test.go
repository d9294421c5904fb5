package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	inventoryService "inventory.GO/service/inventory"
)

// fakeES answers like an Elasticsearch node and records the requests it saw.
type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
	total    int // reported total hits when set
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/_search"):
		total := f.total
		if total == 0 {
			total = 2
		}
		fmt.Fprintf(w, `{"hits":{"total":{"value":%d},"hits":[{"_source":{"id":3,"name":"mouse"}},{"_source":{"id":12,"name":"mouse pad"}}]}}`, total)
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		w.Write([]byte(`{"errors":false,"items":[]}`))
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"result":"not_found"}`))
	default:
		w.Write([]byte(`{"result":"created"}`))
	}
}

func (f *fakeES) last() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1], f.bodies[len(f.bodies)-1]
}

func testIndex(t *testing.T) (*ItemIndex, *fakeES) {
	t.Helper()
	es := &fakeES{}
	srv := httptest.NewServer(es)
	t.Cleanup(srv.Close)
	idx, err := New(srv.URL, "test_items")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return idx, es
}

func TestSearch_ReturnsIDsInHitOrder(t *testing.T) {
	idx, es := testIndex(t)
	ids, err := idx.Search(context.Background(), "MoUse*")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 12 {
		t.Errorf("ids = %v, want [3 12]", ids)
	}

	req, body := es.last()
	if req != "POST /test_items/_search" {
		t.Errorf("request = %s", req)
	}
	var q map[string]interface{}
	if err := json.Unmarshal([]byte(body), &q); err != nil {
		t.Fatalf("body: %v", err)
	}
	value := q["query"].(map[string]interface{})["wildcard"].(map[string]interface{})["name"].(map[string]interface{})["value"]
	if value != `*mouse\**` {
		t.Errorf("wildcard = %v", value)
	}
}

func TestIndex_PutsDocumentByID(t *testing.T) {
	idx, es := testIndex(t)
	err := idx.Index(context.Background(), inventoryService.Item{ID: 7, Name: "Pens", Category: "Office Supplies"})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	req, body := es.last()
	if req != "PUT /test_items/_doc/7" {
		t.Errorf("request = %s", req)
	}
	if !strings.Contains(body, `"name":"Pens"`) {
		t.Errorf("body = %s", body)
	}
}

func TestDelete_MissingDocumentIsNotAnError(t *testing.T) {
	idx, _ := testIndex(t)
	if err := idx.Delete(context.Background(), 99); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestNewFromEnv_Unconfigured(t *testing.T) {
	t.Setenv("ELASTICSEARCH_HOST", "")
	idx, err := NewFromEnv()
	if err != nil || idx != nil {
		t.Errorf("NewFromEnv = %v, %v; want nil, nil", idx, err)
	}
}

func TestSearch_TruncatedResultIsAnError(t *testing.T) {
	idx, es := testIndex(t)
	es.total = 5000
	if _, err := idx.Search(context.Background(), "mouse"); !errors.Is(err, ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestIndexAll_SendsOneBulkRequest(t *testing.T) {
	idx, es := testIndex(t)
	err := idx.IndexAll(context.Background(), []inventoryService.Item{
		{ID: 1, Name: "Desk Lamp", Category: "Furniture"},
		{ID: 2, Name: "Stapler", Category: "Office Supplies"},
	})
	if err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	req, body := es.last()
	if req != "POST /test_items/_bulk" {
		t.Errorf("request = %s", req)
	}
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 4 || !strings.Contains(lines[0], `"_id":"1"`) || !strings.Contains(lines[1], `"name":"Desk Lamp"`) {
		t.Errorf("bulk body = %q", body)
	}
}
