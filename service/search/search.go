package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	inventoryService "inventory.GO/service/inventory"
)

const maxHits = 1000

// ErrTruncated is returned when more names match than one search returns;
// the caller answers from SQL instead of a partial list.
var ErrTruncated = errors.New("search hits exceed result window")

var (
	_ inventoryService.Indexer     = (*ItemIndex)(nil)
	_ inventoryService.BulkIndexer = (*ItemIndex)(nil)
)

// ItemIndex keeps item names in an Elasticsearch index for substring search.
type ItemIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewFromEnv connects to ELASTICSEARCH_HOST. It returns nil, nil when the host
// is not configured so callers fall back to SQL search.
func NewFromEnv() (*ItemIndex, error) {
	host := os.Getenv("ELASTICSEARCH_HOST")
	if host == "" {
		return nil, nil
	}
	prefix := os.Getenv("ELASTICSEARCH_INDEX_PREFIX")
	if prefix == "" {
		prefix = "inventory"
	}
	return New(host, prefix+"_items")
}

func New(host, index string) (*ItemIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{host},
	})
	if err != nil {
		return nil, err
	}
	return &ItemIndex{client: client, index: index}, nil
}

// EnsureIndex creates the index with a lowercase keyword mapping for name.
func (s *ItemIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"analysis": map[string]interface{}{
				"normalizer": map[string]interface{}{
					"lower": map[string]interface{}{"type": "custom", "filter": []string{"lowercase"}},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":       map[string]interface{}{"type": "long"},
				"name":     map[string]interface{}{"type": "keyword", "normalizer": "lower"},
				"category": map[string]interface{}{"type": "keyword"},
			},
		},
	}
	body, _ := json.Marshal(mapping)
	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch create index: %s", res.String())
	}
	return nil
}

func (s *ItemIndex) Index(ctx context.Context, item inventoryService.Item) error {
	body, _ := json.Marshal(itemDoc(item))
	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(strconv.FormatInt(item.ID, 10)),
		s.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", res.String())
	}
	return nil
}

func itemDoc(item inventoryService.Item) map[string]interface{} {
	return map[string]interface{}{
		"id":       item.ID,
		"name":     item.Name,
		"category": item.Category,
	}
}

// IndexAll writes items with one _bulk request.
func (s *ItemIndex) IndexAll(ctx context.Context, items []inventoryService.Item) error {
	if len(items) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		meta := map[string]interface{}{"index": map[string]interface{}{"_id": strconv.FormatInt(item.ID, 10)}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(itemDoc(item)); err != nil {
			return err
		}
	}
	res, err := s.client.Bulk(
		&buf,
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(s.index),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch bulk: %s", res.String())
	}
	var out struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return err
	}
	if out.Errors {
		return fmt.Errorf("elasticsearch bulk: some of %d documents failed", len(items))
	}
	return nil
}

func (s *ItemIndex) Delete(ctx context.Context, id int64) error {
	res, err := s.client.Delete(
		s.index,
		strconv.FormatInt(id, 10),
		s.client.Delete.WithContext(ctx),
		s.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete: %s", res.String())
	}
	return nil
}

// Search returns the ids of items whose name contains term, ignoring case.
func (s *ItemIndex) Search(ctx context.Context, term string) ([]int64, error) {
	body := map[string]interface{}{
		"size":             maxHits,
		"track_total_hits": true,
		"sort":             []interface{}{map[string]interface{}{"id": "asc"}},
		"query": map[string]interface{}{
			"wildcard": map[string]interface{}{
				"name": map[string]interface{}{
					"value": "*" + escapeWildcard(strings.ToLower(term)) + "*",
				},
			},
		},
	}
	bodyBytes, _ := json.Marshal(body)

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var esResp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID int64 `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, err
	}
	if esResp.Hits.Total.Value > len(esResp.Hits.Hits) {
		return nil, fmt.Errorf("%w: %d matches", ErrTruncated, esResp.Hits.Total.Value)
	}
	ids := make([]int64, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(s)
}
