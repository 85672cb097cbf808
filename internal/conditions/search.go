// internal/conditions/search.go
package conditions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mortgage-underwriting/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DefaultIndex holds one document per condition, keyed by condition id.
const DefaultIndex = "underwriting-conditions"

// SearchIndex mirrors conditions into Elasticsearch for underwriter work
// queues. Postgres stays the system of record.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchIndex(client *elasticsearch.Client, index string) *SearchIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &SearchIndex{client: client, index: index}
}

func (s *SearchIndex) Index(ctx context.Context, c models.Condition) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal condition: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: c.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index condition %s: %w", c.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index condition %s: %s", c.ID, res.Status())
	}
	return nil
}

// QueueFilter narrows a work-queue search. Empty fields are ignored.
type QueueFilter struct {
	LoanID       string
	Status       models.ConditionStatus
	Type         models.ConditionType
	DocumentType string
	Size         int
}

// Search returns indexed conditions matching the filter, oldest first.
func (s *SearchIndex) Search(ctx context.Context, f QueueFilter) ([]models.Condition, error) {
	size := f.Size
	if size <= 0 {
		size = 50
	}
	body, err := json.Marshal(buildQueueQuery(f))
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search conditions: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search conditions: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.Condition `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.Condition, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func buildQueueQuery(f QueueFilter) map[string]interface{} {
	filters := []interface{}{}
	term := func(field, value string) {
		if value != "" {
			filters = append(filters, map[string]interface{}{
				"term": map[string]interface{}{field: value},
			})
		}
	}
	term("loanId.keyword", f.LoanID)
	term("status.keyword", string(f.Status))
	term("type.keyword", string(f.Type))
	term("documentType.keyword", f.DocumentType)

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"createdAt": map[string]interface{}{"order": "asc"}},
		},
	}
}
