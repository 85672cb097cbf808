// internal/documents/store.go
package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"mortgage-underwriting/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrDocumentNotFound = errors.New("DOCUMENT_NOT_FOUND")

const DefaultTTL = 30 * 24 * time.Hour

// RedisStore keeps the latest validation of each document type per loan in
// one Redis hash, so scorecards can be rebuilt without re-validating.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func loanKey(loanID string) string {
	return "underwriting:loan:" + loanID + ":documents"
}

// Save replaces the record for the document's type and refreshes the TTL.
func (s *RedisStore) Save(ctx context.Context, loanID string, record models.DocumentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal document record: %w", err)
	}
	key := loanKey(loanID)
	if err := s.client.HSet(ctx, key, record.DocumentType, data).Err(); err != nil {
		return fmt.Errorf("save document %s for loan %s: %w", record.DocumentType, loanID, err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("set ttl for loan %s: %w", loanID, err)
	}
	return nil
}

// SaveResult stores a validation result as the document type's latest.
func (s *RedisStore) SaveResult(ctx context.Context, result *models.ValidationResult) error {
	return s.Save(ctx, result.LoanID, models.DocumentRecord{
		DocumentID:     result.DocumentID,
		DocumentType:   result.DocumentType,
		LastValidation: result,
	})
}

func (s *RedisStore) Get(ctx context.Context, loanID, documentType string) (*models.DocumentRecord, error) {
	val, err := s.client.HGet(ctx, loanKey(loanID), documentType).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s for loan %s: %w", documentType, loanID, err)
	}
	var rec models.DocumentRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("decode document record: %w", err)
	}
	return &rec, nil
}

// List returns every stored record for a loan ordered by document type.
func (s *RedisStore) List(ctx context.Context, loanID string) ([]models.DocumentRecord, error) {
	vals, err := s.client.HGetAll(ctx, loanKey(loanID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents for loan %s: %w", loanID, err)
	}

	types := make([]string, 0, len(vals))
	for t := range vals {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]models.DocumentRecord, 0, len(vals))
	for _, t := range types {
		var rec models.DocumentRecord
		if err := json.Unmarshal([]byte(vals[t]), &rec); err != nil {
			return nil, fmt.Errorf("decode document record %s: %w", t, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
