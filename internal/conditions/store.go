// internal/conditions/store.go
package conditions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mortgage-underwriting/internal/models"
)

var (
	ErrConditionNotFound = errors.New("CONDITION_NOT_FOUND")
	ErrInvalidTransition = errors.New("INVALID_CONDITION_TRANSITION")
)

// Store persists conditions. Conditions are appended and updated, never
// deleted. Implementations return ErrConditionNotFound for unknown ids.
//
// Update is a compare-and-set on status: it writes only while the stored
// condition is still in status from, and returns ErrInvalidTransition when
// it is not.
type Store interface {
	Append(ctx context.Context, conditions []models.Condition) error
	Get(ctx context.Context, id string) (*models.Condition, error)
	ListByLoan(ctx context.Context, loanID string) ([]models.Condition, error)
	Update(ctx context.Context, condition *models.Condition, from models.ConditionStatus) error
}

// MemoryStore keeps conditions in process memory, in insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]models.Condition
	byLoan map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   map[string]models.Condition{},
		byLoan: map[string][]string{},
	}
}

func (s *MemoryStore) Append(_ context.Context, conditions []models.Condition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range conditions {
		if _, exists := s.byID[c.ID]; !exists {
			s.byLoan[c.LoanID] = append(s.byLoan[c.LoanID], c.ID)
		}
		s.byID[c.ID] = c
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Condition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, ErrConditionNotFound
	}
	return &c, nil
}

func (s *MemoryStore) ListByLoan(_ context.Context, loanID string) ([]models.Condition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byLoan[loanID]
	out := make([]models.Condition, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, condition *models.Condition, from models.ConditionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[condition.ID]
	if !ok {
		return ErrConditionNotFound
	}
	if current.Status != from {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, condition.ID, current.Status)
	}
	s.byID[condition.ID] = *condition
	return nil
}
