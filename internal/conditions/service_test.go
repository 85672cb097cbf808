// internal/conditions/service_test.go
package conditions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/internal/rules"
	"mortgage-underwriting/pkg/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func createTestService(t *testing.T, store Store, indexer Indexer) *Service {
	t.Helper()
	s := NewService(store, indexer, logger.NewTestLogger(t)).WithClock(func() time.Time { return fixedNow })
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("cond-%03d", seq)
	}
	return s
}

func createTestResult() *models.ValidationResult {
	r := models.NewValidationResult(catalog.DocBankStatement)
	r.LoanID = "loan-001"
	r.Add(models.Issue{RuleID: rules.CheckStatementTooOld, Field: "statementEndDate", Severity: models.SeverityCritical, Message: "Statement ended 70 days ago"})
	r.Add(models.Issue{RuleID: rules.CheckLargeDepositsUnsourced, Field: "largeDeposits", Severity: models.SeverityCritical, Message: "1 large deposits require sourcing documentation"})
	r.Add(models.Issue{RuleID: rules.CheckLowAverageBalance, Field: "averageBalance", Severity: models.SeverityWarning, Message: "Average balance is low"})
	r.Add(models.Issue{RuleID: "twoYearsRequired", Severity: models.SeverityInfo, Message: "informational"})
	return r
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, conditions []models.Condition) error {
	return m.Called(ctx, conditions).Error(0)
}

func (m *mockStore) Get(ctx context.Context, id string) (*models.Condition, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*models.Condition); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByLoan(ctx context.Context, loanID string) ([]models.Condition, error) {
	args := m.Called(ctx, loanID)
	if c, ok := args.Get(0).([]models.Condition); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, condition *models.Condition, from models.ConditionStatus) error {
	return m.Called(ctx, condition, from).Error(0)
}

type recordingIndexer struct {
	indexed []models.Condition
	err     error
}

func (r *recordingIndexer) Index(_ context.Context, c models.Condition) error {
	r.indexed = append(r.indexed, c)
	return r.err
}

// ==========================
// Generation Tests
// ==========================

func TestGenerate_OneConditionPerIssueAndWarning(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	indexer := &recordingIndexer{}
	s := createTestService(t, store, indexer)

	conds, err := s.Generate(ctx, createTestResult(), catalog.DocBankStatement, &models.LoanContext{LoanID: "loan-001"})
	require.NoError(t, err)
	require.Len(t, conds, 3)

	tooOld := conds[0]
	assert.Equal(t, "cond-001", tooOld.ID)
	assert.Equal(t, "loan-001", tooOld.LoanID)
	assert.Equal(t, catalog.DocBankStatement, tooOld.DocumentType)
	assert.Equal(t, models.ConditionCritical, tooOld.Type)
	assert.Equal(t, models.CategoryDocumentIssue, tooOld.Category)
	assert.Equal(t, models.StatusOpen, tooOld.Status)
	assert.Equal(t, "Statement too old", tooOld.Title)
	assert.Equal(t, "Statement ended 70 days ago", tooOld.Description)
	assert.Equal(t, "statementEndDate", tooOld.Field)
	assert.True(t, tooOld.RequiresNewDocument)
	assert.Equal(t, fixedNow, tooOld.CreatedAt)
	assert.Nil(t, tooOld.ClearedAt)

	deposits := conds[1]
	assert.Equal(t, models.ConditionCritical, deposits.Type)
	assert.False(t, deposits.RequiresNewDocument)
	assert.Contains(t, deposits.SuggestedAction, "source documentation")

	balance := conds[2]
	assert.Equal(t, models.ConditionWarning, balance.Type)
	assert.Equal(t, models.CategoryNeedsClarification, balance.Category)
	assert.Equal(t, models.SeverityWarning, balance.Severity)

	stored, err := store.ListByLoan(ctx, "loan-001")
	require.NoError(t, err)
	assert.Equal(t, conds, stored)
	assert.Len(t, indexer.indexed, 3)
}

func TestGenerate_UnknownRuleGetsGenericRemedy(t *testing.T) {
	s := createTestService(t, NewMemoryStore(), nil)
	r := models.NewValidationResult("letter_of_explanation")
	r.Add(models.Issue{RuleID: "signatureRequired", Severity: models.SeverityCritical, Message: "unsigned"})
	r.Add(models.Issue{RuleID: "somethingNew", Severity: models.SeverityWarning, Message: "odd"})

	conds, err := s.Generate(context.Background(), r, "", &models.LoanContext{LoanID: "loan-002"})
	require.NoError(t, err)
	require.Len(t, conds, 2)

	assert.Equal(t, "letter_of_explanation", conds[0].DocumentType)
	assert.True(t, conds[0].RequiresNewDocument)
	assert.Equal(t, genericRemedy.Action, conds[1].SuggestedAction)
	assert.False(t, conds[1].RequiresNewDocument)
}

func TestGenerate_ValidResultCreatesNothing(t *testing.T) {
	store := &mockStore{}
	s := createTestService(t, store, nil)

	conds, err := s.Generate(context.Background(), models.NewValidationResult(catalog.DocW2), catalog.DocW2, nil)
	require.NoError(t, err)
	assert.Empty(t, conds)
	store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestGenerate_StoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &mockStore{}
	store.On("Append", mock.Anything, mock.Anything).Return(storeErr)
	indexer := &recordingIndexer{}
	s := createTestService(t, store, indexer)

	conds, err := s.Generate(context.Background(), createTestResult(), catalog.DocBankStatement, nil)
	assert.Nil(t, conds)
	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, indexer.indexed)
}

func TestRequiresNewDocument(t *testing.T) {
	for _, id := range []string{"documentNotExpired", "mustNotBeExpired", "statementNotTooOld", "statementTooOld",
		"statementRecencyRequired", "within30Days", "within60Days", "taxYearOutdated", "signatureRequired", "licenseRenewal"} {
		assert.True(t, RequiresNewDocument(id), id)
	}
	for _, id := range []string{"ssnMismatch", "largeDepositsUnsourced", "requiredField", ""} {
		assert.False(t, RequiresNewDocument(id), id)
	}
}

// ==========================
// Lifecycle Tests
// ==========================

func TestClear_OpenCondition(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := createTestService(t, store, nil)
	conds, err := s.Generate(ctx, createTestResult(), catalog.DocBankStatement, nil)
	require.NoError(t, err)

	later := fixedNow.Add(2 * time.Hour)
	s.WithClock(func() time.Time { return later })

	cleared, err := s.Clear(ctx, conds[1].ID, "verified")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCleared, cleared.Status)
	assert.Equal(t, "verified", cleared.ResolutionNotes)
	require.NotNil(t, cleared.ClearedAt)
	assert.Equal(t, later, *cleared.ClearedAt)
	assert.Equal(t, later, cleared.UpdatedAt)
	assert.Equal(t, fixedNow, cleared.CreatedAt)

	unresolved, err := s.Unresolved(ctx, "loan-001")
	require.NoError(t, err)
	require.Len(t, unresolved, 2)
	for _, c := range unresolved {
		assert.NotEqual(t, conds[1].ID, c.ID)
	}

	all, err := s.ListByLoan(ctx, "loan-001")
	require.NoError(t, err)
	assert.Len(t, all, 3, "conditions are never deleted")
}

func TestRequestDocument_ThenClear(t *testing.T) {
	ctx := context.Background()
	s := createTestService(t, NewMemoryStore(), nil)
	conds, err := s.Generate(ctx, createTestResult(), catalog.DocBankStatement, nil)
	require.NoError(t, err)

	pending, err := s.RequestDocument(ctx, conds[0].ID, "", "please upload May statement")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDocument, pending.Status)
	assert.Equal(t, catalog.DocBankStatement, pending.RequestedDocumentType)
	assert.Equal(t, "please upload May statement", pending.RequestNotes)
	require.NotNil(t, pending.RequestedAt)

	unresolved, err := s.Unresolved(ctx, "loan-001")
	require.NoError(t, err)
	assert.Len(t, unresolved, 3, "pending-document is still unresolved")

	cleared, err := s.Clear(ctx, conds[0].ID, "new statement validated")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCleared, cleared.Status)
	assert.Equal(t, "please upload May statement", cleared.RequestNotes)
}

func TestTransitions_FromCleared(t *testing.T) {
	ctx := context.Background()
	s := createTestService(t, NewMemoryStore(), nil)
	conds, err := s.Generate(ctx, createTestResult(), catalog.DocBankStatement, nil)
	require.NoError(t, err)

	_, err = s.Clear(ctx, conds[0].ID, "verified")
	require.NoError(t, err)

	_, err = s.Clear(ctx, conds[0].ID, "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.RequestDocument(ctx, conds[0].ID, catalog.DocBankStatement, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := s.Get(ctx, conds[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "verified", got.ResolutionNotes)
}

func TestTransitions_PendingCannotBeRequestedAgain(t *testing.T) {
	ctx := context.Background()
	s := createTestService(t, NewMemoryStore(), nil)
	conds, err := s.Generate(ctx, createTestResult(), catalog.DocBankStatement, nil)
	require.NoError(t, err)

	_, err = s.RequestDocument(ctx, conds[2].ID, "", "")
	require.NoError(t, err)
	_, err = s.RequestDocument(ctx, conds[2].ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitions_UnknownCondition(t *testing.T) {
	ctx := context.Background()
	s := createTestService(t, NewMemoryStore(), nil)

	_, err := s.Clear(ctx, "missing", "verified")
	assert.ErrorIs(t, err, ErrConditionNotFound)

	_, err = s.RequestDocument(ctx, "missing", "w2", "")
	assert.ErrorIs(t, err, ErrConditionNotFound)
}

func TestClear_UpdateFailurePropagates(t *testing.T) {
	ctx := context.Background()
	updateErr := errors.New("deadlock detected")
	store := &mockStore{}
	store.On("Get", mock.Anything, "cond-9").Return(&models.Condition{ID: "cond-9", Status: models.StatusOpen}, nil)
	store.On("Update", mock.Anything, mock.AnythingOfType("*models.Condition"), models.StatusOpen).Return(updateErr)
	s := createTestService(t, store, nil)

	_, err := s.Clear(ctx, "cond-9", "verified")
	assert.ErrorIs(t, err, updateErr)
	store.AssertExpectations(t)
}

func TestMemoryStore_UpdateRejectsStaleStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := createTestService(t, store, nil)

	conds, err := s.Generate(ctx, createTestResult(), catalog.DocBankStatement, nil)
	require.NoError(t, err)
	stale, err := store.Get(ctx, conds[0].ID)
	require.NoError(t, err)

	_, err = s.Clear(ctx, conds[0].ID, "verified")
	require.NoError(t, err)

	stale.Status = models.StatusPendingDocument
	err = store.Update(ctx, stale, models.StatusOpen)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := store.Get(ctx, conds[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCleared, got.Status)

	err = store.Update(ctx, &models.Condition{ID: "missing"}, models.StatusOpen)
	assert.ErrorIs(t, err, ErrConditionNotFound)
}

func TestIndexFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	indexer := &recordingIndexer{err: errors.New("es down")}
	s := createTestService(t, NewMemoryStore(), indexer)

	conds, err := s.Generate(ctx, createTestResult(), catalog.DocBankStatement, nil)
	require.NoError(t, err)
	_, err = s.Clear(ctx, conds[0].ID, "ok")
	require.NoError(t, err)
	assert.Len(t, indexer.indexed, 4)
}

func TestFilterUnresolved(t *testing.T) {
	conds := []models.Condition{
		{ID: "a", Status: models.StatusOpen},
		{ID: "b", Status: models.StatusCleared},
		{ID: "c", Status: models.StatusPendingDocument},
	}
	got := FilterUnresolved(conds)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Empty(t, FilterUnresolved(nil))
}
