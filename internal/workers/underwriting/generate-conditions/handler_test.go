// internal/workers/underwriting/generate-conditions/handler_test.go
package generateconditions

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	commonerrors "mortgage-underwriting/internal/common/errors"
	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/conditions"
	"mortgage-underwriting/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, conds []models.Condition) error {
	return m.Called(ctx, conds).Error(0)
}

func (m *mockStore) Get(ctx context.Context, id string) (*models.Condition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Condition), args.Error(1)
}

func (m *mockStore) ListByLoan(ctx context.Context, loanID string) ([]models.Condition, error) {
	args := m.Called(ctx, loanID)
	return args.Get(0).([]models.Condition), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, c *models.Condition, from models.ConditionStatus) error {
	return m.Called(ctx, c, from).Error(0)
}

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func createTestHandler(t *testing.T, store conditions.Store) (*Handler, *conditions.Service) {
	t.Helper()
	log := logger.NewTestLogger(t)
	svc := conditions.NewService(store, nil, log).WithClock(func() time.Time { return fixedNow })
	return NewHandler(&Config{Timeout: 5 * time.Second}, svc, log), svc
}

func createTestInput() *Input {
	result := models.NewValidationResult("w2")
	result.DocumentID = "doc-w2"
	result.Add(models.Issue{RuleID: "ssnMismatch", Field: "employeeSSN", Severity: models.SeverityCritical, Message: "SSN does not match"})
	result.Add(models.Issue{RuleID: "employerMismatch", Field: "employerName", Severity: models.SeverityWarning, Message: "employer differs"})
	result.Add(models.Issue{RuleID: "note", Severity: models.SeverityInfo, Message: "informational"})

	return &Input{
		LoanContext:      models.LoanContext{LoanID: "loan-001"},
		ValidationResult: result,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_GeneratesConditions(t *testing.T) {
	h, svc := createTestHandler(t, conditions.NewMemoryStore())

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, 2, out.ConditionCount)
	assert.Equal(t, 1, out.CriticalCount)
	assert.True(t, out.HasOpenConditions)
	require.Len(t, out.Conditions, 2)
	assert.Equal(t, models.ConditionCritical, out.Conditions[0].Type)
	assert.Equal(t, models.ConditionWarning, out.Conditions[1].Type)
	for _, c := range out.Conditions {
		assert.Equal(t, "loan-001", c.LoanID)
		assert.Equal(t, "w2", c.DocumentType)
		assert.Equal(t, models.StatusOpen, c.Status)
		assert.Equal(t, fixedNow, c.CreatedAt)
	}

	stored, err := svc.ListByLoan(context.Background(), "loan-001")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestHandler_Execute_CleanResult(t *testing.T) {
	store := new(mockStore)
	h, _ := createTestHandler(t, store)

	input := createTestInput()
	input.ValidationResult = models.NewValidationResult("w2")

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 0, out.ConditionCount)
	assert.False(t, out.HasOpenConditions)
	store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestHandler_Execute_DocumentTypeOverride(t *testing.T) {
	h, _ := createTestHandler(t, conditions.NewMemoryStore())

	input := createTestInput()
	input.DocumentType = "w2_corrected"

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "w2_corrected", out.Conditions[0].DocumentType)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	t.Run("missing document type", func(t *testing.T) {
		h, _ := createTestHandler(t, conditions.NewMemoryStore())
		input := createTestInput()
		input.ValidationResult.DocumentType = ""

		_, err := h.Execute(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, commonerrors.ErrCodeInputValidationFailed, commonerrors.Normalize(err).Code)
	})

	storeTests := []struct {
		name     string
		storeErr error
		wantCode commonerrors.ErrorCode
	}{
		{"insert failure", errors.New("duplicate key value violates unique constraint"), commonerrors.ErrCodeDatabaseInsertFailed},
		{"timeout", fmt.Errorf("append: %w", context.DeadlineExceeded), commonerrors.ErrCodeQueryTimeout},
		{"bad connection", fmt.Errorf("begin tx: %w", driver.ErrBadConn), commonerrors.ErrCodeDatabaseConnectionFailed},
	}
	for _, tt := range storeTests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			store.On("Append", mock.Anything, mock.Anything).Return(tt.storeErr)
			h, _ := createTestHandler(t, store)

			_, err := h.Execute(context.Background(), createTestInput())
			require.Error(t, err)
			stdErr := commonerrors.Normalize(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.True(t, stdErr.Retryable)
			store.AssertExpectations(t)
		})
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{
			name:      "valid",
			variables: `{"loanContext":{"loanId":"loan-001"},"validationResult":{"documentType":"w2","isValid":false,"issues":[{"ruleId":"ssnMismatch","severity":"critical","message":"m"}]}}`,
		},
		{
			name:      "missing validation result",
			variables: `{"loanContext":{"loanId":"loan-001"}}`,
			wantErr:   true,
		},
		{
			name:      "isValid wrong type",
			variables: `{"loanContext":{"loanId":"loan-001"},"validationResult":{"isValid":"no"}}`,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, input.ValidationResult.Issues, 1)
			assert.Equal(t, models.SeverityCritical, input.ValidationResult.Issues[0].Severity)
		})
	}
}
