// internal/conditions/postgres.go
package conditions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mortgage-underwriting/internal/models"
)

const conditionColumns = `id, loan_id, document_type, type, category, title, description,
	field, rule_id, severity, status, suggested_action, requires_new_document,
	resolution_notes, requested_document_type, request_notes,
	created_at, updated_at, cleared_at, requested_at`

// Schema creates the conditions table. seq preserves insertion order.
const Schema = `
CREATE TABLE IF NOT EXISTS underwriting_conditions (
	seq                     BIGSERIAL,
	id                      UUID PRIMARY KEY,
	loan_id                 TEXT NOT NULL,
	document_type           TEXT NOT NULL,
	type                    TEXT NOT NULL,
	category                TEXT NOT NULL,
	title                   TEXT NOT NULL,
	description             TEXT NOT NULL,
	field                   TEXT NOT NULL DEFAULT '',
	rule_id                 TEXT NOT NULL DEFAULT '',
	severity                TEXT NOT NULL,
	status                  TEXT NOT NULL,
	suggested_action        TEXT NOT NULL,
	requires_new_document   BOOLEAN NOT NULL DEFAULT FALSE,
	resolution_notes        TEXT NOT NULL DEFAULT '',
	requested_document_type TEXT NOT NULL DEFAULT '',
	request_notes           TEXT NOT NULL DEFAULT '',
	created_at              TIMESTAMPTZ NOT NULL,
	updated_at              TIMESTAMPTZ NOT NULL,
	cleared_at              TIMESTAMPTZ,
	requested_at            TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_underwriting_conditions_loan ON underwriting_conditions (loan_id, seq);`

// PostgresStore persists conditions with lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the table and index when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create conditions schema: %w", err)
	}
	return nil
}

// Append inserts a batch in one transaction.
func (s *PostgresStore) Append(ctx context.Context, conditions []models.Condition) error {
	if len(conditions) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin condition insert: %w", err)
	}

	for _, c := range conditions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO underwriting_conditions (`+conditionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
			c.ID, c.LoanID, c.DocumentType, string(c.Type), c.Category, c.Title, c.Description,
			c.Field, c.RuleID, string(c.Severity), string(c.Status), c.SuggestedAction, c.RequiresNewDocument,
			c.ResolutionNotes, c.RequestedDocumentType, c.RequestNotes,
			c.CreatedAt, c.UpdatedAt, nullTime(c.ClearedAt), nullTime(c.RequestedAt),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert condition %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit condition insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Condition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+conditionColumns+`
		FROM underwriting_conditions
		WHERE id = $1`, id)

	c, err := scanCondition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConditionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get condition %s: %w", id, err)
	}
	return c, nil
}

func (s *PostgresStore) ListByLoan(ctx context.Context, loanID string) ([]models.Condition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+conditionColumns+`
		FROM underwriting_conditions
		WHERE loan_id = $1
		ORDER BY seq`, loanID)
	if err != nil {
		return nil, fmt.Errorf("list conditions for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	out := []models.Condition{}
	for rows.Next() {
		c, err := scanCondition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conditions for loan %s: %w", loanID, err)
	}
	return out, nil
}

// Update writes the mutable lifecycle columns while the row is still in
// status from.
func (s *PostgresStore) Update(ctx context.Context, c *models.Condition, from models.ConditionStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE underwriting_conditions
		SET status = $2, resolution_notes = $3, requested_document_type = $4,
			request_notes = $5, updated_at = $6, cleared_at = $7, requested_at = $8
		WHERE id = $1 AND status = $9`,
		c.ID, string(c.Status), c.ResolutionNotes, c.RequestedDocumentType,
		c.RequestNotes, c.UpdatedAt, nullTime(c.ClearedAt), nullTime(c.RequestedAt),
		string(from),
	)
	if err != nil {
		return fmt.Errorf("update condition %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update condition %s: %w", c.ID, err)
	}
	if n > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM underwriting_conditions WHERE id = $1`, c.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrConditionNotFound
	}
	if err != nil {
		return fmt.Errorf("update condition %s: %w", c.ID, err)
	}
	return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, c.ID, current)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCondition(row rowScanner) (*models.Condition, error) {
	var (
		c                      models.Condition
		condType, sev, status  string
		clearedAt, requestedAt sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.LoanID, &c.DocumentType, &condType, &c.Category, &c.Title, &c.Description,
		&c.Field, &c.RuleID, &sev, &status, &c.SuggestedAction, &c.RequiresNewDocument,
		&c.ResolutionNotes, &c.RequestedDocumentType, &c.RequestNotes,
		&c.CreatedAt, &c.UpdatedAt, &clearedAt, &requestedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Type = models.ConditionType(condType)
	c.Severity = models.Severity(sev)
	c.Status = models.ConditionStatus(status)
	if clearedAt.Valid {
		t := clearedAt.Time
		c.ClearedAt = &t
	}
	if requestedAt.Valid {
		t := requestedAt.Time
		c.RequestedAt = &t
	}
	return &c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
