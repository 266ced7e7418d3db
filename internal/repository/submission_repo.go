package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/loneil/common-hosted-form-service/internal/fault"
	"github.com/loneil/common-hosted-form-service/internal/models"
)

type SubmissionRepo struct {
	db *sqlx.DB
}

func NewSubmissionRepo(db *sqlx.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// buildExportQuery composes the submissions_data_vw query: caller-chosen
// column projection, date-range / soft-delete / draft filters, newest-first
// ordering. Kept as a pure function so the composition rules are testable
// without a database.
func buildExportQuery(formID string, columns []string, filter models.SubmissionFilter) (string, []any, error) {
	quoted := make([]string, 0, len(columns))
	for _, col := range columns {
		q, err := quoteIdent(col)
		if err != nil {
			return "", nil, err
		}
		quoted = append(quoted, q)
	}

	var sb strings.Builder
	args := []any{formID}
	sb.WriteString(`SELECT ` + strings.Join(quoted, ", ") + ` FROM submissions_data_vw WHERE "formId" = $1`)

	switch {
	case filter.MinDate != nil && filter.MaxDate != nil:
		args = append(args, *filter.MinDate, *filter.MaxDate)
		sb.WriteString(fmt.Sprintf(` AND "createdAt" BETWEEN $%d AND $%d`, len(args)-1, len(args)))
	case filter.MinDate != nil:
		args = append(args, *filter.MinDate)
		sb.WriteString(fmt.Sprintf(` AND "createdAt" >= $%d`, len(args)))
	case filter.MaxDate != nil:
		args = append(args, *filter.MaxDate)
		sb.WriteString(fmt.Sprintf(` AND "createdAt" <= $%d`, len(args)))
	}

	if !filter.Deleted {
		sb.WriteString(` AND deleted = false`)
	}
	if !filter.Drafts {
		sb.WriteString(` AND draft = false`)
	}

	sb.WriteString(` ORDER BY "createdAt" DESC`)
	return sb.String(), args, nil
}

// ExportRows queries the export view with the given projection and filters.
// The "submission" column, when projected, is split out of the metadata and
// decoded into the content document.
func (r *SubmissionRepo) ExportRows(ctx context.Context, formID string, columns []string, filter models.SubmissionFilter) ([]models.SubmissionDataRow, error) {
	query, args, err := buildExportQuery(formID, columns, filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("submission repo: export query for %s: %w", formID, err)
	}
	defer rows.Close()

	var result []models.SubmissionDataRow
	for rows.Next() {
		raw := map[string]any{}
		if err := rows.MapScan(raw); err != nil {
			return nil, fmt.Errorf("submission repo: scan export row: %w", err)
		}
		row, err := toExportRow(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("submission repo: export rows for %s: %w", formID, err)
	}
	return result, nil
}

func toExportRow(raw map[string]any) (models.SubmissionDataRow, error) {
	row := models.SubmissionDataRow{Metadata: make(map[string]any, len(raw))}
	for col, v := range raw {
		if col == "submission" {
			content := map[string]any{}
			switch b := v.(type) {
			case []byte:
				if err := json.Unmarshal(b, &content); err != nil {
					return row, fmt.Errorf("submission repo: decode submission content: %w", err)
				}
			case nil:
				// deleted drafts can have no content
			}
			row.Submission = content
			continue
		}
		// lib/pq hands text columns back as []byte under MapScan
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		row.Metadata[col] = v
	}
	return row, nil
}

// CreateSubmission persists one response document against a form version.
func (r *SubmissionRepo) CreateSubmission(ctx context.Context, sub *models.FormSubmission) error {
	content, err := json.Marshal(sub.Submission)
	if err != nil {
		return fmt.Errorf("submission repo: encode content: %w", err)
	}
	query := `INSERT INTO form_submission
		(id, "formVersionId", "confirmationId", draft, deleted, submission,
		 "createdBy", "createdAt", "updatedBy", "updatedAt")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.FormVersionID, sub.ConfirmationID, sub.Draft, sub.Deleted, content,
		sub.CreatedBy, sub.CreatedAt, sub.UpdatedBy, sub.UpdatedAt); err != nil {
		return fmt.Errorf("submission repo: create: %w", err)
	}
	return nil
}

type submissionRow struct {
	ID             string    `db:"id"`
	FormVersionID  string    `db:"formVersionId"`
	ConfirmationID string    `db:"confirmationId"`
	Draft          bool      `db:"draft"`
	Deleted        bool      `db:"deleted"`
	Submission     []byte    `db:"submission"`
	CreatedBy      string    `db:"createdBy"`
	CreatedAt      time.Time `db:"createdAt"`
	UpdatedBy      string    `db:"updatedBy"`
	UpdatedAt      time.Time `db:"updatedAt"`
}

func (r *SubmissionRepo) GetSubmission(ctx context.Context, id string) (*models.FormSubmission, error) {
	var row submissionRow
	query := `SELECT id, "formVersionId", "confirmationId", draft, deleted, submission,
		"createdBy", "createdAt", "updatedBy", "updatedAt"
		FROM form_submission WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, fmt.Errorf("submission repo: get %s: %w", id, err)
	}

	sub := &models.FormSubmission{
		ID:             row.ID,
		FormVersionID:  row.FormVersionID,
		ConfirmationID: row.ConfirmationID,
		Draft:          row.Draft,
		Deleted:        row.Deleted,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		UpdatedBy:      row.UpdatedBy,
		UpdatedAt:      row.UpdatedAt,
	}
	if len(row.Submission) > 0 {
		if err := json.Unmarshal(row.Submission, &sub.Submission); err != nil {
			return nil, fmt.Errorf("submission repo: decode content for %s: %w", id, err)
		}
	}
	return sub, nil
}

// CountByForm reports how many non-deleted submissions a form has.
func (r *SubmissionRepo) CountByForm(ctx context.Context, formID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM submissions_data_vw WHERE "formId" = $1 AND deleted = false AND draft = false`
	if err := r.db.GetContext(ctx, &count, query, formID); err != nil {
		return 0, fmt.Errorf("submission repo: count for %s: %w", formID, err)
	}
	return count, nil
}
