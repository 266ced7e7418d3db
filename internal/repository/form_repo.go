package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/loneil/common-hosted-form-service/internal/fault"
	"github.com/loneil/common-hosted-form-service/internal/models"
)

type FormRepo struct {
	db *sqlx.DB
}

func NewFormRepo(db *sqlx.DB) *FormRepo {
	return &FormRepo{db: db}
}

const formColumns = `id, name, description, active, labels,
	"enableStatusUpdates", "enableSubmitterDraft",
	"createdBy", "createdAt", "updatedBy", "updatedAt"`

func (r *FormRepo) GetForm(ctx context.Context, id string) (*models.Form, error) {
	var form models.Form
	query := fmt.Sprintf(`SELECT %s FROM form WHERE id = $1`, formColumns)
	if err := r.db.GetContext(ctx, &form, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, fmt.Errorf("form repo: get %s: %w", id, err)
	}
	return &form, nil
}

func (r *FormRepo) ListForms(ctx context.Context) ([]models.Form, error) {
	var forms []models.Form
	query := fmt.Sprintf(`SELECT %s FROM form WHERE active = true ORDER BY "createdAt" DESC`, formColumns)
	if err := r.db.SelectContext(ctx, &forms, query); err != nil {
		return nil, fmt.Errorf("form repo: list: %w", err)
	}
	return forms, nil
}

func (r *FormRepo) CreateForm(ctx context.Context, form *models.Form) error {
	query := `INSERT INTO form
		(id, name, description, active, labels, "enableStatusUpdates", "enableSubmitterDraft",
		 "createdBy", "createdAt", "updatedBy", "updatedAt")
		VALUES (:id, :name, :description, :active, :labels, :enableStatusUpdates, :enableSubmitterDraft,
		 :createdBy, :createdAt, :updatedBy, :updatedAt)`
	if _, err := r.db.NamedExecContext(ctx, query, form); err != nil {
		if isUniqueViolation(err) {
			return fault.ErrUniqueViolation
		}
		return fmt.Errorf("form repo: create: %w", err)
	}
	return nil
}

func (r *FormRepo) UpdateForm(ctx context.Context, form *models.Form) error {
	query := `UPDATE form SET
		name = :name, description = :description, labels = :labels,
		"enableStatusUpdates" = :enableStatusUpdates, "enableSubmitterDraft" = :enableSubmitterDraft,
		"updatedBy" = :updatedBy, "updatedAt" = :updatedAt
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, form)
	if err != nil {
		return fmt.Errorf("form repo: update %s: %w", form.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.ErrNotFound
	}
	return nil
}

// SoftDeleteForm deactivates a form; submissions and versions stay in place.
func (r *FormRepo) SoftDeleteForm(ctx context.Context, id, deletedBy string) error {
	query := `UPDATE form SET active = false, "updatedBy" = $2, "updatedAt" = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, deletedBy)
	if err != nil {
		return fmt.Errorf("form repo: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.ErrNotFound
	}
	return nil
}

// LatestSchema returns the design document of the newest version of a form.
func (r *FormRepo) LatestSchema(ctx context.Context, formID string) ([]byte, error) {
	var schema []byte
	query := `SELECT schema FROM form_version WHERE "formId" = $1 ORDER BY version DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &schema, query, formID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, fmt.Errorf("form repo: latest schema for %s: %w", formID, err)
	}
	return schema, nil
}

const versionColumns = `id, "formId", version, schema, published, "createdBy", "createdAt"`

func (r *FormRepo) ListVersions(ctx context.Context, formID string) ([]models.FormVersion, error) {
	var versions []models.FormVersion
	query := fmt.Sprintf(`SELECT %s FROM form_version WHERE "formId" = $1 ORDER BY version DESC`, versionColumns)
	if err := r.db.SelectContext(ctx, &versions, query, formID); err != nil {
		return nil, fmt.Errorf("form repo: list versions for %s: %w", formID, err)
	}
	return versions, nil
}

func (r *FormRepo) GetVersion(ctx context.Context, versionID string) (*models.FormVersion, error) {
	var version models.FormVersion
	query := fmt.Sprintf(`SELECT %s FROM form_version WHERE id = $1`, versionColumns)
	if err := r.db.GetContext(ctx, &version, query, versionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, fmt.Errorf("form repo: get version %s: %w", versionID, err)
	}
	return &version, nil
}

// PublishedVersion returns the currently published version of a form.
func (r *FormRepo) PublishedVersion(ctx context.Context, formID string) (*models.FormVersion, error) {
	var version models.FormVersion
	query := fmt.Sprintf(`SELECT %s FROM form_version WHERE "formId" = $1 AND published = true ORDER BY version DESC LIMIT 1`, versionColumns)
	if err := r.db.GetContext(ctx, &version, query, formID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, fmt.Errorf("form repo: published version for %s: %w", formID, err)
	}
	return &version, nil
}

// CreateVersion inserts a new version and flips published off on every other
// version of the form, in one transaction. Version numbers are assigned here
// from the current maximum.
func (r *FormRepo) CreateVersion(ctx context.Context, version *models.FormVersion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("form repo: begin publish: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var next int
	if err = tx.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM form_version WHERE "formId" = $1`, version.FormID); err != nil {
		return fmt.Errorf("form repo: next version for %s: %w", version.FormID, err)
	}
	version.Version = next

	if version.Published {
		if _, err = tx.ExecContext(ctx,
			`UPDATE form_version SET published = false WHERE "formId" = $1`, version.FormID); err != nil {
			return fmt.Errorf("form repo: unpublish versions for %s: %w", version.FormID, err)
		}
	}

	if _, err = tx.NamedExecContext(ctx,
		`INSERT INTO form_version (id, "formId", version, schema, published, "createdBy", "createdAt")
		 VALUES (:id, :formId, :version, :schema, :published, :createdBy, :createdAt)`, version); err != nil {
		return fmt.Errorf("form repo: insert version: %w", err)
	}

	return tx.Commit()
}

const draftColumns = `id, "formId", "formVersionId", schema, "createdBy", "createdAt", "updatedBy", "updatedAt"`

func (r *FormRepo) ListDrafts(ctx context.Context, formID string) ([]models.FormVersionDraft, error) {
	var drafts []models.FormVersionDraft
	query := fmt.Sprintf(`SELECT %s FROM form_version_draft WHERE "formId" = $1 ORDER BY "updatedAt" DESC`, draftColumns)
	if err := r.db.SelectContext(ctx, &drafts, query, formID); err != nil {
		return nil, fmt.Errorf("form repo: list drafts for %s: %w", formID, err)
	}
	return drafts, nil
}

func (r *FormRepo) GetDraft(ctx context.Context, draftID string) (*models.FormVersionDraft, error) {
	var draft models.FormVersionDraft
	query := fmt.Sprintf(`SELECT %s FROM form_version_draft WHERE id = $1`, draftColumns)
	if err := r.db.GetContext(ctx, &draft, query, draftID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, fmt.Errorf("form repo: get draft %s: %w", draftID, err)
	}
	return &draft, nil
}

func (r *FormRepo) CreateDraft(ctx context.Context, draft *models.FormVersionDraft) error {
	query := `INSERT INTO form_version_draft
		(id, "formId", "formVersionId", schema, "createdBy", "createdAt", "updatedBy", "updatedAt")
		VALUES (:id, :formId, :formVersionId, :schema, :createdBy, :createdAt, :updatedBy, :updatedAt)`
	if _, err := r.db.NamedExecContext(ctx, query, draft); err != nil {
		return fmt.Errorf("form repo: create draft: %w", err)
	}
	return nil
}

func (r *FormRepo) UpdateDraft(ctx context.Context, draft *models.FormVersionDraft) error {
	query := `UPDATE form_version_draft SET schema = :schema, "updatedBy" = :updatedBy, "updatedAt" = :updatedAt
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, draft)
	if err != nil {
		return fmt.Errorf("form repo: update draft %s: %w", draft.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.ErrNotFound
	}
	return nil
}

func (r *FormRepo) DeleteDraft(ctx context.Context, draftID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM form_version_draft WHERE id = $1`, draftID)
	if err != nil {
		return fmt.Errorf("form repo: delete draft %s: %w", draftID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.ErrNotFound
	}
	return nil
}

// GetAPIKey returns the API key record for a form, if one exists.
func (r *FormRepo) GetAPIKey(ctx context.Context, formID string) (*models.FormAPIKey, error) {
	var key models.FormAPIKey
	query := `SELECT id, "formId", secret, "createdBy", "createdAt" FROM form_api_key WHERE "formId" = $1`
	if err := r.db.GetContext(ctx, &key, query, formID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, fmt.Errorf("form repo: get api key for %s: %w", formID, err)
	}
	return &key, nil
}

// UpsertAPIKey replaces the form's API key. There is at most one per form.
func (r *FormRepo) UpsertAPIKey(ctx context.Context, key *models.FormAPIKey) error {
	query := `INSERT INTO form_api_key (id, "formId", secret, "createdBy", "createdAt")
		VALUES (:id, :formId, :secret, :createdBy, :createdAt)
		ON CONFLICT ("formId") DO UPDATE SET secret = EXCLUDED.secret,
			"createdBy" = EXCLUDED."createdBy", "createdAt" = EXCLUDED."createdAt"`
	if _, err := r.db.NamedExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("form repo: upsert api key for %s: %w", key.FormID, err)
	}
	return nil
}

// StatusCodes lists the status codes attached to a form.
func (r *FormRepo) StatusCodes(ctx context.Context, formID string) ([]models.StatusCode, error) {
	var codes []models.StatusCode
	query := `SELECT sc.code, sc.display, sc."nextCodes"
		FROM form_status_code fsc
		JOIN status_code sc ON sc.code = fsc.code
		WHERE fsc."formId" = $1
		ORDER BY sc.code`
	if err := r.db.SelectContext(ctx, &codes, query, formID); err != nil {
		return nil, fmt.Errorf("form repo: status codes for %s: %w", formID, err)
	}
	return codes, nil
}
