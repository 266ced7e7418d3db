package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/loneil/common-hosted-form-service/internal/fault"
	"github.com/loneil/common-hosted-form-service/internal/models"
)

type PermissionRepo struct {
	db *sqlx.DB
}

func NewPermissionRepo(db *sqlx.DB) *PermissionRepo {
	return &PermissionRepo{db: db}
}

const permissionColumns = `code, display, description, active, "createdBy", "createdAt"`

func (r *PermissionRepo) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	query := fmt.Sprintf(`SELECT %s FROM permission ORDER BY code`, permissionColumns)
	if err := r.db.SelectContext(ctx, &perms, query); err != nil {
		return nil, fmt.Errorf("permission repo: list: %w", err)
	}
	for i := range perms {
		roles, err := r.rolesForPermission(ctx, perms[i].Code)
		if err != nil {
			return nil, err
		}
		perms[i].Roles = roles
	}
	return perms, nil
}

func (r *PermissionRepo) GetPermission(ctx context.Context, code string) (*models.Permission, error) {
	var perm models.Permission
	query := fmt.Sprintf(`SELECT %s FROM permission WHERE code = $1`, permissionColumns)
	if err := r.db.GetContext(ctx, &perm, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, fmt.Errorf("permission repo: get %s: %w", code, err)
	}
	roles, err := r.rolesForPermission(ctx, code)
	if err != nil {
		return nil, err
	}
	perm.Roles = roles
	return &perm, nil
}

func (r *PermissionRepo) rolesForPermission(ctx context.Context, code string) ([]models.Role, error) {
	var roles []models.Role
	query := `SELECT ro.code, ro.display, ro.description, ro.active, ro."createdAt"
		FROM role_permission rp
		JOIN role ro ON ro.code = rp.role
		WHERE rp.permission = $1
		ORDER BY ro.display`
	if err := r.db.SelectContext(ctx, &roles, query, code); err != nil {
		return nil, fmt.Errorf("permission repo: roles for %s: %w", code, err)
	}
	return roles, nil
}

func (r *PermissionRepo) CreatePermission(ctx context.Context, perm *models.Permission) error {
	query := `INSERT INTO permission (code, display, description, active, "createdBy", "createdAt")
		VALUES (:code, :display, :description, :active, :createdBy, :createdAt)`
	if _, err := r.db.NamedExecContext(ctx, query, perm); err != nil {
		if isUniqueViolation(err) {
			return fault.ErrUniqueViolation
		}
		return fmt.Errorf("permission repo: create %s: %w", perm.Code, err)
	}
	return nil
}

// UpdatePermission patches the descriptive fields and replaces the set of
// roles granting the permission, in one transaction.
func (r *PermissionRepo) UpdatePermission(ctx context.Context, perm *models.Permission, roleCodes []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("permission repo: begin update: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE permission SET display = $2, description = $3, active = $4 WHERE code = $1`,
		perm.Code, perm.Display, perm.Description, perm.Active); err != nil {
		return fmt.Errorf("permission repo: update %s: %w", perm.Code, err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM role_permission WHERE permission = $1`, perm.Code); err != nil {
		return fmt.Errorf("permission repo: clear roles for %s: %w", perm.Code, err)
	}

	for _, role := range roleCodes {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO role_permission (id, role, permission) VALUES ($1, $2, $3)`,
			uuid.NewString(), role, perm.Code); err != nil {
			if isForeignKeyViolation(err) {
				err = fault.ErrForeignKeyViolation
				return err
			}
			return fmt.Errorf("permission repo: grant %s to %s: %w", perm.Code, role, err)
		}
	}

	return tx.Commit()
}

type formAccessRow struct {
	FormID      string         `db:"formId"`
	FormName    string         `db:"formName"`
	Permissions pq.StringArray `db:"permissions"`
}

// UserFormAccess reads the access view: one row per form the user can touch,
// with the aggregated permission codes held on it.
func (r *PermissionRepo) UserFormAccess(ctx context.Context, userID string) ([]models.FormAccess, error) {
	var rows []formAccessRow
	query := `SELECT "formId", "formName", permissions FROM user_form_access_vw WHERE "userId" = $1 ORDER BY "formName"`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("permission repo: access for user %s: %w", userID, err)
	}
	access := make([]models.FormAccess, 0, len(rows))
	for _, row := range rows {
		access = append(access, models.FormAccess{
			FormID:      row.FormID,
			FormName:    row.FormName,
			Permissions: row.Permissions,
		})
	}
	return access, nil
}
