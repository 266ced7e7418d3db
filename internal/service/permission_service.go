package service

import (
	"context"
	"errors"
	"time"

	"github.com/loneil/common-hosted-form-service/internal/fault"
	"github.com/loneil/common-hosted-form-service/internal/models"
	"github.com/loneil/common-hosted-form-service/internal/repository"
)

type PermissionService struct {
	permissions *repository.PermissionRepo
}

func NewPermissionService(permissions *repository.PermissionRepo) *PermissionService {
	return &PermissionService{permissions: permissions}
}

// PermissionRequest is the caller-facing shape for permission writes.
type PermissionRequest struct {
	Code        string   `json:"code"`
	Display     string   `json:"display"`
	Description string   `json:"description"`
	Active      bool     `json:"active"`
	Roles       []string `json:"roles"`
}

func (s *PermissionService) List(ctx context.Context) ([]models.Permission, error) {
	return s.permissions.ListPermissions(ctx)
}

func (s *PermissionService) Create(ctx context.Context, req PermissionRequest, currentUser *models.CurrentUser) (*models.Permission, error) {
	if req.Code == "" {
		return nil, fault.NewValidation("permission code is required")
	}
	perm := &models.Permission{
		Code:        req.Code,
		Display:     req.Display,
		Description: req.Description,
		Active:      req.Active,
		CreatedBy:   currentUser.Username,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.permissions.CreatePermission(ctx, perm); err != nil {
		if errors.Is(err, fault.ErrUniqueViolation) {
			return nil, fault.NewValidation("permission code " + req.Code + " already exists")
		}
		return nil, err
	}
	return s.Read(ctx, req.Code)
}

func (s *PermissionService) Read(ctx context.Context, code string) (*models.Permission, error) {
	perm, err := s.permissions.GetPermission(ctx, code)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewNotFound("permission "+code+" does not exist", err)
		}
		return nil, err
	}
	return perm, nil
}

// Update patches the descriptive fields and re-associates the granting
// roles, then reads the result back.
func (s *PermissionService) Update(ctx context.Context, code string, req PermissionRequest) (*models.Permission, error) {
	perm, err := s.Read(ctx, code)
	if err != nil {
		return nil, err
	}

	perm.Display = req.Display
	perm.Description = req.Description
	perm.Active = req.Active
	if err := s.permissions.UpdatePermission(ctx, perm, req.Roles); err != nil {
		if errors.Is(err, fault.ErrForeignKeyViolation) {
			return nil, fault.NewValidation("one or more roles do not exist")
		}
		return nil, err
	}
	return s.Read(ctx, code)
}
