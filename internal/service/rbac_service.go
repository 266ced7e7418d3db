package service

import (
	"context"

	"github.com/loneil/common-hosted-form-service/internal/auth"
	"github.com/loneil/common-hosted-form-service/internal/models"
	"github.com/loneil/common-hosted-form-service/internal/repository"
)

// RbacService resolves token claims into a CurrentUser with the per-form
// permission sets attached. It satisfies the auth middleware's AccessLoader
// contract.
type RbacService struct {
	permissions *repository.PermissionRepo
}

func NewRbacService(permissions *repository.PermissionRepo) *RbacService {
	return &RbacService{permissions: permissions}
}

func (s *RbacService) CurrentUser(ctx context.Context, claims *auth.Claims) (*models.CurrentUser, error) {
	forms, err := s.permissions.UserFormAccess(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return &models.CurrentUser{
		ID:       claims.Subject,
		Username: claims.PreferredUsername,
		FullName: claims.FullName(),
		Email:    claims.Email,
		Forms:    forms,
	}, nil
}
