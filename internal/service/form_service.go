package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/loneil/common-hosted-form-service/internal/auth"
	"github.com/loneil/common-hosted-form-service/internal/fault"
	"github.com/loneil/common-hosted-form-service/internal/models"
	"github.com/loneil/common-hosted-form-service/internal/repository"
)

type FormService struct {
	forms *repository.FormRepo
}

func NewFormService(forms *repository.FormRepo) *FormService {
	return &FormService{forms: forms}
}

// FormRequest is the caller-facing shape for creating or updating a form.
type FormRequest struct {
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Labels               []string        `json:"labels"`
	EnableStatusUpdates  bool            `json:"enableStatusUpdates"`
	EnableSubmitterDraft bool            `json:"enableSubmitterDraft"`
	Schema               json.RawMessage `json:"schema"`
}

func (s *FormService) List(ctx context.Context) ([]models.Form, error) {
	return s.forms.ListForms(ctx)
}

// Create makes the form record and, when a design document came along, an
// initial draft holding it. Nothing is published yet.
func (s *FormService) Create(ctx context.Context, req FormRequest, currentUser *models.CurrentUser) (*models.Form, error) {
	if req.Name == "" {
		return nil, fault.NewValidation("form name is required")
	}

	now := time.Now().UTC()
	form := &models.Form{
		ID:                   uuid.NewString(),
		Name:                 req.Name,
		Description:          req.Description,
		Active:               true,
		Labels:               req.Labels,
		EnableStatusUpdates:  req.EnableStatusUpdates,
		EnableSubmitterDraft: req.EnableSubmitterDraft,
		CreatedBy:            currentUser.Username,
		CreatedAt:            now,
		UpdatedBy:            currentUser.Username,
		UpdatedAt:            now,
	}
	if err := s.forms.CreateForm(ctx, form); err != nil {
		return nil, err
	}

	if len(req.Schema) > 0 {
		draft := &models.FormVersionDraft{
			ID:        uuid.NewString(),
			FormID:    form.ID,
			Schema:    req.Schema,
			CreatedBy: currentUser.Username,
			CreatedAt: now,
			UpdatedBy: currentUser.Username,
			UpdatedAt: now,
		}
		if err := s.forms.CreateDraft(ctx, draft); err != nil {
			return nil, err
		}
	}

	return form, nil
}

func (s *FormService) Read(ctx context.Context, id string) (*models.Form, error) {
	form, err := s.forms.GetForm(ctx, id)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewNotFound("form "+id+" does not exist", err)
		}
		return nil, err
	}
	return form, nil
}

func (s *FormService) Update(ctx context.Context, id string, req FormRequest, currentUser *models.CurrentUser) (*models.Form, error) {
	form, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		form.Name = req.Name
	}
	form.Description = req.Description
	form.Labels = req.Labels
	form.EnableStatusUpdates = req.EnableStatusUpdates
	form.EnableSubmitterDraft = req.EnableSubmitterDraft
	form.UpdatedBy = currentUser.Username
	form.UpdatedAt = time.Now().UTC()

	if err := s.forms.UpdateForm(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

// Delete soft-deletes: the form goes inactive, its versions and submissions
// stay readable through admin paths.
func (s *FormService) Delete(ctx context.Context, id string, currentUser *models.CurrentUser) error {
	if _, err := s.Read(ctx, id); err != nil {
		return err
	}
	return s.forms.SoftDeleteForm(ctx, id, currentUser.Username)
}

func (s *FormService) ListVersions(ctx context.Context, formID string) ([]models.FormVersion, error) {
	return s.forms.ListVersions(ctx, formID)
}

func (s *FormService) ReadVersion(ctx context.Context, versionID string) (*models.FormVersion, error) {
	version, err := s.forms.GetVersion(ctx, versionID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewNotFound("form version "+versionID+" does not exist", err)
		}
		return nil, err
	}
	return version, nil
}

// ReadPublishedVersion returns the currently published design of a form.
func (s *FormService) ReadPublishedVersion(ctx context.Context, formID string) (*models.FormVersion, error) {
	version, err := s.forms.PublishedVersion(ctx, formID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewNotFound("form "+formID+" has no published version", err)
		}
		return nil, err
	}
	return version, nil
}

func (s *FormService) ListDrafts(ctx context.Context, formID string) ([]models.FormVersionDraft, error) {
	return s.forms.ListDrafts(ctx, formID)
}

func (s *FormService) CreateDraft(ctx context.Context, formID string, schema json.RawMessage, currentUser *models.CurrentUser) (*models.FormVersionDraft, error) {
	if _, err := s.Read(ctx, formID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	draft := &models.FormVersionDraft{
		ID:        uuid.NewString(),
		FormID:    formID,
		Schema:    schema,
		CreatedBy: currentUser.Username,
		CreatedAt: now,
		UpdatedBy: currentUser.Username,
		UpdatedAt: now,
	}
	if err := s.forms.CreateDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *FormService) ReadDraft(ctx context.Context, draftID string) (*models.FormVersionDraft, error) {
	draft, err := s.forms.GetDraft(ctx, draftID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewNotFound("draft "+draftID+" does not exist", err)
		}
		return nil, err
	}
	return draft, nil
}

func (s *FormService) UpdateDraft(ctx context.Context, draftID string, schema json.RawMessage, currentUser *models.CurrentUser) (*models.FormVersionDraft, error) {
	draft, err := s.ReadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	draft.Schema = schema
	draft.UpdatedBy = currentUser.Username
	draft.UpdatedAt = time.Now().UTC()
	if err := s.forms.UpdateDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *FormService) DeleteDraft(ctx context.Context, draftID string) error {
	if _, err := s.ReadDraft(ctx, draftID); err != nil {
		return err
	}
	return s.forms.DeleteDraft(ctx, draftID)
}

// PublishDraft turns a draft into the published version of its form and
// removes the draft. Versions are immutable once published; further edits
// start a new draft.
func (s *FormService) PublishDraft(ctx context.Context, formID, draftID string, currentUser *models.CurrentUser) (*models.FormVersion, error) {
	draft, err := s.ReadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.FormID != formID {
		return nil, fault.NewValidation("draft does not belong to this form")
	}

	version := &models.FormVersion{
		ID:        uuid.NewString(),
		FormID:    formID,
		Schema:    draft.Schema,
		Published: true,
		CreatedBy: currentUser.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.forms.CreateVersion(ctx, version); err != nil {
		return nil, err
	}
	if err := s.forms.DeleteDraft(ctx, draftID); err != nil {
		return nil, err
	}
	return version, nil
}

// CreateAPIKey mints a fresh API-key secret for the form and stores only its
// hash. The plaintext is returned exactly once.
func (s *FormService) CreateAPIKey(ctx context.Context, formID string, currentUser *models.CurrentUser) (string, error) {
	if _, err := s.Read(ctx, formID); err != nil {
		return "", err
	}
	secret := uuid.NewString()
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return "", fault.NewInternal("could not hash api key secret", err)
	}
	key := &models.FormAPIKey{
		ID:        uuid.NewString(),
		FormID:    formID,
		Secret:    hash,
		CreatedBy: currentUser.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.forms.UpsertAPIKey(ctx, key); err != nil {
		return "", err
	}
	return secret, nil
}

// ValidateAPIKey satisfies the auth middleware's APIKeyValidator contract.
func (s *FormService) ValidateAPIKey(ctx context.Context, formID, secret string) (bool, error) {
	key, err := s.forms.GetAPIKey(ctx, formID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return auth.CheckSecret(secret, key.Secret), nil
}

// StatusCodes lists the submission states configured on a form. Empty when
// the form does not track status.
func (s *FormService) StatusCodes(ctx context.Context, formID string) ([]models.StatusCode, error) {
	form, err := s.Read(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.EnableStatusUpdates {
		return []models.StatusCode{}, nil
	}
	return s.forms.StatusCodes(ctx, formID)
}
