package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loneil/common-hosted-form-service/internal/fault"
	"github.com/loneil/common-hosted-form-service/internal/models"
	"github.com/loneil/common-hosted-form-service/internal/repository"
)

type SubmissionService struct {
	submissions *repository.SubmissionRepo
	forms       *repository.FormRepo
}

func NewSubmissionService(submissions *repository.SubmissionRepo, forms *repository.FormRepo) *SubmissionService {
	return &SubmissionService{submissions: submissions, forms: forms}
}

// ListForForm returns the form's submissions through the export view, newest
// first: the same metadata columns the export shows, with the content
// document attached under "submission".
func (s *SubmissionService) ListForForm(ctx context.Context, formID string, filter models.SubmissionFilter) ([]map[string]any, error) {
	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewNotFound("form "+formID+" does not exist", err)
		}
		return nil, err
	}

	columns := submissionsColumns(form, models.ExportParams{})
	rows, err := s.submissions.ExportRows(ctx, formID, columns, filter)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		item := make(map[string]any, len(row.Metadata)+1)
		for k, v := range row.Metadata {
			item[k] = v
		}
		item["submission"] = row.Submission
		out = append(out, item)
	}
	return out, nil
}

// Create records one response against the form's published version.
func (s *SubmissionService) Create(ctx context.Context, formID string, data map[string]any, draft bool, currentUser *models.CurrentUser) (*models.FormSubmission, error) {
	version, err := s.forms.PublishedVersion(ctx, formID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewValidation("form " + formID + " has no published version to submit against")
		}
		return nil, err
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	sub := &models.FormSubmission{
		ID:             id,
		FormVersionID:  version.ID,
		ConfirmationID: strings.ToUpper(id[:8]),
		Draft:          draft,
		Submission:     data,
		CreatedBy:      currentUser.Username,
		CreatedAt:      now,
		UpdatedBy:      currentUser.Username,
		UpdatedAt:      now,
	}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) Read(ctx context.Context, submissionID string) (*models.FormSubmission, error) {
	sub, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewNotFound("submission "+submissionID+" does not exist", err)
		}
		return nil, err
	}
	return sub, nil
}

// CountForForm reports the number of live submissions on a form.
func (s *SubmissionService) CountForForm(ctx context.Context, formID string) (int, error) {
	return s.submissions.CountByForm(ctx, formID)
}
