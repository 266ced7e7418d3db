package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loneil/common-hosted-form-service/internal/auth"
	"github.com/loneil/common-hosted-form-service/internal/models"
	"github.com/loneil/common-hosted-form-service/internal/service"
)

type exportFormStore struct {
	form   *models.Form
	schema []byte
}

func (s *exportFormStore) GetForm(ctx context.Context, id string) (*models.Form, error) {
	return s.form, nil
}

func (s *exportFormStore) LatestSchema(ctx context.Context, formID string) ([]byte, error) {
	return s.schema, nil
}

type exportSubmissionStore struct {
	rows []models.SubmissionDataRow
}

func (s *exportSubmissionStore) ExportRows(ctx context.Context, formID string, columns []string, filter models.SubmissionFilter) ([]models.SubmissionDataRow, error) {
	return s.rows, nil
}

func exportRouter(formH *FormHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/forms/{formId}/export", formH.Export)
	return r
}

func exportRequest(target string, user *models.CurrentUser) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != nil {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, user))
	}
	return req
}

func exportReader() *models.CurrentUser {
	return &models.CurrentUser{
		ID: "user-1",
		Forms: []models.FormAccess{
			{FormID: "form-1", Permissions: []string{models.PermSubmissionRead}},
		},
	}
}

func newExportHandler(rows []models.SubmissionDataRow) *FormHandler {
	forms := &exportFormStore{
		form: &models.Form{ID: "form-1", Name: "Camp Registration"},
		schema: []byte(`{"components": [
			{"key": "camper", "type": "textfield", "input": true}
		]}`),
	}
	exportSvc := service.NewExportService(forms, &exportSubmissionStore{rows: rows})
	return NewFormHandler(nil, exportSvc)
}

func TestExportEndpoint_CSV(t *testing.T) {
	h := newExportHandler([]models.SubmissionDataRow{
		{
			Metadata:   map[string]any{"confirmationId": "ABC12345"},
			Submission: map[string]any{"camper": "Ada"},
		},
	})

	rec := httptest.NewRecorder()
	exportRouter(h).ServeHTTP(rec, exportRequest("/forms/form-1/export?format=csv", exportReader()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="camp_registration_submissions.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "form.confirmationId,"))
	assert.Contains(t, rec.Body.String(), "ABC12345")
}

func TestExportEndpoint_JSON(t *testing.T) {
	h := newExportHandler(nil)

	rec := httptest.NewRecorder()
	exportRouter(h).ServeHTTP(rec, exportRequest("/forms/form-1/export?format=json", exportReader()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestExportEndpoint_PermissionDenied(t *testing.T) {
	h := newExportHandler(nil)

	noPerms := &models.CurrentUser{ID: "user-2"}
	rec := httptest.NewRecorder()
	exportRouter(h).ServeHTTP(rec, exportRequest("/forms/form-1/export", noPerms))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportEndpoint_BadDate(t *testing.T) {
	h := newExportHandler(nil)

	rec := httptest.NewRecorder()
	exportRouter(h).ServeHTTP(rec, exportRequest("/forms/form-1/export?minDate=yesterday", exportReader()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "minDate")
}

func TestExportParamsFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/export?type=submissions&format=json&deleted=true&drafts=false"+
			"&columns=confirmationId&columns=submission"+
			"&minDate=2024-01-01T00:00:00Z&maxDate=2024-06-30T00:00:00Z", nil)

	params, err := exportParamsFromQuery(req)
	require.NoError(t, err)

	assert.Equal(t, "submissions", params.Type)
	assert.Equal(t, "json", params.Format)
	assert.True(t, params.Deleted)
	assert.False(t, params.Drafts)
	assert.Equal(t, []string{"confirmationId", "submission"}, params.Columns)
	require.NotNil(t, params.MinDate)
	require.NotNil(t, params.MaxDate)
	assert.Equal(t, 2024, params.MinDate.Year())
}
