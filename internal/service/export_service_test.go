package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loneil/common-hosted-form-service/internal/fault"
	"github.com/loneil/common-hosted-form-service/internal/models"
)

type fakeFormStore struct {
	form   *models.Form
	schema []byte
	err    error
}

func (f *fakeFormStore) GetForm(ctx context.Context, id string) (*models.Form, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.form, nil
}

func (f *fakeFormStore) LatestSchema(ctx context.Context, formID string) ([]byte, error) {
	return f.schema, nil
}

type fakeSubmissionStore struct {
	rows       []models.SubmissionDataRow
	gotColumns []string
	gotFilter  models.SubmissionFilter
}

func (f *fakeSubmissionStore) ExportRows(ctx context.Context, formID string, columns []string, filter models.SubmissionFilter) ([]models.SubmissionDataRow, error) {
	f.gotColumns = columns
	f.gotFilter = filter
	return f.rows, nil
}

func userWithPermissions(formID string, perms ...string) *models.CurrentUser {
	return &models.CurrentUser{
		ID:       "user-1",
		Username: "tester",
		Forms: []models.FormAccess{
			{FormID: formID, Permissions: perms},
		},
	}
}

func testForm() *models.Form {
	return &models.Form{ID: "form-1", Name: "Volunteer Signup"}
}

const flatSchema = `{
	"display": "form",
	"components": [
		{"key": "firstName", "type": "textfield", "input": true},
		{"key": "lastName", "type": "textfield", "input": true}
	]
}`

func TestReadSchemaFields_FlatInputs(t *testing.T) {
	var root models.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(flatSchema), &root))

	fields := readSchemaFields(&root)
	assert.Equal(t, []string{"firstName", "lastName"}, fields)
}

func TestReadSchemaFields_SkipsHiddenAndNonInput(t *testing.T) {
	schema := `{
		"components": [
			{"key": "visible", "type": "textfield", "input": true},
			{"key": "secret", "type": "textfield", "input": true, "hidden": true},
			{"key": "layoutOnly", "type": "content", "input": false}
		]
	}`
	var root models.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(schema), &root))

	assert.Equal(t, []string{"visible"}, readSchemaFields(&root))
}

func TestReadSchemaFields_CheckboxExpandsValues(t *testing.T) {
	schema := `{
		"components": [
			{
				"key": "toppings",
				"type": "selectboxes-checkbox",
				"input": true,
				"values": [
					{"label": "Cheese", "value": "cheese"},
					{"label": "Olives", "value": "olives"}
				]
			},
			{"key": "after", "type": "textfield", "input": true}
		]
	}`
	var root models.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(schema), &root))

	assert.Equal(t,
		[]string{"toppings", "toppings.cheese", "toppings.olives", "after"},
		readSchemaFields(&root))
}

func TestReadSchemaFields_DatagridPrefixesChildren(t *testing.T) {
	schema := `{
		"components": [
			{
				"key": "contacts",
				"type": "datagrid",
				"input": true,
				"components": [
					{"key": "name", "type": "textfield", "input": true},
					{"key": "phone", "type": "textfield", "input": true}
				]
			}
		]
	}`
	var root models.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(schema), &root))

	assert.Equal(t,
		[]string{"contacts", "contacts.name", "contacts.phone"},
		readSchemaFields(&root))
}

func TestReadSchemaFields_ContainerChildrenFlatten(t *testing.T) {
	schema := `{
		"components": [
			{
				"type": "panel",
				"input": false,
				"components": [
					{"key": "inner", "type": "textfield", "input": true}
				]
			},
			{
				"key": "section",
				"type": "fieldset",
				"input": false,
				"components": [
					{"key": "name", "type": "textfield", "input": true}
				]
			}
		]
	}`
	var root models.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(schema), &root))

	// children of non-repeating containers flatten into the parent namespace
	assert.Equal(t, []string{"inner", "name"}, readSchemaFields(&root))
}

func TestReadSchemaFields_ColumnsRowsVisitedInOrder(t *testing.T) {
	schema := `{
		"components": [
			{
				"type": "columns",
				"input": false,
				"columns": [
					{"components": [{"key": "left", "type": "textfield", "input": true}]},
					{"components": [{"key": "right", "type": "textfield", "input": true}]}
				]
			}
		]
	}`
	var root models.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(schema), &root))

	assert.Equal(t, []string{"left", "right"}, readSchemaFields(&root))
}

func TestSubmissionsColumns_Defaults(t *testing.T) {
	form := testForm()
	cols := submissionsColumns(form, models.ExportParams{})
	assert.Equal(t, []string{
		"confirmationId", "formName", "version", "createdAt",
		"fullName", "username", "email", "submission",
	}, cols)
}

func TestSubmissionsColumns_StatusEnabled(t *testing.T) {
	form := testForm()
	form.EnableStatusUpdates = true
	cols := submissionsColumns(form, models.ExportParams{})
	assert.Equal(t, []string{
		"confirmationId", "formName", "version", "createdAt",
		"fullName", "username", "email",
		"status", "assignee", "assigneeEmail", "submission",
	}, cols)
}

func TestSubmissionsColumns_OverrideWinsVerbatim(t *testing.T) {
	form := testForm()
	form.EnableStatusUpdates = true
	cols := submissionsColumns(form, models.ExportParams{Columns: []string{"confirmationId", "submission"}})
	assert.Equal(t, []string{"confirmationId", "submission"}, cols)
}

func TestResolveDefaults(t *testing.T) {
	assert.Equal(t, ExportTypeSubmissions, resolveExportType(models.ExportParams{}))
	assert.Equal(t, ExportTypeSubmissions, resolveExportType(models.ExportParams{Type: "documents"}))
	assert.Equal(t, ExportFormatCSV, resolveExportFormat(models.ExportParams{}))
	assert.Equal(t, ExportFormatJSON, resolveExportFormat(models.ExportParams{Format: "json"}))
	assert.Equal(t, ExportFormatCSV, resolveExportFormat(models.ExportParams{Format: "xml"}))
}

func TestExportFilename(t *testing.T) {
	form := &models.Form{Name: "Fishing Licence (2024)"}
	name := exportFilename(form, ExportTypeSubmissions, ExportFormatCSV)
	assert.Equal(t, "fishing_licence_2024_submissions.csv", name)
}

func TestExport_FormNotFound(t *testing.T) {
	svc := NewExportService(&fakeFormStore{err: fault.ErrNotFound}, &fakeSubmissionStore{})
	_, err := svc.Export(context.Background(), "nope", models.ExportParams{}, userWithPermissions("nope", models.PermSubmissionRead))
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))
}

func TestExport_PermissionDenied(t *testing.T) {
	forms := &fakeFormStore{form: testForm(), schema: []byte(flatSchema)}
	subs := &fakeSubmissionStore{}
	svc := NewExportService(forms, subs)

	cases := map[string]*models.CurrentUser{
		"nil user":         nil,
		"no form access":   userWithPermissions("other-form", models.PermSubmissionRead),
		"wrong permission": userWithPermissions("form-1", models.PermFormRead),
	}
	for name, user := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Export(context.Background(), "form-1", models.ExportParams{}, user)
			require.Error(t, err)
			assert.True(t, fault.IsUnauthorized(err))
			// denial happens before any data is read
			assert.Nil(t, subs.gotColumns)
		})
	}
}

func TestExport_JSONReshapesRecords(t *testing.T) {
	forms := &fakeFormStore{form: testForm(), schema: []byte(flatSchema)}
	subs := &fakeSubmissionStore{rows: []models.SubmissionDataRow{
		{
			Metadata:   map[string]any{"confirmationId": "ABC12345", "formName": "Volunteer Signup"},
			Submission: map[string]any{"firstName": "Ada", "lastName": "Lovelace"},
		},
	}}
	svc := NewExportService(forms, subs)

	export, err := svc.Export(context.Background(), "form-1",
		models.ExportParams{Format: "json"},
		userWithPermissions("form-1", models.PermSubmissionRead))
	require.NoError(t, err)

	records, ok := export.Data.([]map[string]any)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "Ada", records[0]["firstName"])
	meta, ok := records[0]["form"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ABC12345", meta["confirmationId"])

	assert.Equal(t, "text/json", export.Headers["content-type"])
	assert.Equal(t, `attachment; filename="volunteer_signup_submissions.json"`, export.Headers["content-disposition"])
}

func TestReshapeRecords_ContentFormKeyWins(t *testing.T) {
	rows := []models.SubmissionDataRow{
		{
			Metadata:   map[string]any{"confirmationId": "X"},
			Submission: map[string]any{"form": "a field literally named form"},
		},
	}
	records := reshapeRecords(rows)
	require.Len(t, records, 1)
	assert.Equal(t, "a field literally named form", records[0]["form"])
}

func TestExport_CSVHeadersAndRows(t *testing.T) {
	forms := &fakeFormStore{form: testForm(), schema: []byte(flatSchema)}
	created := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
	subs := &fakeSubmissionStore{rows: []models.SubmissionDataRow{
		{
			Metadata: map[string]any{
				"confirmationId": "ABC12345",
				"formName":       "Volunteer Signup",
				"version":        float64(2),
				"createdAt":      created,
				"fullName":       "Ada Lovelace",
				"username":       "alovelace",
				"email":          "ada@example.com",
			},
			Submission: map[string]any{"firstName": "Ada", "lastName": "Lovelace"},
		},
	}}
	svc := NewExportService(forms, subs)

	export, err := svc.Export(context.Background(), "form-1",
		models.ExportParams{Format: "csv"},
		userWithPermissions("form-1", models.PermSubmissionRead))
	require.NoError(t, err)

	csvText, ok := export.Data.(string)
	require.True(t, ok)
	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t,
		"form.confirmationId,form.formName,form.version,form.createdAt,form.fullName,form.username,form.email,firstName,lastName",
		lines[0])
	assert.Equal(t,
		"ABC12345,Volunteer Signup,2,2024-03-09T10:30:00Z,Ada Lovelace,alovelace,ada@example.com,Ada,Lovelace",
		lines[1])

	assert.Equal(t, "text/csv", export.Headers["content-type"])
	assert.Equal(t, `attachment; filename="volunteer_signup_submissions.csv"`, export.Headers["content-disposition"])
}

func TestExport_CSVZeroRowsStillHasHeader(t *testing.T) {
	forms := &fakeFormStore{form: testForm(), schema: []byte(flatSchema)}
	subs := &fakeSubmissionStore{}
	svc := NewExportService(forms, subs)

	export, err := svc.Export(context.Background(), "form-1",
		models.ExportParams{},
		userWithPermissions("form-1", models.PermSubmissionRead))
	require.NoError(t, err)

	csvText, ok := export.Data.(string)
	require.True(t, ok)
	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "form.confirmationId,"))
	assert.True(t, strings.HasSuffix(lines[0], "firstName,lastName"))
}

func TestExport_FiltersPassedThrough(t *testing.T) {
	forms := &fakeFormStore{form: testForm(), schema: []byte(flatSchema)}
	subs := &fakeSubmissionStore{}
	svc := NewExportService(forms, subs)

	min := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	max := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	_, err := svc.Export(context.Background(), "form-1",
		models.ExportParams{MinDate: &min, MaxDate: &max, Deleted: true, Drafts: true},
		userWithPermissions("form-1", models.PermSubmissionRead))
	require.NoError(t, err)

	assert.Equal(t, &min, subs.gotFilter.MinDate)
	assert.Equal(t, &max, subs.gotFilter.MaxDate)
	assert.True(t, subs.gotFilter.Deleted)
	assert.True(t, subs.gotFilter.Drafts)
}

func TestRenderCSV_GapsAndRepeatingGroups(t *testing.T) {
	headers := []string{"contacts", "contacts.name", "note"}
	records := []map[string]any{
		{
			"contacts": []any{
				map[string]any{"name": "Ada"},
				map[string]any{"name": "Grace"},
			},
		},
	}
	out, err := renderCSV(headers, records)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "contacts,contacts.name,note", lines[0])
	assert.Equal(t, ",Ada; Grace,", lines[1])
}

func TestStringifyCell(t *testing.T) {
	assert.Equal(t, "true", stringifyCell(true))
	assert.Equal(t, "42", stringifyCell(float64(42)))
	assert.Equal(t, "3.14", stringifyCell(3.14))
	assert.Equal(t, "7", stringifyCell(7))
	assert.Equal(t, "hello", stringifyCell("hello"))
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-01T08:00:00Z", stringifyCell(ts))
}

func TestFormatData_InvalidCombination(t *testing.T) {
	svc := NewExportService(&fakeFormStore{form: testForm()}, &fakeSubmissionStore{})
	_, err := svc.formatData(context.Background(), ExportFormat("xml"), ExportType("documents"), testForm(), models.ExportParams{}, nil)
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
}
