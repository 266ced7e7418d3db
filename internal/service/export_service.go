package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loneil/common-hosted-form-service/internal/fault"
	"github.com/loneil/common-hosted-form-service/internal/models"
)

// ExportType is the kind of data being exported. Only submissions exist
// today; unrecognized values resolve to the default rather than failing so
// new types can roll out without breaking old clients.
type ExportType string

// ExportFormat is the output rendering of an export.
type ExportFormat string

const (
	ExportTypeSubmissions ExportType = "submissions"

	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

func resolveExportType(params models.ExportParams) ExportType {
	switch ExportType(params.Type) {
	case ExportTypeSubmissions:
		return ExportTypeSubmissions
	default:
		return ExportTypeSubmissions
	}
}

func resolveExportFormat(params models.ExportParams) ExportFormat {
	switch ExportFormat(params.Format) {
	case ExportFormatCSV:
		return ExportFormatCSV
	case ExportFormatJSON:
		return ExportFormatJSON
	default:
		return ExportFormatCSV
	}
}

// ExportFormStore is the slice of form storage the export pipeline reads.
type ExportFormStore interface {
	GetForm(ctx context.Context, id string) (*models.Form, error)
	LatestSchema(ctx context.Context, formID string) ([]byte, error)
}

// ExportSubmissionStore queries the denormalized submission view with a
// column projection and filters, newest first.
type ExportSubmissionStore interface {
	ExportRows(ctx context.Context, formID string, columns []string, filter models.SubmissionFilter) ([]models.SubmissionDataRow, error)
}

// ExportService turns a form's submissions into a downloadable CSV or JSON
// document.
type ExportService struct {
	forms       ExportFormStore
	submissions ExportSubmissionStore
}

func NewExportService(forms ExportFormStore, submissions ExportSubmissionStore) *ExportService {
	return &ExportService{forms: forms, submissions: submissions}
}

// Export runs the whole pipeline: resolve type and format, load the form,
// gate on permissions, fetch, reshape, render.
func (s *ExportService) Export(ctx context.Context, formID string, params models.ExportParams, currentUser *models.CurrentUser) (*models.Export, error) {
	exportType := resolveExportType(params)
	exportFormat := resolveExportFormat(params)

	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewNotFound("form "+formID+" does not exist", err)
		}
		return nil, err
	}

	data, err := s.getData(ctx, exportType, form, params, currentUser)
	if err != nil {
		return nil, err
	}

	return s.formatData(ctx, exportFormat, exportType, form, params, data)
}

func (s *ExportService) getData(ctx context.Context, exportType ExportType, form *models.Form, params models.ExportParams, currentUser *models.CurrentUser) ([]models.SubmissionDataRow, error) {
	if exportType == ExportTypeSubmissions {
		return s.getSubmissions(ctx, form, params, currentUser)
	}
	return nil, nil
}

// getSubmissions gates on the submission-read permission before touching any
// data, then queries the export view with the selected columns and filters.
func (s *ExportService) getSubmissions(ctx context.Context, form *models.Form, params models.ExportParams, currentUser *models.CurrentUser) ([]models.SubmissionDataRow, error) {
	if err := checkPermission(currentUser, form.ID, models.PermSubmissionRead, ExportTypeSubmissions); err != nil {
		return nil, err
	}
	filter := models.SubmissionFilter{
		MinDate: params.MinDate,
		MaxDate: params.MaxDate,
		Deleted: params.Deleted,
		Drafts:  params.Drafts,
	}
	return s.submissions.ExportRows(ctx, form.ID, submissionsColumns(form, params), filter)
}

// checkPermission verifies the principal holds the permission on the form.
// Failing here means no data was read.
func checkPermission(currentUser *models.CurrentUser, formID, permission string, exportType ExportType) error {
	if currentUser == nil {
		return fault.NewUnauthorized(fmt.Sprintf("current user does not have required permission(s) to export %s data for this form", exportType))
	}
	access := currentUser.FormAccessFor(formID)
	if access == nil || !access.HasPermission(permission) {
		return fault.NewUnauthorized(fmt.Sprintf("current user does not have required permission(s) to export %s data for this form", exportType))
	}
	return nil
}

// submissionsColumns picks the metadata columns for the export view query.
// An explicit caller override wins verbatim; otherwise a fixed default set,
// widened when the form tracks submission status, always ending with the
// submission content column.
func submissionsColumns(form *models.Form, params models.ExportParams) []string {
	if len(params.Columns) > 0 {
		return params.Columns
	}
	columns := []string{
		"confirmationId",
		"formName",
		"version",
		"createdAt",
		"fullName",
		"username",
		"email",
	}
	if form.EnableStatusUpdates {
		columns = append(columns, "status", "assignee", "assigneeEmail")
	}
	return append(columns, "submission")
}

// metadataColumns is the projection minus the submission content column;
// these become the "form."-prefixed CSV headers. Deriving them from the
// selection instead of the first row keeps the header row present on
// zero-row exports.
func metadataColumns(form *models.Form, params models.ExportParams) []string {
	var meta []string
	for _, col := range submissionsColumns(form, params) {
		if col != "submission" {
			meta = append(meta, col)
		}
	}
	return meta
}

// reshapeRecords inverts each row's nesting: submission content fields come
// up to the top level, all metadata drops under a "form" key. A content
// field literally named "form" wins over the metadata, matching the
// spread-over semantics of the view consumer this replaces.
func reshapeRecords(rows []models.SubmissionDataRow) []map[string]any {
	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]any, len(row.Submission)+1)
		rec["form"] = row.Metadata
		for k, v := range row.Submission {
			rec[k] = v
		}
		records = append(records, rec)
	}
	return records
}

func (s *ExportService) formatData(ctx context.Context, exportFormat ExportFormat, exportType ExportType, form *models.Form, params models.ExportParams, data []models.SubmissionDataRow) (*models.Export, error) {
	formatted := reshapeRecords(data)

	if exportType == ExportTypeSubmissions {
		switch exportFormat {
		case ExportFormatCSV:
			return s.formatSubmissionsCSV(ctx, form, params, formatted)
		case ExportFormatJSON:
			return formatSubmissionsJSON(form, formatted), nil
		}
	}
	return nil, fault.NewValidation("could not create an export for this form, invalid options provided")
}

func exportFilename(form *models.Form, exportType ExportType, exportFormat ExportFormat) string {
	return strings.ToLower(fmt.Sprintf("%s_%s.%s", form.Snake(), exportType, exportFormat))
}

func exportHeaders(form *models.Form, exportType ExportType, exportFormat ExportFormat, contentType string) map[string]string {
	return map[string]string{
		"content-disposition": fmt.Sprintf(`attachment; filename="%s"`, exportFilename(form, exportType, exportFormat)),
		"content-type":        contentType,
	}
}

func formatSubmissionsJSON(form *models.Form, formatted []map[string]any) *models.Export {
	return &models.Export{
		Data:    formatted,
		Headers: exportHeaders(form, ExportTypeSubmissions, ExportFormatJSON, "text/json"),
	}
}

// formatSubmissionsCSV renders header-reconciled CSV: metadata headers first,
// then the content field names in design order. Any failure in here is an
// internal rendering fault carrying the cause.
func (s *ExportService) formatSubmissionsCSV(ctx context.Context, form *models.Form, params models.ExportParams, formatted []map[string]any) (*models.Export, error) {
	headers, err := s.buildCSVHeaders(ctx, form, params)
	if err != nil {
		return nil, fault.NewInternal("could not make a csv export of submissions for this form", err)
	}

	out, err := renderCSV(headers, formatted)
	if err != nil {
		return nil, fault.NewInternal("could not make a csv export of submissions for this form", err)
	}

	return &models.Export{
		Data:    out,
		Headers: exportHeaders(form, ExportTypeSubmissions, ExportFormatCSV, "text/csv"),
	}, nil
}

// buildCSVHeaders concatenates the "form."-prefixed metadata headers with
// the content field names read from the latest form version. Column order
// has to come from the design document: the database does not preserve key
// order inside the stored submission content.
//
// The latest version is used even for submissions created against older
// versions; headers can drift from what an old submission actually answered.
func (s *ExportService) buildCSVHeaders(ctx context.Context, form *models.Form, params models.ExportParams) ([]string, error) {
	schema, err := s.forms.LatestSchema(ctx, form.ID)
	if err != nil {
		return nil, err
	}
	var root models.SchemaNode
	if err := json.Unmarshal(schema, &root); err != nil {
		return nil, fmt.Errorf("parse latest form schema: %w", err)
	}
	fieldNames := readSchemaFields(&root)

	meta := metadataColumns(form, params)
	headers := make([]string, 0, len(meta)+len(fieldNames))
	for _, col := range meta {
		headers = append(headers, "form."+col)
	}
	return append(headers, fieldNames...), nil
}

// readSchemaFields walks a design document depth-first and returns the
// exportable field identifiers in document order.
//
// Rules: a keyed, non-hidden input node emits its key; checkbox-family nodes
// additionally emit one <key>.<value> per declared option right after the
// base key; children inside datagrid-family nodes are namespaced under the
// group's key, children of every other container flatten into the parent
// namespace. Nodes without a key still have their children visited.
//
// The schema is assumed to be a finite tree; cycles are not guarded against.
func readSchemaFields(node *models.SchemaNode) []string {
	var fields []string

	if node.Key != "" && node.Input && !node.Hidden {
		fields = append(fields, node.Key)
		if strings.Contains(node.Type, "checkbox") {
			for _, opt := range node.Values {
				fields = append(fields, node.Key+"."+opt.Value)
			}
		}
	}

	prefix := strings.Contains(node.Type, "datagrid")
	for _, group := range node.Children {
		for i := range group.Nodes {
			for _, child := range readSchemaFields(&group.Nodes[i]) {
				if prefix {
					child = node.Key + "." + child
				}
				fields = append(fields, child)
			}
		}
	}

	return fields
}

// renderCSV writes one header row plus one row per record, flattening each
// record to dot-notation paths and leaving gaps empty. The header row is
// written even when there are no records.
func renderCSV(headers []string, records []map[string]any) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, rec := range records {
		flat := map[string]string{}
		flattenInto(flat, "", rec)

		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = flat[h]
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// flattenInto collapses nested maps into dot paths. Repeated values at the
// same path (repeating groups) collect into one cell, "; " separated.
func flattenInto(dst map[string]string, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenInto(dst, key, child)
		}
	case []any:
		for _, child := range val {
			flattenInto(dst, prefix, child)
		}
	case nil:
		// leave the gap
	default:
		cell := stringifyCell(val)
		if existing, ok := dst[prefix]; ok && existing != "" {
			cell = existing + "; " + cell
		}
		dst[prefix] = cell
	}
}

func stringifyCell(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
