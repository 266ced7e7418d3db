package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loneil/common-hosted-form-service/internal/models"
)

var exportColumns = []string{"confirmationId", "createdAt", "submission"}

func TestBuildExportQuery_Defaults(t *testing.T) {
	query, args, err := buildExportQuery("form-1", exportColumns, models.SubmissionFilter{})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "confirmationId", "createdAt", "submission" FROM submissions_data_vw WHERE "formId" = $1 AND deleted = false AND draft = false ORDER BY "createdAt" DESC`,
		query)
	assert.Equal(t, []any{"form-1"}, args)
}

func TestBuildExportQuery_DateRange(t *testing.T) {
	min := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	max := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	query, args, err := buildExportQuery("form-1", exportColumns,
		models.SubmissionFilter{MinDate: &min, MaxDate: &max})
	require.NoError(t, err)

	assert.Contains(t, query, `"createdAt" BETWEEN $2 AND $3`)
	assert.Equal(t, []any{"form-1", min, max}, args)
}

func TestBuildExportQuery_OpenEndedRanges(t *testing.T) {
	min := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := buildExportQuery("form-1", exportColumns,
		models.SubmissionFilter{MinDate: &min})
	require.NoError(t, err)
	assert.Contains(t, query, `"createdAt" >= $2`)
	assert.NotContains(t, query, "BETWEEN")
	assert.Len(t, args, 2)

	query, args, err = buildExportQuery("form-1", exportColumns,
		models.SubmissionFilter{MaxDate: &min})
	require.NoError(t, err)
	assert.Contains(t, query, `"createdAt" <= $2`)
	assert.Len(t, args, 2)
}

func TestBuildExportQuery_DeletedAndDraftFlags(t *testing.T) {
	query, _, err := buildExportQuery("form-1", exportColumns,
		models.SubmissionFilter{Deleted: true, Drafts: true})
	require.NoError(t, err)
	assert.NotContains(t, query, "deleted = false")
	assert.NotContains(t, query, "draft = false")
	assert.Contains(t, query, `ORDER BY "createdAt" DESC`)
}

func TestBuildExportQuery_RejectsBadIdentifier(t *testing.T) {
	_, _, err := buildExportQuery("form-1", []string{`x"; DROP TABLE form; --`}, models.SubmissionFilter{})
	require.Error(t, err)
}

func TestToExportRow_SplitsSubmissionContent(t *testing.T) {
	row, err := toExportRow(map[string]any{
		"confirmationId": []byte("ABC12345"),
		"version":        int64(3),
		"submission":     []byte(`{"firstName":"Ada"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "ABC12345", row.Metadata["confirmationId"])
	assert.Equal(t, int64(3), row.Metadata["version"])
	assert.NotContains(t, row.Metadata, "submission")
	assert.Equal(t, "Ada", row.Submission["firstName"])
}

func TestToExportRow_NilContent(t *testing.T) {
	row, err := toExportRow(map[string]any{
		"confirmationId": []byte("ABC12345"),
		"submission":     nil,
	})
	require.NoError(t, err)
	assert.NotNil(t, row.Submission)
	assert.Empty(t, row.Submission)
}

func TestQuoteIdent(t *testing.T) {
	q, err := quoteIdent("confirmationId")
	require.NoError(t, err)
	assert.Equal(t, `"confirmationId"`, q)

	_, err = quoteIdent("has space")
	assert.Error(t, err)
	_, err = quoteIdent("")
	assert.Error(t, err)
}
