package models

import "time"

// FormSubmission is one persisted response against a published form version.
// Submission holds the raw content document (jsonb); its key order is not
// preserved by the database, which is why exports derive column order from
// the design document instead.
type FormSubmission struct {
	ID             string         `db:"id" json:"id"`
	FormVersionID  string         `db:"formVersionId" json:"formVersionId"`
	ConfirmationID string         `db:"confirmationId" json:"confirmationId"`
	Draft          bool           `db:"draft" json:"draft"`
	Deleted        bool           `db:"deleted" json:"deleted"`
	Submission     map[string]any `db:"-" json:"submission"`
	CreatedBy      string         `db:"createdBy" json:"createdBy"`
	CreatedAt      time.Time      `db:"createdAt" json:"createdAt"`
	UpdatedBy      string         `db:"updatedBy" json:"updatedBy,omitempty"`
	UpdatedAt      time.Time      `db:"updatedAt" json:"updatedAt"`
}

// SubmissionDataRow is one row of the denormalized export view
// (submissions_data_vw): the projected metadata columns plus the submission
// content document. Metadata holds exactly the columns the caller projected,
// minus "submission", which is split out.
type SubmissionDataRow struct {
	Metadata   map[string]any
	Submission map[string]any
}

// ExportParams are the caller-supplied knobs on an export request.
type ExportParams struct {
	Type    string
	Format  string
	MinDate *time.Time
	MaxDate *time.Time
	Deleted bool
	Drafts  bool
	Columns []string
}

// SubmissionFilter narrows a submission query. Zero value means: non-deleted,
// non-draft, no date bounds.
type SubmissionFilter struct {
	MinDate *time.Time
	MaxDate *time.Time
	Deleted bool
	Drafts  bool
}

// Export is the finished artifact handed back to the HTTP layer: an opaque
// payload plus the transport headers to write with it.
type Export struct {
	Data    any
	Headers map[string]string
}
