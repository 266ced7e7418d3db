package models

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Form is the design-time container: versions hang off it, submissions hang
// off versions.
type Form struct {
	ID                   string         `db:"id" json:"id"`
	Name                 string         `db:"name" json:"name"`
	Description          string         `db:"description" json:"description,omitempty"`
	Active               bool           `db:"active" json:"active"`
	Labels               pq.StringArray `db:"labels" json:"labels,omitempty"`
	EnableStatusUpdates  bool           `db:"enableStatusUpdates" json:"enableStatusUpdates"`
	EnableSubmitterDraft bool           `db:"enableSubmitterDraft" json:"enableSubmitterDraft"`
	CreatedBy            string         `db:"createdBy" json:"createdBy"`
	CreatedAt            time.Time      `db:"createdAt" json:"createdAt"`
	UpdatedBy            string         `db:"updatedBy" json:"updatedBy,omitempty"`
	UpdatedAt            time.Time      `db:"updatedAt" json:"updatedAt"`
}

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// Snake returns the form name as a snake_case slug, used for export
// filenames.
func (f *Form) Snake() string {
	slug := strings.ToLower(strings.TrimSpace(f.Name))
	slug = nonAlphaNum.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "form"
	}
	return slug
}

// FormVersion is one published design of a form. The Schema column is the
// raw design document (jsonb); it is only parsed into a SchemaNode tree when
// something needs to walk it.
type FormVersion struct {
	ID        string          `db:"id" json:"id"`
	FormID    string          `db:"formId" json:"formId"`
	Version   int             `db:"version" json:"version"`
	Schema    json.RawMessage `db:"schema" json:"schema"`
	Published bool            `db:"published" json:"published"`
	CreatedBy string          `db:"createdBy" json:"createdBy"`
	CreatedAt time.Time       `db:"createdAt" json:"createdAt"`
}

// FormVersionDraft is a design in progress, mutable until published.
type FormVersionDraft struct {
	ID            string          `db:"id" json:"id"`
	FormID        string          `db:"formId" json:"formId"`
	FormVersionID *string         `db:"formVersionId" json:"formVersionId,omitempty"`
	Schema        json.RawMessage `db:"schema" json:"schema"`
	CreatedBy     string          `db:"createdBy" json:"createdBy"`
	CreatedAt     time.Time       `db:"createdAt" json:"createdAt"`
	UpdatedBy     string          `db:"updatedBy" json:"updatedBy,omitempty"`
	UpdatedAt     time.Time       `db:"updatedAt" json:"updatedAt"`
}

// FormAPIKey grants programmatic access to a single form. Only the bcrypt
// hash of the secret is stored.
type FormAPIKey struct {
	ID        string    `db:"id" json:"id"`
	FormID    string    `db:"formId" json:"formId"`
	Secret    string    `db:"secret" json:"-"`
	CreatedBy string    `db:"createdBy" json:"createdBy"`
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
}

// StatusCode is one state a submission can be moved through when the form
// has status updates enabled.
type StatusCode struct {
	Code      string         `db:"code" json:"code"`
	Display   string         `db:"display" json:"display"`
	NextCodes pq.StringArray `db:"nextCodes" json:"nextCodes,omitempty"`
}
