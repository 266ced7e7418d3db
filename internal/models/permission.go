package models

import "time"

// Permission codes. These are the capability names stored on role grants and
// checked by the access middleware and the export pipeline.
const (
	PermFormRead   = "form_read"
	PermFormUpdate = "form_update"
	PermFormDelete = "form_delete"

	PermSubmissionCreate = "submission_create"
	PermSubmissionRead   = "submission_read"
	PermSubmissionUpdate = "submission_update"
	PermSubmissionDelete = "submission_delete"

	PermDesignCreate = "design_create"
	PermDesignRead   = "design_read"
	PermDesignUpdate = "design_update"
	PermDesignDelete = "design_delete"

	PermTeamRead   = "team_read"
	PermTeamUpdate = "team_update"
)

// Permission is one capability code, optionally expanded with the roles that
// grant it.
type Permission struct {
	Code        string    `db:"code" json:"code"`
	Display     string    `db:"display" json:"display"`
	Description string    `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedBy   string    `db:"createdBy" json:"createdBy,omitempty"`
	CreatedAt   time.Time `db:"createdAt" json:"createdAt"`
	Roles       []Role    `db:"-" json:"roles,omitempty"`
}

// Role is a named bundle of permissions assignable to a user on a form.
type Role struct {
	Code        string    `db:"code" json:"code"`
	Display     string    `db:"display" json:"display"`
	Description string    `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"createdAt" json:"createdAt"`
}
