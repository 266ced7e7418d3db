package models

// FormAccess is the per-form slice of a user's grant set.
type FormAccess struct {
	FormID      string   `json:"formId"`
	FormName    string   `json:"formName"`
	Permissions []string `json:"permissions"`
}

// CurrentUser is the requesting principal, resolved from the bearer token
// (or an API key) plus the access view. Forms lists every form the user can
// touch together with the permission codes held on it.
type CurrentUser struct {
	ID       string       `json:"id"`
	Username string       `json:"username"`
	FullName string       `json:"fullName"`
	Email    string       `json:"email"`
	Forms    []FormAccess `json:"forms"`
}

// FormAccessFor returns the access entry for formID, or nil when the form is
// not in the user's accessible set.
func (u *CurrentUser) FormAccessFor(formID string) *FormAccess {
	for i := range u.Forms {
		if u.Forms[i].FormID == formID {
			return &u.Forms[i]
		}
	}
	return nil
}

// HasPermission reports whether access carries the permission code.
func (a *FormAccess) HasPermission(code string) bool {
	for _, p := range a.Permissions {
		if p == code {
			return true
		}
	}
	return false
}
