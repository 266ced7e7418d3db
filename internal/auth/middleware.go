package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/loneil/common-hosted-form-service/internal/models"
)

type contextKey string

const UserContextKey contextKey = "currentUser"

// AccessLoader resolves validated token claims into a CurrentUser carrying
// the per-form permission sets.
type AccessLoader interface {
	CurrentUser(ctx context.Context, claims *Claims) (*models.CurrentUser, error)
}

// APIKeyValidator checks a form API-key secret presented over Basic auth.
type APIKeyValidator interface {
	ValidateAPIKey(ctx context.Context, formID, secret string) (bool, error)
}

// apiKeyPermissions is the grant set a valid API key confers on its form.
var apiKeyPermissions = []string{
	models.PermFormRead,
	models.PermSubmissionCreate,
	models.PermSubmissionRead,
}

// Middleware authenticates the request and stores the resolved CurrentUser
// in the context. Two credential shapes are accepted: a bearer token from
// the identity provider, or Basic auth with form id and API-key secret.
func Middleware(secret string, loader AccessLoader, keys APIKeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			switch {
			case strings.HasPrefix(header, "Bearer "):
				tokenStr := strings.TrimPrefix(header, "Bearer ")
				claims, err := ValidateToken(secret, tokenStr)
				if err != nil {
					http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
					return
				}
				user, err := loader.CurrentUser(r.Context(), claims)
				if err != nil {
					http.Error(w, `{"error":"could not resolve user access"}`, http.StatusUnauthorized)
					return
				}
				ctx := context.WithValue(r.Context(), UserContextKey, user)
				next.ServeHTTP(w, r.WithContext(ctx))

			case strings.HasPrefix(header, "Basic "):
				formID, keySecret, ok := r.BasicAuth()
				if !ok || keys == nil {
					http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
					return
				}
				valid, err := keys.ValidateAPIKey(r.Context(), formID, keySecret)
				if err != nil || !valid {
					http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
					return
				}
				user := &models.CurrentUser{
					ID:       "apikey:" + formID,
					Username: "api-key",
					Forms: []models.FormAccess{
						{FormID: formID, Permissions: apiKeyPermissions},
					},
				}
				ctx := context.WithValue(r.Context(), UserContextKey, user)
				next.ServeHTTP(w, r.WithContext(ctx))

			default:
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			}
		})
	}
}

// RequireFormPermissions guards a /forms/{formId}/... route: every listed
// permission must be held on the form or the request ends with 401.
func RequireFormPermissions(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			formID := chi.URLParam(r, "formId")
			access := user.FormAccessFor(formID)
			if access == nil {
				http.Error(w, `{"error":"no access to this form"}`, http.StatusUnauthorized)
				return
			}
			for _, p := range perms {
				if !access.HasPermission(p) {
					http.Error(w, `{"error":"missing required permission"}`, http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUser(ctx context.Context) *models.CurrentUser {
	user, _ := ctx.Value(UserContextKey).(*models.CurrentUser)
	return user
}
