package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/loneil/common-hosted-form-service/internal/auth"
	"github.com/loneil/common-hosted-form-service/internal/handler"
	mw "github.com/loneil/common-hosted-form-service/internal/middleware"
	"github.com/loneil/common-hosted-form-service/internal/models"
)

func New(
	jwtSecret string,
	loader auth.AccessLoader,
	keys auth.APIKeyValidator,
	userH *handler.UserHandler,
	formH *handler.FormHandler,
	subH *handler.SubmissionHandler,
	permH *handler.PermissionHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret, loader, keys))

			// Current user
			r.Get("/users/me", userH.Me)

			// Forms
			r.Get("/forms", formH.List)
			r.Post("/forms", formH.Create)

			r.Route("/forms/{formId}", func(r chi.Router) {
				r.With(auth.RequireFormPermissions(models.PermFormRead)).
					Get("/", formH.Get)
				r.With(auth.RequireFormPermissions(models.PermFormUpdate)).
					Put("/", formH.Update)
				r.With(auth.RequireFormPermissions(models.PermFormDelete)).
					Delete("/", formH.Delete)

				// Export runs its own submission_read gate in the service,
				// on top of the route-level form_read guard.
				r.With(auth.RequireFormPermissions(models.PermFormRead)).
					Get("/export", formH.Export)

				r.With(auth.RequireFormPermissions(models.PermFormRead)).
					Get("/statusCodes", formH.StatusCodes)

				r.With(auth.RequireFormPermissions(models.PermFormUpdate)).
					Post("/apiKey", formH.CreateAPIKey)

				// Published and historical versions
				r.With(auth.RequireFormPermissions(models.PermFormRead)).
					Get("/versions", formH.ListVersions)
				r.With(auth.RequireFormPermissions(models.PermFormRead)).
					Get("/versions/published", formH.GetPublished)
				r.With(auth.RequireFormPermissions(models.PermFormRead)).
					Get("/versions/{formVersionId}", formH.GetVersion)

				// Design drafts
				r.With(auth.RequireFormPermissions(models.PermDesignRead)).
					Get("/drafts", formH.ListDrafts)
				r.With(auth.RequireFormPermissions(models.PermDesignCreate)).
					Post("/drafts", formH.CreateDraft)
				r.With(auth.RequireFormPermissions(models.PermDesignRead)).
					Get("/drafts/{formVersionDraftId}", formH.GetDraft)
				r.With(auth.RequireFormPermissions(models.PermDesignUpdate)).
					Put("/drafts/{formVersionDraftId}", formH.UpdateDraft)
				r.With(auth.RequireFormPermissions(models.PermDesignDelete)).
					Delete("/drafts/{formVersionDraftId}", formH.DeleteDraft)
				r.With(auth.RequireFormPermissions(models.PermDesignCreate)).
					Post("/drafts/{formVersionDraftId}/publish", formH.PublishDraft)

				// Submissions
				r.With(auth.RequireFormPermissions(models.PermSubmissionRead)).
					Get("/submissions", subH.List)
				r.With(auth.RequireFormPermissions(models.PermSubmissionCreate)).
					Post("/submissions", subH.Create)
				r.With(auth.RequireFormPermissions(models.PermSubmissionRead)).
					Get("/submissions/{formSubmissionId}", subH.Get)
			})

			// Permission administration
			r.Get("/permissions", permH.List)
			r.Post("/permissions", permH.Create)
			r.Get("/permissions/{code}", permH.Get)
			r.Put("/permissions/{code}", permH.Update)
		})
	})

	return r
}
