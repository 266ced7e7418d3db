package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loneil/common-hosted-form-service/internal/auth"
	"github.com/loneil/common-hosted-form-service/internal/models"
	"github.com/loneil/common-hosted-form-service/internal/service"
)

type FormHandler struct {
	formSvc   *service.FormService
	exportSvc *service.ExportService
}

func NewFormHandler(formSvc *service.FormService, exportSvc *service.ExportService) *FormHandler {
	return &FormHandler{formSvc: formSvc, exportSvc: exportSvc}
}

func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	forms, err := h.formSvc.List(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.FormRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	form, err := h.formSvc.Create(r.Context(), req, auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	form, err := h.formSvc.Read(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.FormRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	form, err := h.formSvc.Update(r.Context(), chi.URLParam(r, "formId"), req, auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	if err := h.formSvc.Delete(r.Context(), id, auth.GetUser(r.Context())); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// Export streams the form's submissions in the requested format. The
// response headers come from the export service, not from here.
func (h *FormHandler) Export(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	params, err := exportParamsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	export, err := h.exportSvc.Export(r.Context(), formID, params, auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}

	for k, v := range export.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(http.StatusOK)
	switch data := export.Data.(type) {
	case string:
		fmt.Fprint(w, data)
	default:
		json.NewEncoder(w).Encode(data)
	}
}

func exportParamsFromQuery(r *http.Request) (models.ExportParams, error) {
	q := r.URL.Query()
	params := models.ExportParams{
		Type:    q.Get("type"),
		Format:  q.Get("format"),
		Deleted: q.Get("deleted") == "true",
		Drafts:  q.Get("drafts") == "true",
	}
	if cols, ok := q["columns"]; ok {
		params.Columns = cols
	}
	for name, dst := range map[string]**time.Time{"minDate": &params.MinDate, "maxDate": &params.MaxDate} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return params, fmt.Errorf("invalid %s, expected RFC3339 timestamp", name)
			}
			*dst = &t
		}
	}
	return params, nil
}

func (h *FormHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.formSvc.ListVersions(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *FormHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.formSvc.ReadVersion(r.Context(), chi.URLParam(r, "formVersionId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// GetPublished returns the currently published design, the one submitters
// render against.
func (h *FormHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	version, err := h.formSvc.ReadPublishedVersion(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (h *FormHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.formSvc.ListDrafts(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

type draftRequest struct {
	Schema json.RawMessage `json:"schema"`
}

func (h *FormHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	draft, err := h.formSvc.CreateDraft(r.Context(), chi.URLParam(r, "formId"), req.Schema, auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (h *FormHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.formSvc.ReadDraft(r.Context(), chi.URLParam(r, "formVersionDraftId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *FormHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	draft, err := h.formSvc.UpdateDraft(r.Context(), chi.URLParam(r, "formVersionDraftId"), req.Schema, auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *FormHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formVersionDraftId")
	if err := h.formSvc.DeleteDraft(r.Context(), id); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *FormHandler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	version, err := h.formSvc.PublishDraft(r.Context(),
		chi.URLParam(r, "formId"), chi.URLParam(r, "formVersionDraftId"), auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

// CreateAPIKey mints (or replaces) the form's API key. The secret appears in
// this response only; the server keeps just the hash.
func (h *FormHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	secret, err := h.formSvc.CreateAPIKey(r.Context(), formID, auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"formId": formID, "secret": secret})
}

func (h *FormHandler) StatusCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.formSvc.StatusCodes(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}
