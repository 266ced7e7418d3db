package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loneil/common-hosted-form-service/internal/auth"
	"github.com/loneil/common-hosted-form-service/internal/models"
	"github.com/loneil/common-hosted-form-service/internal/service"
)

type SubmissionHandler struct {
	subSvc *service.SubmissionService
}

func NewSubmissionHandler(subSvc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{subSvc: subSvc}
}

func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	q := r.URL.Query()

	filter := models.SubmissionFilter{
		Deleted: q.Get("deleted") == "true",
		Drafts:  q.Get("drafts") == "true",
	}
	if v := q.Get("minDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.MinDate = &t
		}
	}
	if v := q.Get("maxDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.MaxDate = &t
		}
	}

	subs, err := h.subSvc.ListForForm(r.Context(), formID, filter)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	var req struct {
		Data  map[string]any `json:"data"`
		Draft bool           `json:"draft"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := h.subSvc.Create(r.Context(), formID, req.Data, req.Draft, auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subSvc.Read(r.Context(), chi.URLParam(r, "formSubmissionId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
