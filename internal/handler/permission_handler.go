package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loneil/common-hosted-form-service/internal/auth"
	"github.com/loneil/common-hosted-form-service/internal/service"
)

type PermissionHandler struct {
	svc *service.PermissionService
}

func NewPermissionHandler(svc *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{svc: svc}
}

func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	perms, err := h.svc.List(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

func (h *PermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.PermissionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	perm, err := h.svc.Create(r.Context(), req, auth.GetUser(r.Context()))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, perm)
}

func (h *PermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	perm, err := h.svc.Read(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perm)
}

func (h *PermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.PermissionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	perm, err := h.svc.Update(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perm)
}
