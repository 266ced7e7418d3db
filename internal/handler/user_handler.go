package handler

import (
	"net/http"

	"github.com/loneil/common-hosted-form-service/internal/auth"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me returns the resolved identity and per-form access of the caller.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "no authenticated user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
