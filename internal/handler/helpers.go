package handler

import (
	"encoding/json"
	"net/http"

	"github.com/loneil/common-hosted-form-service/internal/fault"
)

func readJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFault maps a service error onto its HTTP status via the fault kind.
func writeFault(w http.ResponseWriter, err error) {
	writeError(w, fault.HTTPStatus(err), err.Error())
}
