package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"boulangerie/logging"
	"boulangerie/models"
)

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.L().Errorf("❌ Error encoding response: %v", err)
	}
}

// writeError replies with {"error": message, "details": err}
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := models.ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, handler string) {
	logging.L().Warnf("❌ %s: Method not allowed: %s", handler, r.Method)
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

// pathID returns the first path segment after prefix
func pathID(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	id, _, _ := strings.Cut(rest, "/")
	return strings.TrimSpace(id)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
