package router

import (
	"encoding/json"
	"net/http"
	"strings"

	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/service"
)

// withCORS adds CORS headers to every response and answers preflight requests
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Cart-Session")
		h.Set("Access-Control-Expose-Headers", "X-Cart-Session")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Unauthorized", Details: details})
}

// requireAdmin rejects requests without a valid admin bearer token
func requireAdmin(auth *service.AuthService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			logging.L().Warnf("❌ %s %s: missing bearer token", r.Method, r.URL.Path)
			unauthorized(w, "missing bearer token")
			return
		}
		if _, err := auth.Validate(token); err != nil {
			logging.L().Warnf("❌ %s %s: %v", r.Method, r.URL.Path, err)
			unauthorized(w, "invalid or expired token")
			return
		}
		next(w, r)
	}
}
