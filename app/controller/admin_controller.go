package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/service"
)

// AdminController handles the admin login and back-office notifications
type AdminController struct {
	auth          *service.AuthService
	notifications *service.NotificationCenter
	catalog       *service.CatalogService
}

// NewAdminController creates a new AdminController
func NewAdminController(auth *service.AuthService, notifications *service.NotificationCenter, catalog *service.CatalogService) *AdminController {
	return &AdminController{
		auth:          auth,
		notifications: notifications,
		catalog:       catalog,
	}
}

// Login handles POST /admin/login
// Example request: {"email": "admin@boulangerie.com", "password": "..."}
func (c *AdminController) Login(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 Login: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "Login")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, expiresAt, err := c.auth.Login(req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		logging.L().Warnf("❌ Login: rejected credentials for %q", req.Email)
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err != nil {
		logging.L().Errorf("❌ Login: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in", err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, ExpiresAt: expiresAt.UTC().Format(time.RFC3339)})
}

// Notifications handles GET /admin/notifications
func (c *AdminController) Notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "Notifications")
		return
	}
	writeJSON(w, http.StatusOK, c.notifications.Summary())
}

// MarkNotificationsSeen handles POST /admin/notifications/seen
func (c *AdminController) MarkNotificationsSeen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "MarkNotificationsSeen")
		return
	}
	c.notifications.MarkSeen()
	writeJSON(w, http.StatusOK, c.notifications.Summary())
}

// RenderCatalog handles GET /admin/catalog/render
// Returns the printable price list as HTML
func (c *AdminController) RenderCatalog(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 RenderCatalog: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "RenderCatalog")
		return
	}

	html, err := c.catalog.RenderHTML(r.Context())
	if err != nil {
		logging.L().Errorf("❌ RenderCatalog: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to render catalog", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		logging.L().Errorf("❌ RenderCatalog: Error writing response: %v", err)
	}
}

// CatalogPDF handles GET /admin/catalog/pdf
func (c *AdminController) CatalogPDF(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 CatalogPDF: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "CatalogPDF")
		return
	}

	pdf, err := c.catalog.GeneratePDF(r.Context())
	if err != nil {
		logging.L().Errorf("❌ CatalogPDF: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate PDF", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="tarifs.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		logging.L().Errorf("❌ CatalogPDF: Error writing response: %v", err)
	}
}
