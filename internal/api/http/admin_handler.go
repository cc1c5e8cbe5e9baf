package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/notification"
	"amicale-intake-backend/internal/service"
	"amicale-intake-backend/internal/storage"

	"github.com/gorilla/mux"
)

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// AdminOptions carries the settings the admin console reports or needs
type AdminOptions struct {
	CookieSecure       bool
	UploadDir          string
	SendGridConfigured bool
	Sender             string
}

// AdminHandler serves the authenticated admin API
type AdminHandler struct {
	membership service.MembershipService
	bulk       service.BulkMessagingService
	auth       service.AuthService
	docs       storage.DocumentStore
	dispatcher notification.Dispatcher
	db         Pinger
	opts       AdminOptions
}

func NewAdminHandler(
	membership service.MembershipService,
	bulk service.BulkMessagingService,
	auth service.AuthService,
	docs storage.DocumentStore,
	dispatcher notification.Dispatcher,
	db Pinger,
	opts AdminOptions,
) *AdminHandler {
	return &AdminHandler{
		membership: membership,
		bulk:       bulk,
		auth:       auth,
		docs:       docs,
		dispatcher: dispatcher,
		db:         db,
		opts:       opts,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Données JSON requises")
		return
	}

	token, expiresAt, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Identifiants incorrects")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}

// Logout handles POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Vous avez été déconnecté"})
}

// ListRequests handles GET /api/v1/admin/requests[?status=]
func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	var (
		reqs []domain.MembershipRequest
		err  error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, perr := domain.ParseRequestStatus(raw)
		if perr != nil {
			writeServiceError(w, r, perr)
			return
		}
		reqs, err = h.membership.ListByStatus(r.Context(), status)
	} else {
		reqs, err = h.membership.List(r.Context())
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []domain.MembershipRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

// GetRequest handles GET /api/v1/admin/requests/{id}
func (h *AdminHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, err := h.membership.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type statusResponse struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Request *domain.MembershipRequest `json:"request"`
}

// UpdateStatus handles POST /api/v1/admin/requests/{id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body statusRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Données JSON requises")
		return
	}
	status, err := domain.ParseRequestStatus(body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	req, err := h.membership.SetStatus(r.Context(), id, status, strings.TrimSpace(body.Notes))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	admin, _ := AdminFromContext(r.Context())
	logger.Info("Request status updated", "id", id, "status", status, "admin", admin)
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Statut mis à jour", Request: req})
}

// GetDocument handles GET /api/v1/admin/requests/{id}/documents/{slot}
func (h *AdminHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	slot := domain.DocumentSlot(mux.Vars(r)["slot"])
	if !slot.Valid() {
		writeError(w, http.StatusNotFound, "Document non trouvé")
		return
	}

	req, err := h.membership.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	name := req.Documents[slot]
	if name == "" {
		writeError(w, http.StatusNotFound, "Document non trouvé")
		return
	}

	exists, size, err := h.docs.Exists(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !exists {
		logger.Warn("Stored document missing from upload directory", "id", id, "slot", slot, "file", name)
		writeError(w, http.StatusNotFound, "Document non trouvé")
		return
	}

	file, err := h.docs.Open(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("Failed to stream document", "file", name, "error", err)
	}
}

type bulkEmailRequest struct {
	RecipientType string   `json:"recipient_type"`
	Subject       string   `json:"subject"`
	Message       string   `json:"message"`
	CustomEmails  []string `json:"custom_emails"`
	SelectedIDs   []int64  `json:"selected_ids"`
}

type bulkEmailResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	SentCount  int    `json:"sent_count"`
	TotalCount int    `json:"total_count"`
}

// SendBulkEmail handles POST /api/v1/admin/emails
func (h *AdminHandler) SendBulkEmail(w http.ResponseWriter, r *http.Request) {
	var body bulkEmailRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Données JSON requises")
		return
	}

	result, err := h.bulk.Send(r.Context(), service.BulkRequest{
		Selector:     service.RecipientSelector(body.RecipientType),
		Subject:      body.Subject,
		Message:      body.Message,
		CustomEmails: body.CustomEmails,
		SelectedIDs:  body.SelectedIDs,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkEmailResponse{
		Success:    true,
		Message:    fmt.Sprintf("Envoi lancé pour %d email(s).", result.SentCount),
		SentCount:  result.SentCount,
		TotalCount: result.TotalCount,
	})
}

type testEmailRequest struct {
	Email string `json:"email"`
}

// SendTestEmail handles POST /api/v1/admin/test-email. The probe goes straight to the
// provider so the admin sees the real outcome.
func (h *AdminHandler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	var body testEmailRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Données JSON requises")
		return
	}
	email := strings.TrimSpace(body.Email)
	if email == "" {
		email = h.opts.Sender
	}
	if !service.ValidEmail(email) {
		writeError(w, http.StatusBadRequest, "Format d'email invalide")
		return
	}

	if err := h.dispatcher.Send(r.Context(), service.TestMessage(email)); err != nil {
		logger.Warn("Test email failed", "recipient", email, "error", err)
		var nerr *domain.NotificationError
		if errors.As(err, &nerr) && nerr.StatusCode != 0 {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Échec de l'envoi (code %d)", nerr.StatusCode))
			return
		}
		writeError(w, http.StatusBadGateway, "Échec de l'envoi")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": fmt.Sprintf("Email de test envoyé à %s", email)})
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.membership.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type studentSummary struct {
	ID        int64                `json:"id"`
	LastName  string               `json:"nom"`
	FirstName string               `json:"prenom"`
	Email     string               `json:"email"`
	Status    domain.RequestStatus `json:"status"`
}

// ListStudents handles GET /api/v1/admin/students, the recipient picker for bulk mail
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.membership.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]studentSummary, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, studentSummary{
			ID:        req.ID,
			LastName:  req.LastName,
			FirstName: req.FirstName,
			Email:     req.Email,
			Status:    req.Status,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type debugResponse struct {
	Database           string `json:"database"`
	UploadDir          string `json:"upload_dir"`
	UploadDirExists    bool   `json:"upload_dir_exists"`
	SendGridConfigured bool   `json:"sendgrid_configured"`
	Sender             string `json:"sender"`
	Admin              string `json:"admin"`
}

// Debug handles GET /api/v1/admin/debug
func (h *AdminHandler) Debug(w http.ResponseWriter, r *http.Request) {
	resp := debugResponse{
		Database:           "ok",
		UploadDir:          h.opts.UploadDir,
		SendGridConfigured: h.opts.SendGridConfigured,
		Sender:             h.opts.Sender,
	}
	resp.Admin, _ = AdminFromContext(r.Context())

	if err := h.db.Ping(r.Context()); err != nil {
		resp.Database = "error: " + err.Error()
	}
	if info, err := os.Stat(h.opts.UploadDir); err == nil && info.IsDir() {
		resp.UploadDirExists = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Demande non trouvée")
		return 0, false
	}
	return id, true
}
