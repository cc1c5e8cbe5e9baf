package http

import (
	"net/http"

	"amicale-intake-backend/internal/config"
	"amicale-intake-backend/internal/metrics"
	"amicale-intake-backend/internal/service"

	"github.com/gorilla/mux"
)

// HealthHandler answers liveness probes
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter registers every route by name; the auth middleware looks the name up
// in config.EndpointSecurityConfig.
func NewRouter(
	intake *IntakeHandler,
	admin *AdminHandler,
	health *HealthHandler,
	auth service.AuthService,
	rateLimit config.RateLimitConfig,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)
	router.Use(NewAuthMiddleware(auth).Handler)

	intakeLimit, loginLimit := rateLimiters(rateLimit)

	router.HandleFunc("/healthz", health.Health).Methods(http.MethodGet).Name(config.RouteHealth)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name(config.RouteMetrics)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Handle("/requests", intakeLimit(http.HandlerFunc(intake.Submit))).
		Methods(http.MethodPost).Name(config.RouteSubmitRequest)

	adm := api.PathPrefix("/admin").Subrouter()
	adm.Handle("/login", loginLimit(http.HandlerFunc(admin.Login))).
		Methods(http.MethodPost).Name(config.RouteAdminLogin)
	adm.HandleFunc("/logout", admin.Logout).Methods(http.MethodPost).Name(config.RouteAdminLogout)
	adm.HandleFunc("/requests", admin.ListRequests).Methods(http.MethodGet).Name(config.RouteListRequests)
	adm.HandleFunc("/requests/{id:[0-9]+}", admin.GetRequest).Methods(http.MethodGet).Name(config.RouteGetRequest)
	adm.HandleFunc("/requests/{id:[0-9]+}/status", admin.UpdateStatus).Methods(http.MethodPost).Name(config.RouteUpdateStatus)
	adm.HandleFunc("/requests/{id:[0-9]+}/documents/{slot}", admin.GetDocument).Methods(http.MethodGet).Name(config.RouteGetDocument)
	adm.HandleFunc("/emails", admin.SendBulkEmail).Methods(http.MethodPost).Name(config.RouteSendBulkEmail)
	adm.HandleFunc("/test-email", admin.SendTestEmail).Methods(http.MethodPost).Name(config.RouteSendTestEmail)
	adm.HandleFunc("/stats", admin.Stats).Methods(http.MethodGet).Name(config.RouteStats)
	adm.HandleFunc("/students", admin.ListStudents).Methods(http.MethodGet).Name(config.RouteListStudents)
	adm.HandleFunc("/debug", admin.Debug).Methods(http.MethodGet).Name(config.RouteDebug)

	return router
}
