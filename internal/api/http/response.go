package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/service"
	"amicale-intake-backend/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses. Unexpected errors are
// logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Demande non trouvée")
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Statut invalide")
	case errors.Is(err, domain.ErrNoRecipients):
		writeError(w, http.StatusBadRequest, "Aucun destinataire valide trouvé")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Non autorisé")
	case errors.Is(err, storage.ErrDisallowedType):
		writeError(w, http.StatusBadRequest, "Type de fichier non autorisé")
	case errors.Is(err, storage.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Fichier trop volumineux")
	default:
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Une erreur est survenue. Veuillez réessayer.")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
