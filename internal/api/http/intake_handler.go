package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/metrics"
	"amicale-intake-backend/internal/service"
)

const multipartMemory = 8 << 20

// IntakeHandler serves the public submission form
type IntakeHandler struct {
	validator      *service.Validator
	membership     service.MembershipService
	maxUploadBytes int64
}

func NewIntakeHandler(validator *service.Validator, membership service.MembershipService, maxUploadBytes int64) *IntakeHandler {
	return &IntakeHandler{
		validator:      validator,
		membership:     membership,
		maxUploadBytes: maxUploadBytes,
	}
}

type submitResponse struct {
	ID      int64                `json:"id"`
	Status  domain.RequestStatus `json:"status"`
	Message string               `json:"message"`
}

// Submit handles POST /api/v1/requests
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			metrics.RequestsRejectedAtIntake.WithLabelValues("too_large").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "La taille totale des fichiers dépasse la limite autorisée")
			return
		}
		writeError(w, http.StatusBadRequest, "Formulaire invalide")
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := service.SubmissionForm{
		LastName:  r.FormValue("nom"),
		FirstName: r.FormValue("prenom"),
		Address:   r.FormValue("adresse"),
		Phone:     r.FormValue("telephone"),
		Email:     r.FormValue("email"),
		Region:    r.FormValue("region_universitaire"),
	}

	uploads := make(map[domain.DocumentSlot]service.Upload, len(domain.DocumentSlots))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, slot := range domain.DocumentSlots {
		file, header, err := r.FormFile(string(slot))
		if err != nil {
			continue
		}
		opened = append(opened, file)
		uploads[slot] = service.Upload{Filename: header.Filename, Size: header.Size, Content: file}
	}

	sub, err := h.validator.ValidateSubmission(form, uploads)
	if err != nil {
		metrics.RequestsRejectedAtIntake.WithLabelValues("validation").Inc()
		writeServiceError(w, r, err)
		return
	}

	req, err := h.membership.Create(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.Info("Membership request submitted", "id", req.ID, "region", req.Region)
	writeJSON(w, http.StatusCreated, submitResponse{
		ID:      req.ID,
		Status:  req.Status,
		Message: "Votre demande a été soumise avec succès!",
	})
}
