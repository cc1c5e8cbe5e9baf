package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"amicale-intake-backend/internal/domain"
)

var defaultAllowedExtensions = []string{"pdf", "png", "jpg", "jpeg"}

// Upload is one file from the intake form
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// SubmissionForm holds the raw text fields of the intake form
type SubmissionForm struct {
	LastName  string
	FirstName string
	Address   string
	Phone     string
	Email     string
	Region    string
}

// Submission is a validated form ready for creation
type Submission struct {
	LastName  string
	FirstName string
	Address   string
	Phone     string
	Email     string
	Region    string
	Uploads   map[domain.DocumentSlot]Upload
}

// Validator checks intake submissions. It has no side effects.
type Validator struct {
	defaultRegion string
	allowed       map[string]struct{}
}

func NewValidator(defaultRegion string, allowedExtensions []string) *Validator {
	if len(allowedExtensions) == 0 {
		allowedExtensions = defaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Validator{defaultRegion: defaultRegion, allowed: allowed}
}

// ValidateSubmission normalizes the form and returns the first rejected condition
// as a *domain.ValidationError. Text fields are checked before documents.
func (v *Validator) ValidateSubmission(form SubmissionForm, uploads map[domain.DocumentSlot]Upload) (*Submission, error) {
	sub := &Submission{
		LastName:  strings.TrimSpace(form.LastName),
		FirstName: strings.TrimSpace(form.FirstName),
		Address:   strings.TrimSpace(form.Address),
		Phone:     strings.TrimSpace(form.Phone),
		Email:     strings.ToLower(strings.TrimSpace(form.Email)),
		Region:    strings.TrimSpace(form.Region),
	}

	required := []struct {
		field string
		value string
	}{
		{"nom", sub.LastName},
		{"prenom", sub.FirstName},
		{"adresse", sub.Address},
		{"telephone", sub.Phone},
		{"email", sub.Email},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, &domain.ValidationError{Field: r.field, Reason: "Tous les champs sont obligatoires"}
		}
	}

	if !ValidEmail(sub.Email) {
		return nil, &domain.ValidationError{Field: "email", Reason: "Format d'email invalide"}
	}
	if !validPhone(sub.Phone) {
		return nil, &domain.ValidationError{Field: "telephone", Reason: "Numéro de téléphone invalide"}
	}
	if sub.Region == "" {
		sub.Region = v.defaultRegion
	}

	sub.Uploads = make(map[domain.DocumentSlot]Upload, len(domain.DocumentSlots))
	for _, slot := range domain.DocumentSlots {
		up, ok := uploads[slot]
		if !ok || strings.TrimSpace(up.Filename) == "" || up.Content == nil {
			return nil, &domain.ValidationError{
				Field:  string(slot),
				Reason: fmt.Sprintf("Le fichier %s est requis", slot.Label()),
			}
		}
		if !v.allowedFile(up.Filename) {
			return nil, &domain.ValidationError{
				Field:  string(slot),
				Reason: fmt.Sprintf("Le fichier %s doit être au format PDF, PNG ou JPG", slot.Label()),
			}
		}
		sub.Uploads[slot] = up
	}

	return sub, nil
}

func (v *Validator) allowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	_, ok := v.allowed[ext]
	return ok
}

// ValidEmail is the loose address check used for applicants and bulk recipients
func ValidEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// validPhone accepts digits and spaces with an optional leading '+'
func validPhone(phone string) bool {
	if strings.Contains(phone[1:], "+") {
		return false
	}
	digits := strings.NewReplacer(" ", "", "+", "").Replace(phone)
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
