package domain

import (
	"fmt"
	"strings"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// RequestStatuses lists every status a membership request can hold
var RequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusApproved, RequestStatusRejected}

// Valid reports whether s is one of the three known statuses
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// ParseRequestStatus converts raw input into a RequestStatus
func ParseRequestStatus(raw string) (RequestStatus, error) {
	s := RequestStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// DocumentSlot names one of the five attachments a request must carry
type DocumentSlot string

const (
	SlotEnrollmentCertificate DocumentSlot = "certificat_inscription"
	SlotResidenceCertificate  DocumentSlot = "certificat_residence"
	SlotHandwrittenRequest    DocumentSlot = "demande_manuscrite"
	SlotMemberCard            DocumentSlot = "carte_membre_reed"
	SlotIDCardCopy            DocumentSlot = "copie_cni"
)

// DocumentSlots is the fixed, ordered set of required attachments
var DocumentSlots = []DocumentSlot{
	SlotEnrollmentCertificate,
	SlotResidenceCertificate,
	SlotHandwrittenRequest,
	SlotMemberCard,
	SlotIDCardCopy,
}

// Valid reports whether s is a known slot
func (s DocumentSlot) Valid() bool {
	for _, slot := range DocumentSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Label is the human readable slot name used in applicant-facing messages
func (s DocumentSlot) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Documents maps each slot to the stored file name
type Documents map[DocumentSlot]string

// Complete reports whether every slot holds a stored file
func (d Documents) Complete() bool {
	for _, slot := range DocumentSlots {
		if d[slot] == "" {
			return false
		}
	}
	return true
}

// MembershipRequest is an applicant's request to join the association
type MembershipRequest struct {
	ID          int64         `json:"id"`
	LastName    string        `json:"nom"`
	FirstName   string        `json:"prenom"`
	Address     string        `json:"adresse"`
	Phone       string        `json:"telephone"`
	Email       string        `json:"email"`
	Region      string        `json:"region_universitaire"`
	Documents   Documents     `json:"documents"`
	Status      RequestStatus `json:"status"`
	SubmittedAt time.Time     `json:"date_submitted"`
	ProcessedAt *time.Time    `json:"date_processed,omitempty"`
	AdminNotes  string        `json:"admin_notes,omitempty"`
}

// FullName returns "prenom nom"
func (r *MembershipRequest) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// RequestStats holds dashboard counters
type RequestStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
