package service

import (
	"fmt"
	"strings"

	"amicale-intake-backend/internal/domain"
)

const signature = `Cordialement,
La Commission Sociale REED
Amicale des Étudiants
`

// ConfirmationMessage acknowledges a newly committed request
func ConfirmationMessage(req *domain.MembershipRequest) domain.Message {
	body := fmt.Sprintf(`Cher(e) %s,

Nous accusons réception de votre demande d'adhésion à l'Amicale des Étudiants (N°%d).

Votre dossier est en cours de traitement et vous serez notifié(e) par email dès qu'une décision sera prise.

Nous vous remercions pour votre confiance.

`, req.FullName(), req.ID) + signature

	return domain.Message{
		Recipient: req.Email,
		Subject:   "Confirmation de réception de votre demande",
		Body:      body,
	}
}

// StatusMessage tells the applicant about a status change. Notes are appended when present.
func StatusMessage(req *domain.MembershipRequest, notes string) domain.Message {
	var subject string
	var b strings.Builder

	fmt.Fprintf(&b, "Cher(e) %s,\n\n", req.FullName())
	switch req.Status {
	case domain.RequestStatusApproved:
		subject = "Félicitations ! Votre demande d'adhésion a été acceptée"
		fmt.Fprintf(&b, "Nous avons le plaisir de vous informer que votre demande d'adhésion à l'Amicale des Étudiants (ID: %d) a été approuvée.\n\nBienvenue dans notre communauté !\n\n", req.ID)
	case domain.RequestStatusRejected:
		subject = "Décision concernant votre demande d'adhésion"
		fmt.Fprintf(&b, "Après examen de votre demande d'adhésion (ID: %d), nous regrettons de vous informer qu'elle n'a pas pu être acceptée pour le moment.\n\n", req.ID)
	default:
		subject = "Mise à jour sur votre demande d'adhésion"
		fmt.Fprintf(&b, "Votre demande d'adhésion (ID: %d) est actuellement en cours de traitement par notre équipe.\n\nNous vous contacterons dès que nous aurons une décision.\n\n", req.ID)
	}

	if notes != "" {
		fmt.Fprintf(&b, "\nNote: %s\n", notes)
	}
	b.WriteString("\nMerci pour votre compréhension.\n\n")
	b.WriteString(signature)

	return domain.Message{
		Recipient: req.Email,
		Subject:   subject,
		Body:      b.String(),
	}
}

// TestMessage is the fixed probe sent from the admin console
func TestMessage(recipient string) domain.Message {
	return domain.Message{
		Recipient: recipient,
		Subject:   "Test SendGrid",
		Body:      "Test réussi si vous recevez ce message.",
	}
}
