package models

import "time"

// PaymentMethod enumerates how a guardian pays for an enrollment.
type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentCash     PaymentMethod = "efectivo"
	PaymentCard     PaymentMethod = "tarjeta"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{PaymentTransfer, PaymentCash, PaymentCard}

// Valid reports whether m is one of the accepted methods.
func (m PaymentMethod) Valid() bool {
	for _, candidate := range PaymentMethods {
		if m == candidate {
			return true
		}
	}
	return false
}

// EnrollmentRequest is the payload sent to create an enrollment. Payment
// details stay on the receipt; the club API only records the invoice flag.
type EnrollmentRequest struct {
	CourseID        int    `json:"id_curso" validate:"required,gt=0"`
	GroupID         int    `json:"id_grupo" validate:"required,gt=0"`
	ParticipantID   int    `json:"id_deportista" validate:"required,gt=0"`
	GenerateInvoice bool   `json:"generar_factura"`
	Notes           string `json:"observaciones,omitempty"`
}

// Enrollment is the record returned by the club API after creation.
type Enrollment struct {
	ID            int    `json:"id_inscripcion"`
	CourseID      int    `json:"id_curso,omitempty"`
	GroupID       int    `json:"id_grupo,omitempty"`
	ParticipantID int    `json:"id_deportista,omitempty"`
	Status        string `json:"estado,omitempty"`
}

// EnrollmentSummary is the human readable recap of a draft enrollment.
type EnrollmentSummary struct {
	Participant string `json:"participant"`
	Course      string `json:"course"`
	Group       string `json:"group"`
	Schedule    string `json:"schedule,omitempty"`
	Days        string `json:"days,omitempty"`
	Price       string `json:"price"`
}

// Receipt is kept after a successful enrollment so the guardian can download
// proof of submission.
type Receipt struct {
	ID               string            `json:"id"`
	OwnerID          string            `json:"owner_id"`
	EnrollmentID     int               `json:"enrollment_id,omitempty"`
	Summary          EnrollmentSummary `json:"summary"`
	PaymentMethod    PaymentMethod     `json:"payment_method"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}
