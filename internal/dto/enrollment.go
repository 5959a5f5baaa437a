package dto

import (
	"time"

	"github.com/noah-isme/club-portal/internal/models"
)

// EnrollmentDeepLink pre-selects a course and optionally a group at mount.
type EnrollmentDeepLink struct {
	CourseID int `form:"curso"`
	GroupID  int `form:"grupo"`
}

// SelectRequest carries the id picked in a wizard list.
type SelectRequest struct {
	ID int `json:"id" binding:"required"`
}

// PaymentRequest updates the payment step fields.
type PaymentRequest struct {
	Method    models.PaymentMethod `json:"method"`
	Reference string               `json:"reference"`
	Notes     string               `json:"notes"`
}

// StepIndicator is one entry of the progress bar.
type StepIndicator struct {
	Step   string `json:"step"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
	Done   bool   `json:"done"`
}

// ParticipantOption is a selectable participant.
type ParticipantOption struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Selected bool   `json:"selected"`
}

// CourseOption is a selectable open course with display strings.
type CourseOption struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Price     string `json:"price"`
	Selected  bool   `json:"selected"`
}

// GroupOption is a course group. Full groups are listed with Selectable false.
type GroupOption struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Schedule   string `json:"schedule"`
	Days       string `json:"days"`
	Capacity   int    `json:"capacity"`
	Occupancy  int    `json:"occupancy"`
	Remaining  int    `json:"remaining"`
	Label      string `json:"availability"`
	Selectable bool   `json:"selectable"`
	Selected   bool   `json:"selected"`
}

// PaymentOption is one entry of the payment method picker.
type PaymentOption struct {
	Value    models.PaymentMethod `json:"value"`
	Label    string               `json:"label"`
	Selected bool                 `json:"selected"`
}

// ReceiptLink points at the downloadable receipt of a submitted enrollment.
type ReceiptLink struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WizardView is what the enrollment wizard renders.
type WizardView struct {
	Step           string                    `json:"step"`
	Steps          []StepIndicator           `json:"steps"`
	Loading        bool                      `json:"loading"`
	LoadingGroups  bool                      `json:"loading_groups"`
	Submitting     bool                      `json:"submitting"`
	Participants   []ParticipantOption       `json:"participants"`
	Courses        []CourseOption            `json:"courses"`
	Groups         []GroupOption             `json:"groups"`
	PaymentMethods []PaymentOption           `json:"payment_methods"`
	Reference      string                    `json:"reference,omitempty"`
	Notes          string                    `json:"notes,omitempty"`
	CanContinue    bool                      `json:"can_continue"`
	Summary        *models.EnrollmentSummary `json:"summary,omitempty"`
	Success        string                    `json:"success,omitempty"`
	Error          string                    `json:"error,omitempty"`
	Receipt        *ReceiptLink              `json:"receipt,omitempty"`
}
