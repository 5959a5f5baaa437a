package dto

import "github.com/noah-isme/club-portal/internal/models"

// RoleForm carries the fields of the role modal.
type RoleForm struct {
	Name        string `json:"nombre" validate:"required"`
	Description string `json:"descripcion"`
}

// RoleFormView is the open role modal.
type RoleFormView struct {
	Mode       FormMode `json:"mode"`
	RoleID     int      `json:"id_rol,omitempty"`
	Values     RoleForm `json:"values"`
	Submitting bool     `json:"submitting"`
	Error      string   `json:"error,omitempty"`
}

// RolesView is what the roles screen renders.
type RolesView struct {
	Items   []models.Role `json:"items"`
	Count   int           `json:"count"`
	Loading bool          `json:"loading"`
	Error   string        `json:"error,omitempty"`
	Form    *RoleFormView `json:"form,omitempty"`
	Delete  *DeleteDialog `json:"delete,omitempty"`
	Success string        `json:"success,omitempty"`
}
