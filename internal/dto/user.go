package dto

import (
	"github.com/noah-isme/club-portal/internal/models"
)

// FormMode tells whether a form modal creates or edits a record.
type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

// UserForm carries the fields of the user modal.
type UserForm struct {
	FirstName  string `json:"nombre" validate:"required"`
	LastName   string `json:"apellido" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	NationalID string `json:"cedula"`
	Phone      string `json:"telefono"`
	RoleID     *int   `json:"id_rol,omitempty" validate:"omitempty,gt=0"`
	Password   string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// UserStatusChange targets a user of the screen with a new status.
type UserStatusChange struct {
	UserID int               `json:"id_usuario" binding:"required"`
	Status models.UserStatus `json:"status" binding:"required"`
}

// UserRow is a loaded user with its display strings.
type UserRow struct {
	models.User
	DisplayName string `json:"full_name"`
	RoleLabel   string `json:"role_label"`
	StatusLabel string `json:"status_label"`
}

// UserFormView is the open user modal. The password is never echoed.
type UserFormView struct {
	Mode       FormMode `json:"mode"`
	UserID     int      `json:"id_usuario,omitempty"`
	Values     UserForm `json:"values"`
	Submitting bool     `json:"submitting"`
	Error      string   `json:"error,omitempty"`
}

// StatusOption is one entry of the status filter and detail picker.
type StatusOption struct {
	Value models.UserStatus `json:"value"`
	Label string            `json:"label"`
}

// DeleteDialog is the open delete confirmation.
type DeleteDialog struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Deleting bool   `json:"deleting"`
}

// UsersView is what the users screen renders.
type UsersView struct {
	Items          []UserRow        `json:"items"`
	Query          models.ListQuery `json:"query"`
	Total          int              `json:"total"`
	LastPage       int              `json:"last_page"`
	PerPageOptions []int            `json:"per_page_options"`
	Loading        bool             `json:"loading"`
	Error          string           `json:"error,omitempty"`
	Roles          []models.Role    `json:"roles"`
	Statuses       []StatusOption   `json:"statuses"`
	Form           *UserFormView    `json:"form,omitempty"`
	Detail         *UserRow         `json:"detail,omitempty"`
	Delete         *DeleteDialog    `json:"delete,omitempty"`
	Success        string           `json:"success,omitempty"`
	ChangingStatus bool             `json:"changing_status"`
}
