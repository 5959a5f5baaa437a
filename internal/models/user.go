package models

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "activo"
	UserStatusInactive  UserStatus = "inactivo"
	UserStatusSuspended UserStatus = "suspendido"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

// User represents a portal account managed by administrators.
type User struct {
	ID         int        `json:"id_usuario"`
	FirstName  string     `json:"nombre"`
	LastName   string     `json:"apellido"`
	Email      string     `json:"email"`
	NationalID string     `json:"cedula,omitempty"`
	Phone      string     `json:"telefono,omitempty"`
	RoleID     *int       `json:"id_rol,omitempty"`
	Role       *Role      `json:"rol,omitempty"`
	Status     UserStatus `json:"status"`
	CreatedAt  string     `json:"created_at,omitempty"`
	UpdatedAt  string     `json:"updated_at,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// RoleName returns the role label or an empty string.
func (u User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// UserPayload is sent on create and update. Password and role are omitted when
// empty so that an update leaves them unchanged.
type UserPayload struct {
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	Email      string `json:"email"`
	NationalID string `json:"cedula"`
	Phone      string `json:"telefono"`
	RoleID     *int   `json:"id_rol,omitempty"`
	Password   string `json:"password,omitempty"`
}

// UserStatusRequest changes only the status of a user.
type UserStatusRequest struct {
	Status UserStatus `json:"status"`
}

// Role represents a permission profile.
type Role struct {
	ID          int    `json:"id_rol"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

// RolePayload is sent on role create and update.
type RolePayload struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}
